package ranking

import (
	"strings"

	"github.com/mediaid/mediaid-api/internal/model"
)

// Filter returns the entries matching every condition in c, in input
// order.  Sort key and locale are ignored.
func Filter(in []Ranked, c Criteria) []Ranked {
	needle := strings.ToLower(c.SearchText)
	out := make([]Ranked, 0, len(in))
	for _, r := range in {
		if !matches(r.Service, needle, c) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(s model.Service, needle string, c Criteria) bool {
	if needle != "" &&
		!strings.Contains(strings.ToLower(s.Name), needle) &&
		!strings.Contains(strings.ToLower(s.Address), needle) {
		return false
	}
	if c.Category != model.CategoryAll && s.Category != c.Category {
		return false
	}
	if c.OpenNowOnly && !s.IsOpen {
		return false
	}
	return true
}
