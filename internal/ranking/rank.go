package ranking

import "github.com/mediaid/mediaid-api/internal/model"

// Ranked is a candidate annotated with its distance from the origin.
type Ranked struct {
	Service  model.Service
	Distance Distance
}

// Rank annotates, filters and sorts candidates for origin.  A nil origin
// leaves every distance Unknown.  The result is a new slice; candidates
// is not modified.  An empty candidate list yields an empty, non-nil
// result.
func Rank(candidates []model.Service, origin *model.Point, c Criteria) ([]Ranked, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	annotated := make([]Ranked, len(candidates))
	for i, s := range candidates {
		annotated[i] = Ranked{Service: s, Distance: DistanceBetween(origin, s.Position)}
	}
	out := Filter(annotated, c)
	Sort(out, c.SortKey, c.Locale)
	return out, nil
}
