package ranking

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/mediaid/mediaid-api/internal/model"
)

// ErrInvalidCriteria is returned when a Criteria value names an unknown
// sort key or category.  It indicates a caller bug.
var ErrInvalidCriteria = errors.New("invalid criteria")

// SortKey selects the single ordering applied by Rank.
type SortKey string

const (
	SortByDistance SortKey = "distance"
	SortByName     SortKey = "name"
)

// Criteria filters and orders candidates.  The zero value is not valid;
// use DefaultCriteria or set Category and SortKey explicitly.
type Criteria struct {
	// SearchText keeps records whose name or address contains it,
	// ignoring case.  Empty keeps everything.
	SearchText string
	// Category keeps records of exactly that category, or all records
	// when set to model.CategoryAll.
	Category model.Category
	// OpenNowOnly drops records that are not open.
	OpenNowOnly bool
	SortKey     SortKey
	// Locale drives name collation.  language.Und selects the root
	// collation order.
	Locale language.Tag
}

// DefaultCriteria matches every record and sorts by distance.
func DefaultCriteria() Criteria {
	return Criteria{Category: model.CategoryAll, SortKey: SortByDistance}
}

// Validate checks the enumerated fields.
func (c Criteria) Validate() error {
	switch c.SortKey {
	case SortByDistance, SortByName:
	default:
		return fmt.Errorf("%w: unknown sort key %q", ErrInvalidCriteria, string(c.SortKey))
	}
	if c.Category != model.CategoryAll && !c.Category.Known() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidCriteria, string(c.Category))
	}
	return nil
}

// ParseSortKey maps user input to a SortKey.  Empty input selects
// SortByDistance.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByDistance, nil
	case SortByDistance, SortByName:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown sort key %q", ErrInvalidCriteria, s)
}

// ParseCategory maps user input to a filter category.  Empty input
// selects model.CategoryAll.
func ParseCategory(s string) (model.Category, error) {
	c := model.Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" || c == model.CategoryAll {
		return model.CategoryAll, nil
	}
	if !c.Known() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidCriteria, s)
	}
	return c, nil
}
