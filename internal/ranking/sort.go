package ranking

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort orders in place by key.  Both orderings are stable.
func Sort(in []Ranked, key SortKey, locale language.Tag) {
	switch key {
	case SortByName:
		// Collators keep internal buffers, so each call gets its own.
		col := collate.New(locale)
		sort.SliceStable(in, func(i, j int) bool {
			return compareNames(col, in[i].Service.Name, in[j].Service.Name) < 0
		})
	default:
		sort.SliceStable(in, func(i, j int) bool {
			return in[i].Distance.Less(in[j].Distance)
		})
	}
}

// compareNames uses the collation order and falls back to byte order for
// strings the collator considers equal, so distinct names never tie.
func compareNames(col *collate.Collator, a, b string) int {
	if r := col.CompareString(a, b); r != 0 {
		return r
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
