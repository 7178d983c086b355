package shared

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortFold sorts items by the given keys in order, ignoring case and accents.
// Ties on every key keep their original order.
func SortFold[T any](items []T, keys ...func(T) string) {
	c := collate.New(language.BrazilianPortuguese, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(items, func(i, j int) bool {
		for _, key := range keys {
			if cmp := c.CompareString(key(items[i]), key(items[j])); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
}
