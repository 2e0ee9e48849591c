package post

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects an ordering for Sort.
type SortKey string

const (
	DateDesc  SortKey = "date-desc"
	DateAsc   SortKey = "date-asc"
	TitleAsc  SortKey = "title-asc"
	TitleDesc SortKey = "title-desc"
)

// SortKeys lists the known keys in the order the UI offers them.
var SortKeys = []SortKey{DateDesc, DateAsc, TitleAsc, TitleDesc}

// ParseSortKey maps a user-supplied value to a SortKey. Unknown or blank
// values yield fallback.
func ParseSortKey(s string, fallback SortKey) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k
	}
	return fallback
}

// Sort returns a new slice ordered by key. The sort is stable, so posts that
// compare equal keep their input order. An unknown key returns a copy in
// input order.
func Sort(posts []Post, key SortKey) []Post {
	sorted := slices.Clone(posts)
	if sorted == nil {
		sorted = []Post{}
	}
	switch key {
	case DateDesc:
		slices.SortStableFunc(sorted, func(a, b Post) int {
			return b.Time().Compare(a.Time())
		})
	case DateAsc:
		slices.SortStableFunc(sorted, func(a, b Post) int {
			return a.Time().Compare(b.Time())
		})
	case TitleAsc:
		c := newTitleCollator()
		slices.SortStableFunc(sorted, func(a, b Post) int {
			return c.CompareString(a.Title, b.Title)
		})
	case TitleDesc:
		c := newTitleCollator()
		slices.SortStableFunc(sorted, func(a, b Post) int {
			return c.CompareString(b.Title, a.Title)
		})
	}
	return sorted
}

// A collator carries internal buffers, so each Sort call builds its own.
func newTitleCollator() *collate.Collator {
	return collate.New(language.English)
}
