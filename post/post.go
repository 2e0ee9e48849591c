// Package post is the query surface over a snapshot of blog documents:
// it normalizes loosely typed records into Posts and filters, sorts,
// aggregates and paginates them in memory.
//
// Every function in this package is pure and total. Callers fetch the
// records first and pass the snapshot in.
package post

import (
	"errors"
	"time"

	"github.com/spf13/cast"
)

// ErrNotFound is returned when a lookup by slug matches no post.
var ErrNotFound = errors.New("post not found")

// Record is a raw document as handed over by the content store.
type Record = map[string]any

// Defaults applied by Normalize when a field is absent or unusable.
const (
	DefaultTitle       = "Untitled Post"
	DefaultDescription = "No description available"
	DefaultDate        = "2024-01-01"
	DefaultAuthor      = "Unknown Author"
	DefaultCategory    = "uncategorized"
	DefaultSlug        = "untitled"
)

// Post is a normalized blog article.
type Post struct {
	ID          string   `json:"id"`
	Path        string   `json:"_path"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Author      string   `json:"author"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Draft       bool     `json:"draft"`
	Image       string   `json:"image,omitempty"`
	Body        any      `json:"body"`
}

var defaultTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Time returns the chronological value of Date. A Date that does not parse
// yields the default date, so the result is always usable for ordering.
func (p Post) Time() time.Time {
	if t, ok := parseDate(p.Date); ok {
		return t
	}
	return defaultTime
}

// HasTag reports whether tag is one of the post's tags (exact match).
func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func parseDate(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	t, err := cast.ToTimeE(v)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// formatDate keeps the short form only for UTC midnight. Anything else
// keeps its offset so Time reads back the same instant.
func formatDate(t time.Time) string {
	_, offset := t.Zone()
	if offset == 0 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
