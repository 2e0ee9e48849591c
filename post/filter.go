package post

import "strings"

// Predicate reports whether a post should be kept.
type Predicate func(Post) bool

// MatchesSearch does a case-insensitive substring match of query against the
// title, description, tags and author. A blank query matches everything;
// any other query is matched as typed, surrounding spaces included.
func MatchesSearch(p Post, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Author), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// MatchesCategory compares the category exactly, case included.
func MatchesCategory(p Post, category string) bool {
	return p.Category == category
}

// MatchesTag reports exact membership of tag in the post's tags.
func MatchesTag(p Post, tag string) bool {
	return p.HasTag(tag)
}

// Search returns a Predicate for MatchesSearch.
func Search(query string) Predicate {
	return func(p Post) bool { return MatchesSearch(p, query) }
}

// InCategory returns a Predicate for MatchesCategory.
func InCategory(category string) Predicate {
	return func(p Post) bool { return MatchesCategory(p, category) }
}

// Tagged returns a Predicate for MatchesTag.
func Tagged(tag string) Predicate {
	return func(p Post) bool { return MatchesTag(p, tag) }
}

// Published keeps posts that are not drafts.
func Published(p Post) bool {
	return !p.Draft
}

// Filter keeps the posts accepted by every predicate. Nil predicates are
// ignored. The result is never nil and never aliases posts.
func Filter(posts []Post, preds ...Predicate) []Post {
	out := make([]Post, 0, len(posts))
next:
	for _, p := range posts {
		for _, pred := range preds {
			if pred != nil && !pred(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

// FilterBySearch is Filter with a single Search predicate.
func FilterBySearch(posts []Post, query string) []Post {
	return Filter(posts, Search(query))
}

// FilterByCategory is Filter with a single InCategory predicate.
func FilterByCategory(posts []Post, category string) []Post {
	return Filter(posts, InCategory(category))
}

// FilterByTag is Filter with a single Tagged predicate.
func FilterByTag(posts []Post, tag string) []Post {
	return Filter(posts, Tagged(tag))
}

// Related returns posts, other than current, that share at least one tag
// with it. Tags are compared case-insensitively here.
func Related(current Post, posts []Post) []Post {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		if tag := strings.ToLower(strings.TrimSpace(t)); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	related := make([]Post, 0)
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[strings.ToLower(strings.TrimSpace(t))]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// FindBySlug returns the first post with the given slug.
func FindBySlug(posts []Post, slug string) (Post, error) {
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// Neighbors returns the posts before and after slug in posts. ok is false
// when slug is not present.
func Neighbors(posts []Post, slug string) (prev, next *Post, ok bool) {
	for i := range posts {
		if posts[i].Slug != slug {
			continue
		}
		if i > 0 {
			p := posts[i-1]
			prev = &p
		}
		if i+1 < len(posts) {
			n := posts[i+1]
			next = &n
		}
		return prev, next, true
	}
	return nil, nil, false
}
