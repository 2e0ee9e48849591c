package post

import "sort"

// UniqueCategories returns the distinct non-empty categories, ascending.
func UniqueCategories(posts []Post) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		if p.Category != "" {
			set[p.Category] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// UniqueTags returns the distinct tags across all posts, ascending. Tags are
// compared as exact strings, so "Go" and "go" are both kept.
func UniqueTags(posts []Post) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		for _, t := range p.Tags {
			if t != "" {
				set[t] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
