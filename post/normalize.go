package post

import (
	"path"
	"strings"

	"github.com/spf13/cast"
)

// contentSuffixes are stripped from the last id segment to form the slug.
var contentSuffixes = []string{".markdown", ".md", ".mdx", ".mdc"}

// sources lists where a field may live inside a raw record, highest priority
// first. The top level itself is the last source.
//
//	priority | source
//	---------+--------------------------
//	1        | raw["frontmatter"][field]
//	2        | raw["meta"][field]
//	3        | raw[field]
//	4        | hardcoded default
func sources(raw Record) []map[string]any {
	out := make([]map[string]any, 0, 3)
	for _, key := range []string{"frontmatter", "meta"} {
		if m, ok := asMap(raw[key]); ok {
			out = append(out, m)
		}
	}
	if raw != nil {
		out = append(out, raw)
	}
	return out
}

// Normalize converts a raw record into a fully defaulted Post. It never
// fails: missing or mistyped fields fall back to their defaults.
func Normalize(raw Record) Post {
	src := sources(raw)
	id := cast.ToString(raw["id"])
	slug := SlugFromID(id)

	return Post{
		ID:          id,
		Path:        "/blog/" + slug,
		Slug:        slug,
		Title:       resolveString(src, "title", DefaultTitle),
		Description: resolveString(src, "description", DefaultDescription),
		Date:        resolveDate(src, "date"),
		Author:      resolveString(src, "author", DefaultAuthor),
		Tags:        resolveTags(src, "tags"),
		Category:    resolveString(src, "category", DefaultCategory),
		Draft:       resolveBool(src, "draft", false),
		Image:       resolveString(src, "image", ""),
		Body:        raw["body"],
	}
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(raws []Record) []Post {
	posts := make([]Post, 0, len(raws))
	for _, r := range raws {
		posts = append(posts, Normalize(r))
	}
	return posts
}

// SlugFromID derives a slug from the final path segment of a document id,
// stripping a trailing content-file suffix. It returns DefaultSlug when
// nothing usable remains.
func SlugFromID(id string) string {
	id = strings.TrimRight(strings.TrimSpace(id), "/")
	if id == "" {
		return DefaultSlug
	}
	base := path.Base(id)
	for _, suffix := range contentSuffixes {
		if strings.HasSuffix(strings.ToLower(base), suffix) {
			base = base[:len(base)-len(suffix)]
			break
		}
	}
	if base == "" || base == "." || base == "/" {
		return DefaultSlug
	}
	return base
}

func resolveString(src []map[string]any, field, fallback string) string {
	for _, m := range src {
		v, ok := m[field]
		if !ok || v == nil {
			continue
		}
		if _, isMap := asMap(v); isMap {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

func resolveDate(src []map[string]any, field string) string {
	for _, m := range src {
		if t, ok := parseDate(m[field]); ok {
			return formatDate(t)
		}
	}
	return DefaultDate
}

func resolveTags(src []map[string]any, field string) []string {
	for _, m := range src {
		if tags, ok := asTags(m[field]); ok {
			return tags
		}
	}
	return []string{}
}

func resolveBool(src []map[string]any, field string, fallback bool) bool {
	for _, m := range src {
		v, ok := m[field]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			continue
		}
		return b
	}
	return fallback
}

// asTags accepts only sequences. Elements are coerced to strings and blank
// entries dropped; order is preserved.
func asTags(v any) ([]string, bool) {
	var items []any
	switch t := v.(type) {
	case []string:
		items = make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
	case []any:
		items = t
	default:
		return nil, false
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		s, err := cast.ToStringE(item)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}
	return tags, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[cast.ToString(k)] = val
		}
		return out, true
	}
	return nil, false
}
