package blogcontent

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/blogcontent/post"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// AbsURL joins a base URL with a file path, without a trailing slash.
func AbsURL(base, file string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, file)
	return u.String()
}

// PostURL is the canonical URL of a post in the blog collection.
func PostURL(base string, p post.Post) string {
	return BuildURL(base, "blog", p.Slug)
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema.
func WebsiteJsonLD(site SiteInfo) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        site.Name,
		"url":         BuildURL(site.URL),
		"description": site.Description,
	}
	if site.Author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": site.Author}
	}
	return marshalLD(data)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(p post.Post, site SiteInfo, image string) string {
	postURL := PostURL(site.URL, p)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      p.Title,
		"description":   p.Description,
		"datePublished": p.Date,
		"url":           postURL,
		"author":        map[string]string{"@type": "Person", "name": p.Author},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if image != "" {
		data["image"] = image
	}
	if site.Name != "" {
		data["publisher"] = map[string]string{"@type": "Organization", "name": site.Name}
	}
	if len(p.Tags) > 0 {
		data["keywords"] = strings.Join(p.Tags, ", ")
	}
	return marshalLD(data)
}

func marshalLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
