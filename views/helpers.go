package views

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/eringen/blogcontent"
	"github.com/eringen/blogcontent/post"
)

type metaTag struct {
	Name    string
	Content string
}

func pageTitle(site blogcontent.SiteInfo, meta blogcontent.PageMeta) string {
	if site.Name != "" && meta.Title != site.Name {
		return meta.Title + " | " + site.Name
	}
	return meta.Title
}

func pageDescription(site blogcontent.SiteInfo, meta blogcontent.PageMeta) string {
	if meta.Description != "" {
		return meta.Description
	}
	return site.Description
}

// openGraph lists the og:* properties for a page, skipping empty values.
func openGraph(site blogcontent.SiteInfo, meta blogcontent.PageMeta) []metaTag {
	ogType := meta.OGType
	if ogType == "" {
		ogType = "website"
	}
	return nonEmpty([]metaTag{
		{"og:title", meta.Title},
		{"og:description", pageDescription(site, meta)},
		{"og:type", ogType},
		{"og:url", meta.URL},
		{"og:image", meta.Image},
		{"og:site_name", site.Name},
	})
}

func twitterCard(site blogcontent.SiteInfo, meta blogcontent.PageMeta) []metaTag {
	card := "summary"
	if meta.Image != "" {
		card = "summary_large_image"
	}
	return nonEmpty([]metaTag{
		{"twitter:card", card},
		{"twitter:title", meta.Title},
		{"twitter:description", pageDescription(site, meta)},
		{"twitter:image", meta.Image},
	})
}

func nonEmpty(tags []metaTag) []metaTag {
	out := tags[:0]
	for _, t := range tags {
		if t.Content != "" {
			out = append(out, t)
		}
	}
	return out
}

func sortedProblems(problems map[string][]string, id string) []string {
	out := slices.Clone(problems[id])
	slices.Sort(out)
	return out
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	base := "inline-flex items-center rounded border border-ink bg-stone-100 px-2.5 py-1 text-[11px] font-semibold uppercase tracking-[0.12em] hover:-translate-y-0.5 hover:shadow-sm transition"
	if active {
		base += " bg-ink text-white"
	}
	return base
}

// ListURL returns the /blog/ URL for q showing page. Defaults are omitted so
// links stay short.
func ListURL(q post.Query, page int) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.Sort != "" && q.Sort != post.DateDesc {
		v.Set("sort", string(q.Sort))
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/blog/"
	}
	return "/blog/?" + v.Encode()
}

// TagURL links to the listing filtered by tag.
func TagURL(tag string) string {
	return ListURL(post.Query{Tag: tag}, 1)
}

// CategoryURL links to the listing filtered by category.
func CategoryURL(category string) string {
	return ListURL(post.Query{Category: category}, 1)
}

// PostURL is the site-relative link to a blog post.
func PostURL(p post.Post) string {
	return "/blog/" + url.PathEscape(p.Slug) + "/"
}

// DisplayDate formats a post date like "January 15, 2024".
func DisplayDate(p post.Post) string {
	return p.Time().Format("January 2, 2006")
}

var sortLabels = map[post.SortKey]string{
	post.DateDesc:  "Newest first",
	post.DateAsc:   "Oldest first",
	post.TitleAsc:  "Title A-Z",
	post.TitleDesc: "Title Z-A",
}
