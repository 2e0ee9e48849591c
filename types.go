package blogcontent

import (
	"time"

	"github.com/eringen/blogcontent/post"
)

// SiteInfo is the public, template-safe part of SiteConfig.
type SiteInfo struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // absolute og:image URL
	JSONLD      string
}

// IndexPage is the view model for the blog listing.
type IndexPage struct {
	Site    SiteInfo
	Meta    PageMeta
	Listing post.Listing
}

// PostPage is the view model for a single article or static page.
type PostPage struct {
	Site        SiteInfo
	Meta        PageMeta
	Post        post.Post
	ReadingTime int
	Prev        *post.Post
	Next        *post.Post
	Related     []post.Post
	Preview     bool // draft shown to an admin
}

// AdminPage is the view model for the admin dashboard.
type AdminPage struct {
	Site      SiteInfo
	Posts     []post.Post
	Problems  map[string][]string // by post ID
	LastSync  *SyncRun
	Message   string
	CSRFToken string
}

// SyncRun records one content sync.
type SyncRun struct {
	StartedAt   time.Time
	Duration    time.Duration
	Documents   int
	Collections map[string]int
	Warnings    []string
	Err         string
}
