package blogcontent_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/eringen/blogcontent"
	"github.com/eringen/blogcontent/post"
	"github.com/eringen/blogcontent/views"
)

var testContent = map[string]string{
	"blog/first-post.md": `---
title: First Post
description: Getting started with Go
date: 2024-01-15
author: Ada
category: tutorial
tags: [go, web]
---
# Hello

::alert{type="warning"}
Careful now.
::
`,
	"blog/second-post.md": `---
title: Second Post
description: A guide
date: 2024-02-01
category: guide
tags:
  - go
image: images/cover.png
---
Second body.
`,
	"blog/draft-post.md": `---
title: Secret Draft
description: Not yet
date: 2024-03-01
draft: true
---
Work in progress.
`,
	"blog/broken.md": "---\ntitle: [unclosed\n---\nBroken frontmatter.\n",
	"pages/about.md": "---\ntitle: About Us\ndescription: Who we are\n---\nWe write things.\n",
	"notes/skip.md":  "---\ntitle: Skipped\n---\n",
}

func writeContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range testContent {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1600, 800))); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "images", "cover.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newTestApp(t *testing.T) *blogcontent.App {
	t.Helper()
	data := t.TempDir()
	app := blogcontent.New(blogcontent.SiteConfig{
		Name:           "Test Blog",
		URL:            "https://example.com",
		Description:    "Notes on Go",
		ContentDir:     writeContent(t),
		DatabasePath:   filepath.Join(data, "content.db"),
		CacheDir:       filepath.Join(data, "cache"),
		PostsPerPage:   9,
		AdminPassword:  "secret",
		SessionSecret:  "0123456789abcdef0123456789abcdef",
		MetricsEnabled: true,
		LogLevel:       "error",
	}, views.Default(), blogcontent.WithStaticDir(t.TempDir()))
	t.Cleanup(func() { app.Close() })

	ctx := context.Background()
	if err := app.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := app.Sync(ctx); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	return app
}

func do(app *blogcontent.App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func get(app *blogcontent.App, target string) *httptest.ResponseRecorder {
	return do(app, httptest.NewRequest(http.MethodGet, target, nil))
}

func TestSync(t *testing.T) {
	app := newTestApp(t)
	run, err := app.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if run.Documents != 6 || run.Collections["blog"] != 4 || run.Collections["pages"] != 1 || run.Collections["docs"] != 1 {
		t.Errorf("run = %+v", run)
	}
	var sawBroken bool
	for _, w := range run.Warnings {
		if strings.HasPrefix(w, "blog/broken.md") {
			sawBroken = true
		}
	}
	if !sawBroken {
		t.Errorf("expected a warning for blog/broken.md, got %v", run.Warnings)
	}
	last, err := app.Store.LastSync(context.Background())
	if err != nil || last.Documents != 6 {
		t.Errorf("LastSync = %+v, %v", last, err)
	}
}

func TestHomeRedirects(t *testing.T) {
	rec := get(newTestApp(t), "/")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/blog/" {
		t.Errorf("GET / = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestTrailingSlashRedirect(t *testing.T) {
	rec := get(newTestApp(t), "/blog")
	if rec.Code != http.StatusMovedPermanently {
		t.Errorf("GET /blog = %d, want 301", rec.Code)
	}
}

func TestBlogIndex(t *testing.T) {
	app := newTestApp(t)
	rec := get(app, "/blog/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /blog/ = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Blog - Latest Articles", "Search articles", "All Categories", "All Tags", "First Post", "Second Post", "Untitled Post"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Contains(body, "Secret Draft") {
		t.Error("draft listed on the index")
	}
	if strings.Index(body, "Second Post") > strings.Index(body, "First Post") {
		t.Error("posts should be newest first")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id header")
	}
}

func TestFilterScriptIsServed(t *testing.T) {
	app := newTestApp(t)
	body := get(app, "/blog/").Body.String()
	for _, want := range []string{`<script src="/public/blog.js" defer></script>`, `<form id="post-filters"`, `<button type="submit"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Contains(body, "<noscript>") || strings.Contains(body, "hx-get") {
		t.Error("filter form should not depend on htmx")
	}

	rec := get(app, "/public/blog.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /public/blog.js = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "post-filters") {
		t.Error("unexpected script body")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestBlogIndexFilters(t *testing.T) {
	app := newTestApp(t)
	tests := []struct {
		query   string
		want    []string
		notWant []string
	}{
		{"category=guide", []string{"Second Post"}, []string{"First Post"}},
		{"tag=web", []string{"First Post"}, []string{"Second Post"}},
		{"q=GETTING", []string{"First Post"}, []string{"Second Post"}},
		{"q=nothing-matches", []string{"No articles found."}, []string{"First Post"}},
		{"sort=title-asc&page=abc", []string{"First Post"}, nil},
	}
	for _, tt := range tests {
		body := get(app, "/blog/?"+tt.query+"&partial=list").Body.String()
		if strings.Contains(body, "<html") {
			t.Errorf("%s: partial should not render the layout", tt.query)
		}
		for _, w := range tt.want {
			if !strings.Contains(body, w) {
				t.Errorf("%s: missing %q", tt.query, w)
			}
		}
		for _, w := range tt.notWant {
			if strings.Contains(body, w) {
				t.Errorf("%s: unexpected %q", tt.query, w)
			}
		}
	}
}

func TestPostPage(t *testing.T) {
	app := newTestApp(t)
	rec := get(app, "/blog/first-post/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET post = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"First Post",
		"1 min read",
		"#go",
		"blog-content",
		"ProseAlert",
		"bg-yellow-50",
		`property="og:type" content="article"`,
		`content="https://example.com/og/default.png"`,
		"BlogPosting",
		"Next Post",
		"Second Post",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("post page missing %q", want)
		}
	}

	second := get(app, "/blog/second-post/").Body.String()
	if !strings.Contains(second, `content="https://example.com/og/second-post.jpg"`) {
		t.Error("second post should use its generated cover as og:image")
	}
	if img := get(app, "/og/second-post.jpg"); img.Code != http.StatusOK {
		t.Errorf("GET cover = %d", img.Code)
	}
}

func TestPostNotFound(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/blog/missing/", "/blog/draft-post/", "/pages/missing/", "/og/missing.jpg"} {
		rec := get(app, path)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
	if body := get(app, "/blog/missing/").Body.String(); !strings.Contains(body, "404") {
		t.Error("404 page not rendered")
	}
}

func TestStaticPage(t *testing.T) {
	rec := get(newTestApp(t), "/pages/about/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "We write things.") {
		t.Errorf("GET /pages/about/ = %d", rec.Code)
	}
}

func TestContentQueryAPI(t *testing.T) {
	app := newTestApp(t)
	params := url.QueryEscape(`{"where":[{"draft":{"$ne":true}},{"tags":{"$contains":"go"}}],"sort":[{"date":-1}]}`)
	rec := get(app, "/api/_content/query?_params="+params)
	if rec.Code != http.StatusOK {
		t.Fatalf("query = %d: %s", rec.Code, rec.Body)
	}
	var posts []post.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(posts) != 2 || posts[0].Slug != "second-post" || posts[1].Slug != "first-post" {
		t.Fatalf("query result = %+v", posts)
	}
	if posts[1].Path != "/blog/first-post" || posts[1].Author != "Ada" {
		t.Errorf("post not normalized: %+v", posts[1])
	}

	all := get(app, "/api/_content/query")
	if err := json.Unmarshal(all.Body.Bytes(), &posts); err != nil || len(posts) != 4 {
		t.Errorf("unfiltered query = %d posts, %v", len(posts), err)
	}

	pages := get(app, "/api/_content/query?collection=pages")
	if err := json.Unmarshal(pages.Body.Bytes(), &posts); err != nil || len(posts) != 1 || posts[0].Title != "About Us" {
		t.Fatalf("pages query = %+v, %v", posts, err)
	}
	if posts[0].Path != "/pages/about" {
		t.Errorf("page _path = %q, want /pages/about", posts[0].Path)
	}

	docs := get(app, "/api/_content/query?collection=docs")
	if err := json.Unmarshal(docs.Body.Bytes(), &posts); err != nil || len(posts) != 1 || posts[0].Path != "/docs/skip" {
		t.Errorf("docs query = %+v, %v", posts, err)
	}
}

func TestContentQueryAPIErrors(t *testing.T) {
	app := newTestApp(t)
	for _, target := range []string{
		"/api/_content/query?_params=" + url.QueryEscape(`{"where":`),
		"/api/_content/query?_params=" + url.QueryEscape(`{"where":[{"tags":{"$regex":"x"}}]}`),
		"/api/_content/query?_params=" + url.QueryEscape(`{"limit":-1}`),
		"/api/_content/query?_params=" + url.QueryEscape(`{"sort":[{"date":-1,"title":1}]}`),
		"/api/_content/query?collection=nope",
	} {
		rec := get(app, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", target, rec.Code)
			continue
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Errorf("GET %s: want JSON error, got %s", target, rec.Body)
		}
	}
}

func TestFacets(t *testing.T) {
	rec := get(newTestApp(t), "/api/posts/facets")
	var got struct {
		Categories []string `json:"categories"`
		Tags       []string `json:"tags"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if strings.Join(got.Categories, ",") != "guide,tutorial,uncategorized" || strings.Join(got.Tags, ",") != "go,web" {
		t.Errorf("facets = %+v", got)
	}
}

func TestFeedsAndRobots(t *testing.T) {
	app := newTestApp(t)

	feed := get(app, "/feed.xml")
	if feed.Code != http.StatusOK || !strings.Contains(feed.Body.String(), "<rss") || strings.Contains(feed.Body.String(), "Secret Draft") {
		t.Errorf("feed = %d", feed.Code)
	}
	sitemap := get(app, "/sitemap.xml").Body.String()
	for _, want := range []string{"https://example.com/blog/first-post/", "https://example.com/pages/about/"} {
		if !strings.Contains(sitemap, want) {
			t.Errorf("sitemap missing %s", want)
		}
	}
	if robots := get(app, "/robots.txt").Body.String(); !strings.Contains(robots, "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("robots = %q", robots)
	}
	card := get(app, "/og/default.png")
	if card.Code != http.StatusOK || card.Header().Get("Content-Type") != "image/png" {
		t.Errorf("default card = %d %q", card.Code, card.Header().Get("Content-Type"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	get(app, "/blog/")
	body := get(app, "/metrics").Body.String()
	for _, want := range []string{`blogcontent_queries_total{route="index"} 1`, `blogcontent_documents{collection="blog"} 4`, `blogcontent_sync_total{result="ok"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func cookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func login(t *testing.T, app *blogcontent.App, password string) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()
	page := get(app, "/admin/")
	if !strings.Contains(page.Body.String(), "Admin login") {
		t.Fatalf("login form not shown")
	}
	var csrf *http.Cookie
	for _, c := range page.Result().Cookies() {
		if c.Name == "_csrf" {
			csrf = c
		}
	}
	if csrf == nil {
		t.Fatal("no CSRF cookie")
	}
	form := url.Values{"password": {password}, "_csrf": {csrf.Value}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cookieHeader([]*http.Cookie{csrf}))
	rec := do(app, req)
	return rec, append([]*http.Cookie{csrf}, rec.Result().Cookies()...)
}

func TestAdminLoginAndDraftPreview(t *testing.T) {
	app := newTestApp(t)

	bad, _ := login(t, app, "wrong")
	if bad.Code != http.StatusUnauthorized || !strings.Contains(bad.Body.String(), "Invalid password.") {
		t.Fatalf("bad login = %d", bad.Code)
	}

	rec, cookies := login(t, app, "secret")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login = %d, want 303", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/blog/draft-post/", nil)
	req.Header.Set("Cookie", cookieHeader(cookies))
	preview := do(app, req)
	if preview.Code != http.StatusOK || !strings.Contains(preview.Body.String(), "Draft preview") {
		t.Fatalf("draft preview = %d", preview.Code)
	}
	if preview.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("draft preview Cache-Control = %q", preview.Header().Get("Cache-Control"))
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.Header.Set("Cookie", cookieHeader(cookies))
	dash := do(app, req).Body.String()
	for _, want := range []string{"Secret Draft", "draft", "Sync content", "Last sync"} {
		if !strings.Contains(dash, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestAdminPostRequiresCSRF(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader("password=secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := do(app, req); rec.Code != http.StatusForbidden {
		t.Errorf("login without CSRF = %d, want 403", rec.Code)
	}
}

func TestAdminDisabled(t *testing.T) {
	data := t.TempDir()
	app := blogcontent.New(blogcontent.SiteConfig{
		ContentDir:   writeContent(t),
		DatabasePath: filepath.Join(data, "content.db"),
		CacheDir:     filepath.Join(data, "cache"),
		LogLevel:     "off",
	}, views.Default())
	t.Cleanup(func() { app.Close() })
	if err := app.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rec := get(app, "/admin/"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /admin/ with admin disabled = %d, want 404", rec.Code)
	}
	if rec := get(app, "/blog/draft-post/"); rec.Code != http.StatusNotFound {
		t.Errorf("draft visible without admin = %d", rec.Code)
	}
	if rec := get(app, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("metrics served while disabled = %d", rec.Code)
	}
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	purges  int
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.entries[key]
	if ok {
		m.hits++
	}
	return b, ok
}

func (m *memCache) Set(_ context.Context, key string, val []byte) {
	m.mu.Lock()
	m.entries[key] = val
	m.mu.Unlock()
}

func (m *memCache) Purge(context.Context) {
	m.mu.Lock()
	m.entries = map[string][]byte{}
	m.purges++
	m.mu.Unlock()
}

func TestContentQueryUsesResponseCache(t *testing.T) {
	cache := &memCache{entries: map[string][]byte{}}
	data := t.TempDir()
	app := blogcontent.New(blogcontent.SiteConfig{
		ContentDir:   writeContent(t),
		DatabasePath: filepath.Join(data, "content.db"),
		CacheDir:     filepath.Join(data, "cache"),
		LogLevel:     "off",
	}, views.Default(), blogcontent.WithResponseCache(cache))
	t.Cleanup(func() { app.Close() })
	ctx := context.Background()
	if err := app.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Sync(ctx); err != nil {
		t.Fatal(err)
	}

	target := "/api/_content/query?_params=" + url.QueryEscape(`{"limit":1}`)
	first := get(app, target).Body.String()
	second := get(app, target).Body.String()
	if first != second || cache.hits != 1 {
		t.Errorf("second request should be served from cache: hits=%d", cache.hits)
	}

	purges := cache.purges
	if _, err := app.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if cache.purges != purges+1 || len(cache.entries) != 0 {
		t.Errorf("sync should purge the response cache: purges=%d entries=%d", cache.purges, len(cache.entries))
	}
}
