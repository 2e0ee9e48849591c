// Package blogcontent is a content-driven blog engine built with Go, Echo,
// and templ. Markdown documents with YAML frontmatter are synced from a
// content directory into SQLite and served as pages, feeds and a JSON query
// API.
//
// Users provide their own templ templates via the ViewFuncs struct (package
// views ships a default set); blogcontent handles routing, middleware,
// storage and querying.
package blogcontent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/blogcontent/metrics"
)

// Collections served by the built-in routes.
const (
	BlogCollection = "blog"  // listed at /blog/
	PageCollection = "pages" // served at /pages/:slug/
)

// ViewFuncs holds the templ components the framework calls when rendering
// pages. This is the inversion-of-control mechanism that lets users own and
// customize all templates.
type ViewFuncs struct {
	BlogIndex      func(page IndexPage) templ.Component
	BlogList       func(page IndexPage) templ.Component
	Post           func(page PostPage) templ.Component
	Page           func(page PostPage) templ.Component
	AdminLogin     func(site SiteInfo, showError bool, csrfToken string) templ.Component
	AdminDashboard func(page AdminPage) templ.Component
	NotFound       func(site SiteInfo) templ.Component
	ServerError    func(site SiteInfo) templ.Component
}

// App is the central application. It wires together the store, caches,
// handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Views  ViewFuncs

	responses    ResponseCache
	metrics      *metrics.Metrics
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	opened       bool
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Views:     views,
		staticDir: "public",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Echo == nil {
		a.Echo = echo.New()
		a.Echo.HideBanner = true
	}
	return a
}

// Open initializes the store, caches, metrics, middleware and routes without
// starting the server. It is idempotent.
func (a *App) Open(ctx context.Context) error {
	if a.opened {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}
	a.Echo.Logger.SetLevel(parseLogLevel(a.Config.LogLevel))

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("blogcontent: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)

	if a.responses == nil {
		a.responses = nopCache{}
		if a.Config.RedisURL != "" {
			rc, err := NewRedisCache(ctx, a.Config.RedisURL, a.Config.ResponseCacheTTL)
			if err != nil {
				// The API still works uncached; a missing Redis is not fatal.
				a.Echo.Logger.Warnf("response cache disabled: %v", err)
			} else {
				a.responses = rc
			}
		}
	}
	if a.Config.MetricsEnabled {
		a.metrics = metrics.New()
	}
	if a.Config.AdminEnabled() {
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
	}
	if err := a.ensureDefaultCard(); err != nil {
		a.Echo.Logger.Warnf("default og image: %v", err)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.opened = true
	return nil
}

// Start opens the app, syncs the content directory and serves HTTP until
// the server is shut down.
func (a *App) Start() error {
	ctx := context.Background()
	if err := a.Open(ctx); err != nil {
		return err
	}
	run, err := a.Sync(ctx)
	if err != nil {
		return err
	}
	a.Echo.Logger.Infof("synced %d documents in %s", run.Documents, run.Duration)

	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Engine assets are served under /public/ ahead of the site's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/blog.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/og/:file", a.handleOGImage)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", handleHome)
	e.GET("/blog/", a.handleIndex)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/pages/:slug/", a.handlePage)

	e.GET("/api/_content/query", a.handleContentQuery)
	e.GET("/api/posts/facets", a.handleFacets)

	if a.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))
	}

	if a.Config.AdminEnabled() {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
		e.POST("/admin/sync/", a.handleAdminSync)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if rc, ok := a.responses.(*RedisCache); ok {
		rc.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func parseLogLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
