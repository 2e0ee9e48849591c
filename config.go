package blogcontent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/eringen/blogcontent/content"
)

// SiteConfig holds all configuration for a blogcontent site. It is read
// from an optional YAML file and then overridden by environment variables.
type SiteConfig struct {
	Name        string `yaml:"name"`        // SITE_NAME (default "Blog")
	URL         string `yaml:"url"`         // SITE_URL (default "http://localhost:3000")
	Description string `yaml:"description"` // SITE_DESCRIPTION
	Author      string `yaml:"author"`      // SITE_AUTHOR

	Addr         string               `yaml:"addr"`          // ADDR (default ":3000")
	DatabasePath string               `yaml:"database_path"` // DATABASE_PATH (default "data/content.db")
	ContentDir   string               `yaml:"content_dir"`   // CONTENT_DIR (default "content")
	CacheDir     string               `yaml:"cache_dir"`     // CACHE_DIR (default "data/cache")
	Collections  []content.Collection `yaml:"collections"`

	PostsPerPage     int           `yaml:"posts_per_page"`     // POSTS_PER_PAGE (default 9)
	PostCacheTTL     time.Duration `yaml:"post_cache_ttl"`     // POST_CACHE_TTL (default 5m)
	RedisURL         string        `yaml:"redis_url"`          // REDIS_URL, enables the response cache
	ResponseCacheTTL time.Duration `yaml:"response_cache_ttl"` // RESPONSE_CACHE_TTL (default 1m)

	AdminPassword string `yaml:"admin_password"` // ADMIN_PASSWORD, enables /admin/
	SessionSecret string `yaml:"session_secret"` // SESSION_SECRET, required with ADMIN_PASSWORD
	CookieSecure  bool   `yaml:"cookie_secure"`  // COOKIE_SECURE

	MetricsEnabled bool   `yaml:"metrics_enabled"` // METRICS_ENABLED
	LogLevel       string `yaml:"log_level"`       // LOG_LEVEL (default "info")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.CacheDir == "" {
		c.CacheDir = "data/cache"
	}
	if len(c.Collections) == 0 {
		c.Collections = content.DefaultCollections
	}
	if c.PostsPerPage <= 0 {
		c.PostsPerPage = 9
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.ResponseCacheTTL == 0 {
		c.ResponseCacheTTL = time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports configuration that cannot work.
func (c SiteConfig) Validate() error {
	if c.AdminPassword != "" && c.SessionSecret == "" {
		return errors.New("blogcontent: SESSION_SECRET is required when ADMIN_PASSWORD is set")
	}
	for _, coll := range c.Collections {
		if coll.Name == "" {
			return errors.New("blogcontent: collection without a name")
		}
	}
	return nil
}

// AdminEnabled reports whether the admin area is served.
func (c SiteConfig) AdminEnabled() bool {
	return c.AdminPassword != ""
}

// Info returns the template-safe subset of the config.
func (c SiteConfig) Info() SiteInfo {
	return SiteInfo{Name: c.Name, URL: c.URL, Description: c.Description, Author: c.Author}
}

// LoadConfig reads path (if non-empty), applies variables from a .env file
// in the working directory and the process environment, then fills
// defaults. A missing .env file is not an error; a missing config file is.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return SiteConfig{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return SiteConfig{}, err
	}
	cfg.setDefaults()
	return cfg, cfg.Validate()
}

func applyEnv(cfg *SiteConfig, getenv func(string) string) error {
	strs := map[string]*string{
		"SITE_NAME":        &cfg.Name,
		"SITE_URL":         &cfg.URL,
		"SITE_DESCRIPTION": &cfg.Description,
		"SITE_AUTHOR":      &cfg.Author,
		"ADDR":             &cfg.Addr,
		"DATABASE_PATH":    &cfg.DatabasePath,
		"CONTENT_DIR":      &cfg.ContentDir,
		"CACHE_DIR":        &cfg.CacheDir,
		"REDIS_URL":        &cfg.RedisURL,
		"ADMIN_PASSWORD":   &cfg.AdminPassword,
		"SESSION_SECRET":   &cfg.SessionSecret,
		"LOG_LEVEL":        &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	var err error
	set := func(key string, fn func(string) error) {
		v := strings.TrimSpace(getenv(key))
		if v == "" || err != nil {
			return
		}
		if e := fn(v); e != nil {
			err = fmt.Errorf("blogcontent: %s: %w", key, e)
		}
	}
	set("POSTS_PER_PAGE", func(v string) (e error) { cfg.PostsPerPage, e = cast.ToIntE(v); return })
	set("POST_CACHE_TTL", func(v string) (e error) { cfg.PostCacheTTL, e = cast.ToDurationE(v); return })
	set("RESPONSE_CACHE_TTL", func(v string) (e error) { cfg.ResponseCacheTTL, e = cast.ToDurationE(v); return })
	set("COOKIE_SECURE", func(v string) (e error) { cfg.CookieSecure, e = cast.ToBoolE(v); return })
	set("METRICS_ENABLED", func(v string) (e error) { cfg.MetricsEnabled, e = cast.ToBoolE(v); return })
	return err
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithResponseCache replaces the response cache chosen from RedisURL.
func WithResponseCache(rc ResponseCache) Option {
	return func(a *App) {
		a.responses = rc
	}
}

// WithEcho supplies a preconfigured Echo instance.
func WithEcho(e *echo.Echo) Option {
	return func(a *App) {
		a.Echo = e
	}
}
