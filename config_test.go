package blogcontent

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()
	if cfg.Name != "Blog" || cfg.Addr != ":3000" || cfg.PostsPerPage != 9 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.PostCacheTTL != 5*time.Minute || cfg.ResponseCacheTTL != time.Minute {
		t.Errorf("unexpected TTL defaults: %v %v", cfg.PostCacheTTL, cfg.ResponseCacheTTL)
	}
	if len(cfg.Collections) != 3 || cfg.Collections[0].Name != "blog" {
		t.Errorf("unexpected default collections: %v", cfg.Collections)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SITE_NAME":       "Env Blog",
		"POSTS_PER_PAGE":  "4",
		"POST_CACHE_TTL":  "30s",
		"COOKIE_SECURE":   "true",
		"METRICS_ENABLED": "1",
		"REDIS_URL":       " redis://localhost:6379/0 ",
	}
	cfg := SiteConfig{Name: "File Blog", PostsPerPage: 20}
	if err := applyEnv(&cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}
	if cfg.Name != "Env Blog" || cfg.PostsPerPage != 4 || cfg.PostCacheTTL != 30*time.Second {
		t.Errorf("env did not override: %+v", cfg)
	}
	if !cfg.CookieSecure || !cfg.MetricsEnabled {
		t.Errorf("bool env not applied: %+v", cfg)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	env := map[string]string{"POSTS_PER_PAGE": "many"}
	var cfg SiteConfig
	if err := applyEnv(&cfg, func(k string) string { return env[k] }); err == nil {
		t.Fatal("expected error for non-numeric POSTS_PER_PAGE")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SiteConfig
		wantErr bool
	}{
		{"empty", SiteConfig{}, false},
		{"admin with secret", SiteConfig{AdminPassword: "pw", SessionSecret: "s"}, false},
		{"admin without secret", SiteConfig{AdminPassword: "pw"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.setDefaults()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `name: Yaml Blog
posts_per_page: 3
post_cache_ttl: 2m
collections:
  - name: notes
    prefix: notes/
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SITE_NAME", "")
	t.Setenv("POSTS_PER_PAGE", "")
	t.Setenv("POST_CACHE_TTL", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "Yaml Blog" || cfg.PostsPerPage != 3 || cfg.PostCacheTTL != 2*time.Minute {
		t.Errorf("yaml values not loaded: %+v", cfg)
	}
	if len(cfg.Collections) != 1 || cfg.Collections[0].Prefix != "notes/" {
		t.Errorf("collections = %v", cfg.Collections)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("defaults not applied: Addr = %q", cfg.Addr)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("DEBUG") != parseLogLevel("debug") {
		t.Error("log level should be case-insensitive")
	}
	if parseLogLevel("bogus") != parseLogLevel("info") {
		t.Error("unknown level should fall back to info")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("BLOGCONTENT_TEST_VAR", "set")
	if got := EnvOr("BLOGCONTENT_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("EnvOr = %q, want set", got)
	}
	t.Setenv("BLOGCONTENT_TEST_VAR", "")
	if got := EnvOr("BLOGCONTENT_TEST_VAR", "fallback"); got != "fallback" {
		t.Errorf("EnvOr = %q, want fallback", got)
	}
}
