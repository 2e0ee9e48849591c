package blogcontent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

type countingCache struct {
	nopCache
	purges atomic.Int32
}

func (c *countingCache) Purge(context.Context) { c.purges.Add(1) }

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSyncFailureDropsCaches(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "blog/one.md", "---\ntitle: One\ndate: 2024-01-01\n---\nFirst.\n")
	writeDoc(t, dir, "pages/about.md", "---\ntitle: About\n---\nHello.\n")

	rc := &countingCache{}
	data := t.TempDir()
	app := New(SiteConfig{
		Name:         "Test",
		ContentDir:   dir,
		DatabasePath: filepath.Join(data, "content.db"),
		CacheDir:     filepath.Join(data, "cache"),
		LogLevel:     "error",
	}, ViewFuncs{}, WithStaticDir(t.TempDir()), WithResponseCache(rc))
	t.Cleanup(func() { app.Close() })
	if err := app.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := app.Sync(ctx); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if posts, err := app.Cache.Posts(ctx, BlogCollection); err != nil || len(posts) != 1 {
		t.Fatalf("cached posts = %d, %v", len(posts), err)
	}
	purged := rc.purges.Load()

	// blog is written first and succeeds; pages then fails.
	writeDoc(t, dir, "blog/two.md", "---\ntitle: Two\ndate: 2024-02-01\n---\nSecond.\n")
	if _, err := app.Store.db.ExecContext(ctx, `CREATE TRIGGER reject_pages BEFORE INSERT ON documents
		WHEN NEW.collection = 'pages' BEGIN SELECT RAISE(ABORT, 'pages rejected'); END`); err != nil {
		t.Fatal(err)
	}

	run, err := app.Sync(ctx)
	if err == nil || !strings.Contains(err.Error(), "store pages") {
		t.Fatalf("Sync error = %v, want a pages store failure", err)
	}
	if run.Collections[BlogCollection] != 2 {
		t.Errorf("blog documents written = %d, want 2", run.Collections[BlogCollection])
	}
	posts, err := app.Cache.Posts(ctx, BlogCollection)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Errorf("cached posts after failed sync = %d, want 2", len(posts))
	}
	if got := rc.purges.Load(); got != purged+1 {
		t.Errorf("response cache purges = %d, want %d", got, purged+1)
	}
}
