package blogcontent

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/eringen/blogcontent/content"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id, title string) content.Record {
	return content.Record{
		"id":        id,
		"stem":      id[:len(id)-len(filepath.Ext(id))],
		"extension": "md",
		"frontmatter": map[string]any{
			"title": title,
			"tags":  []any{"go"},
		},
		"body": "# " + title,
	}
}

func TestReplaceCollectionAndRecords(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceCollection(ctx, "blog", []content.Record{record("blog/b.md", "B"), record("blog/a.md", "A")}); err != nil {
		t.Fatalf("ReplaceCollection failed: %v", err)
	}
	if err := s.ReplaceCollection(ctx, "pages", []content.Record{record("pages/about.md", "About")}); err != nil {
		t.Fatalf("ReplaceCollection failed: %v", err)
	}

	recs, err := s.Records(ctx, "blog")
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(recs) != 2 || recs[0]["id"] != "blog/a.md" || recs[1]["id"] != "blog/b.md" {
		t.Fatalf("Records(blog) = %v, want a then b", recs)
	}
	fm, _ := recs[0]["frontmatter"].(map[string]any)
	if fm["title"] != "A" || !reflect.DeepEqual(fm["tags"], []any{"go"}) {
		t.Errorf("frontmatter did not round-trip: %v", fm)
	}

	all, err := s.Records(ctx, "")
	if err != nil {
		t.Fatalf("Records(all) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Records(all) = %d documents, want 3", len(all))
	}

	// Replacing drops documents that are gone from the new set.
	if err := s.ReplaceCollection(ctx, "blog", []content.Record{record("blog/c.md", "C")}); err != nil {
		t.Fatalf("ReplaceCollection failed: %v", err)
	}
	recs, _ = s.Records(ctx, "blog")
	if len(recs) != 1 || recs[0]["id"] != "blog/c.md" {
		t.Errorf("after replace Records(blog) = %v", recs)
	}
	counts, err := s.Collections(ctx)
	if err != nil {
		t.Fatalf("Collections failed: %v", err)
	}
	if want := map[string]int{"blog": 1, "pages": 1}; !reflect.DeepEqual(counts, want) {
		t.Errorf("Collections = %v, want %v", counts, want)
	}
}

func TestReplaceCollectionRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceCollection(ctx, "blog", []content.Record{record("blog/a.md", "A")}); err != nil {
		t.Fatal(err)
	}
	bad := content.Record{"frontmatter": map[string]any{}}
	if err := s.ReplaceCollection(ctx, "blog", []content.Record{record("blog/b.md", "B"), bad}); err == nil {
		t.Fatal("expected error for record without id")
	}
	recs, _ := s.Records(ctx, "blog")
	if len(recs) != 1 || recs[0]["id"] != "blog/a.md" {
		t.Errorf("failed replace should leave the old set, got %v", recs)
	}
}

func TestDocument(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceCollection(ctx, "blog", []content.Record{record("blog/a.md", "A")}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Document(ctx, "blog/a.md")
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if rec["body"] != "# A" {
		t.Errorf("body = %v", rec["body"])
	}
	if _, err := s.Document(ctx, "blog/missing.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing document error = %v, want ErrNotFound", err)
	}
}

func TestSyncRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.LastSync(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LastSync on empty store = %v, want ErrNotFound", err)
	}

	first := SyncRun{StartedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Duration: 1500 * time.Millisecond, Documents: 2, Collections: map[string]int{"blog": 2}}
	second := SyncRun{StartedAt: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), Documents: 3, Collections: map[string]int{"blog": 3}, Warnings: []string{"blog/x.md: bad"}, Err: "boom"}
	for _, run := range []SyncRun{first, second} {
		if err := s.RecordSync(ctx, run); err != nil {
			t.Fatalf("RecordSync failed: %v", err)
		}
	}

	got, err := s.LastSync(ctx)
	if err != nil {
		t.Fatalf("LastSync failed: %v", err)
	}
	if !got.StartedAt.Equal(second.StartedAt) || got.Documents != 3 || got.Err != "boom" {
		t.Errorf("LastSync = %+v, want the second run", got)
	}
	if !reflect.DeepEqual(got.Warnings, second.Warnings) || got.Collections["blog"] != 3 {
		t.Errorf("LastSync details = %+v", got)
	}
}
