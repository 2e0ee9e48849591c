package blogcontent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eringen/blogcontent/content"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	recs  map[string][]content.Record
	err   error
}

func (f *fakeSource) Records(_ context.Context, collection string) ([]content.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.recs[collection], f.err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func blogRecords() map[string][]content.Record {
	return map[string][]content.Record{
		"blog": {
			{"id": "blog/old.md", "frontmatter": map[string]any{"title": "Old", "date": "2024-01-01"}},
			{"id": "blog/new.md", "frontmatter": map[string]any{"title": "New", "date": "2024-03-01"}},
			{"id": "blog/draft.md", "frontmatter": map[string]any{"title": "Draft", "date": "2024-02-01", "draft": true}},
		},
	}
}

func TestPostCacheServesFromMemory(t *testing.T) {
	src := &fakeSource{recs: blogRecords()}
	c := NewPostCache(src, time.Minute)
	ctx := context.Background()

	posts, err := c.Posts(ctx, "blog")
	if err != nil {
		t.Fatalf("Posts failed: %v", err)
	}
	if len(posts) != 3 || posts[0].Slug != "new" || posts[2].Slug != "old" {
		t.Fatalf("Posts should be newest first, got %v", posts)
	}
	if _, err := c.Records(ctx, "blog"); err != nil {
		t.Fatal(err)
	}
	if src.Calls() != 1 {
		t.Errorf("source called %d times, want 1", src.Calls())
	}

	published, err := c.Published(ctx, "blog")
	if err != nil {
		t.Fatal(err)
	}
	if len(published) != 2 {
		t.Errorf("Published = %d posts, want 2", len(published))
	}
}

func TestPostCacheInvalidate(t *testing.T) {
	src := &fakeSource{recs: blogRecords()}
	c := NewPostCache(src, time.Minute)
	ctx := context.Background()

	c.Posts(ctx, "blog")
	c.Invalidate()
	c.Posts(ctx, "blog")
	if src.Calls() != 2 {
		t.Errorf("source called %d times after Invalidate, want 2", src.Calls())
	}
}

func TestPostCacheExpires(t *testing.T) {
	src := &fakeSource{recs: blogRecords()}
	c := NewPostCache(src, 20*time.Millisecond)
	ctx := context.Background()

	c.Posts(ctx, "blog")
	time.Sleep(40 * time.Millisecond)
	c.Posts(ctx, "blog")
	if src.Calls() != 2 {
		t.Errorf("source called %d times after TTL, want 2", src.Calls())
	}
}

func TestPostCacheConcurrentLoad(t *testing.T) {
	src := &fakeSource{recs: blogRecords()}
	c := NewPostCache(src, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Published(context.Background(), "blog")
		}()
	}
	wg.Wait()
	if src.Calls() != 1 {
		t.Errorf("source called %d times under concurrency, want 1", src.Calls())
	}
}

func TestPostCacheGetPost(t *testing.T) {
	c := NewPostCache(&fakeSource{recs: blogRecords()}, time.Minute)
	ctx := context.Background()

	p, err := c.GetPost(ctx, "blog", "draft")
	if err != nil || !p.Draft {
		t.Fatalf("GetPost(draft) = %+v, %v", p, err)
	}
	if _, err := c.GetPost(ctx, "blog", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPostCacheSourceError(t *testing.T) {
	boom := errors.New("boom")
	c := NewPostCache(&fakeSource{err: boom}, time.Minute)
	if _, err := c.Posts(context.Background(), "blog"); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}
