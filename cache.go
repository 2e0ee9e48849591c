package blogcontent

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/blogcontent/content"
	"github.com/eringen/blogcontent/post"
)

// ErrNotFound is returned when a requested document or post does not exist.
var ErrNotFound = post.ErrNotFound

// RecordSource is where the cache reads raw documents from.
type RecordSource interface {
	Records(ctx context.Context, collection string) ([]content.Record, error)
}

type cacheEntry struct {
	records []content.Record
	posts   []post.Post
	fetched time.Time
}

// PostCache is an in-memory TTL cache of raw records and their normalized
// posts, per collection. Returned slices are shared snapshots and must not
// be modified.
type PostCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	source  RecordSource
}

// NewPostCache creates a PostCache backed by src.
func NewPostCache(src RecordSource, ttl time.Duration) *PostCache {
	return &PostCache{source: src, ttl: ttl, entries: make(map[string]*cacheEntry)}
}

func (c *PostCache) valid(e *cacheEntry) bool {
	return e != nil && time.Since(e.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// ensureLoaded returns a fresh entry for collection. It tries a read lock
// first and only takes the write lock when a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context, collection string) (*cacheEntry, error) {
	c.mu.RLock()
	e := c.entries[collection]
	c.mu.RUnlock()
	if c.valid(e) {
		return e, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.entries[collection]; c.valid(e) {
		return e, nil
	}
	recs, err := c.source.Records(ctx, collection)
	if err != nil {
		return nil, err
	}
	e = &cacheEntry{
		records: recs,
		posts:   post.Sort(post.NormalizeAll(recs), post.DateDesc),
		fetched: time.Now(),
	}
	c.entries[collection] = e
	return e, nil
}

// Records returns the raw documents of collection ("" for all).
func (c *PostCache) Records(ctx context.Context, collection string) ([]content.Record, error) {
	e, err := c.ensureLoaded(ctx, collection)
	if err != nil {
		return nil, err
	}
	return e.records, nil
}

// Posts returns every normalized post in collection, drafts included,
// newest first.
func (c *PostCache) Posts(ctx context.Context, collection string) ([]post.Post, error) {
	e, err := c.ensureLoaded(ctx, collection)
	if err != nil {
		return nil, err
	}
	return e.posts, nil
}

// Published returns the non-draft posts of collection, newest first.
func (c *PostCache) Published(ctx context.Context, collection string) ([]post.Post, error) {
	posts, err := c.Posts(ctx, collection)
	if err != nil {
		return nil, err
	}
	return post.Filter(posts, post.Published), nil
}

// GetPost returns a post by slug from collection, drafts included.
func (c *PostCache) GetPost(ctx context.Context, collection, slug string) (post.Post, error) {
	posts, err := c.Posts(ctx, collection)
	if err != nil {
		return post.Post{}, err
	}
	return post.FindBySlug(posts, slug)
}
