package blogcontent

import (
	"context"
	"testing"
	"time"
)

func TestResponseKey(t *testing.T) {
	a := ResponseKey("content_query", "blog", `{"limit":1}`)
	if a != ResponseKey("content_query", "blog", `{"limit":1}`) {
		t.Error("ResponseKey should be deterministic")
	}
	if a == ResponseKey("content_query", "pages", `{"limit":1}`) {
		t.Error("different collections should give different keys")
	}
	if ResponseKey("ab", "c") == ResponseKey("a", "bc") {
		t.Error("part boundaries should affect the key")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestNopCache(t *testing.T) {
	var c ResponseCache = nopCache{}
	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"))
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("nopCache should never hit")
	}
	c.Purge(ctx)
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url", time.Minute); err == nil {
		t.Fatal("expected error for invalid redis URL")
	}
}
