package blogcontent

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/eringen/blogcontent/post"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"blog"}, "https://example.com/blog/"},
		{"https://example.com/", []string{"blog", "my-post"}, "https://example.com/blog/my-post/"},
		{"https://example.com/sub", []string{"blog"}, "https://example.com/sub/blog/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}

func TestAbsURL(t *testing.T) {
	if got := AbsURL("https://example.com/", "og/default.png"); got != "https://example.com/og/default.png" {
		t.Errorf("AbsURL = %q", got)
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	p := post.Post{Slug: "hello", Title: "Hello </script>", Description: "d", Date: "2024-01-15", Author: "Ada", Tags: []string{"go", "web"}}
	raw := BlogPostingJsonLD(p, SiteInfo{Name: "Blog", URL: "https://example.com"}, "https://example.com/og/hello.jpg")

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("invalid JSON-LD: %v", err)
	}
	if data["headline"] != "Hello </script>" || data["url"] != "https://example.com/blog/hello/" {
		t.Errorf("unexpected JSON-LD: %v", data)
	}
	if data["keywords"] != "go, web" || data["image"] != "https://example.com/og/hello.jpg" {
		t.Errorf("unexpected JSON-LD: %v", data)
	}
	if strings.ContainsAny(raw, "<>") {
		t.Errorf("JSON-LD must escape angle brackets for <script> embedding: %s", raw)
	}
}
