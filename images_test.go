package blogcontent

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/eringen/blogcontent/post"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcessImageResizes(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{2400, 1200, 1200, 600},
		{800, 400, 800, 400},
	}
	for _, tt := range tests {
		data, err := processImage(bytes.NewReader(pngBytes(t, tt.w, tt.h)))
		if err != nil {
			t.Fatalf("processImage failed: %v", err)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if format != "jpeg" || cfg.Width != tt.wantW || cfg.Height != tt.wantH {
			t.Errorf("%dx%d -> %s %dx%d, want jpeg %dx%d", tt.w, tt.h, format, cfg.Width, cfg.Height, tt.wantW, tt.wantH)
		}
	}
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	if _, err := processImage(strings.NewReader("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRenderCard(t *testing.T) {
	data, err := renderCard(strings.Repeat("A very long site name ", 5))
	if err != nil {
		t.Fatalf("renderCard failed: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || cfg.Width != cardW*cardScale || cfg.Height != cardH*cardScale {
		t.Errorf("card = %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestCardLabel(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{"Short", 10, "Short"},
		{"Exactly ten", 11, "Exactly ten"},
		{"Much too long", 5, "Much~"},
		{"Ünïcödé blög", 5, "Ünïc~"},
		{"日本語のブログ", 4, "日本語~"},
	}
	for _, tt := range tests {
		got := cardLabel(tt.name, tt.limit)
		if got != tt.want {
			t.Errorf("cardLabel(%q, %d) = %q, want %q", tt.name, tt.limit, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("cardLabel(%q, %d) = %q is not valid UTF-8", tt.name, tt.limit, got)
		}
	}
}

func TestRenderCardMultibyteName(t *testing.T) {
	if _, err := renderCard(strings.Repeat("Blög über Go ", 8)); err != nil {
		t.Fatalf("renderCard failed: %v", err)
	}
}

func TestPrepareCovers(t *testing.T) {
	contentDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(contentDir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(contentDir, "images", "cover.png"), pngBytes(t, 1600, 900), 0o644); err != nil {
		t.Fatal(err)
	}
	a := &App{Config: SiteConfig{ContentDir: contentDir, CacheDir: t.TempDir(), URL: "https://example.com"}}

	posts := []post.Post{
		{ID: "blog/a.md", Slug: "a", Image: "/images/cover.png"},
		{ID: "blog/b.md", Slug: "b", Image: "https://cdn.example.com/b.jpg"},
		{ID: "blog/c.md", Slug: "c", Image: "../secret.png"},
		{ID: "blog/d.md", Slug: "d", Image: "images/missing.png"},
		{ID: "blog/e.md", Slug: "e"},
	}
	warnings := a.prepareCovers(posts)
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	if _, err := os.Stat(filepath.Join(a.ogDir(), "a.jpg")); err != nil {
		t.Errorf("cover for a not written: %v", err)
	}

	if got := a.coverURL(posts[0]); got != "https://example.com/og/a.jpg" {
		t.Errorf("coverURL(a) = %q", got)
	}
	if got := a.coverURL(posts[1]); got != "https://cdn.example.com/b.jpg" {
		t.Errorf("coverURL(b) = %q", got)
	}
	if got := a.coverURL(posts[4]); got != "https://example.com/og/default.png" {
		t.Errorf("coverURL(e) = %q", got)
	}
}
