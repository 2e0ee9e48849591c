package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-blog")
	data := NewData(dir)
	var out bytes.Buffer
	if err := Generate(dir, data, &out); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, name := range []string{
		"config.yaml",
		".env.example",
		".gitignore",
		"content/blog/hello-world.md",
		"content/blog/components.md",
		"content/pages/about.md",
		"public/styles.css",
	} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	cfg, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cfg), `name: "My Blog"`) {
		t.Errorf("config.yaml not rendered with site name:\n%s", cfg)
	}
	post, err := os.ReadFile(filepath.Join(dir, "content", "blog", "hello-world.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(post), "date: "+data.Today) {
		t.Errorf("post missing date %s:\n%s", data.Today, post)
	}
	if !strings.Contains(out.String(), "created") {
		t.Errorf("no progress output: %q", out.String())
	}
}

func TestGenerateRefusesExistingDir(t *testing.T) {
	if err := Generate(t.TempDir(), Data{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for existing directory")
	}
}

func TestToTitle(t *testing.T) {
	tests := map[string]string{
		"my-blog":   "My Blog",
		"myblog":    "Myblog",
		"dev_notes": "Dev Notes",
		"--x--":     "X",
	}
	for in, want := range tests {
		if got := ToTitle(in); got != want {
			t.Errorf("ToTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
