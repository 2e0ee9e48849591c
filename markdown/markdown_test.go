package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(md string) string {
	var buf bytes.Buffer
	RenderMarkdown(&buf, md)
	return buf.String()
}

func TestFormatInlineEmphasis(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"__bold__", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"_italic_", "<em>italic</em>"},
		{"text **bold** more", "text <strong>bold</strong> more"},
		{"**bold *italic* text**", "<strong>bold <em>italic</em> text</strong>"},
		{"__bold _italic_ text__", "<strong>bold <em>italic</em> text</strong>"},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input, new(int))
		if got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineEscapesHTML(t *testing.T) {
	got := FormatInline(`<script>alert("x")</script>`, new(int))
	if strings.Contains(got, "<script>") {
		t.Errorf("FormatInline should escape raw HTML, got %q", got)
	}
}

func TestFormatInlineCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"`code`", "<code>code</code>"},
		{"use `fmt.Println` here", "use <code>fmt.Println</code> here"},
		{"`**not bold**`", "<code>**not bold**</code>"},
		{"`snake_case_name`", "<code>snake_case_name</code>"},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input, new(int))
		if got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineLinks(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			"[Wikipedia](https://en.wikipedia.org/wiki/Some_Article_Title)",
			`<a href="https://en.wikipedia.org/wiki/Some_Article_Title" class="underline decoration-2 underline-offset-4">Wikipedia</a>`,
		},
		{
			"Check [this](https://example.com)^ out",
			`Check <a href="https://example.com" class="underline decoration-2 underline-offset-4" target="_blank" rel="noopener noreferrer">this</a> out`,
		},
		{
			"[relative](/blog/other-post)",
			`<a href="/blog/other-post" class="underline decoration-2 underline-offset-4">relative</a>`,
		},
		{"[bad](javascript:void)", "bad"},
	}
	for _, tt := range tests {
		got := FormatInline(tt.input, new(int))
		if got != tt.expected {
			t.Errorf("FormatInline(%q)\n  got:  %q\n  want: %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineImages(t *testing.T) {
	count := 0
	first := FormatInline("![cover](/images/cover.png)", &count)
	second := FormatInline("![detail](https://cdn.example.com/a_b.jpg)", &count)
	if !strings.Contains(first, `fetchpriority="high"`) || !strings.Contains(first, `src="/images/cover.png"`) {
		t.Errorf("first image = %q", first)
	}
	if !strings.Contains(second, `loading="lazy"`) || !strings.Contains(second, `src="https://cdn.example.com/a_b.jpg"`) {
		t.Errorf("second image = %q", second)
	}
	if count != 2 {
		t.Errorf("image count = %d, want 2", count)
	}
}

func TestRenderMarkdownHeadings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", "<h1>Heading 1</h1>"},
		{"## Heading 2", "<h2>Heading 2</h2>"},
		{"### Heading 3", "<h3>Heading 3</h3>"},
		{"#### Heading 4", "<h4>Heading 4</h4>"},
		{"#nospace", "<p>#nospace</p>"},
	}
	for _, tt := range tests {
		if got := render(tt.input); got != tt.expected {
			t.Errorf("RenderMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownParagraphs(t *testing.T) {
	got := render("first line\nsecond line\n\nnext para")
	want := "<p>first line second line</p><p>next para</p>"
	if got != want {
		t.Errorf("RenderMarkdown = %q, want %q", got, want)
	}
}

func TestRenderMarkdownLists(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"- item 1\n- item 2", "<ul><li>item 1</li><li>item 2</li></ul>"},
		{"1. first\n2. second", "<ol><li>first</li><li>second</li></ol>"},
		{"1. **bold** item\n2. *italic* item", "<ol><li><strong>bold</strong> item</li><li><em>italic</em> item</li></ol>"},
		{"- a\n1. b", "<ul><li>a</li></ul><ol><li>b</li></ol>"},
	}
	for _, tt := range tests {
		if got := render(tt.input); got != tt.expected {
			t.Errorf("RenderMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownBlockquoteAndRule(t *testing.T) {
	got := render("> quoted\n> more\n\n---")
	want := "<blockquote>quoted more</blockquote><hr/>"
	if got != want {
		t.Errorf("RenderMarkdown = %q, want %q", got, want)
	}
}

func TestRenderMarkdownCodeBlock(t *testing.T) {
	got := render("```go\nfmt.Println(\"<hi>\")\n```")
	for _, want := range []string{
		`<div class="code-block-wrapper">`,
		`<span class="code-lang code-lang-go">go</span>`,
		`<code class="language-go">`,
		`&lt;hi&gt;`,
		"</code></pre></div>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("code block missing %q: %q", want, got)
		}
	}

	plain := render("```\nplain **code**\n```")
	if strings.Contains(plain, "code-block-wrapper") || strings.Contains(plain, "<strong>") {
		t.Errorf("plain code block = %q", plain)
	}
	if !strings.Contains(plain, "<code>") {
		t.Errorf("plain code block missing <code>: %q", plain)
	}
}

func TestRenderMarkdownUnclosedFence(t *testing.T) {
	got := render("```\nnever closed")
	if !strings.HasSuffix(got, "</code></pre>") {
		t.Errorf("unclosed fence should still close tags: %q", got)
	}
}

func TestRenderMarkdownTable(t *testing.T) {
	got := render("| a | b |\n|---|:-:|\n| 1 | **2** |")
	want := "<table><thead><tr><th>a</th><th>b</th></tr></thead><tbody><tr><td>1</td><td><strong>2</strong></td></tr></tbody></table>"
	if got != want {
		t.Errorf("RenderMarkdown table = %q, want %q", got, want)
	}
}

func TestRenderMarkdownAlertComponents(t *testing.T) {
	for kind, color := range map[string]string{"info": "blue", "warning": "yellow", "error": "red", "success": "green"} {
		got := render("::alert{type=\"" + kind + "\"}\nHeads **up**\n::")
		if !strings.Contains(got, "ProseAlert") || !strings.Contains(got, "bg-"+color+"-50") {
			t.Errorf("alert %s = %q", kind, got)
		}
		if !strings.Contains(got, "<p>Heads <strong>up</strong></p></div>") {
			t.Errorf("alert %s should render its content: %q", kind, got)
		}
	}
	if got := render("::alert{type=\"bogus\"}\nx\n::"); !strings.Contains(got, "bg-blue-50") {
		t.Errorf("unknown alert type should fall back to info: %q", got)
	}
}

func TestRenderMarkdownCalloutComponent(t *testing.T) {
	got := render("before\n::callout{title=\"Tip\"}\n- one\n::\nafter")
	for _, want := range []string{
		"<p>before</p>",
		`class="ProseCallout`,
		"bg-gradient-to-r from-primary",
		`<p class="font-semibold">Tip</p>`,
		"<ul><li>one</li></ul></div>",
		"<p>after</p>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("callout missing %q: %q", want, got)
		}
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com", "https://example.com"},
		{"/local", "/local"},
		{"#anchor", "#anchor"},
		{"mailto:a@b.c", "mailto:a@b.c"},
		{"javascript:alert(1)", ""},
		{"relative/path", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.in); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("# Title\n\nSome **bold** & [link](/x).")
	if got != "Title Some bold & link ." {
		t.Errorf("PlainText = %q", got)
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("## Hi").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != "<h2>Hi</h2>" {
		t.Errorf("Render = %q", buf.String())
	}
}
