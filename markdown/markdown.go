// Package markdown renders the Markdown subset used by blog content into
// HTML, including the ::alert and ::callout block components.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*|_([^_]+)_`)
	reCode       = regexp.MustCompile("`([^`]+)`")
	reImage      = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
	reLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)(\^)?`)
	reOrdered    = regexp.MustCompile(`^(\d+)\.\s`)
	reHeading    = regexp.MustCompile(`^(#{1,4})\s+(.*)$`)
	reComponent  = regexp.MustCompile(`^::([a-z][a-z0-9-]*)(?:\{(.*)\})?\s*$`)
	reAttr       = regexp.MustCompile(`([a-zA-Z_-]+)="([^"]*)"`)
	placeholderF = "\x00C%d\x00"
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderMarkdown(&buf, md)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderMarkdown writes the HTML for md to buf.
func RenderMarkdown(buf *bytes.Buffer, md string) {
	r := &renderer{buf: buf, images: new(int)}
	r.render(strings.Split(md, "\n"))
}

type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockOrdered
	blockQuote
	blockTable
)

var closers = map[block]string{
	blockPara:    "</p>",
	blockList:    "</ul>",
	blockOrdered: "</ol>",
	blockQuote:   "</blockquote>",
}

type renderer struct {
	buf       *bytes.Buffer
	images    *int
	open      block
	tableBody bool
}

func (r *renderer) close() {
	switch r.open {
	case blockNone:
		return
	case blockTable:
		if r.tableBody {
			r.buf.WriteString("</tbody>")
		}
		r.buf.WriteString("</table>")
		r.tableBody = false
	default:
		r.buf.WriteString(closers[r.open])
	}
	r.open = blockNone
}

// enter closes whatever block is open unless it is already b, and reports
// whether a new block was started.
func (r *renderer) enter(b block, opening string) bool {
	if r.open == b {
		return false
	}
	r.close()
	r.buf.WriteString(opening)
	r.open = b
	return true
}

func (r *renderer) inline(s string) string {
	return FormatInline(strings.TrimSpace(s), r.images)
}

func (r *renderer) render(lines []string) {
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(line, "```") {
			r.close()
			i = r.fence(lines, i)
			continue
		}
		if m := reComponent.FindStringSubmatch(trimmed); m != nil {
			r.close()
			i = r.component(lines, i, m[1], parseAttrs(m[2]))
			continue
		}
		if trimmed == "" {
			r.close()
			continue
		}

		switch {
		case trimmed == "---" || trimmed == "***":
			r.close()
			r.buf.WriteString("<hr/>")
		case reHeading.MatchString(line):
			r.close()
			m := reHeading.FindStringSubmatch(line)
			level := strconv.Itoa(len(m[1]))
			r.buf.WriteString("<h" + level + ">" + r.inline(m[2]) + "</h" + level + ">")
		case strings.HasPrefix(line, "|"):
			r.tableRow(line)
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			r.enter(blockList, "<ul>")
			r.buf.WriteString("<li>" + r.inline(line[2:]) + "</li>")
		case reOrdered.MatchString(line):
			r.enter(blockOrdered, "<ol>")
			r.buf.WriteString("<li>" + r.inline(reOrdered.ReplaceAllString(line, "")) + "</li>")
		case strings.HasPrefix(line, ">"):
			if !r.enter(blockQuote, "<blockquote>") {
				r.buf.WriteString(" ")
			}
			r.buf.WriteString(r.inline(strings.TrimPrefix(line, ">")))
		default:
			if !r.enter(blockPara, "<p>") {
				r.buf.WriteString(" ")
			}
			r.buf.WriteString(r.inline(line))
		}
	}
	r.close()
}

// fence renders a fenced code block starting at lines[start] and returns the
// index of its closing fence. An unclosed fence runs to the end of input.
func (r *renderer) fence(lines []string, start int) int {
	lang := html.EscapeString(strings.TrimSpace(strings.TrimPrefix(strings.TrimRight(lines[start], "\r"), "```")))
	if lang != "" {
		r.buf.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + lang + `">` + lang + `</span>`)
		r.buf.WriteString(`<pre class="code-block"><code class="language-` + lang + `">`)
	} else {
		r.buf.WriteString(`<pre class="code-block"><code>`)
	}
	i := start + 1
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if strings.HasPrefix(line, "```") {
			break
		}
		r.buf.WriteString(html.EscapeString(line))
		r.buf.WriteString("\n")
	}
	r.buf.WriteString("</code></pre>")
	if lang != "" {
		r.buf.WriteString("</div>")
	}
	return i
}

var alertColors = map[string]string{
	"info":    "blue",
	"warning": "yellow",
	"error":   "red",
	"success": "green",
}

// component renders a ::name{attrs} ... :: block. The content between the
// markers is rendered as Markdown. Unknown components render their content
// in a plain div so nothing is lost.
func (r *renderer) component(lines []string, start int, name string, attrs map[string]string) int {
	end := len(lines)
	for j := start + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "::" {
			end = j
			break
		}
	}
	switch name {
	case "alert":
		kind := attrs["type"]
		color, ok := alertColors[kind]
		if !ok {
			kind, color = "info", "blue"
		}
		r.buf.WriteString(`<div class="ProseAlert prose-alert-` + kind + ` my-4 rounded-md border border-` + color + `-200 bg-` + color + `-50 p-4" role="alert">`)
	case "callout":
		r.buf.WriteString(`<div class="ProseCallout my-4 rounded-md border-l-4 border-primary bg-gradient-to-r from-primary/10 to-transparent p-4">`)
		if title := attrs["title"]; title != "" {
			r.buf.WriteString(`<p class="font-semibold">` + html.EscapeString(title) + `</p>`)
		}
	default:
		r.buf.WriteString(`<div class="component-` + html.EscapeString(name) + `">`)
	}
	inner := &renderer{buf: r.buf, images: r.images}
	inner.render(lines[start+1 : end])
	r.buf.WriteString("</div>")
	return end
}

func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range reAttr.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

func (r *renderer) tableRow(line string) {
	cells := splitCells(line)
	if r.open != blockTable {
		r.close()
		r.open = blockTable
		r.buf.WriteString("<table><thead><tr>")
		for _, c := range cells {
			r.buf.WriteString("<th>" + r.inline(c) + "</th>")
		}
		r.buf.WriteString("</tr></thead>")
		return
	}
	if !r.tableBody {
		r.buf.WriteString("<tbody>")
		r.tableBody = true
	}
	if isSeparator(cells) {
		return
	}
	r.buf.WriteString("<tr>")
	for _, c := range cells {
		r.buf.WriteString("<td>" + r.inline(c) + "</td>")
	}
	r.buf.WriteString("</tr>")
}

func splitCells(line string) []string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-:") != "" {
			return false
		}
	}
	return true
}

// FormatInline escapes s and applies inline formatting: code spans, images,
// links, bold and italic. imageCount tracks images across a document so the
// first one can be fetched eagerly.
func FormatInline(s string, imageCount *int) string {
	escaped := html.EscapeString(s)

	// Code spans and generated tags are swapped for placeholders so the
	// emphasis patterns never see their contents.
	var held []string
	hold := func(fragment string) string {
		held = append(held, fragment)
		return strings.Replace(placeholderF, "%d", strconv.Itoa(len(held)-1), 1)
	}

	escaped = reCode.ReplaceAllStringFunc(escaped, func(m string) string {
		return hold("<code>" + reCode.FindStringSubmatch(m)[1] + "</code>")
	})
	escaped = reImage.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reImage.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}
		*imageCount++
		load := `loading="lazy"`
		if *imageCount == 1 {
			load = `fetchpriority="high"`
		}
		return hold(`<img ` + load + ` alt="` + match[1] + `" src="` + src + `" decoding="async"/>`)
	})
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		attrs := `class="underline decoration-2 underline-offset-4"`
		if match[3] == "^" {
			attrs += ` target="_blank" rel="noopener noreferrer"`
		}
		return hold(`<a href="`+href+`" `+attrs+`>`) + match[1] + hold(`</a>`)
	})

	escaped = reBold.ReplaceAllStringFunc(escaped, func(m string) string {
		sub := reBold.FindStringSubmatch(m)
		return "<strong>" + sub[1] + sub[2] + "</strong>"
	})
	escaped = emphasize(escaped)

	for i, frag := range held {
		escaped = strings.Replace(escaped, strings.Replace(placeholderF, "%d", strconv.Itoa(i), 1), frag, 1)
	}
	return escaped
}

// emphasize applies italics outside of tags produced by the bold pass.
func emphasize(s string) string {
	var out strings.Builder
	for len(s) > 0 {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			out.WriteString(italic(s))
			break
		}
		out.WriteString(italic(s[:lt]))
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			out.WriteString(s[lt:])
			break
		}
		out.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return out.String()
}

func italic(s string) string {
	return reItalic.ReplaceAllStringFunc(s, func(m string) string {
		sub := reItalic.FindStringSubmatch(m)
		return "<em>" + sub[1] + sub[2] + "</em>"
	})
}

// SafeURL returns raw escaped for an attribute, or "" when it uses a scheme
// other than http, https, mailto or tel.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	}
	return ""
}

// PlainText strips Markdown syntax from md, for descriptions and word counts.
func PlainText(md string) string {
	var buf bytes.Buffer
	RenderMarkdown(&buf, md)
	var out strings.Builder
	inTag := false
	for _, r := range buf.String() {
		switch {
		case r == '<':
			inTag = true
			out.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			out.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(out.String())), " ")
}
