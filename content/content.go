// Package content loads Markdown documents with YAML frontmatter into named
// collections of raw records, and evaluates the JSON query DSL used by the
// content API against them.
package content

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is a raw document. Frontmatter keys live under "frontmatter"; the
// Markdown source is under "body".
type Record = map[string]any

// Collection groups documents whose path starts with Prefix.
type Collection struct {
	Name   string `yaml:"name"`
	Prefix string `yaml:"prefix"`
}

// DefaultCollections mirrors the site layout: articles under blog/, static
// pages under pages/, and everything else in docs.
var DefaultCollections = []Collection{
	{Name: "blog", Prefix: "blog/"},
	{Name: "pages", Prefix: "pages/"},
	{Name: "docs", Prefix: ""},
}

var extensions = map[string]bool{".md": true, ".markdown": true}

// Warning reports a document that loaded with defects.
type Warning struct {
	ID  string
	Err error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.ID, w.Err)
}

// LoadResult holds the records per collection plus any load warnings.
type LoadResult struct {
	Records  map[string][]Record
	Warnings []Warning
}

// Count returns the number of records across all collections.
func (r LoadResult) Count() int {
	n := 0
	for _, recs := range r.Records {
		n += len(recs)
	}
	return n
}

// Load walks fsys and assigns every Markdown file to the first collection
// whose prefix matches. Files outside all collections are skipped. Malformed
// frontmatter never aborts the load: the document is kept with an empty
// frontmatter and a warning is recorded.
func Load(fsys fs.FS, collections []Collection) (LoadResult, error) {
	res := LoadResult{Records: make(map[string][]Record)}
	for _, c := range collections {
		res.Records[c.Name] = []Record{}
	}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !extensions[strings.ToLower(path.Ext(p))] {
			return nil
		}
		coll, ok := match(collections, p)
		if !ok {
			return nil
		}
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		rec, perr := Parse(p, src)
		if perr != nil {
			res.Warnings = append(res.Warnings, Warning{ID: p, Err: perr})
		}
		rec["collection"] = coll.Name
		res.Records[coll.Name] = append(res.Records[coll.Name], rec)
		return nil
	})
	if err != nil {
		return LoadResult{}, err
	}
	for name := range res.Records {
		recs := res.Records[name]
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i]["id"].(string) < recs[j]["id"].(string)
		})
	}
	return res, nil
}

func match(collections []Collection, p string) (Collection, bool) {
	for _, c := range collections {
		if c.Prefix == "" || strings.HasPrefix(p, c.Prefix) {
			return c, true
		}
	}
	return Collection{}, false
}

// Parse splits src into frontmatter and body and builds the record for the
// document at id. On a frontmatter error the returned record is still
// complete, with an empty frontmatter, and the error is returned alongside.
func Parse(id string, src []byte) (Record, error) {
	ext := path.Ext(id)
	rec := Record{
		"id":          id,
		"stem":        strings.TrimSuffix(id, ext),
		"extension":   strings.TrimPrefix(strings.ToLower(ext), "."),
		"frontmatter": map[string]any{},
	}
	fm, body, err := splitFrontmatter(src)
	rec["body"] = string(body)
	if err != nil {
		return rec, err
	}
	if len(fm) == 0 {
		return rec, nil
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return rec, fmt.Errorf("frontmatter: %w", err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	rec["frontmatter"] = stringKeys(meta)
	return rec, nil
}

var delimiter = []byte("---")

// splitFrontmatter returns the YAML between a leading pair of "---" lines and
// the remaining body. A document without a leading delimiter is all body.
func splitFrontmatter(src []byte) (fm, body []byte, err error) {
	src = bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))
	first, rest, found := bytes.Cut(src, []byte("\n"))
	if !found || !bytes.Equal(bytes.TrimSpace(first), delimiter) {
		return nil, src, nil
	}
	offset := 0
	for {
		line, after, more := bytes.Cut(rest[offset:], []byte("\n"))
		if bytes.Equal(bytes.TrimSpace(line), delimiter) {
			return rest[:offset], after, nil
		}
		if !more {
			return nil, src, fmt.Errorf("frontmatter: missing closing %q", delimiter)
		}
		offset += len(line) + 1
	}
}

// stringKeys rewrites YAML mappings with non-string keys so every nested
// mapping is a map[string]any and the record stays JSON-encodable.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = stringKeys(t[i])
		}
		return t
	}
	return v
}
