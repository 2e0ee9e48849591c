package content

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Params is the decoded form of the content API's _params argument:
//
//	{"where":[{"id":{"$contains":"blog/"},"draft":{"$ne":true}}],
//	 "sort":[{"date":-1}], "skip":0, "limit":10}
//
// Clauses in Where are ANDed, as are the fields inside each clause. Each
// Sort entry names exactly one field; later entries break ties.
type Params struct {
	Where []map[string]any `json:"where,omitempty"`
	Sort  []map[string]int `json:"sort,omitempty"`
	Skip  int              `json:"skip,omitempty"`
	Limit int              `json:"limit,omitempty"`
}

// ParseParams decodes a _params JSON value. Empty input yields zero Params.
func ParseParams(raw string) (Params, error) {
	var p Params
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return p, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return Params{}, fmt.Errorf("content: invalid _params: %w", err)
	}
	if p.Skip < 0 || p.Limit < 0 {
		return Params{}, fmt.Errorf("content: skip and limit must be non-negative")
	}
	for i, s := range p.Sort {
		if len(s) != 1 {
			return Params{}, fmt.Errorf("content: sort entry %d must name exactly one field, got %d", i, len(s))
		}
	}
	for _, clause := range p.Where {
		for field, cond := range clause {
			if err := checkCondition(cond); err != nil {
				return Params{}, fmt.Errorf("content: where %q: %w", field, err)
			}
		}
	}
	return p, nil
}

var operators = map[string]bool{
	"$eq": true, "$ne": true, "$contains": true, "$in": true, "$nin": true,
	"$gt": true, "$gte": true, "$lt": true, "$lte": true, "$exists": true,
}

func checkCondition(cond any) error {
	ops, ok := cond.(map[string]any)
	if !ok {
		return nil
	}
	for op, v := range ops {
		if !operators[op] {
			return fmt.Errorf("unknown operator %s", op)
		}
		if op == "$in" || op == "$nin" {
			if _, isList := v.([]any); !isList {
				return fmt.Errorf("%s expects a list", op)
			}
		}
	}
	return nil
}

// Key is a stable string form of p, usable as a cache key.
func (p Params) Key() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// Apply filters, sorts and slices records. It never mutates its input.
func (p Params) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	if len(p.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return p.less(out[i], out[j])
		})
	}
	if p.Skip > 0 {
		if p.Skip >= len(out) {
			return []Record{}
		}
		out = out[p.Skip:]
	}
	if p.Limit > 0 && p.Limit < len(out) {
		out = out[:p.Limit]
	}
	return out
}

// Match reports whether r satisfies every where clause.
func (p Params) Match(r Record) bool {
	for _, clause := range p.Where {
		for field, cond := range clause {
			v, present := Lookup(r, field)
			if !evaluate(v, present, cond) {
				return false
			}
		}
	}
	return true
}

func (p Params) less(a, b Record) bool {
	for _, s := range p.Sort {
		for field, dir := range s {
			av, _ := Lookup(a, field)
			bv, _ := Lookup(b, field)
			c := compare(av, bv)
			if c == 0 {
				continue
			}
			if dir < 0 {
				return c > 0
			}
			return c < 0
		}
	}
	return false
}

// Lookup resolves a field in a record: the top level first, then the
// frontmatter and meta mappings. Dotted names walk nested mappings.
func Lookup(r Record, field string) (any, bool) {
	if v, ok := walk(r, field); ok {
		return v, true
	}
	for _, nested := range []string{"frontmatter", "meta"} {
		if m, ok := r[nested].(map[string]any); ok {
			if v, ok := walk(m, field); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func walk(m map[string]any, field string) (any, bool) {
	cur := any(m)
	for _, part := range strings.Split(field, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = mm[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func evaluate(v any, present bool, cond any) bool {
	ops, ok := cond.(map[string]any)
	if !ok {
		return present && equal(v, cond)
	}
	for op, arg := range ops {
		if !apply(op, v, present, arg) {
			return false
		}
	}
	return true
}

func apply(op string, v any, present bool, arg any) bool {
	switch op {
	case "$eq":
		return present && equal(v, arg)
	case "$ne":
		return !present || !equal(v, arg)
	case "$exists":
		return present == cast.ToBool(arg)
	case "$contains":
		return present && contains(v, arg)
	case "$in":
		return present && inList(v, arg)
	case "$nin":
		return !present || !inList(v, arg)
	case "$gt":
		return present && compare(v, arg) > 0
	case "$gte":
		return present && compare(v, arg) >= 0
	case "$lt":
		return present && compare(v, arg) < 0
	case "$lte":
		return present && compare(v, arg) <= 0
	}
	return false
}

func contains(v, arg any) bool {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if equal(item, arg) {
				return true
			}
		}
		return false
	}
	if list, ok := v.([]string); ok {
		for _, item := range list {
			if equal(item, arg) {
				return true
			}
		}
		return false
	}
	return strings.Contains(cast.ToString(v), cast.ToString(arg))
}

func inList(v, arg any) bool {
	list, ok := arg.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if equal(v, item) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := number(a); aok {
		if bf, bok := number(b); bok {
			return af == bf
		}
	}
	if ab, ok := a.(bool); ok {
		bb, err := cast.ToBoolE(b)
		return err == nil && ab == bb
	}
	if _, ok := a.(string); ok {
		return a.(string) == cast.ToString(b)
	}
	return reflect.DeepEqual(a, b)
}

// compare orders numbers numerically, dates chronologically and everything
// else as strings. Missing values sort first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			return cmpFloat(af, bf)
		}
	}
	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.Compare(bt)
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return cast.ToFloat64(n), true
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch v.(type) {
	case time.Time, string:
		t, err := cast.ToTimeE(v)
		return t, err == nil
	}
	return time.Time{}, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
