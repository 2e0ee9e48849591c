package post

import "fmt"

// Problem describes one frontmatter defect in a raw record.
type Problem struct {
	Field  string
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Field, p.Reason)
}

// Validate inspects a raw record before normalization and reports what
// Normalize would have to paper over. It does not change the record.
func Validate(raw Record) []Problem {
	src := sources(raw)
	var problems []Problem
	for _, field := range []string{"title", "description"} {
		if resolveString(src, field, "") == "" {
			problems = append(problems, Problem{Field: field, Reason: "missing"})
		}
	}
	if v, ok := lookup(src, "date"); !ok {
		problems = append(problems, Problem{Field: "date", Reason: "missing"})
	} else if _, valid := parseDate(v); !valid {
		problems = append(problems, Problem{Field: "date", Reason: fmt.Sprintf("invalid date %q", fmt.Sprint(v))})
	}
	if v, ok := lookup(src, "tags"); ok {
		if _, isSeq := asTags(v); !isSeq {
			problems = append(problems, Problem{Field: "tags", Reason: "not a list"})
		}
	}
	return problems
}

func lookup(src []map[string]any, field string) (any, bool) {
	for _, m := range src {
		if v, ok := m[field]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
