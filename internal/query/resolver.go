package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/klytics/sheetchat/internal/table"
)

// Resolver decides which columns and values a question refers to. Swapping
// the resolver changes how loose the matching is without touching handlers.
type Resolver interface {
	// Columns returns the columns referenced anywhere in q, in table order.
	Columns(t *table.Table, q string) []*table.Column
	// Token returns the first column whose name matches a single word, or nil.
	Token(t *table.Table, token string) *table.Column
	// Mentions reports whether q mentions fragment (a column name or value).
	Mentions(q, fragment string) bool
}

// ParseResolver returns the resolver for a matcher name.
func ParseResolver(name string) (Resolver, error) {
	switch name {
	case "", "substring":
		return SubstringResolver{}, nil
	case "word":
		return WordResolver{}, nil
	}
	return nil, fmt.Errorf("invalid matcher %q — expected \"substring\" or \"word\"", name)
}

// SubstringResolver matches by plain substring containment. Short or generic
// column names match inside unrelated words ("age" in "average").
type SubstringResolver struct{}

func (SubstringResolver) Columns(t *table.Table, q string) []*table.Column {
	var out []*table.Column
	for _, c := range t.Columns() {
		if c.Name != "" && strings.Contains(q, c.Name) {
			out = append(out, c)
		}
	}
	return out
}

func (SubstringResolver) Token(t *table.Table, token string) *table.Column {
	if token == "" {
		return nil
	}
	for _, c := range t.Columns() {
		if strings.Contains(c.Name, token) {
			return c
		}
	}
	return nil
}

func (SubstringResolver) Mentions(q, fragment string) bool {
	return fragment != "" && strings.Contains(q, fragment)
}

// WordResolver only matches whole words. Underscores in column names match
// either an underscore or a space in the question.
type WordResolver struct{}

func (w WordResolver) Columns(t *table.Table, q string) []*table.Column {
	var out []*table.Column
	for _, c := range t.Columns() {
		if w.Mentions(q, c.Name) {
			out = append(out, c)
		}
	}
	return out
}

func (WordResolver) Token(t *table.Table, token string) *table.Column {
	if token == "" {
		return nil
	}
	for _, c := range t.Columns() {
		if c.Name == token {
			return c
		}
		for _, part := range strings.Split(c.Name, "_") {
			if part == token {
				return c
			}
		}
	}
	return nil
}

func (WordResolver) Mentions(q, fragment string) bool {
	if fragment == "" {
		return false
	}
	pattern := regexp.QuoteMeta(fragment)
	pattern = strings.ReplaceAll(pattern, "_", "[_ ]")
	re, err := regexp.Compile(`(^|[^\p{L}\p{N}_])` + pattern + `($|[^\p{L}\p{N}_])`)
	if err != nil {
		return false
	}
	return re.MatchString(q)
}
