package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidExpression is returned for a malformed tag expression.
var ErrInvalidExpression = errors.New("invalid tag expression")

// Operators of the tag expression language.
const (
	opOr      = '+'
	opInclude = '*'
	opExclude = '/'
)

// Atom is a single tag reference inside a term.
type Atom struct {
	Tag     string
	Exclude bool
}

// Term is a conjunction of atoms.
type Term []Atom

// Expression is a disjunction of terms, e.g. "bachata*beginner/footwork+kizomba".
type Expression []Term

// Parse compiles a tag expression. Terms are separated by '+', atoms inside a
// term by '*' (must be present) or '/' (must be absent). The first atom of a
// term is always an inclusion.
func Parse(expr string) (Expression, error) {
	var out Expression
	for _, raw := range strings.Split(expr, string(opOr)) {
		term, err := parseTerm(raw)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidExpression, expr, err)
		}
		out = append(out, term)
	}
	return out, nil
}

func parseTerm(raw string) (Term, error) {
	var (
		term    Term
		start   int
		exclude bool
	)
	emit := func(end int) error {
		tag := strings.TrimSpace(raw[start:end])
		if tag == "" {
			return fmt.Errorf("empty tag in term %q", raw)
		}
		term = append(term, Atom{Tag: tag, Exclude: exclude})
		return nil
	}
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case opInclude, opExclude:
			if err := emit(i); err != nil {
				return nil, err
			}
			exclude = raw[i] == opExclude
			start = i + 1
		}
	}
	if err := emit(len(raw)); err != nil {
		return nil, err
	}
	return term, nil
}

// Match reports whether any term is satisfied by tags.
func (e Expression) Match(tags []string) bool {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	for _, term := range e {
		if term.match(set) {
			return true
		}
	}
	return false
}

func (t Term) match(set map[string]struct{}) bool {
	for _, a := range t {
		_, has := set[a.Tag]
		if has == a.Exclude {
			return false
		}
	}
	return true
}

// String renders the expression back to its textual form.
func (e Expression) String() string {
	var b strings.Builder
	for i, term := range e {
		if i > 0 {
			b.WriteByte(opOr)
		}
		for j, a := range term {
			switch {
			case a.Exclude:
				b.WriteByte(opExclude)
			case j > 0:
				b.WriteByte(opInclude)
			}
			b.WriteString(a.Tag)
		}
	}
	return b.String()
}

// Validate checks whether expr parses.
func Validate(expr string) error {
	_, err := Parse(expr)
	return err
}
