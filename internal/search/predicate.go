package search

import (
	"fmt"
	"strconv"
	"strings"

	"rental-marketplace/internal/common/errors"
)

// Clause is one term of a filter predicate: either a numeric comparison
// ("rent >= 800") or a facet match ("gender:Female").
type Clause struct {
	Field string
	Op    string // ">=", "<=", ">", "<", "=", ":"
	Num   float64
	Value string
}

// Facet reports whether the clause is an exact value match.
func (c Clause) Facet() bool {
	return c.Op == ":"
}

var comparisonOps = []string{">=", "<=", "!=", ">", "<", "="}

// ParsePredicate splits a predicate built by BuildFilterPredicate back into clauses.
func ParsePredicate(s string) ([]Clause, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, " AND ")
	clauses := make([]Clause, 0, len(parts))
	for _, part := range parts {
		c, err := parseClause(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.NewInvalidFilterFormatError(err.Error())
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func parseClause(part string) (Clause, error) {
	if part == "" {
		return Clause{}, fmt.Errorf("empty clause")
	}

	colon := strings.Index(part, ":")
	for _, op := range comparisonOps {
		idx := strings.Index(part, op)
		if idx <= 0 || (colon >= 0 && colon < idx) {
			continue
		}
		if op == "!=" {
			return Clause{}, fmt.Errorf("clause %q: operator != is not supported", part)
		}
		field := strings.TrimSpace(part[:idx])
		raw := strings.TrimSpace(part[idx+len(op):])
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Clause{}, fmt.Errorf("clause %q: %q is not a number", part, raw)
		}
		if !validField(field) {
			return Clause{}, fmt.Errorf("clause %q: invalid field", part)
		}
		return Clause{Field: field, Op: op, Num: num}, nil
	}

	field, value, ok := strings.Cut(part, ":")
	if !ok {
		return Clause{}, fmt.Errorf("clause %q: expected field:value or field op number", part)
	}
	field = strings.TrimSpace(field)
	value = strings.TrimSpace(value)
	if !validField(field) {
		return Clause{}, fmt.Errorf("clause %q: invalid field", part)
	}
	if strings.HasPrefix(value, `"`) {
		unq, err := strconv.Unquote(value)
		if err != nil {
			return Clause{}, fmt.Errorf("clause %q: bad quoted value", part)
		}
		value = unq
	}
	if value == "" {
		return Clause{}, fmt.Errorf("clause %q: empty value", part)
	}
	return Clause{Field: field, Op: ":", Value: value}, nil
}

func validField(f string) bool {
	if f == "" {
		return false
	}
	for _, r := range f {
		if !(r == '_' || r == '.' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
