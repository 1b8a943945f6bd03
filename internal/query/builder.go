package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxTermLength bounds the search term so descriptors stay small
const MaxTermLength = 200

// Op is a comparison performed by a Condition
type Op string

const (
	OpContains Op = "contains" // case-insensitive literal substring
	OpEqual    Op = "eq"
	OpPrefix   Op = "prefix" // case-insensitive literal prefix
	OpRange    Op = "range"  // inclusive numeric range
)

// Params are the raw list parameters a client may send
type Params struct {
	Search       string
	FilterField  string
	FilterValue  string
	FilterPrefix bool
}

// Condition is a single predicate over one schema field
type Condition struct {
	Field   string
	Column  string
	Op      Op
	Numeric bool
	Text    string
	Number  float64
	Min     float64
	Max     float64
}

// Descriptor is the storage-neutral form of a list query. A record matches when
// it satisfies every condition in All and, if Any is non-empty, at least one in Any.
type Descriptor struct {
	Term string
	Any  []Condition
	All  []Condition
}

// MatchAll reports whether the descriptor places no restriction on records
func (d Descriptor) MatchAll() bool {
	return len(d.Any) == 0 && len(d.All) == 0
}

// ParamError reports an unusable list parameter
type ParamError struct {
	Field   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Build produces the match descriptor for a search term and optional filter
func Build(s *Schema, p Params) (Descriptor, error) {
	term := strings.TrimSpace(p.Search)
	if utf8.RuneCountInString(term) > MaxTermLength {
		return Descriptor{}, &ParamError{
			Field:   "search",
			Message: fmt.Sprintf("must be at most %d characters", MaxTermLength),
		}
	}

	d := Descriptor{Term: term}
	if term != "" {
		d.Any = searchConditions(s, term)
	}

	if p.FilterField != "" && strings.TrimSpace(p.FilterValue) != "" {
		c, err := filterCondition(s, p)
		if err != nil {
			return Descriptor{}, err
		}
		d.All = append(d.All, c)
	}

	return d, nil
}

func searchConditions(s *Schema, term string) []Condition {
	n, numeric := parseNumber(term)

	var conds []Condition
	for _, f := range s.Fields {
		if !f.Searchable {
			continue
		}
		switch {
		case f.Kind == KindText:
			conds = append(conds, Condition{Field: f.Name, Column: f.Column, Op: OpContains, Text: term})
		case !numeric:
		case f.Kind == KindInteger:
			// float64(math.MaxInt64) is 2^63, the first value past the int64 range
			if n == math.Trunc(n) && n >= 1 && n < math.MaxInt64 {
				conds = append(conds, Condition{Field: f.Name, Column: f.Column, Op: OpEqual, Numeric: true, Number: n})
			}
		case f.Kind == KindNumber && f.Tolerance > 0:
			lo, hi := n*(1-f.Tolerance), n*(1+f.Tolerance)
			conds = append(conds, Condition{
				Field: f.Name, Column: f.Column, Op: OpRange, Numeric: true,
				Min: math.Min(lo, hi), Max: math.Max(lo, hi),
			})
		case f.Kind == KindNumber:
			conds = append(conds, Condition{Field: f.Name, Column: f.Column, Op: OpEqual, Numeric: true, Number: n})
		}
	}
	return conds
}

func filterCondition(s *Schema, p Params) (Condition, error) {
	f, ok := s.Field(p.FilterField)
	if !ok || !f.Filterable {
		return Condition{}, &ParamError{Field: p.FilterField, Message: "is not a filterable field"}
	}

	value := strings.TrimSpace(p.FilterValue)
	if f.Kind.Numeric() {
		n, ok := parseNumber(value)
		if !ok {
			return Condition{}, &ParamError{Field: f.Name, Message: "must be a number"}
		}
		return Condition{Field: f.Name, Column: f.Column, Op: OpEqual, Numeric: true, Number: n}, nil
	}

	op := OpEqual
	if p.FilterPrefix {
		op = OpPrefix
	}
	// a trailing * asks for a prefix match: department=Eng*
	if v, ok := strings.CutSuffix(value, "*"); ok && v != "" {
		value, op = v, OpPrefix
	}
	return Condition{Field: f.Name, Column: f.Column, Op: op, Text: value}, nil
}

// parseNumber accepts a term only when the whole term is a finite number
func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so the value matches literally with ESCAPE '\'
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
