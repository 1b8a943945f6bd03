package query

import (
	"strings"
	"time"
)

// Direction is a sort order
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a resolved, allow-listed sort specification
type Sort struct {
	Field  string
	Column string
	Order  Direction
}

// ResolveSort maps client sortBy/sortOrder onto the schema. An unknown field falls
// back to the schema default in ascending order; only "desc" selects descending.
func ResolveSort(s *Schema, sortBy, sortOrder string) Sort {
	f, ok := s.Field(sortBy)
	if !ok || !f.Sortable {
		def, _ := s.Field(s.DefaultSort)
		return Sort{Field: def.Name, Column: def.Column, Order: Asc}
	}

	order := Asc
	if sortOrder == string(Desc) {
		order = Desc
	}
	return Sort{Field: f.Name, Column: f.Column, Order: order}
}

// Less orders two records by the sort field. Equal keys report false both ways.
func (s Sort) Less(a, b Valuer) bool {
	c := compare(a.FieldValue(s.Field), b.FieldValue(s.Field))
	if s.Order == Desc {
		return c > 0
	}
	return c < 0
}

func compare(a, b any) int {
	if x, ok := toFloat(a); ok {
		y, _ := toFloat(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}

	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		return strings.Compare(strings.ToLower(x), strings.ToLower(y))
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
