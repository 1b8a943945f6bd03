package query

import "strings"

// Valuer exposes record fields by API name for in-memory evaluation
type Valuer interface {
	FieldValue(name string) any
}

// Matches evaluates the descriptor against a record with the same semantics
// the SQL compiler gives it
func (d Descriptor) Matches(v Valuer) bool {
	for _, c := range d.All {
		if !c.Matches(v) {
			return false
		}
	}
	if len(d.Any) == 0 {
		return true
	}
	for _, c := range d.Any {
		if c.Matches(v) {
			return true
		}
	}
	return false
}

// Matches evaluates a single condition against a record
func (c Condition) Matches(v Valuer) bool {
	value := v.FieldValue(c.Field)

	if c.Numeric {
		n, ok := toFloat(value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEqual:
			return n == c.Number
		case OpRange:
			return n >= c.Min && n <= c.Max
		}
		return false
	}

	s, ok := value.(string)
	if !ok {
		return false
	}
	switch c.Op {
	case OpContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(c.Text))
	case OpPrefix:
		return strings.HasPrefix(strings.ToLower(s), strings.ToLower(c.Text))
	case OpEqual:
		return strings.EqualFold(s, c.Text)
	}
	return false
}
