package spec

import "strings"

// SortKey is a leaf sort specification: one sort key bound to one direction.
type SortKey struct {
	key       string
	direction Direction
	alias     string
}

// SortBy sorts by a property path ("age", "address.city").
func SortBy(direction Direction, path string) *SortKey {
	return &SortKey{key: path, direction: direction}
}

// SortByOperator sorts by the result of a registered operator applied to
// the given property paths, e.g. SortByOperator(Ascending, "length", "name")
// renders "length(name) = ?".
func SortByOperator(direction Direction, operator string, paths ...string) *SortKey {
	return &SortKey{
		key:       operator + "(" + strings.Join(paths, ", ") + ")",
		direction: direction,
	}
}

// WithAlias returns a copy whose property paths are prefixed with alias.
// Operator keys are left untouched.
func (s *SortKey) WithAlias(alias string) *SortKey {
	c := *s
	c.alias = alias
	return &c
}

// Direction returns the key's direction.
func (s *SortKey) Direction() Direction { return s.direction }

// Rule implements Specification.
func (s *SortKey) Rule() string {
	key := s.key
	if s.alias != "" && !strings.Contains(key, "(") {
		key = s.alias + "." + key
	}
	return key + " = ?"
}

// Parameters implements Specification.
func (s *SortKey) Parameters() Parameters {
	return Parameters{{Value: s.direction}}
}
