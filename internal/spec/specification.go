package spec

import "strings"

// Specification pairs a rule with its parameters.
type Specification interface {
	Rule() string
	Parameters() Parameters
}

// RuleSpec is a plain specification built from rule text.
type RuleSpec struct {
	rule   string
	params Parameters
}

// Rule creates a specification from rule text and parameters.
//
//	spec.Rule("age >= :min AND city = ?", spec.Named("min", 18), spec.Parameter{Value: "Oslo"})
func Rule(rule string, params ...Parameter) *RuleSpec {
	return &RuleSpec{rule: strings.TrimSpace(rule), params: append(Parameters(nil), params...)}
}

// Rule implements Specification.
func (s *RuleSpec) Rule() string { return s.rule }

// Parameters implements Specification.
func (s *RuleSpec) Parameters() Parameters { return append(Parameters(nil), s.params...) }

// NotSpec negates a specification.
type NotSpec struct {
	inner Specification
}

// Not negates spec.
func Not(spec Specification) *NotSpec {
	return &NotSpec{inner: spec}
}

// Rule implements Specification.
func (s *NotSpec) Rule() string { return "NOT (" + s.inner.Rule() + ")" }

// Parameters implements Specification.
func (s *NotSpec) Parameters() Parameters { return s.inner.Parameters() }

// Inner returns the negated specification.
func (s *NotSpec) Inner() Specification { return s.inner }
