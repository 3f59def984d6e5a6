package spec

import (
	"fmt"
	"strings"
)

// Composite joins child specifications with an operator. The zero value is
// not usable; build composites through NewAndX, NewOrX,
// NewFilterTemplateComposite or NewSortAndX.
type Composite struct {
	operator string
	group    bool
	specs    []Specification
}

func newComposite(operator string, group bool, specs []Specification) (Composite, error) {
	c := Composite{
		operator: operator,
		group:    group,
		specs:    append([]Specification(nil), specs...),
	}
	if err := c.checkParameters(); err != nil {
		return Composite{}, err
	}
	return c, nil
}

// Rule joins the children's rules with the composite operator.
func (c Composite) Rule() string {
	rules := make([]string, 0, len(c.specs))
	for _, s := range c.specs {
		if c.group {
			rules = append(rules, "("+s.Rule()+")")
		} else {
			rules = append(rules, s.Rule())
		}
	}
	return strings.Join(rules, c.operator)
}

// Parameters concatenates the children's parameters positionally.
func (c Composite) Parameters() Parameters {
	var params Parameters
	for _, s := range c.specs {
		params = append(params, s.Parameters()...)
	}
	return params
}

// Specifications returns the children in order.
func (c Composite) Specifications() []Specification {
	return append([]Specification(nil), c.specs...)
}

// Len returns the number of children.
func (c Composite) Len() int { return len(c.specs) }

// Operator returns the separator placed between child rules.
func (c Composite) Operator() string { return c.operator }

// checkParameters fails when merging would let a named parameter of one
// child overwrite the parameter of another.
func (c Composite) checkParameters() error {
	usage := make(map[string]int)
	var order []string
	for _, s := range c.specs {
		for _, p := range s.Parameters() {
			if p.Name == "" {
				continue
			}
			if usage[p.Name] == 0 {
				order = append(order, p.Name)
			}
			usage[p.Name]++
		}
	}

	var overridden []string
	for _, name := range order {
		if usage[name] > 1 {
			overridden = append(overridden, name)
		}
	}
	if len(overridden) == 0 {
		return nil
	}

	types := make([]string, len(c.specs))
	for i, s := range c.specs {
		types[i] = fmt.Sprintf("%T", s)
	}
	return &ParameterOverriddenError{Names: overridden, Types: types}
}

// AndX is the conjunction of filter specifications.
type AndX struct{ Composite }

// NewAndX builds a conjunction.
func NewAndX(specs ...Specification) (*AndX, error) {
	c, err := newComposite(" AND ", true, specs)
	if err != nil {
		return nil, err
	}
	return &AndX{c}, nil
}

// OrX is the disjunction of filter specifications.
type OrX struct{ Composite }

// NewOrX builds a disjunction.
func NewOrX(specs ...Specification) (*OrX, error) {
	c, err := newComposite(" OR ", true, specs)
	if err != nil {
		return nil, err
	}
	return &OrX{c}, nil
}

// FilterTemplateComposite is a disjunction of structurally similar filter
// specifications ("filter templates"). The query optimizer rewrites a query
// filtered by one of these into a UNION with one member per template.
type FilterTemplateComposite struct{ Composite }

// NewFilterTemplateComposite builds a filter-template disjunction.
func NewFilterTemplateComposite(templates ...Specification) (*FilterTemplateComposite, error) {
	c, err := newComposite(" OR ", true, templates)
	if err != nil {
		return nil, err
	}
	return &FilterTemplateComposite{c}, nil
}

// SortAndX concatenates sort specifications into one multi-key sort rule.
type SortAndX struct{ Composite }

// NewSortAndX builds a multi-key sort specification. Keys keep their order:
// the first child is the primary key.
func NewSortAndX(specs ...Specification) (*SortAndX, error) {
	c, err := newComposite(" AND ", false, specs)
	if err != nil {
		return nil, err
	}
	return &SortAndX{c}, nil
}

// ContainsFilterTemplates reports whether one of the direct children of the
// conjunction is a FilterTemplateComposite.
func (a *AndX) ContainsFilterTemplates() bool {
	for _, s := range a.specs {
		if _, ok := s.(*FilterTemplateComposite); ok {
			return true
		}
	}
	return false
}
