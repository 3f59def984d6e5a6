package spec

// Parameter is one parameter slot of a rule. An empty Name marks a
// positional slot ("?"), otherwise the slot is named (":name").
type Parameter struct {
	Name  string
	Value any
}

// Parameters is the ordered parameter list of a rule.
type Parameters []Parameter

// Positional builds a list of positional parameters.
func Positional(values ...any) Parameters {
	params := make(Parameters, len(values))
	for i, v := range values {
		params[i] = Parameter{Value: v}
	}
	return params
}

// Named builds a single named parameter.
func Named(name string, value any) Parameter {
	return Parameter{Name: name, Value: value}
}

// Positional returns the i-th positional parameter (0-based), skipping named
// ones.
func (p Parameters) Positional(i int) (any, bool) {
	n := 0
	for _, param := range p {
		if param.Name != "" {
			continue
		}
		if n == i {
			return param.Value, true
		}
		n++
	}
	return nil, false
}

// Named returns the value of the named parameter.
func (p Parameters) Named(name string) (any, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return nil, false
}

// Lookup resolves a parameter reference: by name when name is non-empty,
// by positional index otherwise.
func (p Parameters) Lookup(name string, index int) (any, bool) {
	if name != "" {
		return p.Named(name)
	}
	return p.Positional(index)
}
