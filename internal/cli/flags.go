package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rulesort/internal/refine"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

// RefineFlags holds the filter, sort and pagination flags shared by the
// sort and query commands.
type RefineFlags struct {
	Sort      []string // "path[:asc|desc]" or "op(path, ...)[:asc|desc]"
	Filter    string
	Templates []string
	Params    []string // "name=value", value parsed as YAML
	Offset    int
	Limit     int
	Count     bool
}

func (f *RefineFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVar(&f.Sort, "by", nil, "sort key, path[:asc|desc] or op(path,...)[:asc|desc]; repeatable")
	fs.StringVar(&f.Filter, "filter", "", "filter rule using :name parameters")
	fs.StringArrayVar(&f.Templates, "template", nil, "filter template rule, OR'ed with the other templates; repeatable")
	fs.StringArrayVarP(&f.Params, "param", "p", nil, "named parameter name=value; repeatable")
	fs.IntVar(&f.Offset, "offset", 0, "skip this many results")
	fs.IntVar(&f.Limit, "limit", 0, "return at most this many results")
	fs.BoolVar(&f.Count, "count", false, "print the number of results instead of the results")
}

// request builds the refinement described by the flags.
func (f *RefineFlags) request(cmd *cobra.Command) (refine.Request, error) {
	var req refine.Request

	params, err := parseParams(f.Params)
	if err != nil {
		return req, err
	}

	var filters []spec.Specification
	if f.Filter != "" {
		s, err := ruleSpec(f.Filter, params)
		if err != nil {
			return req, err
		}
		filters = append(filters, s)
	}
	if len(f.Templates) > 0 {
		templates := make([]spec.Specification, len(f.Templates))
		for i, text := range f.Templates {
			if templates[i], err = ruleSpec(text, params); err != nil {
				return req, err
			}
		}
		ftc, err := spec.NewFilterTemplateComposite(templates...)
		if err != nil {
			return req, err
		}
		filters = append(filters, ftc)
	}
	switch len(filters) {
	case 1:
		req.Filter = filters[0]
	case 2:
		if req.Filter, err = spec.NewAndX(filters...); err != nil {
			return req, err
		}
	}

	if len(f.Sort) > 0 {
		keys := make([]spec.Specification, len(f.Sort))
		for i, key := range f.Sort {
			if keys[i], err = sortKey(key); err != nil {
				return req, err
			}
		}
		if req.Sort, err = spec.NewSortAndX(keys...); err != nil {
			return req, err
		}
	}

	if cmd.Flags().Changed("offset") {
		offset := f.Offset
		req.Offset = &offset
	}
	if cmd.Flags().Changed("limit") {
		limit := f.Limit
		req.Limit = &limit
	}
	return req, nil
}

func parseParams(raw []string) (map[string]any, error) {
	params := make(map[string]any, len(raw))
	for _, p := range raw {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q: want name=value", p)
		}
		var v any
		if err := yaml.Unmarshal([]byte(value), &v); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		params[name] = v
	}
	return params, nil
}

// ruleSpec binds the named parameters text references.
func ruleSpec(text string, params map[string]any) (spec.Specification, error) {
	n, err := rule.Parse(text)
	if err != nil {
		return nil, err
	}
	var bound []spec.Parameter
	for _, name := range rule.ParameterNames(n) {
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("rule %q: missing parameter :%s", text, name)
		}
		bound = append(bound, spec.Named(name, v))
	}
	return spec.Rule(text, bound...), nil
}

// sortKey parses "key[:dir]". Keys are paths or operator calls and are
// used verbatim.
func sortKey(raw string) (spec.Specification, error) {
	key, dir := raw, spec.Ascending
	if i := strings.LastIndex(raw, ":"); i >= 0 && !strings.Contains(raw[i:], ")") {
		d, err := spec.ParseDirection(raw[i+1:])
		if err != nil {
			return nil, fmt.Errorf("sort key %q: %w", raw, err)
		}
		key, dir = raw[:i], d
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("sort key %q: empty", raw)
	}
	return spec.SortBy(dir, strings.TrimSpace(key)), nil
}
