package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/engine"
	"github.com/roach88/rulesort/internal/refine"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

// Run refines the scenario's records and evaluates its assertions.
//
// A refinement error is not returned: it is kept in Result.Err for error
// assertions to inspect. Run only fails when the scenario itself cannot be
// turned into a request.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	req, err := request(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	c := compiler.New(0)
	r := refine.New(engine.DefaultSorting(c), engine.DefaultFiltering(c))

	result := NewResult()
	records := slices.Clone(scenario.Records)
	refined, err := r.RefineSpec(ctx, records, req)
	if err == nil {
		result.Records = append(result.Records, refined.([]any)...)
		result.Total, err = r.Count(ctx, records, req)
	}
	if err != nil {
		result.Records = []any{}
		result.Err = err.Error()
	}
	slog.Debug("scenario refined", "scenario", scenario.Name, "records", len(result.Records), "error", result.Err)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	if result.Err != "" && !expectsError(scenario.Assertions) {
		result.AddError("unexpected refinement error: " + result.Err)
	}
	return result, nil
}

func expectsError(assertions []Assertion) bool {
	return slices.ContainsFunc(assertions, func(a Assertion) bool { return a.Type == AssertError })
}

// request builds the refinement described by the scenario. The filter and
// the template union are AND'ed when both are present.
func request(s *Scenario) (refine.Request, error) {
	var (
		req     refine.Request
		filters []spec.Specification
	)

	if s.Filter != nil {
		f, err := ruleSpec(*s.Filter)
		if err != nil {
			return req, fmt.Errorf("filter: %w", err)
		}
		filters = append(filters, f)
	}
	if len(s.Templates) > 0 {
		templates := make([]spec.Specification, len(s.Templates))
		for i, step := range s.Templates {
			t, err := ruleSpec(step)
			if err != nil {
				return req, fmt.Errorf("templates[%d]: %w", i, err)
			}
			templates[i] = t
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
		and, err := spec.NewAndX(filters...)
		if err != nil {
			return req, err
		}
		req.Filter = and
	}

	if len(s.Sort) > 0 {
		keys := make([]spec.Specification, len(s.Sort))
		for i, key := range s.Sort {
			dir := spec.Ascending
			if key.Direction != "" {
				d, err := spec.ParseDirection(key.Direction)
				if err != nil {
					return req, fmt.Errorf("sort[%d]: %w", i, err)
				}
				dir = d
			}
			keys[i] = spec.SortBy(dir, key.Key)
		}
		sortSpec, err := spec.NewSortAndX(keys...)
		if err != nil {
			return req, err
		}
		req.Sort = sortSpec
	}

	req.Offset, req.Limit = s.Offset, s.Limit
	return req, nil
}

// ruleSpec binds the named parameters the rule references, in order of
// first appearance.
func ruleSpec(step RuleStep) (spec.Specification, error) {
	n, err := rule.Parse(step.Rule)
	if err != nil {
		return nil, err
	}
	var bound []spec.Parameter
	for _, name := range rule.ParameterNames(n) {
		v, ok := step.Params[name]
		if !ok {
			return nil, fmt.Errorf("rule %q: missing parameter :%s", step.Rule, name)
		}
		bound = append(bound, spec.Named(name, v))
	}
	return spec.Rule(step.Rule, bound...), nil
}
