package refine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/engine"
	"github.com/roach88/rulesort/internal/native"
	"github.com/roach88/rulesort/internal/optimizer"
	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/querysql"
	"github.com/roach88/rulesort/internal/spec"
)

// ErrAlreadyOptimized is returned when an optimizer state is refined again
// with filter or sort specifications.
var ErrAlreadyOptimized = errors.New("target already optimized: filter and sort must be empty")

// Request describes one refinement. Nil specifications and bounds are
// skipped.
type Request struct {
	Filter  spec.Specification
	Sort    spec.Specification
	Context compiler.ExecutionContext
	Offset  *int
	Limit   *int
}

// Refiner runs refinements through a sorting engine, a filtering engine
// and the UNION optimizer.
type Refiner struct {
	sorting   *engine.SortingEngine
	filtering *engine.FilteringEngine
	optimizer *optimizer.Optimizer
	optimize  bool
}

// Option configures a Refiner.
type Option func(*Refiner)

// WithOptimizer enables or disables the UNION rewrite. It is enabled by
// default.
func WithOptimizer(enabled bool) Option {
	return func(r *Refiner) { r.optimize = enabled }
}

// New creates a Refiner.
func New(sorting *engine.SortingEngine, filtering *engine.FilteringEngine, opts ...Option) *Refiner {
	r := &Refiner{
		sorting:   sorting,
		filtering: filtering,
		optimizer: optimizer.New(filtering),
		optimize:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RefineSpec filters, sorts and paginates target and returns the result:
// []orm.Record for query builders, a collection of the input's shape
// otherwise.
//
// target may also be a state returned by ApplyRefineSpecReturnOptimizerResult,
// in which case req must carry no filter or sort.
func (r *Refiner) RefineSpec(ctx context.Context, target any, req Request) (any, error) {
	state, err := r.state(ctx, target, req)
	if err != nil {
		return nil, err
	}
	if _, ok := state.Builder(); !ok {
		return state.Target(), nil
	}

	query, err := r.produce(ctx, state, req)
	if err != nil {
		return nil, err
	}
	return query.Result(ctx)
}

// Query is RefineSpec for query builders without executing: it returns the
// final, possibly UNION, query.
func (r *Refiner) Query(ctx context.Context, target any, req Request) (orm.Executable, error) {
	state, err := r.state(ctx, target, req)
	if err != nil {
		return nil, err
	}
	if _, ok := state.Builder(); !ok {
		return nil, fmt.Errorf("%w: %T", optimizer.ErrUnsupportedResult, state.Target())
	}
	return r.produce(ctx, state, req)
}

func (r *Refiner) state(ctx context.Context, target any, req Request) (*optimizer.State, error) {
	if s, ok := target.(*optimizer.State); ok {
		if req.Filter != nil || req.Sort != nil {
			return nil, ErrAlreadyOptimized
		}
		return s, nil
	}
	return r.apply(ctx, target, req, r.optimize)
}

// produce finalizes a builder state and paginates it. Bounds in req win
// over those already set on the builder.
func (r *Refiner) produce(ctx context.Context, state *optimizer.State, req Request) (orm.Executable, error) {
	qb, _ := state.Builder()
	limit, offset := req.Limit, req.Offset
	if limit == nil {
		limit = qb.MaxResults()
	}
	if offset == nil && qb.FirstResult() > 0 {
		first := qb.FirstResult()
		offset = &first
	}
	if state.CanBeOptimized() {
		// Pagination belongs to the UNION, not to its members.
		state = state.WithTarget(qb.Clone().SetFirstResult(0).SetMaxResults(nil))
	}

	final, err := r.optimizer.Finalize(ctx, state, nil)
	if err != nil {
		return nil, err
	}
	return r.optimizer.ProduceQuery(final, limit, offset)
}

// RefineSpecOne returns the first element of RefineSpec's result. The
// boolean is false when the result is empty.
func (r *Refiner) RefineSpecOne(ctx context.Context, target any, req Request) (any, bool, error) {
	result, err := r.RefineSpec(ctx, target, req)
	if err != nil {
		return nil, false, err
	}
	if records, ok := result.([]orm.Record); ok {
		if len(records) == 0 {
			return nil, false, nil
		}
		return records[0], true, nil
	}

	items, _, err := native.Collect(result)
	if err != nil {
		return nil, false, err
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	return items[0], true, nil
}

// ApplyRefineSpec is ApplyRefineSpecReturnOptimizerResult returning only
// the target: a filtered and sorted clone of a query builder, or the
// refined collection.
func (r *Refiner) ApplyRefineSpec(ctx context.Context, target any, req Request) (any, error) {
	state, err := r.ApplyRefineSpecReturnOptimizerResult(ctx, target, req)
	if err != nil {
		return nil, err
	}
	return state.Target(), nil
}

// ApplyRefineSpecReturnOptimizerResult applies the refinement without
// running the optimizer and without executing anything.
func (r *Refiner) ApplyRefineSpecReturnOptimizerResult(ctx context.Context, target any, req Request) (*optimizer.State, error) {
	return r.apply(ctx, target, req, false)
}

// Count returns the number of results RefineSpec would produce without
// pagination. Query builders are counted by the database; a UNION is
// wrapped in an outer COUNT.
func (r *Refiner) Count(ctx context.Context, target any, req Request) (int, error) {
	req.Offset, req.Limit = nil, nil
	state, err := r.apply(ctx, target, req, r.optimize)
	if err != nil {
		return 0, err
	}

	qb, ok := state.Builder()
	if !ok {
		return native.Len(state.Target())
	}

	root, err := qb.RootAlias()
	if err != nil {
		return 0, err
	}
	entity, err := qb.EntityOf(root)
	if err != nil {
		return 0, err
	}
	id := queryir.Column{Alias: root, Field: entity.ID()}

	items := qb.SelectItems()
	qb = qb.Clone().
		Select(queryir.ExprSelect{Expr: queryir.Count{Expr: id, Distinct: true}, As: "total"}).
		ResetParts(orm.PartOrderBy).
		SetFirstResult(0).
		SetMaxResults(nil)

	// A relevance score selected for ranking becomes a plain condition.
	if match, ok := findMatch(items); ok {
		qb.ResetParts(orm.PartHaving).
			AndWhere(queryir.Compare{Op: ">", Left: match, Right: queryir.Param{Value: 0}})
	}

	final, err := r.optimizer.Finalize(ctx, state.WithTarget(qb), func(member *orm.QueryBuilder) *orm.QueryBuilder {
		return member.Select(queryir.ExprSelect{Expr: id, As: entity.ID()})
	})
	if err != nil {
		return 0, err
	}

	var query orm.Executable
	switch t := final.Target().(type) {
	case *orm.NativeQuery:
		sql := fmt.Sprintf("SELECT COUNT(%s) AS sclr_0 FROM (%s) u", t.Mapping()[0].Name, t.SQL())
		mapping := querysql.Mapping{{Name: "sclr_0", Field: "total", Scalar: true}}
		query = t.EntityManager().CreateNativeQuery(sql, t.Params(), mapping)
	case *orm.QueryBuilder:
		if query, err = t.GetQuery(); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: %T", optimizer.ErrUnsupportedResult, t)
	}

	v, err := query.SingleScalarResult(ctx)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

func (r *Refiner) apply(ctx context.Context, target any, req Request, optimize bool) (*optimizer.State, error) {
	if qb, ok := target.(*orm.QueryBuilder); ok {
		state, err := r.optimizer.Prepare(qb, req.Filter, optimize)
		if err != nil {
			return nil, err
		}
		b, _ := state.Builder()
		if req.Offset != nil {
			b.SetFirstResult(*req.Offset)
		}
		if req.Limit != nil {
			b.SetMaxResults(req.Limit)
		}
		if filter := state.Filter(); filter != nil {
			if _, err := r.filtering.ApplyFilterSpec(ctx, b, filter, req.Context); err != nil {
				return nil, err
			}
		}
		if req.Sort != nil {
			if _, err := r.sorting.ApplySortSpec(ctx, b, req.Sort, req.Context); err != nil {
				return nil, err
			}
		}
		return state.WithExecutionContext(req.Context), nil
	}

	result := target
	var err error
	if req.Sort != nil {
		if result, err = r.sorting.SortSpec(ctx, result, req.Sort, req.Context); err != nil {
			return nil, err
		}
	}
	if req.Filter != nil {
		if result, err = r.filtering.FilterSpec(ctx, result, req.Filter, req.Context); err != nil {
			return nil, err
		}
	}
	if req.Offset != nil || req.Limit != nil {
		if result, err = paginate(result, req.Offset, req.Limit); err != nil {
			return nil, err
		}
	}
	return optimizer.NewState(result, req.Filter).WithExecutionContext(req.Context), nil
}

// paginate slices a collection. Iterators are drained first.
func paginate(target any, offset, limit *int) (any, error) {
	items, rebuild, err := native.Collect(target)
	if err != nil {
		return nil, fmt.Errorf("cannot apply bounds: %w", err)
	}
	slog.Debug("paginating collection", "len", len(items))

	lo := 0
	if offset != nil {
		lo = min(max(*offset, 0), len(items))
	}
	hi := len(items)
	if limit != nil {
		hi = min(lo+max(*limit, 0), len(items))
	}
	return rebuild(items[lo:hi]), nil
}

func findMatch(items []queryir.SelectItem) (queryir.Match, bool) {
	for _, item := range items {
		if es, ok := item.(queryir.ExprSelect); ok {
			if m, ok := es.Expr.(queryir.Match); ok {
				return m, true
			}
		}
	}
	return queryir.Match{}, false
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	case []byte:
		return strconv.Atoi(string(n))
	}
	return 0, fmt.Errorf("unexpected count result %T", v)
}
