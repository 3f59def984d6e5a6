// Package optimizer rewrites a query filtered by a filter-template
// disjunction into a UNION with one member per template.
//
// The rewrite runs in two phases around the caller's own filtering and
// sorting:
//
//	state, _ := opt.Prepare(qb, filter, true)   // extract the disjunction
//	// apply state.Filter() and the sort to state.Builder()
//	state, _ = opt.Finalize(ctx, state, nil)    // build the UNION
//	query, _ := opt.ProduceQuery(state, limit, offset)
//
// Every phase returns a new State. The caller's builder is cloned by Prepare
// and never mutated afterwards.
package optimizer
