// Package refine combines filtering, sorting and pagination in one call.
//
// Query builders go through the optimizer, so a filter holding a
// filter-template disjunction runs as a UNION with pagination applied
// outside it. In-memory collections are sorted, then filtered, then sliced.
//
// The caller's builder is never mutated; results and intermediate builders
// are always fresh values.
package refine
