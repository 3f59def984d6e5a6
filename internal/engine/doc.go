// Package engine dispatches rules to target compilers.
//
// An engine holds an ordered list of compiler.Target values. For every call
// it picks the first target whose Supports reports true for the
// (target, mode) pair, compiles the rule through the shared, caching
// compiler.Compiler and runs the requested operation on the executor.
//
// SortingEngine serves sort, applySort and satisfies; FilteringEngine
// serves filter, applyFilter and satisfies. Both accept raw rule text with
// parameters or a spec.Specification.
//
// Registration after construction is safe, but engines are meant to be
// configured once and then shared read-only.
package engine
