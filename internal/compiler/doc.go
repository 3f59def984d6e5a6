// Package compiler is the shared rule compiler: it parses rule text once per
// (target compiler, rule) pair and hands the AST to the target compiler,
// which turns it into an Executor.
//
// Executors are stateless besides their compiled plan. Parameters and the
// execution context are passed at call time, so one executor serves every
// invocation of the same rule against the same kind of target; the Compiler
// caches them in an LRU keyed by target instance and rule text.
//
// A target compiler only implements the operations its target supports.
// Embedding Unsupported gives every other operation a fail-fast
// ErrNotSupported implementation.
package compiler
