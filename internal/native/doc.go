// Package native compiles rules against in-memory collections.
//
// SortTarget turns a sort rule into a multi-key comparison plan and
// produces a freshly ordered copy of the collection; it never mutates its
// input. FilterTarget evaluates boolean rules record by record.
//
// Records may be maps, structs, pointers, slices or any mix of them, nested
// to any depth. A property path is resolved one segment at a time: indexed
// containers are indexed by the segment, structs are accessed by field.
package native
