// Package queryir is the query expression model shared by the query
// builder, the relational target compilers and the SQL backend.
//
// Rules are compiled to queryir values, never to SQL text. Parameter values
// travel inside the tree (Param) so that one statement, or a UNION of
// several, can be rendered in a single pass that numbers placeholders in
// textual order.
//
// ARCHITECTURE:
//
//	[rule AST] → [relational targets] → [queryir.Select] → [querysql] → SQL + params
//	                                           ↑
//	                                   [orm.QueryBuilder]
//
// SEALED INTERFACES:
//
// Expr, Predicate and SelectItem are sealed interfaces using the marker
// method pattern. Only types in this package implement them, so the SQL
// backend can switch exhaustively:
//
//	switch e := expr.(type) {
//	case Column:
//	case Param:
//	case Func:
//	case Match:
//	case Count:
//	}
//
// Select values are treated as immutable by the query builder: every
// mutation goes through Clone first.
package queryir
