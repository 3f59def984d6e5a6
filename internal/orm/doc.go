// Package orm is a small entity query layer: a QueryBuilder over
// queryir.Select, compiled by querysql and executed through a Querier
// (normally *store.Store).
//
// Results are hydrated into Records through the statement's result-set
// mapping: fields of the root alias sit at the top level, fields of joined
// aliases are nested under the alias, scalars sit at the top level under
// their result name.
//
//	qb := em.CreateQueryBuilder().
//		Select(queryir.EntitySelect{Alias: "p"}).
//		From("Person", "p").
//		LeftJoin("p", "address", "_address", nil)
//	q, err := qb.GetQuery()
//	records, err := q.Result(ctx)
package orm
