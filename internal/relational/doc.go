// Package relational compiles rules for *orm.QueryBuilder targets.
//
// Property paths are resolved against the builder when the executor is
// applied, not when the rule is compiled, because the root alias and the
// joins already present are only known then:
//
//	age                 → p.age                     (root alias)
//	address.city        → _address.city             LEFT JOIN p.address _address
//	address.country.name → _address_country.name    LEFT JOIN _address.country _address_country
//	_address.city       → _address.city             (alias already joined by the caller)
//
// Joins are added with LeftJoinUnique, so applying the same rule twice
// leaves a single join behind.
package relational
