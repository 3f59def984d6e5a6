// Package spec provides composable specifications: value objects pairing a
// rule written in the rule DSL with its parameter bindings.
//
// Two families live here:
//
//   - Filter specifications (Rule, Not, AndX, OrX, FilterTemplateComposite)
//     describe boolean conditions.
//   - Sort specifications (SortBy, SortByOperator, SortAndX) describe an
//     ordered list of sort keys, each bound to one Direction parameter.
//
// A sort rule reuses the filter grammar: every key is written as
// "key = ?" and the parameter carries the direction. Composing sort keys
// concatenates the rules with " AND " and the parameter lists positionally:
//
//	byAge := spec.SortBy(spec.Ascending, "age")
//	byName := spec.SortBy(spec.Descending, "name")
//	both, err := spec.NewSortAndX(byAge, byName)
//	// both.Rule()       == "age = ? AND name = ?"
//	// both.Parameters() == [ASC, DESC]
//
// Composites are immutable and validated at construction: two children that
// define the same named parameter make the constructor fail with a
// *ParameterOverriddenError.
package spec
