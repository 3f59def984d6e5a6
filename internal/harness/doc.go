// Package harness runs refinement scenarios described in YAML against
// in-memory records.
//
// # Scenario Format
//
//	name: age_then_name
//	description: "Sort by age, ties broken by name"
//	records:
//	  - {age: 30, name: b}
//	  - {age: 25, name: a}
//	sort:
//	  - key: age
//	  - key: name
//	    direction: desc
//	filter:
//	  rule: "age > :min"
//	  params: {min: 20}
//	templates:
//	  - rule: "name = :who"
//	    params: {who: a}
//	offset: 1
//	limit: 2
//	assertions:
//	  - type: result_order
//	    path: name
//	    values: [a, b]
//	  - type: total
//	    count: 2
//
// # Assertion Types
//
//   - result_order: the values at path, in result order
//   - result_count: number of refined records
//   - result_contains: some refined record matches where (subset match)
//   - total: Count of the refinement, ignoring offset and limit
//   - error: refinement fails with a message containing message
//
// Each scenario gets its own engines and compiler cache, so scenarios do
// not observe each other's compiled rules.
package harness
