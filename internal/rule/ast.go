// Package rule parses the rule DSL shared by filter and sort specifications.
//
// A rule is a boolean expression over record properties:
//
//	age >= :min AND (city = ? OR city = 'Oslo') AND NOT archived = true
//
// Sort rules reuse the same grammar: a conjunction of "key = parameter"
// clauses, where the parameter carries the key's direction:
//
//	age = ? AND length(name) = ?
//
// Node is a sealed interface; only types in this package implement it, so
// target compilers can switch exhaustively over node kinds.
package rule

import "strings"

// Node is a node of a parsed rule.
type Node interface {
	ruleNode() // Marker method - seals interface to this package
}

// Access reads a (possibly nested) property: "address.city" has the path
// ["address", "city"].
type Access struct {
	Path []string
}

func (Access) ruleNode() {}

// String renders the dotted path.
func (a Access) String() string { return strings.Join(a.Path, ".") }

// Parameter references a bound parameter. Named parameters (":name") carry
// their Name; positional ones ("?") carry their 0-based Index in textual
// order.
type Parameter struct {
	Name  string
	Index int
}

func (Parameter) ruleNode() {}

// Literal is a constant: string, int64, float64, bool or nil.
type Literal struct {
	Value any
}

func (Literal) ruleNode() {}

// Call applies a named operator to arguments: "length(name)".
type Call struct {
	Name string
	Args []Node
}

func (Call) ruleNode() {}

// Binary applies an infix operator. Op is one of "=", "!=", "<", "<=",
// ">", ">=", "and", "or".
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

func (Binary) ruleNode() {}

// Not negates its operand.
type Not struct {
	Operand Node
}

func (Not) ruleNode() {}

// Conjuncts flattens a tree of "and" nodes into its operands, left to right.
func Conjuncts(n Node) []Node {
	if b, ok := n.(Binary); ok && b.Op == "and" {
		return append(Conjuncts(b.Left), Conjuncts(b.Right)...)
	}
	return []Node{n}
}

// ParameterNames returns the names of the named parameters referenced by n,
// in order of first appearance.
func ParameterNames(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch x := n.(type) {
		case Parameter:
			if x.Name != "" && !seen[x.Name] {
				seen[x.Name] = true
				names = append(names, x.Name)
			}
		case Call:
			for _, arg := range x.Args {
				walk(arg)
			}
		case Binary:
			walk(x.Left)
			walk(x.Right)
		case Not:
			walk(x.Operand)
		}
	}
	walk(n)
	return names
}
