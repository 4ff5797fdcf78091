package goal

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Parse reads a goal written as a boolean expression over relation calls,
// for example
//
//	inside(a, b) and not holding(c) or ontop(a, floor)
//
// Operators and/&&, or/|| and not/! nest arbitrarily; the result is
// normalized to DNF with negation pushed down to the literals. Object
// identifiers may be bare names or quoted strings.
func Parse(input string) (Formula, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: empty goal", ErrMalformedGoal)
	}
	tree, err := parser.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGoal, err)
	}
	return toDNF(tree.Node, false)
}

// MustParse is like Parse but panics on error.
func MustParse(input string) Formula {
	f, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseLiteral reads a single, possibly negated, relation call.
func ParseLiteral(input string) (Literal, error) {
	f, err := Parse(input)
	if err != nil {
		return Literal{}, err
	}
	if len(f) != 1 || len(f[0]) != 1 {
		return Literal{}, fmt.Errorf("%w: %q is not a single literal", ErrMalformedGoal, input)
	}
	return f[0][0], nil
}

func toDNF(node ast.Node, negated bool) (Formula, error) {
	switch n := node.(type) {
	case *ast.UnaryNode:
		if n.Operator != "not" && n.Operator != "!" {
			return nil, fmt.Errorf("%w: unsupported operator %q", ErrMalformedGoal, n.Operator)
		}
		return toDNF(n.Node, !negated)

	case *ast.BinaryNode:
		var conj bool
		switch n.Operator {
		case "and", "&&":
			conj = true
		case "or", "||":
			conj = false
		default:
			return nil, fmt.Errorf("%w: unsupported operator %q", ErrMalformedGoal, n.Operator)
		}
		left, err := toDNF(n.Left, negated)
		if err != nil {
			return nil, err
		}
		right, err := toDNF(n.Right, negated)
		if err != nil {
			return nil, err
		}
		// De Morgan: a negated conjunction distributes as a disjunction.
		if conj != negated {
			return product(left, right), nil
		}
		return append(left, right...), nil

	case *ast.CallNode:
		lit, err := literal(n)
		if err != nil {
			return nil, err
		}
		if negated {
			lit = lit.Negate()
		}
		return Formula{{lit}}, nil

	default:
		return nil, fmt.Errorf("%w: expected a relation, got %T", ErrMalformedGoal, node)
	}
}

func product(left, right Formula) Formula {
	out := make(Formula, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			c := make(Conjunction, 0, len(l)+len(r))
			c = append(c, l...)
			c = append(c, r...)
			out = append(out, c)
		}
	}
	return out
}

func literal(n *ast.CallNode) (Literal, error) {
	callee, ok := n.Callee.(*ast.IdentifierNode)
	if !ok {
		return Literal{}, fmt.Errorf("%w: relation name must be an identifier", ErrMalformedGoal)
	}
	rel := Relation(strings.ToLower(callee.Value))
	if !rel.IsValid() {
		return Literal{}, fmt.Errorf("%w: unknown relation %q", ErrMalformedGoal, callee.Value)
	}
	if len(n.Arguments) != rel.Arity() {
		return Literal{}, fmt.Errorf("%w: %s takes %d argument(s), got %d",
			ErrMalformedGoal, rel, rel.Arity(), len(n.Arguments))
	}

	args := make([]string, len(n.Arguments))
	for i, a := range n.Arguments {
		switch v := a.(type) {
		case *ast.IdentifierNode:
			args[i] = v.Value
		case *ast.StringNode:
			args[i] = v.Value
		default:
			return Literal{}, fmt.Errorf("%w: argument %d of %s must be an object name", ErrMalformedGoal, i+1, rel)
		}
	}
	return Literal{Positive: true, Relation: rel, Args: args}, nil
}
