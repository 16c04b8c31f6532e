// Package syntax parses binding text into the syntax tree of package ast.
//
// The grammar is that of the expr language: literals, names, member access,
// indexing, calls, unary and binary operators, the conditional operator,
// "let" declarations and ";" sequences. Predicate arguments of the
// collection functions, written "{ # > 1 }" or "{ .Qty > 1 }", become
// single-parameter lambdas whose parameter is named by the pointer "#".
// Constructs without a binding equivalent are kept in the tree as nodes
// carrying syntax errors, which the builder reports with every other error
// of the binding.
package syntax

import (
	"errors"
	"log/slog"
	"strconv"

	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/parser"

	"github.com/ardnew/bindc/binding/ast"
	"github.com/ardnew/bindc/pkg"
)

// ErrParse is returned for text that is not a well-formed expression.
var ErrParse = pkg.NewError("parse error")

// Pointer is the name of the parameter of a predicate lambda. Predicates
// nested in a predicate number their parameter by depth: "#2", "#3", ...
const Pointer = "#"

// Parse parses src into a syntax tree.
func Parse(src string) (ast.Node, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, ErrParse.Wrap(err).With(slog.Int("length", len(src)))
	}

	c := converter{}

	return c.convert(tree.Node), nil
}

type converter struct {
	// depth counts the predicates enclosing the node being converted.
	depth int
}

func (c *converter) pointer() string {
	if c.depth <= 1 {
		return Pointer
	}

	return Pointer + strconv.Itoa(c.depth)
}

func unsupported(n exprast.Node, what string) ast.Node {
	return ast.NewVoid(
		ast.Located(n.Location()),
		ast.WithErrors(what+" is not supported in bindings"),
	)
}

func (c *converter) list(nodes []exprast.Node) []ast.Node {
	out := make([]ast.Node, len(nodes))
	for i, n := range nodes {
		out[i] = c.convert(n)
	}

	return out
}

func (c *converter) convert(node exprast.Node) ast.Node {
	if node == nil {
		return ast.NewVoid()
	}

	at := ast.Located(node.Location())

	switch n := node.(type) {
	case *exprast.NilNode:
		return ast.NewLiteral(nil, at)
	case *exprast.IntegerNode:
		return ast.NewLiteral(n.Value, at)
	case *exprast.FloatNode:
		return ast.NewLiteral(n.Value, at)
	case *exprast.BoolNode:
		return ast.NewLiteral(n.Value, at)
	case *exprast.StringNode:
		return ast.NewLiteral(n.Value, at)
	case *exprast.ConstantNode:
		return ast.NewLiteral(n.Value, at)

	case *exprast.IdentifierNode:
		return ast.NewSimpleName(n.Value, at)

	case *exprast.PointerNode:
		if n.Name != "" {
			return unsupported(n, "pointer #"+n.Name)
		}

		return ast.NewSimpleName(c.pointer(), at)

	case *exprast.UnaryNode:
		tok, ok := ast.TokenOf(n.Operator)
		if !ok {
			return unsupported(n, "operator "+n.Operator)
		}

		return ast.NewUnary(tok, c.convert(n.Node), at)

	case *exprast.BinaryNode:
		tok, ok := ast.TokenOf(n.Operator)
		if !ok {
			return unsupported(n, "operator "+n.Operator)
		}

		return ast.NewBinary(tok, c.convert(n.Left), c.convert(n.Right), at)

	case *exprast.ConditionalNode:
		return ast.NewConditional(
			c.convert(n.Cond), c.convert(n.Exp1), c.convert(n.Exp2), at)

	case *exprast.MemberNode:
		return c.member(n)

	case *exprast.ChainNode:
		return unsupported(n, "optional chaining")

	case *exprast.CallNode:
		return ast.NewFunctionCall(c.convert(n.Callee), c.list(n.Arguments), at)

	case *exprast.BuiltinNode:
		callee := ast.NewSimpleName(n.Name, at)

		return ast.NewFunctionCall(callee, c.list(n.Arguments), at)

	case *exprast.PredicateNode:
		c.depth++
		param := ast.NewLambdaParameter(c.pointer(), nil, at)
		body := c.convert(n.Node)
		c.depth--

		return ast.NewLambda([]*ast.LambdaParameter{param}, body, at)

	case *exprast.VariableDeclaratorNode:
		return ast.NewBlock(
			c.convert(n.Value),
			ast.NewSimpleName(n.Name, at),
			c.convert(n.Expr),
			at,
		)

	case *exprast.SequenceNode:
		return c.sequence(n.Nodes, at)

	case *exprast.SliceNode:
		return unsupported(n, "slicing")
	case *exprast.ArrayNode:
		return unsupported(n, "array literal")
	case *exprast.MapNode:
		return unsupported(n, "map literal")

	default:
		return unsupported(node, "expression")
	}
}

// member converts a.b to a member access and a[i] to an index. The parser
// represents both as a member node; a dotted property shares the location of
// the member node while an index starts after the bracket.
func (c *converter) member(n *exprast.MemberNode) ast.Node {
	at := ast.Located(n.Location())
	target := c.convert(n.Node)

	if n.Optional {
		return unsupported(n, "optional chaining")
	}

	if s, ok := n.Property.(*exprast.StringNode); ok && s.Location() == n.Location() {
		return ast.NewMemberAccess(target, ast.NewSimpleName(s.Value, at), at)
	}

	return ast.NewArrayAccess(target, c.convert(n.Property), at)
}

// sequence nests "a; b; c" to the right as blocks.
func (c *converter) sequence(nodes []exprast.Node, at ast.Option) ast.Node {
	switch len(nodes) {
	case 0:
		return ast.NewVoid(at)
	case 1:
		return c.convert(nodes[0])
	default:
		return ast.NewBlock(c.convert(nodes[0]), nil, c.sequence(nodes[1:], at), at)
	}
}

// Location returns the location of a syntax error returned by Parse, and
// false for other errors.
func Location(err error) (file.Location, bool) {
	var fe *file.Error
	if !errors.As(err, &fe) {
		return file.Location{}, false
	}

	return fe.Location, true
}
