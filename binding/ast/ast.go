// Package ast defines the syntax tree of binding expressions as produced by a
// markup parser. The tree is immutable once built: the expression builder
// never annotates or rewrites nodes.
package ast

import (
	"github.com/expr-lang/expr/file"
)

// Node is a binding expression syntax node.
// The set of implementations is closed; see the kinds declared in this
// package.
type Node interface {
	// Location returns the span of source text covered by the node.
	Location() file.Location
	// NodeErrors returns the recoverable syntax errors the parser attached to
	// the node.
	NodeErrors() []string
	// HasNodeErrors reports whether NodeErrors is non-empty.
	HasNodeErrors() bool

	node()
}

// base carries the metadata common to all nodes.
type base struct {
	loc  file.Location
	errs []string
}

func (b *base) Location() file.Location { return b.loc }

func (b *base) NodeErrors() []string { return b.errs }

func (b *base) HasNodeErrors() bool { return len(b.errs) > 0 }

func (*base) node() {}

// Identifier is implemented by the name nodes that may appear as the member
// of a MemberAccess: SimpleName and GenericName.
type Identifier interface {
	Node
	Identifier() string
}

// Literal is a constant value: string, bool, integer, float or nil.
type Literal struct {
	base
	Value any
}

// InterpolatedString is a string with embedded expressions. Format holds the
// composite template with positional placeholders ("{0}", "{1:N2}", ...).
type InterpolatedString struct {
	base
	Format    string
	Arguments []Node
}

// Parenthesized is an expression wrapped in parentheses.
type Parenthesized struct {
	base
	Inner Node
}

// Unary is a prefix operator applied to an operand.
type Unary struct {
	base
	Operator Token
	Operand  Node
}

// Binary is an infix operator applied to two operands.
type Binary struct {
	base
	Operator Token
	Left     Node
	Right    Node
}

// Conditional is the ternary operator "cond ? a : b".
type Conditional struct {
	base
	Condition Node
	True      Node
	False     Node
}

// ArrayAccess is an index expression "target[index]".
type ArrayAccess struct {
	base
	Target Node
	Index  Node
}

// FunctionCall is an invocation "target(args...)".
type FunctionCall struct {
	base
	Target    Node
	Arguments []Node
}

// SimpleName is a bare identifier.
type SimpleName struct {
	base
	Name string
}

// Identifier implements Identifier.
func (n *SimpleName) Identifier() string { return n.Name }

// GenericName is an identifier with type arguments, "Name<T1, T2>".
type GenericName struct {
	base
	Name          string
	TypeArguments []Node
}

// Identifier implements Identifier.
func (n *GenericName) Identifier() string { return n.Name }

// QualifiedName is a type name qualified by the package that declares it,
// "TypeName, package/path".
type QualifiedName struct {
	base
	TypeName Node
	Package  *SimpleName
}

// MemberAccess is "target.member".
type MemberAccess struct {
	base
	Target Node
	Member Identifier
}

// Lambda is "(params) => body". Only single-expression bodies exist.
type Lambda struct {
	base
	Parameters []*LambdaParameter
	Body       Node
}

// LambdaParameter is a lambda parameter with an optional explicit type.
type LambdaParameter struct {
	base
	Name string
	Type Node
}

// Block sequences two expressions, optionally binding the value of the first
// to Variable for use by the second: "let v = first; second" or
// "first; second".
type Block struct {
	base
	First    Node
	Variable *SimpleName
	Second   Node
}

// Formatted applies a format string to a single value, "{value:format}".
type Formatted struct {
	base
	Node   Node
	Format string
}

// Void is the empty expression.
type Void struct {
	base
}
