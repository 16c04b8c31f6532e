package ast

import (
	"github.com/expr-lang/expr/file"
)

// Option sets parser metadata on a node under construction.
type Option func(*base)

// At sets the source span of the node.
func At(from, to int) Option {
	return func(b *base) { b.loc = file.Location{From: from, To: to} }
}

// Located sets the source span of the node from an existing location.
func Located(loc file.Location) Option {
	return func(b *base) { b.loc = loc }
}

// WithErrors attaches recoverable syntax errors to the node.
func WithErrors(msgs ...string) Option {
	return func(b *base) { b.errs = append(b.errs, msgs...) }
}

func build(opts []Option) base {
	var b base

	for _, opt := range opts {
		opt(&b)
	}

	return b
}

// NewLiteral creates a constant node.
func NewLiteral(value any, opts ...Option) *Literal {
	return &Literal{base: build(opts), Value: value}
}

// NewInterpolatedString creates an interpolated string node.
func NewInterpolatedString(
	format string,
	args []Node,
	opts ...Option,
) *InterpolatedString {
	return &InterpolatedString{base: build(opts), Format: format, Arguments: args}
}

// NewParenthesized wraps inner in parentheses.
func NewParenthesized(inner Node, opts ...Option) *Parenthesized {
	return &Parenthesized{base: build(opts), Inner: inner}
}

// NewUnary creates a prefix operator node.
func NewUnary(op Token, operand Node, opts ...Option) *Unary {
	return &Unary{base: build(opts), Operator: op, Operand: operand}
}

// NewBinary creates an infix operator node.
func NewBinary(op Token, left, right Node, opts ...Option) *Binary {
	return &Binary{base: build(opts), Operator: op, Left: left, Right: right}
}

// NewConditional creates a ternary node.
func NewConditional(cond, t, f Node, opts ...Option) *Conditional {
	return &Conditional{base: build(opts), Condition: cond, True: t, False: f}
}

// NewArrayAccess creates an index node.
func NewArrayAccess(target, index Node, opts ...Option) *ArrayAccess {
	return &ArrayAccess{base: build(opts), Target: target, Index: index}
}

// NewFunctionCall creates an invocation node.
func NewFunctionCall(target Node, args []Node, opts ...Option) *FunctionCall {
	return &FunctionCall{base: build(opts), Target: target, Arguments: args}
}

// NewSimpleName creates an identifier node.
func NewSimpleName(name string, opts ...Option) *SimpleName {
	return &SimpleName{base: build(opts), Name: name}
}

// NewGenericName creates a generic identifier node.
func NewGenericName(
	name string,
	typeArgs []Node,
	opts ...Option,
) *GenericName {
	return &GenericName{base: build(opts), Name: name, TypeArguments: typeArgs}
}

// NewQualifiedName creates a package-qualified type name node.
func NewQualifiedName(
	typeName Node,
	pkg *SimpleName,
	opts ...Option,
) *QualifiedName {
	return &QualifiedName{base: build(opts), TypeName: typeName, Package: pkg}
}

// NewMemberAccess creates "target.member".
func NewMemberAccess(
	target Node,
	member Identifier,
	opts ...Option,
) *MemberAccess {
	return &MemberAccess{base: build(opts), Target: target, Member: member}
}

// NewLambda creates a lambda node.
func NewLambda(
	params []*LambdaParameter,
	body Node,
	opts ...Option,
) *Lambda {
	return &Lambda{base: build(opts), Parameters: params, Body: body}
}

// NewLambdaParameter creates a lambda parameter. typ may be nil when the
// parameter type is left to inference.
func NewLambdaParameter(
	name string,
	typ Node,
	opts ...Option,
) *LambdaParameter {
	return &LambdaParameter{base: build(opts), Name: name, Type: typ}
}

// NewBlock creates a sequencing node. variable may be nil.
func NewBlock(
	first Node,
	variable *SimpleName,
	second Node,
	opts ...Option,
) *Block {
	return &Block{
		base:     build(opts),
		First:    first,
		Variable: variable,
		Second:   second,
	}
}

// NewFormatted creates a formatted value node.
func NewFormatted(node Node, format string, opts ...Option) *Formatted {
	return &Formatted{base: build(opts), Node: node, Format: format}
}

// NewVoid creates the empty expression.
func NewVoid(opts ...Option) *Void {
	return &Void{base: build(opts)}
}

// Path builds a MemberAccess chain from dotted segments, so that
// Path("a", "b", "c") is a.b.c.
func Path(first string, rest ...string) Node {
	var n Node = NewSimpleName(first)

	for _, seg := range rest {
		n = NewMemberAccess(n, NewSimpleName(seg))
	}

	return n
}
