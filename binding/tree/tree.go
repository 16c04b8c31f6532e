// Package tree defines the typed expression tree produced by the binding
// expression builder. Nodes are immutable after construction and carry their
// resolved static type; the tree is interpreted by package eval.
package tree

import (
	"reflect"
)

// Kind identifies the variant of an [Expr].
type Kind int

const (
	KindConstant Kind = iota
	KindDefault
	KindParameter
	KindMember
	KindCall
	KindIndex
	KindIndexer
	KindUnary
	KindBinary
	KindAssign
	KindConditional
	KindLambda
	KindBlock
	KindConvert
	KindStaticType
	KindMethodGroup
	KindUnknownStaticIdentifier
)

var kindNames = [...]string{
	KindConstant:                "Constant",
	KindDefault:                 "Default",
	KindParameter:               "Parameter",
	KindMember:                  "Member",
	KindCall:                    "Call",
	KindIndex:                   "Index",
	KindIndexer:                 "Indexer",
	KindUnary:                   "Unary",
	KindBinary:                  "Binary",
	KindAssign:                  "Assign",
	KindConditional:             "Conditional",
	KindLambda:                  "Lambda",
	KindBlock:                   "Block",
	KindConvert:                 "Convert",
	KindStaticType:              "StaticType",
	KindMethodGroup:             "MethodGroup",
	KindUnknownStaticIdentifier: "UnknownStaticIdentifier",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}

	return kindNames[k]
}

// Expr is a node of the typed expression tree.
type Expr interface {
	Kind() Kind
	// Type returns the static type of the value the expression produces.
	// It is nil for expressions that are not values: method groups and
	// unresolved static identifiers.
	Type() reflect.Type
	String() string
}

// Constant is a literal value.
type Constant struct {
	Value any
	typ   reflect.Type
}

// NewConstant returns a constant typed by the dynamic type of v.
// A nil v yields the untyped nil constant, typed as [Any].
func NewConstant(v any) *Constant {
	if v == nil {
		return &Constant{typ: Any}
	}

	return &Constant{Value: v, typ: reflect.TypeOf(v)}
}

// ConstantOf returns a constant of an explicit type. v must be assignable to
// typ or nil.
func ConstantOf(v any, typ reflect.Type) *Constant {
	return &Constant{Value: v, typ: typ}
}

func (*Constant) Kind() Kind           { return KindConstant }
func (c *Constant) Type() reflect.Type { return c.typ }

// Default produces the zero value of its type. With type [Void] it is the
// empty statement.
type Default struct {
	typ reflect.Type
}

// NewDefault returns the zero value expression for typ.
func NewDefault(typ reflect.Type) *Default { return &Default{typ: typ} }

// Empty returns the no-op statement.
func Empty() *Default { return &Default{typ: Void} }

func (*Default) Kind() Kind           { return KindDefault }
func (d *Default) Type() reflect.Type { return d.typ }

// Parameter is a lambda parameter or block-local variable. Parameters are
// compared by identity.
type Parameter struct {
	Name string
	typ  reflect.Type
}

// NewParameter returns a parameter of the given type.
func NewParameter(name string, typ reflect.Type) *Parameter {
	return &Parameter{Name: name, typ: typ}
}

func (*Parameter) Kind() Kind           { return KindParameter }
func (p *Parameter) Type() reflect.Type { return p.typ }

// Member reads a struct field of Object. Object may be a pointer to the
// struct; the field index path is applied after dereferencing.
type Member struct {
	Object Expr
	Field  reflect.StructField
}

func (*Member) Kind() Kind           { return KindMember }
func (m *Member) Type() reflect.Type { return m.Field.Type }

// Call invokes a method of Object, a function value, or a delegate
// expression. Exactly one of Method (with Object), Func or Callee is set.
type Call struct {
	Object    Expr
	Method    string
	Func      reflect.Value
	Callee    Expr
	Args      []Expr
	Signature reflect.Type
}

func (*Call) Kind() Kind { return KindCall }

// Type returns the first result of the signature, or [Void].
func (c *Call) Type() reflect.Type { return ResultType(c.Signature) }

// Index reads an element of a slice, array, string or map.
type Index struct {
	Object Expr
	Key    Expr
	typ    reflect.Type
}

// NewIndex returns an element read of the given element type.
func NewIndex(object, key Expr, typ reflect.Type) *Index {
	return &Index{Object: object, Key: key, typ: typ}
}

func (*Index) Kind() Kind           { return KindIndex }
func (i *Index) Type() reflect.Type { return i.typ }

// Indexer addresses an element through a type's custom indexer methods.
// It is a placeholder: read contexts lower it to a call of Getter and
// assignments to a call of Setter. Either name may be empty when the type
// does not provide that accessor.
type Indexer struct {
	Object Expr
	Args   []Expr
	Getter string
	Setter string
	typ    reflect.Type
}

// NewIndexer returns an indexer placeholder of the given element type.
func NewIndexer(
	object Expr,
	args []Expr,
	getter, setter string,
	typ reflect.Type,
) *Indexer {
	return &Indexer{
		Object: object,
		Args:   args,
		Getter: getter,
		Setter: setter,
		typ:    typ,
	}
}

func (*Indexer) Kind() Kind           { return KindIndexer }
func (i *Indexer) Type() reflect.Type { return i.typ }

// Unary applies a prefix operator.
type Unary struct {
	Op      UnaryOp
	Operand Expr
	typ     reflect.Type
}

// NewUnary returns a unary operation producing typ.
func NewUnary(op UnaryOp, operand Expr, typ reflect.Type) *Unary {
	return &Unary{Op: op, Operand: operand, typ: typ}
}

func (*Unary) Kind() Kind           { return KindUnary }
func (u *Unary) Type() reflect.Type { return u.typ }

// Binary applies an infix operator. When Method is set the operation is
// carried out by calling that method of Left with Right as its argument;
// for ordering operators the method is Compare and its result is compared
// with zero.
type Binary struct {
	Op     BinaryOp
	Left   Expr
	Right  Expr
	Method string
	typ    reflect.Type
}

// NewBinary returns a binary operation producing typ.
func NewBinary(op BinaryOp, left, right Expr, typ reflect.Type) *Binary {
	return &Binary{Op: op, Left: left, Right: right, typ: typ}
}

// NewMethodBinary returns a binary operation carried out by method.
func NewMethodBinary(
	op BinaryOp,
	left, right Expr,
	method string,
	typ reflect.Type,
) *Binary {
	return &Binary{Op: op, Left: left, Right: right, Method: method, typ: typ}
}

func (*Binary) Kind() Kind           { return KindBinary }
func (b *Binary) Type() reflect.Type { return b.typ }

// Assign stores Value into Target, which is a parameter, a field member or
// a primitive index. The expression yields the stored value.
type Assign struct {
	Target Expr
	Value  Expr
}

func (*Assign) Kind() Kind           { return KindAssign }
func (a *Assign) Type() reflect.Type { return a.Target.Type() }

// Conditional selects one of two branches. Its type is the type of the true
// branch; branches whose types could not be unified keep their own types.
type Conditional struct {
	Test    Expr
	IfTrue  Expr
	IfFalse Expr
}

func (*Conditional) Kind() Kind           { return KindConditional }
func (c *Conditional) Type() reflect.Type { return c.IfTrue.Type() }

// Lambda is a single-expression function. Its type is a func type, possibly
// a named one when the lambda was narrowed to an expected delegate shape.
type Lambda struct {
	Params []*Parameter
	Body   Expr
	typ    reflect.Type
}

// NewLambda returns a lambda of the given func type.
func NewLambda(typ reflect.Type, body Expr, params ...*Parameter) *Lambda {
	return &Lambda{Params: params, Body: body, typ: typ}
}

// FuncOf returns the unnamed func type taking the types of params and
// returning result. A [Void] result yields a func without results.
func FuncOf(result reflect.Type, params ...*Parameter) reflect.Type {
	in := make([]reflect.Type, len(params))
	for i, p := range params {
		in[i] = p.Type()
	}

	var out []reflect.Type
	if result != nil && result != Void {
		out = []reflect.Type{result}
	}

	return reflect.FuncOf(in, out, false)
}

func (*Lambda) Kind() Kind           { return KindLambda }
func (l *Lambda) Type() reflect.Type { return l.typ }

// Block evaluates Exprs in order and yields the value of the last one.
// Variables are scoped to the block.
type Block struct {
	Variables []*Parameter
	Exprs     []Expr
}

func (*Block) Kind() Kind { return KindBlock }

func (b *Block) Type() reflect.Type {
	if len(b.Exprs) == 0 {
		return Void
	}

	return b.Exprs[len(b.Exprs)-1].Type()
}

// Convert is an implicit conversion of Operand to a different type. With
// ToString set the operand is formatted as text.
type Convert struct {
	Operand  Expr
	ToString bool
	typ      reflect.Type
}

// NewConvert returns a conversion of operand to typ.
func NewConvert(operand Expr, typ reflect.Type) *Convert {
	return &Convert{Operand: operand, typ: typ}
}

// NewToString returns a conversion of operand to its text form.
func NewToString(operand Expr) *Convert {
	return &Convert{Operand: operand, ToString: true, typ: String}
}

func (*Convert) Kind() Kind           { return KindConvert }
func (c *Convert) Type() reflect.Type { return c.typ }

// UnknownStaticIdentifier is a dotted name that did not resolve yet, such as
// the "time" in "time.Duration". Member access on it extends the name and
// resolution is attempted again.
type UnknownStaticIdentifier struct {
	Name string
}

func (*UnknownStaticIdentifier) Kind() Kind         { return KindUnknownStaticIdentifier }
func (*UnknownStaticIdentifier) Type() reflect.Type { return nil }
