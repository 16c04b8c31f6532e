// Package binding lowers binding expression syntax trees into typed
// expression trees.
//
// A [Builder] walks an [ast.Node] once per top-level binding. Identifiers
// resolve against block variables, then the layered [registry.Registry],
// then the members of the data context given with [WithScope]. Members,
// calls and operators are resolved by a [resolve.Resolver]; lambda
// parameter types are inferred from the expected type or from the call the
// lambda is passed to.
//
// Errors do not stop the walk. Each node collects the errors of its
// children and reports them together once all children were visited, so a
// failed binding reports every independent problem it contains: a single
// error is returned as is, several as an [*AggregateError].
package binding

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/ardnew/bindc/binding/ast"
	"github.com/ardnew/bindc/binding/builtin"
	"github.com/ardnew/bindc/binding/infer"
	"github.com/ardnew/bindc/binding/internal/hint"
	"github.com/ardnew/bindc/binding/registry"
	"github.com/ardnew/bindc/binding/resolve"
	"github.com/ardnew/bindc/binding/tree"
	"github.com/ardnew/bindc/log"
	"github.com/ardnew/bindc/pkg"
)

// Builder compiles binding expressions against a symbol registry. It is
// immutable and may be used by concurrent Build calls; every call works in
// its own compilation unit.
type Builder struct {
	registry *registry.Registry
	resolver *resolve.Resolver
	scope    tree.Expr
	logger   log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithScope sets the data context: bare names that are neither variables nor
// registered symbols resolve as its members.
func WithScope(scope tree.Expr) Option {
	return func(b *Builder) { b.scope = scope }
}

// WithResolver replaces the default resolver, which knows the builtin
// extension functions.
func WithResolver(r *resolve.Resolver) Option {
	return func(b *Builder) { b.resolver = r }
}

// WithLogger sets the logger. The zero Logger discards everything.
func WithLogger(logger log.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder returns a Builder resolving names in reg.
func NewBuilder(reg *registry.Registry, opts ...Option) *Builder {
	b := &Builder{registry: reg}

	for _, opt := range opts {
		opt(b)
	}

	if b.resolver == nil {
		b.resolver = builtin.Resolver(resolve.WithLogger(b.logger))
	}

	return b
}

// Build lowers node to a typed expression. The expected type, when not nil,
// is the type the caller will convert the result to; a func type there
// types the parameters of a top-level lambda.
func (b *Builder) Build(node ast.Node, expected reflect.Type) (tree.Expr, error) {
	u := b.unit()

	e, err := u.visitValue(frame{reg: b.registry, expected: expected}, node)
	if err != nil {
		u.logger.Debug("binding failed",
			slog.String("binding", ast.String(node)),
			slog.Int("errors", len(Errors(err))))

		return nil, err
	}

	u.logger.Debug("binding compiled",
		slog.String("binding", ast.String(node)),
		slog.String("type", tree.TypeName(e.Type())))

	return e, nil
}

// ResolveTypeName resolves node, which must be a type name, to the type it
// denotes. Any other kind of node fails with ErrTypeNameOnly.
func (b *Builder) ResolveTypeName(node ast.Node) (reflect.Type, error) {
	return b.unit().resolveType(frame{reg: b.registry}, node)
}

// Compile builds node and converts the result to expected, allowing
// conversion to text when expected is string. A nil expected skips the
// conversion.
func Compile(
	node ast.Node,
	reg *registry.Registry,
	expected reflect.Type,
	opts ...Option,
) (tree.Expr, error) {
	b := NewBuilder(reg, opts...)

	e, err := b.Build(node, expected)
	if err != nil || expected == nil || e.Type() == expected {
		return e, err
	}

	c := b.resolver.ImplicitConversion(e, expected, true)
	if c == nil {
		return nil, &CompileError{
			Node: node,
			err: resolve.ErrNoConversion.Wrapf("%s to %s",
				tree.TypeName(e.Type()), tree.TypeName(expected)),
		}
	}

	return c, nil
}

// unit is the state of one compilation.
type unit struct {
	*Builder

	inferer *infer.Inferer
	logger  log.Logger
}

func (b *Builder) unit() *unit {
	logger := b.logger.With(slog.String("unit", uuid.NewString()))

	return &unit{
		Builder: b,
		logger:  logger,
		inferer: infer.New(
			infer.WithConvertible(b.resolver.Convertible),
			infer.WithLogger(logger),
		),
	}
}

// frame is the context of one node visit. It is passed by value: changes
// made for a child never reach the parent or its siblings.
type frame struct {
	reg      *registry.Registry
	vars     *variables
	expected reflect.Type
	depth    int
	// write marks the target of an assignment.
	write bool
	// paramType is the inferred type of the lambda parameter being visited.
	paramType reflect.Type
	// typeOnly restricts the node and its descendants to type names.
	typeOnly bool
}

// child returns the frame for visiting an operand of the current node.
func (f frame) child() frame {
	return frame{reg: f.reg, vars: f.vars, depth: f.depth, typeOnly: f.typeOnly}
}

// variables is the immutable list of block variables in scope.
type variables struct {
	param *tree.Parameter
	next  *variables
}

func (v *variables) push(p *tree.Parameter) *variables {
	return &variables{param: p, next: v}
}

func (v *variables) lookup(name string) (*tree.Parameter, bool) {
	for ; v != nil; v = v.next {
		if v.param.Name == name {
			return v.param, true
		}
	}

	return nil, false
}

// visit builds node. It returns either a typed expression or an error
// attributed to node or one of its descendants, never neither.
func (u *unit) visit(f frame, node ast.Node) (e tree.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, u.fail(node, ErrInternal.Wrapf("%v", r))
		}
	}()

	if node == nil {
		return nil, u.fail(node, ErrInternal.Wrapf("missing syntax node"))
	}

	if f.typeOnly && !isTypeName(node) {
		return nil, &CompileError{Node: node, err: ErrTypeNameOnly.Wrapf("%s", ast.String(node))}
	}

	if err := u.syntaxErrors(node); err != nil {
		return nil, err
	}

	f.depth++

	u.logger.Trace("visit",
		slog.String("node", fmt.Sprintf("%T", node)),
		slog.Int("depth", f.depth))

	e, err = u.dispatch(f, node)

	switch {
	case err != nil:
		return nil, u.fail(node, err)
	case e == nil:
		return nil, u.fail(node, ErrInternal.Wrapf("no expression built"))
	}

	return e, nil
}

// syntaxErrors reports the errors the parser attached to node. Name
// segments that are never visited themselves are checked with it too.
func (u *unit) syntaxErrors(node ast.Node) error {
	if node == nil || !node.HasNodeErrors() {
		return nil
	}

	var errs errorScope
	for _, msg := range node.NodeErrors() {
		errs.record(u.fail(node, ErrSyntax.Wrapf("%s", msg)))
	}

	return errs.drain()
}

// isTypeName reports whether node may appear in a type name.
func isTypeName(node ast.Node) bool {
	switch node.(type) {
	case *ast.SimpleName, *ast.GenericName, *ast.MemberAccess, *ast.QualifiedName:
		return true
	}

	return false
}

// visitValue is visit for operands that must denote something: a name that
// did not resolve is reported instead of returned.
func (u *unit) visitValue(f frame, node ast.Node) (tree.Expr, error) {
	e, err := u.visit(f, node)
	if err != nil {
		return nil, err
	}

	if unk, ok := e.(*tree.UnknownStaticIdentifier); ok {
		name := displayName(unk.Name)

		return nil, u.fail(node, ErrUnknownName.Wrapf("%q%s",
			name, hint.DidYouMean(name, u.names(f))))
	}

	return e, nil
}

// names lists the identifiers visible from f, for suggestions.
func (u *unit) names(f frame) []string {
	names := f.reg.Names()

	for v := f.vars; v != nil; v = v.next {
		names = append(names, v.param.Name)
	}

	if u.scope != nil {
		names = append(names, u.resolver.MemberNames(u.scope.Type())...)
	}

	return names
}

// fail attributes err to node unless it already is a compilation error.
// Errors that do not come from resolution are reported as internal.
func (u *unit) fail(node ast.Node, err error) error {
	switch err.(type) {
	case *CompileError, *AggregateError:
		return err
	}

	var pe *pkg.Error
	if !errors.As(err, &pe) {
		err = ErrInternal.Wrap(err)
	}

	u.logger.Trace("compile error",
		slog.String("node", ast.String(node)),
		slog.String("error", err.Error()))

	return &CompileError{Node: node, err: err}
}

func (u *unit) dispatch(f frame, node ast.Node) (tree.Expr, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return tree.NewConstant(n.Value), nil
	case *ast.InterpolatedString:
		return u.visitInterpolated(f, n)
	case *ast.Formatted:
		return u.visitFormatted(f, n)
	case *ast.Parenthesized:
		return u.visit(f, n.Inner)
	case *ast.Unary:
		return u.visitUnary(f, n)
	case *ast.Binary:
		return u.visitBinary(f, n)
	case *ast.Conditional:
		return u.visitConditional(f, n)
	case *ast.ArrayAccess:
		return u.visitArrayAccess(f, n)
	case *ast.FunctionCall:
		return u.visitFunctionCall(f, n)
	case *ast.SimpleName:
		return u.visitSimpleName(f, n)
	case *ast.GenericName:
		return u.visitGenericName(f, n)
	case *ast.QualifiedName:
		return u.visitQualifiedName(f, n)
	case *ast.MemberAccess:
		return u.visitMemberAccess(f, n)
	case *ast.Lambda:
		return u.visitLambda(f, n)
	case *ast.LambdaParameter:
		return u.visitLambdaParameter(f, n)
	case *ast.Block:
		return u.visitBlock(f, n)
	case *ast.Void:
		return tree.Empty(), nil
	default:
		return nil, ErrInternal.Wrapf("unsupported node %T", node)
	}
}
