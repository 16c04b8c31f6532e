package binding

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/ardnew/bindc/binding/ast"
	"github.com/ardnew/bindc/binding/builtin"
	"github.com/ardnew/bindc/binding/registry"
	"github.com/ardnew/bindc/binding/resolve"
	"github.com/ardnew/bindc/binding/tree"
)

var unaryOps = map[ast.Token]tree.UnaryOp{
	ast.AddOperator:      tree.Plus,
	ast.SubtractOperator: tree.Negate,
	ast.NotOperator:      tree.Not,
}

var binaryOps = map[ast.Token]tree.BinaryOp{
	ast.AddOperator:               tree.Add,
	ast.SubtractOperator:          tree.Subtract,
	ast.MultiplyOperator:          tree.Multiply,
	ast.DivideOperator:            tree.Divide,
	ast.ModulusOperator:           tree.Modulo,
	ast.EqualsEqualsOperator:      tree.Equal,
	ast.NotEqualsOperator:         tree.NotEqual,
	ast.LessThanOperator:          tree.Less,
	ast.LessThanEqualsOperator:    tree.LessOrEqual,
	ast.GreaterThanOperator:       tree.Greater,
	ast.GreaterThanEqualsOperator: tree.GreaterOrEqual,
	ast.NullCoalescingOperator:    tree.Coalesce,
	ast.AndOperator:               tree.And,
	ast.AndAlsoOperator:           tree.AndAlso,
	ast.OrOperator:                tree.Or,
	ast.OrElseOperator:            tree.OrElse,
	ast.AssignOperator:            tree.Assignment,
}

// formatter is the String class whose Format function lowers interpolated
// strings.
var formatter = builtin.StringClass()

func (u *unit) format(template string, args []tree.Expr) (tree.Expr, error) {
	group, err := u.resolver.Member(formatter, "Format", nil)
	if err != nil {
		return nil, err
	}

	return u.resolver.Call(group,
		append([]tree.Expr{tree.NewConstant(template)}, args...))
}

func (u *unit) visitInterpolated(
	f frame,
	n *ast.InterpolatedString,
) (tree.Expr, error) {
	if len(n.Arguments) == 0 {
		return tree.NewConstant(n.Format), nil
	}

	var errs errorScope

	args := make([]tree.Expr, len(n.Arguments))
	for i, a := range n.Arguments {
		args[i] = errs.handle(u.visitValue(f.child(), a))
	}

	if err := errs.drain(); err != nil {
		return nil, err
	}

	return u.format(n.Format, args)
}

func (u *unit) visitFormatted(f frame, n *ast.Formatted) (tree.Expr, error) {
	e, err := u.visitValue(f.child(), n.Node)
	if err != nil {
		return nil, err
	}

	return u.format("{0:"+n.Format+"}", []tree.Expr{e})
}

func (u *unit) visitUnary(f frame, n *ast.Unary) (tree.Expr, error) {
	operand, err := u.visitValue(f.child(), n.Operand)
	if err != nil {
		return nil, err
	}

	op, ok := unaryOps[n.Operator]
	if !ok {
		return nil, resolve.ErrInvalidOperands.Wrapf(
			"unsupported unary operator %s", n.Operator)
	}

	return u.resolver.Unary(op, operand)
}

func (u *unit) visitBinary(f frame, n *ast.Binary) (tree.Expr, error) {
	op, ok := binaryOps[n.Operator]

	lf := f.child()
	lf.write = op == tree.Assignment

	var errs errorScope

	left := errs.handle(u.visitValue(lf, n.Left))
	right := errs.handle(u.visitValue(f.child(), n.Right))

	if err := errs.drain(); err != nil {
		return nil, err
	}

	if !ok {
		return nil, resolve.ErrInvalidOperands.Wrapf(
			"unsupported binary operator %s", n.Operator)
	}

	if op == tree.Assignment {
		return u.resolver.Assign(left, right)
	}

	return u.resolver.Binary(op, left, right)
}

func (u *unit) visitConditional(f frame, n *ast.Conditional) (tree.Expr, error) {
	var errs errorScope

	test := errs.handle(u.visitValue(f.child(), n.Condition))
	ifTrue := errs.handle(u.visitValue(f.child(), n.True))
	ifFalse := errs.handle(u.visitValue(f.child(), n.False))

	if err := errs.drain(); err != nil {
		return nil, err
	}

	cond := u.resolver.ImplicitConversion(test, tree.Bool, false)
	if cond == nil {
		return nil, resolve.ErrNoConversion.Wrapf("condition %s of type %s to bool",
			test, tree.TypeName(test.Type()))
	}

	// Branches of different types meet at the false branch's type when the
	// true branch converts to it, else at the true branch's type. When
	// neither converts the branches are kept as they are and the result has
	// the true branch's type.
	if ifTrue.Type() != ifFalse.Type() {
		if c := u.resolver.ImplicitConversion(ifTrue, ifFalse.Type(), true); c != nil {
			ifTrue = c
		} else if c := u.resolver.ImplicitConversion(ifFalse, ifTrue.Type(), true); c != nil {
			ifFalse = c
		}
	}

	return &tree.Conditional{Test: cond, IfTrue: ifTrue, IfFalse: ifFalse}, nil
}

func (u *unit) visitArrayAccess(f frame, n *ast.ArrayAccess) (tree.Expr, error) {
	var errs errorScope

	target := errs.handle(u.visitValue(f.child(), n.Target))
	index := errs.handle(u.visitValue(f.child(), n.Index))

	if err := errs.drain(); err != nil {
		return nil, err
	}

	e, err := u.resolver.Index(target, index)
	if err != nil {
		return nil, err
	}

	// An indexer placeholder stays as is only as an assignment target, which
	// lowers it to the setter.
	if ix, ok := e.(*tree.Indexer); ok && !f.write {
		return u.resolver.IndexerGet(ix)
	}

	return e, nil
}

func isLambda(n ast.Node) bool {
	_, ok := n.(*ast.Lambda)

	return ok
}

// annotated reports whether every parameter of n has an explicit type.
func annotated(n *ast.Lambda) bool {
	for _, p := range n.Parameters {
		if p.Type == nil {
			return false
		}
	}

	return true
}

// visitFunctionCall builds the arguments in two passes: every argument that
// is not a lambda first, so that their types are known when the lambdas are
// built and their parameter types inferred.
func (u *unit) visitFunctionCall(f frame, n *ast.FunctionCall) (tree.Expr, error) {
	var errs errorScope

	target := errs.handle(u.visitValue(f.child(), n.Target))
	if target == nil {
		// Without a target nothing can be inferred, so only lambdas whose
		// parameters are all annotated are built.
		for _, a := range n.Arguments {
			if !isLambda(a) || annotated(a.(*ast.Lambda)) {
				errs.handle(u.visitValue(f.child(), a))
			}
		}

		return nil, errs.drain()
	}

	u.inferer.BeginCall(target, len(n.Arguments))
	defer u.inferer.EndCall()

	args := make([]tree.Expr, len(n.Arguments))

	for i, a := range n.Arguments {
		if isLambda(a) {
			continue
		}

		args[i] = errs.handle(u.visitValue(f.child(), a))
		u.inferer.SetArgument(args[i], i)
	}

	for i, a := range n.Arguments {
		if !isLambda(a) {
			continue
		}

		u.inferer.SetProbedArgumentIndex(i)
		args[i] = errs.handle(u.visitValue(f.child(), a))
		u.inferer.SetArgument(args[i], i)
	}

	if err := errs.drain(); err != nil {
		return nil, err
	}

	return u.resolver.Call(target, args)
}

// visitSimpleName resolves a bare name: block variables first, then the
// registry with its lambda parameter layers, then members of the data
// context. A name nothing knows may still start a qualified type name, so it
// is returned as an UnknownStaticIdentifier for the enclosing member access.
func (u *unit) visitSimpleName(f frame, n *ast.SimpleName) (tree.Expr, error) {
	if p, ok := f.vars.lookup(n.Name); ok {
		return p, nil
	}

	if e, ok := f.reg.Lookup(n.Name); ok {
		return e, nil
	}

	if u.scope != nil {
		if e, ok := u.resolver.TryMember(u.scope, n.Name); ok {
			return e, nil
		}
	}

	return &tree.UnknownStaticIdentifier{Name: n.Name}, nil
}

func (u *unit) typeArguments(f frame, nodes []ast.Node) ([]reflect.Type, error) {
	var errs errorScope

	args := make([]reflect.Type, len(nodes))
	for i, a := range nodes {
		t, err := u.resolveType(f.child(), a)
		if err != nil {
			errs.record(err)

			continue
		}

		args[i] = t
	}

	return args, errs.drain()
}

// generic instantiates the generic type registered as name with args.
func (u *unit) generic(
	f frame,
	name string,
	args []reflect.Type,
) (tree.Expr, bool, error) {
	e, ok := f.reg.Lookup(registry.GenericName(name, len(args)))
	if !ok {
		return nil, false, nil
	}

	s, ok := e.(*tree.StaticType)
	if !ok {
		return nil, true, ErrNotType.Wrapf("%s", name)
	}

	inst, err := u.resolver.InstantiateType(s, args)

	return inst, true, err
}

func (u *unit) visitGenericName(f frame, n *ast.GenericName) (tree.Expr, error) {
	args, err := u.typeArguments(f, n.TypeArguments)
	if err != nil {
		return nil, err
	}

	e, ok, err := u.generic(f, n.Name, args)
	if !ok {
		return &tree.UnknownStaticIdentifier{
			Name: registry.GenericName(n.Name, len(args)),
		}, nil
	}

	return e, err
}

func (u *unit) visitQualifiedName(f frame, n *ast.QualifiedName) (tree.Expr, error) {
	if n.Package != nil {
		if err := u.syntaxErrors(n.Package); err != nil {
			return nil, err
		}

		name := n.Package.Name + "." + ast.String(n.TypeName)
		if e, ok := f.reg.Lookup(name); ok {
			return e, nil
		}
	}

	return u.visit(f.child(), n.TypeName)
}

func (u *unit) visitMemberAccess(f frame, n *ast.MemberAccess) (tree.Expr, error) {
	var (
		errs     errorScope
		typeArgs []reflect.Type
	)

	if g, ok := n.Member.(*ast.GenericName); ok {
		args, err := u.typeArguments(f, g.TypeArguments)
		if err != nil {
			errs.record(err)
		}

		typeArgs = args
	}

	target := errs.handle(u.visit(f.child(), n.Target))

	if err := u.syntaxErrors(n.Member); err != nil {
		errs.record(err)
	}

	if err := errs.drain(); err != nil {
		return nil, err
	}

	name := n.Member.Identifier()

	if unk, ok := target.(*tree.UnknownStaticIdentifier); ok {
		return u.qualify(f, unk.Name+"."+name, typeArgs)
	}

	return u.resolver.Member(target, name, typeArgs)
}

// qualify looks up the dotted name of a type or static class. Names that
// are still unknown stay unknown for the next enclosing member access.
func (u *unit) qualify(
	f frame,
	name string,
	typeArgs []reflect.Type,
) (tree.Expr, error) {
	if typeArgs != nil {
		if e, ok, err := u.generic(f, name, typeArgs); ok {
			return e, err
		}

		return &tree.UnknownStaticIdentifier{
			Name: registry.GenericName(name, len(typeArgs)),
		}, nil
	}

	if e, ok := f.reg.Lookup(name); ok {
		return e, nil
	}

	if !f.reg.HasPrefix(name) {
		u.logger.Trace("unknown qualified name", slog.String("name", name))
	}

	return &tree.UnknownStaticIdentifier{Name: name}, nil
}

func (u *unit) visitLambda(f frame, n *ast.Lambda) (tree.Expr, error) {
	var hintType reflect.Type
	if f.depth == 1 {
		hintType = f.expected
	}

	inferred := u.inferer.Infer(hintType).Lambda(len(n.Parameters))

	var errs errorScope

	params := make([]*tree.Parameter, len(n.Parameters))
	seen := make(map[string]int, len(n.Parameters))

	for i, pn := range n.Parameters {
		pf := f.child()
		if inferred.OK {
			pf.paramType = inferred.Parameters[i]
		}

		e := errs.handle(u.visit(pf, pn))
		if e == nil {
			continue
		}

		p := e.(*tree.Parameter)

		if j, dup := seen[p.Name]; dup {
			errs.record(&CompileError{
				Node: n,
				err: ErrDuplicateParam.
					Wrapf("%q (parameters %d and %d)", p.Name, j, i).
					With(slog.Int("index", i)),
			})

			continue
		}

		seen[p.Name] = i

		if _, hides := f.vars.lookup(p.Name); hides {
			errs.record(u.collision(n, p.Name, i))

			continue
		}

		if _, hides := f.reg.Lookup(p.Name); hides {
			errs.record(u.collision(n, p.Name, i))

			continue
		}

		params[i] = p
	}

	if err := errs.drain(); err != nil {
		return nil, err
	}

	bf := f.child()
	bf.reg = f.reg.AddParameters(params...)

	body, err := u.visitValue(bf, n.Body)
	if err != nil {
		return nil, err
	}

	return u.lambda(n, params, body, inferred.Type)
}

func (u *unit) collision(n *ast.Lambda, name string, index int) error {
	return &CompileError{
		Node: n,
		err: ErrParamCollision.
			Wrapf("%q (parameter %d)", name, index).
			With(slog.Int("index", index)),
	}
}

// lambda types a built lambda. A delegate without results makes it an
// action, whose body must be a statement and whose value is discarded. A
// boolean predicate delegate over the parameter's type narrows the lambda to
// that delegate. Anything else yields the func type of the parameters and
// body.
func (u *unit) lambda(
	n *ast.Lambda,
	params []*tree.Parameter,
	body tree.Expr,
	delegate reflect.Type,
) (tree.Expr, error) {
	if delegate != nil && delegate.NumOut() == 0 {
		switch body.Kind() {
		case tree.KindDefault, tree.KindBlock, tree.KindCall, tree.KindAssign:
		default:
			return nil, &CompileError{Node: n.Body, err: ErrStatement.Wrapf("%s", body)}
		}

		block := &tree.Block{Exprs: []tree.Expr{body, tree.Empty()}}

		typ := tree.FuncOf(tree.Void, params...)
		if typ.ConvertibleTo(delegate) {
			typ = delegate
		}

		return tree.NewLambda(typ, block, params...), nil
	}

	if delegate != nil && len(params) == 1 && delegate.NumIn() == 1 &&
		delegate.NumOut() == 1 && delegate.Out(0).Kind() == reflect.Bool &&
		body.Type() == tree.Bool && params[0].Type() == delegate.In(0) {
		return tree.NewLambda(delegate, body, params...), nil
	}

	return tree.NewLambda(tree.FuncOf(body.Type(), params...), body, params...), nil
}

func (u *unit) visitLambdaParameter(
	f frame,
	n *ast.LambdaParameter,
) (tree.Expr, error) {
	typ := f.paramType

	if n.Type != nil {
		t, err := u.resolveType(f.child(), n.Type)
		if err != nil {
			return nil, err
		}

		typ = t
	}

	if typ == nil {
		return nil, ErrUntypedParam.Wrapf("%q", n.Name)
	}

	return tree.NewParameter(n.Name, typ), nil
}

// visitBlock builds "first; second" and "let v = first; second". Nested
// blocks on the right are flattened into one. A deferred first expression is
// sequenced with a continuation instead, so second runs after it completes.
func (u *unit) visitBlock(f frame, n *ast.Block) (tree.Expr, error) {
	var errs errorScope

	first := errs.handle(u.visitValue(f.child(), n.First))

	if n.Variable != nil {
		if err := u.syntaxErrors(n.Variable); err != nil {
			errs.record(err)
		}
	}

	sf := f.child()

	var variable *tree.Parameter

	if n.Variable != nil {
		switch {
		case first == nil:
			// The second expression cannot be typed without the variable.
			return nil, errs.drain()
		case tree.IsDeferred(first.Type()):
			errs.record(&CompileError{
				Node: n,
				err:  ErrDeferredBinding.Wrapf("%q", n.Variable.Name),
			})
		case !tree.IsValue(first):
			errs.record(&CompileError{
				Node: n.First,
				err:  resolve.ErrNotValue.Wrapf("%s cannot be bound to %q", first, n.Variable.Name),
			})
		default:
			variable = tree.NewParameter(n.Variable.Name, first.Type())
			sf.vars = sf.vars.push(variable)
			first = &tree.Assign{Target: variable, Value: first}
		}
	}

	second := errs.handle(u.visitValue(sf, n.Second))

	if err := errs.drain(); err != nil {
		return nil, err
	}

	if variable == nil && tree.IsDeferred(first.Type()) {
		return u.sequence(first, second)
	}

	block := &tree.Block{Exprs: []tree.Expr{first}}
	if variable != nil {
		block.Variables = []*tree.Parameter{variable}
	}

	if inner, ok := second.(*tree.Block); ok {
		block.Variables = append(block.Variables, inner.Variables...)
		block.Exprs = append(block.Exprs, inner.Exprs...)
	} else {
		block.Exprs = append(block.Exprs, second)
	}

	return block, nil
}

// sequence runs second once the deferred first completes, yielding a
// deferred result.
func (u *unit) sequence(first, second tree.Expr) (tree.Expr, error) {
	name, fn := "Then", reflect.ValueOf(builtin.Then)
	if !tree.IsValue(second) {
		name, fn = "ThenDo", reflect.ValueOf(builtin.ThenDo)
	}

	c, _ := tree.NewCandidate(fn, false)
	group := &tree.MethodGroup{Name: name, Candidates: []tree.Candidate{c}}
	next := tree.NewLambda(tree.FuncOf(second.Type()), second)

	return u.resolver.Call(group, []tree.Expr{first, next})
}

// resolveType resolves a type name node to the type it denotes.
func (u *unit) resolveType(f frame, node ast.Node) (reflect.Type, error) {
	f.typeOnly = true

	e, err := u.visit(f, node)
	if err != nil {
		return nil, err
	}

	switch e := e.(type) {
	case *tree.StaticType:
		if e.Type() != nil {
			return e.Type(), nil
		}
	case *tree.UnknownStaticIdentifier:
		return nil, &CompileError{
			Node: node,
			err:  ErrUnknownName.Wrapf("type %q", displayName(e.Name)),
		}
	}

	return nil, &CompileError{Node: node, err: ErrNotType.Wrapf("%s", ast.String(node))}
}

// displayName strips the arity suffix of a generic symbol name.
func displayName(name string) string {
	name, _, _ = strings.Cut(name, "`")

	return name
}
