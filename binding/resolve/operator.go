package resolve

import (
	"reflect"

	"github.com/ardnew/bindc/binding/tree"
)

// Unary resolves a prefix operator. Negation of a numeric constant folds
// into a constant so that negative literals stay representable in other
// numeric types.
func (r *Resolver) Unary(op tree.UnaryOp, operand tree.Expr) (tree.Expr, error) {
	t := operand.Type()

	switch op {
	case tree.Not:
		if b := r.ImplicitConversion(operand, tree.Bool, false); b != nil {
			return tree.NewUnary(op, b, b.Type()), nil
		}

		if isBool(t) {
			return tree.NewUnary(op, operand, t), nil
		}

	case tree.Plus, tree.Negate:
		if !tree.IsValue(operand) || !isNumeric(t) {
			break
		}

		if op == tree.Plus {
			return operand, nil
		}

		if c, ok := operand.(*tree.Constant); ok && predeclared(t) {
			return negate(c)
		}

		if isUnsigned(t) {
			break
		}

		return tree.NewUnary(op, operand, t), nil
	}

	return nil, ErrInvalidOperands.Wrapf(
		"operator %s not defined on %s", op, tree.TypeName(t))
}

// negate folds the negation of a numeric constant. Unsigned constants
// become int64. A result the type cannot represent is an error.
func negate(c *tree.Constant) (tree.Expr, error) {
	v := reflect.ValueOf(c.Value)
	n := reflect.New(v.Type()).Elem()

	switch {
	case isSigned(v.Type()):
		x := v.Int()
		if (x < 0 && -x < 0) || n.OverflowInt(-x) {
			return nil, overflow(c)
		}

		n.SetInt(-x)
	case isUnsigned(v.Type()):
		x := v.Uint()
		if x > 1<<63 {
			return nil, overflow(c)
		}

		return tree.ConstantOf(-int64(x), reflect.TypeFor[int64]()), nil
	default:
		n.SetFloat(-v.Float())
	}

	return tree.ConstantOf(n.Interface(), c.Type()), nil
}

func overflow(c *tree.Constant) error {
	return ErrInvalidOperands.Wrapf("-%v overflows %s", c.Value, tree.TypeName(c.Type()))
}

// Binary resolves an infix operator other than assignment.
func (r *Resolver) Binary(op tree.BinaryOp, left, right tree.Expr) (tree.Expr, error) {
	if op == tree.Assignment {
		return r.Assign(left, right)
	}

	if !operand(left) || !operand(right) {
		return nil, r.invalid(op, left, right)
	}

	var (
		e  tree.Expr
		ok bool
	)

	switch {
	case op == tree.Coalesce:
		e, ok = r.coalesce(left, right)
	case op == tree.AndAlso, op == tree.OrElse:
		e, ok = r.logical(op, left, right)
	case op == tree.And, op == tree.Or:
		if e, ok = r.logical(op, left, right); !ok {
			e, ok = r.arithmetic(op, left, right, isInteger)
		}
	case op == tree.Add && (isString(left.Type()) || isString(right.Type())):
		e, ok = r.concat(left, right)
	case op.IsArithmetic():
		if e, ok = r.arithmetic(op, left, right, isNumeric); !ok {
			e, ok = r.operatorMethod(op, left, right, operatorMethods[op])
		}
	case op == tree.Equal, op == tree.NotEqual:
		e, ok = r.equality(op, left, right)
	case op.IsOrdering():
		e, ok = r.ordering(op, left, right)
	}

	if !ok {
		return nil, r.invalid(op, left, right)
	}

	return e, nil
}

func operand(e tree.Expr) bool { return tree.IsNil(e) || tree.IsValue(e) }

func (r *Resolver) invalid(op tree.BinaryOp, left, right tree.Expr) error {
	return ErrInvalidOperands.Wrapf("operator %s not defined on %s and %s",
		op, tree.TypeName(left.Type()), tree.TypeName(right.Type()))
}

// unify converts one operand to the type of the other, preferring the type
// of the left operand.
func (r *Resolver) unify(left, right tree.Expr) (tree.Expr, tree.Expr, bool) {
	if left.Type() == right.Type() && !tree.IsNil(left) {
		return left, right, true
	}

	if !tree.IsNil(left) {
		if c := r.ImplicitConversion(right, left.Type(), false); c != nil {
			return left, c, true
		}
	}

	if !tree.IsNil(right) {
		if c := r.ImplicitConversion(left, right.Type(), false); c != nil {
			return c, right, true
		}
	}

	return nil, nil, false
}

func (r *Resolver) arithmetic(
	op tree.BinaryOp,
	left, right tree.Expr,
	accept func(reflect.Type) bool,
) (tree.Expr, bool) {
	l, rr, ok := r.unify(left, right)
	if !ok || !accept(l.Type()) {
		return nil, false
	}

	if op == tree.Modulo && isFloat(l.Type()) {
		return nil, false
	}

	return tree.NewBinary(op, l, rr, l.Type()), true
}

func (r *Resolver) concat(left, right tree.Expr) (tree.Expr, bool) {
	l := r.ImplicitConversion(left, tree.String, true)
	rr := r.ImplicitConversion(right, tree.String, true)

	if l == nil || rr == nil {
		return nil, false
	}

	return tree.NewBinary(tree.Add, l, rr, tree.String), true
}

func (r *Resolver) logical(op tree.BinaryOp, left, right tree.Expr) (tree.Expr, bool) {
	l := r.ImplicitConversion(left, tree.Bool, false)
	rr := r.ImplicitConversion(right, tree.Bool, false)

	if l == nil || rr == nil {
		return nil, false
	}

	return tree.NewBinary(op, l, rr, tree.Bool), true
}

func (r *Resolver) coalesce(left, right tree.Expr) (tree.Expr, bool) {
	lt := left.Type()
	if tree.IsNil(left) || !tree.Nillable(lt) {
		return nil, false
	}

	if c := r.ImplicitConversion(right, lt, false); c != nil {
		return tree.NewBinary(tree.Coalesce, left, c, lt), true
	}

	if lt.Kind() == reflect.Pointer {
		if c := r.ImplicitConversion(right, lt.Elem(), false); c != nil {
			return tree.NewBinary(tree.Coalesce, left, c, lt.Elem()), true
		}
	}

	return nil, false
}

func (r *Resolver) equality(op tree.BinaryOp, left, right tree.Expr) (tree.Expr, bool) {
	if e, ok := r.operatorMethod(op, left, right, "Equal"); ok && e.Type() == tree.Bool {
		return e, true
	}

	l, rr, ok := r.unify(left, right)
	if !ok || !l.Type().Comparable() {
		return nil, false
	}

	return tree.NewBinary(op, l, rr, tree.Bool), true
}

func (r *Resolver) ordering(op tree.BinaryOp, left, right tree.Expr) (tree.Expr, bool) {
	if l, rr, ok := r.unify(left, right); ok {
		if t := l.Type(); isNumeric(t) || isString(t) {
			return tree.NewBinary(op, l, rr, tree.Bool), true
		}
	}

	e, ok := r.operatorMethod(op, left, right, "Compare")
	if !ok || !isSigned(tree.ResultType(methodSig(left.Type(), "Compare"))) {
		return nil, false
	}

	return tree.NewMethodBinary(op, e.(*tree.Binary).Left, e.(*tree.Binary).Right,
		"Compare", tree.Bool), true
}

// operatorMethod resolves op through a single-argument method of the left
// operand, such as time.Time.Add or time.Time.Equal.
func (r *Resolver) operatorMethod(
	op tree.BinaryOp,
	left, right tree.Expr,
	name string,
) (tree.Expr, bool) {
	if name == "" || tree.IsNil(left) {
		return nil, false
	}

	sig := methodSig(left.Type(), name)
	if sig == nil || sig.NumIn() != 1 || sig.IsVariadic() || sig.NumOut() != 1 {
		return nil, false
	}

	rr := r.ImplicitConversion(right, sig.In(0), false)
	if rr == nil {
		return nil, false
	}

	return tree.NewMethodBinary(op, left, rr, name, sig.Out(0)), true
}

func methodSig(t reflect.Type, name string) reflect.Type {
	sig, _ := method(t, name)

	return sig
}

// Assign resolves target = value. Targets are parameters, fields reached
// through a pointer or another assignable location, and slice or map
// elements. Custom indexers are assigned through [Resolver.IndexerSet].
func (r *Resolver) Assign(target, value tree.Expr) (tree.Expr, error) {
	if ix, ok := target.(*tree.Indexer); ok {
		return r.IndexerSet(ix, value)
	}

	if !Assignable(target) {
		return nil, ErrReadOnly.Wrapf("%s", target)
	}

	v := r.ImplicitConversion(value, target.Type(), false)
	if v == nil {
		return nil, ErrNoConversion.Wrapf(
			"%s to %s", tree.TypeName(value.Type()), tree.TypeName(target.Type()))
	}

	return &tree.Assign{Target: target, Value: v}, nil
}

// Assignable reports whether e denotes a location that can be stored to.
func Assignable(e tree.Expr) bool {
	switch e := e.(type) {
	case *tree.Parameter:
		return true
	case *tree.Member:
		return e.Object.Type().Kind() == reflect.Pointer || Assignable(e.Object)
	case *tree.Index:
		switch e.Object.Type().Kind() {
		case reflect.Slice, reflect.Map:
			return true
		case reflect.Pointer:
			return true
		case reflect.Array:
			return Assignable(e.Object)
		}
	}

	return false
}
