package eval

import (
	"reflect"

	"github.com/ardnew/bindc/binding/tree"
)

func (m *machine) unary(f *frame, u *tree.Unary) (reflect.Value, error) {
	v, err := m.eval(f, u.Operand)
	if err != nil {
		return reflect.Value{}, err
	}

	out := reflect.New(u.Type()).Elem()

	switch {
	case u.Op == tree.Not:
		out.SetBool(!v.Bool())
	case u.Op == tree.Plus:
		out.Set(v)
	case v.CanInt():
		out.SetInt(-v.Int())
	case v.CanUint():
		out.SetUint(-v.Uint())
	default:
		out.SetFloat(-v.Float())
	}

	return out, nil
}

func (m *machine) binary(f *frame, b *tree.Binary) (reflect.Value, error) {
	switch b.Op {
	case tree.AndAlso, tree.OrElse:
		return m.shortCircuit(f, b)
	case tree.Coalesce:
		return m.coalesce(f, b)
	}

	l, err := m.eval(f, b.Left)
	if err != nil {
		return reflect.Value{}, err
	}

	r, err := m.eval(f, b.Right)
	if err != nil {
		return reflect.Value{}, err
	}

	if b.Method != "" {
		return methodOperator(b, l, r)
	}

	out := reflect.New(b.Type()).Elem()

	switch {
	case b.Op == tree.Equal:
		out.SetBool(equal(l, r))
	case b.Op == tree.NotEqual:
		out.SetBool(!equal(l, r))
	case b.Op.IsOrdering():
		out.SetBool(ordered(b.Op, compare(l, r)))
	case l.Kind() == reflect.Bool:
		if b.Op == tree.And {
			out.SetBool(l.Bool() && r.Bool())
		} else {
			out.SetBool(l.Bool() || r.Bool())
		}
	case l.Kind() == reflect.String:
		out.SetString(l.String() + r.String())
	case l.CanInt():
		n, err := intOp(b.Op, l.Int(), r.Int())
		if err != nil {
			return reflect.Value{}, err
		}

		out.SetInt(n)
	case l.CanUint():
		n, err := intOp(b.Op, l.Uint(), r.Uint())
		if err != nil {
			return reflect.Value{}, err
		}

		out.SetUint(n)
	case l.CanFloat():
		out.SetFloat(floatOp(b.Op, l.Float(), r.Float()))
	default:
		return reflect.Value{}, ErrUnsupported.Wrapf("%s", b)
	}

	return out, nil
}

func (m *machine) shortCircuit(f *frame, b *tree.Binary) (reflect.Value, error) {
	l, err := m.eval(f, b.Left)
	if err != nil {
		return reflect.Value{}, err
	}

	if l.Bool() == (b.Op == tree.OrElse) {
		return coerce(l, tree.Bool), nil
	}

	r, err := m.eval(f, b.Right)
	if err != nil {
		return reflect.Value{}, err
	}

	return coerce(r, tree.Bool), nil
}

// coalesce yields the left operand unless it is nil. A pointer coalesced
// with a value of its element type is dereferenced.
func (m *machine) coalesce(f *frame, b *tree.Binary) (reflect.Value, error) {
	l, err := m.eval(f, b.Left)
	if err != nil {
		return reflect.Value{}, err
	}

	if l.IsValid() && !l.IsNil() {
		if l.Type() != b.Type() && l.Kind() == reflect.Pointer {
			l = l.Elem()
		}

		return coerce(l, b.Type()), nil
	}

	r, err := m.eval(f, b.Right)
	if err != nil {
		return reflect.Value{}, err
	}

	return coerce(r, b.Type()), nil
}

// methodOperator applies an operator resolved through a method of the left
// operand. Equal yields equality directly; Compare yields an ordering
// result to test against zero.
func methodOperator(b *tree.Binary, l, r reflect.Value) (reflect.Value, error) {
	fn := l.MethodByName(b.Method)
	if !fn.IsValid() && l.CanAddr() {
		fn = l.Addr().MethodByName(b.Method)
	}

	if !fn.IsValid() {
		return reflect.Value{}, ErrCall.Wrapf("%s has no method %s", l.Type(), b.Method)
	}

	res := fn.Call([]reflect.Value{coerce(r, fn.Type().In(0))})[0]

	switch b.Method {
	case "Equal":
		return reflect.ValueOf(res.Bool() == (b.Op == tree.Equal)), nil
	case "Compare":
		return reflect.ValueOf(ordered(b.Op, int(res.Int()))), nil
	default:
		return res, nil
	}
}

func equal(l, r reflect.Value) bool {
	switch {
	case !l.IsValid() || !r.IsValid():
		return l.IsValid() == r.IsValid()
	case l.Kind() == reflect.Interface && l.IsNil(), r.Kind() == reflect.Interface && r.IsNil():
		return l.IsNil() && r.IsNil()
	}

	return l.Equal(r)
}

func ordered(op tree.BinaryOp, c int) bool {
	switch op {
	case tree.Less:
		return c < 0
	case tree.LessOrEqual:
		return c <= 0
	case tree.Greater:
		return c > 0
	default:
		return c >= 0
	}
}

type integer interface {
	~int64 | ~uint64
}

func intOp[T integer](op tree.BinaryOp, l, r T) (T, error) {
	switch op {
	case tree.Add:
		return l + r, nil
	case tree.Subtract:
		return l - r, nil
	case tree.Multiply:
		return l * r, nil
	case tree.And:
		return l & r, nil
	case tree.Or:
		return l | r, nil
	}

	if r == 0 {
		return 0, ErrDivide
	}

	if op == tree.Divide {
		return l / r, nil
	}

	return l % r, nil
}

func floatOp(op tree.BinaryOp, l, r float64) float64 {
	switch op {
	case tree.Add:
		return l + r
	case tree.Subtract:
		return l - r
	case tree.Multiply:
		return l * r
	default:
		return l / r
	}
}
