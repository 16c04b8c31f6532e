// Package eval interprets typed expression trees.
//
// The interpreter works on [reflect.Value]s. Parameters of the top-level
// expression are bound by name through an [Env]; block variables and lambda
// parameters live in frames created as evaluation enters them. Lambdas
// evaluate to real Go functions built with [reflect.MakeFunc], so they can
// be passed to any function the binding calls.
package eval

import (
	"cmp"
	"log/slog"
	"reflect"

	"github.com/ardnew/bindc/binding/builtin"
	"github.com/ardnew/bindc/binding/tree"
	"github.com/ardnew/bindc/pkg"
)

// Evaluation errors.
var (
	ErrUnbound     = pkg.NewError("unbound parameter")
	ErrNilPointer  = pkg.NewError("nil pointer dereference")
	ErrIndex       = pkg.NewError("index out of range")
	ErrDivide      = pkg.NewError("integer division by zero")
	ErrCall        = pkg.NewError("call failed")
	ErrAssign      = pkg.NewError("cannot assign")
	ErrUnsupported = pkg.NewError("cannot evaluate")
	ErrPanic       = pkg.NewError("evaluation panicked")
)

// Env binds the free parameters of an expression by name.
type Env map[string]any

// frame holds the storage of the parameters bound in one scope. Values are
// addressable so assignments to parameters and their fields stick.
type frame struct {
	vars   map[*tree.Parameter]reflect.Value
	parent *frame
}

func (f *frame) lookup(p *tree.Parameter) (reflect.Value, bool) {
	for ; f != nil; f = f.parent {
		if v, ok := f.vars[p]; ok {
			return v, true
		}
	}

	return reflect.Value{}, false
}

func (f *frame) bind(p *tree.Parameter, v reflect.Value) reflect.Value {
	cell := reflect.New(p.Type()).Elem()
	if v.IsValid() {
		cell.Set(coerce(v, p.Type()))
	}

	f.vars[p] = cell

	return cell
}

func (f *frame) child() *frame {
	return &frame{vars: make(map[*tree.Parameter]reflect.Value), parent: f}
}

// panicked carries an error out of a lambda called through reflection.
type panicked struct{ err error }

type machine struct {
	env  Env
	root *frame
}

// Eval evaluates e with the parameters bound in env and returns its value.
// Expressions of type void yield nil.
func Eval(e tree.Expr, env Env) (result any, err error) {
	m := &machine{env: env, root: &frame{vars: make(map[*tree.Parameter]reflect.Value)}}

	defer func() {
		if r := recover(); r != nil {
			if p, ok := r.(panicked); ok {
				result, err = nil, p.err

				return
			}

			result, err = nil, ErrPanic.Wrapf("%v", r).With(slog.String("expr", e.String()))
		}
	}()

	v, err := m.eval(m.root, e)
	if err != nil {
		return nil, err
	}

	if !v.IsValid() {
		return nil, nil
	}

	return v.Interface(), nil
}

// Await waits for a deferred value and returns its result. Values that are
// not deferred are returned as is.
func Await(v any) (any, error) {
	switch d := v.(type) {
	case interface{ Result() (any, error) }:
		return d.Result()
	case tree.Deferred:
		return nil, d.Wait()
	default:
		return v, nil
	}
}

// coerce makes v usable where a value of type t is expected.
func coerce(v reflect.Value, t reflect.Type) reflect.Value {
	switch {
	case !v.IsValid():
		return reflect.Zero(t)
	case v.Type() == t:
		return v
	case v.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)

		return out
	default:
		return v.Convert(t)
	}
}

func (m *machine) eval(f *frame, e tree.Expr) (reflect.Value, error) {
	switch e := e.(type) {
	case *tree.Constant:
		return constant(e), nil
	case *tree.Default:
		if e.Type() == tree.Void {
			return reflect.Value{}, nil
		}

		return reflect.Zero(e.Type()), nil
	case *tree.Parameter:
		return m.parameter(f, e)
	case *tree.Member:
		return m.member(f, e)
	case *tree.Call:
		return m.call(f, e)
	case *tree.Index:
		return m.index(f, e)
	case *tree.Unary:
		return m.unary(f, e)
	case *tree.Binary:
		return m.binary(f, e)
	case *tree.Assign:
		return m.assign(f, e)
	case *tree.Conditional:
		return m.conditional(f, e)
	case *tree.Lambda:
		return m.lambda(f, e), nil
	case *tree.Block:
		return m.block(f, e)
	case *tree.Convert:
		return m.convert(f, e)
	default:
		return reflect.Value{}, ErrUnsupported.Wrapf("%s %s", e.Kind(), e)
	}
}

func constant(c *tree.Constant) reflect.Value {
	if c.Value == nil {
		return reflect.Zero(c.Type())
	}

	return coerce(reflect.ValueOf(c.Value), c.Type())
}

func (m *machine) parameter(f *frame, p *tree.Parameter) (reflect.Value, error) {
	if v, ok := f.lookup(p); ok {
		return v, nil
	}

	v, ok := m.env[p.Name]
	if !ok {
		return reflect.Value{}, ErrUnbound.Wrapf("%q", p.Name)
	}

	return m.root.bind(p, reflect.ValueOf(v)), nil
}

// deref follows pointers to the value they point at.
func deref(v reflect.Value) (reflect.Value, error) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, ErrNilPointer.Wrapf("%s", v.Type())
		}

		v = v.Elem()
	}

	return v, nil
}

func (m *machine) member(f *frame, e *tree.Member) (reflect.Value, error) {
	obj, err := m.eval(f, e.Object)
	if err != nil {
		return reflect.Value{}, err
	}

	if obj, err = deref(obj); err != nil {
		return reflect.Value{}, err
	}

	return obj.FieldByIndex(e.Field.Index), nil
}

func (m *machine) callee(f *frame, e *tree.Call) (reflect.Value, error) {
	switch {
	case e.Method != "":
		obj, err := m.eval(f, e.Object)
		if err != nil {
			return reflect.Value{}, err
		}

		fn := obj.MethodByName(e.Method)
		if !fn.IsValid() && obj.CanAddr() {
			fn = obj.Addr().MethodByName(e.Method)
		}

		if !fn.IsValid() {
			return reflect.Value{}, ErrCall.Wrapf("%s has no method %s", obj.Type(), e.Method)
		}

		return fn, nil

	case e.Func.IsValid():
		return e.Func, nil

	default:
		fn, err := m.eval(f, e.Callee)
		if err != nil {
			return reflect.Value{}, err
		}

		if fn.IsNil() {
			return reflect.Value{}, ErrNilPointer.Wrapf("call of nil %s", e.Callee)
		}

		return fn, nil
	}
}

// arguments evaluates the arguments of a call: every argument that is not a
// lambda from left to right, then the lambdas in their original order.
func (m *machine) arguments(f *frame, e *tree.Call) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(e.Args))

	for _, lambdas := range []bool{false, true} {
		for i, a := range e.Args {
			if (a.Kind() == tree.KindLambda) != lambdas {
				continue
			}

			v, err := m.eval(f, a)
			if err != nil {
				return nil, err
			}

			args[i] = v
		}
	}

	sig := e.Signature
	for i, a := range args {
		if pt := paramType(sig, i); pt != nil {
			args[i] = coerce(a, pt)
		}
	}

	return args, nil
}

// paramType returns the type of the parameter of fn receiving argument i.
func paramType(sig reflect.Type, i int) reflect.Type {
	if sig == nil {
		return nil
	}

	n := sig.NumIn()
	if sig.IsVariadic() && i >= n-1 {
		return sig.In(n - 1).Elem()
	}

	if i < n {
		return sig.In(i)
	}

	return nil
}

func (m *machine) call(f *frame, e *tree.Call) (reflect.Value, error) {
	fn, err := m.callee(f, e)
	if err != nil {
		return reflect.Value{}, err
	}

	args, err := m.arguments(f, e)
	if err != nil {
		return reflect.Value{}, err
	}

	out := fn.Call(args)

	if n := len(out); n > 0 && out[n-1].Type() == tree.Error {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return reflect.Value{}, ErrCall.Wrap(err).With(slog.String("call", e.String()))
		}

		out = out[:n-1]
	}

	if len(out) == 0 {
		return reflect.Value{}, nil
	}

	return out[0], nil
}

func (m *machine) index(f *frame, e *tree.Index) (reflect.Value, error) {
	obj, err := m.eval(f, e.Object)
	if err != nil {
		return reflect.Value{}, err
	}

	key, err := m.eval(f, e.Key)
	if err != nil {
		return reflect.Value{}, err
	}

	if obj.Kind() == reflect.Pointer {
		if obj, err = deref(obj); err != nil {
			return reflect.Value{}, err
		}
	}

	if obj.Kind() == reflect.Map {
		v := obj.MapIndex(key)
		if !v.IsValid() {
			return reflect.Zero(e.Type()), nil
		}

		return v, nil
	}

	i := int(key.Int())
	if i < 0 || i >= obj.Len() {
		return reflect.Value{}, ErrIndex.Wrapf("index %d with length %d", i, obj.Len())
	}

	return obj.Index(i), nil
}

func (m *machine) conditional(f *frame, e *tree.Conditional) (reflect.Value, error) {
	test, err := m.eval(f, e.Test)
	if err != nil {
		return reflect.Value{}, err
	}

	branch := e.IfFalse
	if test.Bool() {
		branch = e.IfTrue
	}

	return m.eval(f, branch)
}

func (m *machine) lambda(f *frame, l *tree.Lambda) reflect.Value {
	typ := l.Type()

	return reflect.MakeFunc(typ, func(in []reflect.Value) []reflect.Value {
		lf := f.child()
		for i, p := range l.Params {
			lf.bind(p, in[i])
		}

		v, err := m.eval(lf, l.Body)
		if err != nil {
			panic(panicked{err: err})
		}

		if typ.NumOut() == 0 {
			return nil
		}

		return []reflect.Value{coerce(v, typ.Out(0))}
	})
}

func (m *machine) block(f *frame, b *tree.Block) (reflect.Value, error) {
	bf := f
	if len(b.Variables) > 0 {
		bf = f.child()
		for _, p := range b.Variables {
			bf.bind(p, reflect.Value{})
		}
	}

	var last reflect.Value

	for _, e := range b.Exprs {
		v, err := m.eval(bf, e)
		if err != nil {
			return reflect.Value{}, err
		}

		last = v
	}

	return last, nil
}

func (m *machine) convert(f *frame, c *tree.Convert) (reflect.Value, error) {
	v, err := m.eval(f, c.Operand)
	if err != nil {
		return reflect.Value{}, err
	}

	if c.ToString {
		var x any
		if v.IsValid() {
			x = v.Interface()
		}

		return reflect.ValueOf(builtin.Text(x)), nil
	}

	return coerce(v, c.Type()), nil
}

func (m *machine) assign(f *frame, a *tree.Assign) (reflect.Value, error) {
	value, err := m.eval(f, a.Value)
	if err != nil {
		return reflect.Value{}, err
	}

	value = coerce(value, a.Target.Type())

	if ix, ok := a.Target.(*tree.Index); ok {
		return value, m.store(f, ix, value)
	}

	target, err := m.eval(f, a.Target)
	if err != nil {
		return reflect.Value{}, err
	}

	if !target.CanSet() {
		return reflect.Value{}, ErrAssign.Wrapf("%s", a.Target)
	}

	target.Set(value)

	return value, nil
}

// store assigns value to an element of a map, slice or array.
func (m *machine) store(f *frame, ix *tree.Index, value reflect.Value) error {
	obj, err := m.eval(f, ix.Object)
	if err != nil {
		return err
	}

	key, err := m.eval(f, ix.Key)
	if err != nil {
		return err
	}

	if obj, err = deref(obj); err != nil {
		return err
	}

	if obj.Kind() == reflect.Map {
		if obj.IsNil() {
			return ErrAssign.Wrapf("entry in nil map %s", ix.Object)
		}

		obj.SetMapIndex(key, value)

		return nil
	}

	i := int(key.Int())
	if i < 0 || i >= obj.Len() {
		return ErrIndex.Wrapf("index %d with length %d", i, obj.Len())
	}

	if elem := obj.Index(i); elem.CanSet() {
		elem.Set(value)

		return nil
	}

	return ErrAssign.Wrapf("%s", ix)
}

func compare(l, r reflect.Value) int {
	switch {
	case l.CanInt():
		return cmp.Compare(l.Int(), r.Int())
	case l.CanUint():
		return cmp.Compare(l.Uint(), r.Uint())
	case l.CanFloat():
		return cmp.Compare(l.Float(), r.Float())
	default:
		return cmp.Compare(l.String(), r.String())
	}
}
