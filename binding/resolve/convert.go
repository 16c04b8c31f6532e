package resolve

import (
	"math"
	"reflect"

	"github.com/ardnew/bindc/binding/tree"
)

// ImplicitConversion returns e converted to type to, or nil when no implicit
// conversion exists. Conversions are, in order of preference: identity, nil
// to a nillable type, lambda retyping, representable constants, numeric
// widening, assignability (interfaces and unnamed types) and, when
// allowToString is set, formatting as text.
func (r *Resolver) ImplicitConversion(
	e tree.Expr,
	to reflect.Type,
	allowToString bool,
) tree.Expr {
	if e == nil || to == nil {
		return nil
	}

	if tree.IsNil(e) {
		if tree.Nillable(to) {
			return tree.ConstantOf(nil, to)
		}

		return nil
	}

	if !tree.IsValue(e) {
		return nil
	}

	from := e.Type()
	if from == to {
		return e
	}

	if l, ok := e.(*tree.Lambda); ok && to.Kind() == reflect.Func {
		return r.convertLambda(l, to)
	}

	if c, ok := e.(*tree.Constant); ok {
		if v, ok := representable(c, to); ok {
			return tree.ConstantOf(v, to)
		}
	}

	if widens(from, to) || from.AssignableTo(to) {
		return tree.NewConvert(e, to)
	}

	if allowToString && to == tree.String {
		return tree.NewToString(e)
	}

	return nil
}

// Convertible reports whether a value of type from converts implicitly to
// type to. Constants are not considered.
func (r *Resolver) Convertible(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}

	return from == to || widens(from, to) || from.AssignableTo(to)
}

// convertLambda retypes l as the func type to when the parameters match
// exactly and the body converts to the result.
func (r *Resolver) convertLambda(l *tree.Lambda, to reflect.Type) tree.Expr {
	if to.NumIn() != len(l.Params) || to.IsVariadic() {
		return nil
	}

	for i, p := range l.Params {
		if to.In(i) != p.Type() {
			return nil
		}
	}

	switch to.NumOut() {
	case 0:
		return tree.NewLambda(to, l.Body, l.Params...)
	case 1:
		body := r.ImplicitConversion(l.Body, to.Out(0), false)
		if body == nil {
			return nil
		}

		return tree.NewLambda(to, body, l.Params...)
	default:
		return nil
	}
}

func predeclared(t reflect.Type) bool { return t.PkgPath() == "" && t.Name() != "" }

func isSigned(t reflect.Type) bool {
	return t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64
}

func isUnsigned(t reflect.Type) bool {
	return t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uintptr
}

func isInteger(t reflect.Type) bool { return isSigned(t) || isUnsigned(t) }

func isFloat(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

func isNumeric(t reflect.Type) bool { return t != nil && (isInteger(t) || isFloat(t)) }

func isString(t reflect.Type) bool { return t != nil && t.Kind() == reflect.String }

func isBool(t reflect.Type) bool { return t != nil && t.Kind() == reflect.Bool }

// widens reports whether from converts to to without loss between
// predeclared numeric types.
func widens(from, to reflect.Type) bool {
	if !predeclared(from) || !predeclared(to) || !isNumeric(from) || !isNumeric(to) {
		return false
	}

	switch {
	case isFloat(to):
		return !isFloat(from) || to.Size() >= from.Size()
	case isFloat(from):
		return false
	case isSigned(from) && isSigned(to), isUnsigned(from) && isUnsigned(to):
		return to.Size() >= from.Size()
	case isUnsigned(from) && isSigned(to):
		return to.Size() > from.Size()
	default:
		return false
	}
}

// representable converts the value of a constant of predeclared type to to
// when the value fits, following the rules of untyped constants.
func representable(c *tree.Constant, to reflect.Type) (any, bool) {
	from := c.Type()
	if c.Value == nil || !predeclared(from) {
		return nil, false
	}

	v := reflect.ValueOf(c.Value)

	switch {
	case isString(from) && isString(to), isBool(from) && isBool(to):
		return v.Convert(to).Interface(), true

	case isNumeric(from) && isNumeric(to):
		var (
			f  float64
			ok = true
		)

		switch {
		case isSigned(from):
			f = float64(v.Int())
		case isUnsigned(from):
			f = float64(v.Uint())
		default:
			f = v.Float()
		}

		z := reflect.New(to).Elem()

		switch {
		case isFloat(to):
			ok = !z.OverflowFloat(f)
		case f != math.Trunc(f):
			ok = false
		case isSigned(to):
			ok = !z.OverflowInt(int64(f))
		default:
			ok = f >= 0 && !z.OverflowUint(uint64(f))
		}

		if !ok {
			return nil, false
		}

		return v.Convert(to).Interface(), true
	}

	return nil, false
}
