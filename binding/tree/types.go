package tree

import (
	"reflect"
	"time"
)

type void struct{}

// Common types.
var (
	// Void is the type of statements that produce no value.
	Void = reflect.TypeFor[void]()

	Any      = reflect.TypeFor[any]()
	Bool     = reflect.TypeFor[bool]()
	Int      = reflect.TypeFor[int]()
	Float64  = reflect.TypeFor[float64]()
	String   = reflect.TypeFor[string]()
	Error    = reflect.TypeFor[error]()
	Duration = reflect.TypeFor[time.Duration]()

	// DeferredType is the interface of asynchronous computations.
	DeferredType = reflect.TypeFor[Deferred]()
)

// Deferred is a computation whose result becomes available later. Types
// implementing it are sequenced with a combinator instead of a plain block.
type Deferred interface {
	Wait() error
}

// IsDeferred reports whether values of t are deferred computations.
func IsDeferred(t reflect.Type) bool {
	return t != nil && t != Void && t.Implements(DeferredType)
}

// ResultType returns the value type produced by calling a function of type
// sig: its first result, or [Void] when it has none. A trailing error
// result is not part of the value.
func ResultType(sig reflect.Type) reflect.Type {
	if sig == nil || sig.Kind() != reflect.Func {
		return nil
	}

	if sig.NumOut() == 0 || (sig.NumOut() == 1 && sig.Out(0) == Error) {
		return Void
	}

	return sig.Out(0)
}

// IsNil reports whether e is the untyped nil constant.
func IsNil(e Expr) bool {
	c, ok := e.(*Constant)

	return ok && c.Value == nil && c.typ == Any
}

// Nillable reports whether the zero value of t is nil.
func Nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// IsValue reports whether e produces a value that may be stored or passed.
func IsValue(e Expr) bool {
	if e.Kind() == KindStaticType {
		return false
	}

	t := e.Type()

	return t != nil && t != Void
}
