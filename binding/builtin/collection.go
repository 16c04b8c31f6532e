package builtin

import (
	"reflect"

	"github.com/ardnew/bindc/binding/tree"
)

var anySlice = reflect.TypeFor[[]any]()

// sequence reports whether t is a slice or array type.
func sequence(t reflect.Type) bool {
	return t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array)
}

func predicateOf(elem reflect.Type) reflect.Type {
	return reflect.FuncOf([]reflect.Type{elem}, []reflect.Type{tree.Bool}, false)
}

func funcOf(in []reflect.Type, out ...reflect.Type) reflect.Type {
	return reflect.FuncOf(in, out, false)
}

// predicated builds a generic function taking a sequence and a predicate on
// its elements. The implementation receives the sequence and the predicate.
// Binding with the sequence type alone yields the same function, which lets
// the resolver test whether the extension applies to a type.
func predicated(
	result func(seq reflect.Type) reflect.Type,
	impl func(seq, pred reflect.Value, out reflect.Type) reflect.Value,
) tree.Binder {
	return func(args []reflect.Type) (reflect.Value, bool) {
		if len(args) == 0 || len(args) > 2 || !sequence(args[0]) {
			return reflect.Value{}, false
		}

		seq := args[0]
		out := result(seq)
		sig := funcOf([]reflect.Type{seq, predicateOf(seq.Elem())}, out)

		return reflect.MakeFunc(sig, func(in []reflect.Value) []reflect.Value {
			return []reflect.Value{impl(in[0], in[1], out)}
		}), true
	}
}

func test(pred, v reflect.Value) bool {
	return pred.Call([]reflect.Value{v})[0].Bool()
}

func boolResult(reflect.Type) reflect.Type { return tree.Bool }

// Where returns the elements of a sequence satisfying a predicate, as a
// slice of the element type.
var Where = predicated(
	func(seq reflect.Type) reflect.Type { return reflect.SliceOf(seq.Elem()) },
	func(seq, pred reflect.Value, out reflect.Type) reflect.Value {
		res := reflect.MakeSlice(out, 0, seq.Len())

		for i := range seq.Len() {
			if test(pred, seq.Index(i)) {
				res = reflect.Append(res, seq.Index(i))
			}
		}

		return res
	},
)

// Any reports whether some element satisfies the predicate.
var Any = predicated(boolResult,
	func(seq, pred reflect.Value, _ reflect.Type) reflect.Value {
		return reflect.ValueOf(anyMatch(seq, pred))
	},
)

// All reports whether every element satisfies the predicate.
var All = predicated(boolResult,
	func(seq, pred reflect.Value, _ reflect.Type) reflect.Value {
		for i := range seq.Len() {
			if !test(pred, seq.Index(i)) {
				return reflect.ValueOf(false)
			}
		}

		return reflect.ValueOf(true)
	},
)

// None reports whether no element satisfies the predicate.
var None = predicated(boolResult,
	func(seq, pred reflect.Value, _ reflect.Type) reflect.Value {
		return reflect.ValueOf(!anyMatch(seq, pred))
	},
)

func anyMatch(seq, pred reflect.Value) bool {
	for i := range seq.Len() {
		if test(pred, seq.Index(i)) {
			return true
		}
	}

	return false
}

// First returns the first element satisfying the predicate, or the zero
// element.
var First = predicated(
	func(seq reflect.Type) reflect.Type { return seq.Elem() },
	func(seq, pred reflect.Value, out reflect.Type) reflect.Value {
		for i := range seq.Len() {
			if test(pred, seq.Index(i)) {
				return seq.Index(i)
			}
		}

		return reflect.Zero(out)
	},
)

// Count returns the number of elements, or with a predicate the number of
// elements satisfying it.
var Count tree.Binder = func(args []reflect.Type) (reflect.Value, bool) {
	if len(args) == 0 || !sequence(args[0]) {
		return reflect.Value{}, false
	}

	seq := args[0]

	switch len(args) {
	case 1:
		sig := funcOf([]reflect.Type{seq}, tree.Int)

		return reflect.MakeFunc(sig, func(in []reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.ValueOf(in[0].Len())}
		}), true

	case 2:
		sig := funcOf([]reflect.Type{seq, predicateOf(seq.Elem())}, tree.Int)

		return reflect.MakeFunc(sig, func(in []reflect.Value) []reflect.Value {
			n := 0

			for i := range in[0].Len() {
				if test(in[1], in[0].Index(i)) {
					n++
				}
			}

			return []reflect.Value{reflect.ValueOf(n)}
		}), true
	}

	return reflect.Value{}, false
}

// Select maps every element through a function, producing a []any.
var Select tree.Binder = func(args []reflect.Type) (reflect.Value, bool) {
	if len(args) == 0 || len(args) > 2 || !sequence(args[0]) {
		return reflect.Value{}, false
	}

	seq := args[0]
	fn := funcOf([]reflect.Type{seq.Elem()}, tree.Any)
	sig := funcOf([]reflect.Type{seq, fn}, anySlice)

	return reflect.MakeFunc(sig, func(in []reflect.Value) []reflect.Value {
		out := make([]any, in[0].Len())

		for i := range out {
			out[i] = in[1].Call([]reflect.Value{in[0].Index(i)})[0].Interface()
		}

		return []reflect.Value{reflect.ValueOf(out)}
	}), true
}

// Sum adds the elements of a numeric sequence.
var Sum tree.Binder = func(args []reflect.Type) (reflect.Value, bool) {
	if len(args) != 1 || !sequence(args[0]) {
		return reflect.Value{}, false
	}

	elem := args[0].Elem()

	switch {
	case elem.Kind() >= reflect.Int && elem.Kind() <= reflect.Float64:
	default:
		return reflect.Value{}, false
	}

	sig := funcOf([]reflect.Type{args[0]}, elem)

	return reflect.MakeFunc(sig, func(in []reflect.Value) []reflect.Value {
		acc := reflect.New(elem).Elem()

		for i := range in[0].Len() {
			v := in[0].Index(i)

			switch {
			case v.CanInt():
				acc.SetInt(acc.Int() + v.Int())
			case v.CanUint():
				acc.SetUint(acc.Uint() + v.Uint())
			default:
				acc.SetFloat(acc.Float() + v.Float())
			}
		}

		return []reflect.Value{acc}
	}), true
}

// Len returns the length of a slice, array, map or string.
var Len tree.Binder = func(args []reflect.Type) (reflect.Value, bool) {
	if len(args) != 1 || args[0] == nil {
		return reflect.Value{}, false
	}

	switch args[0].Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
	default:
		return reflect.Value{}, false
	}

	sig := funcOf([]reflect.Type{args[0]}, tree.Int)

	return reflect.MakeFunc(sig, func(in []reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.ValueOf(in[0].Len())}
	}), true
}
