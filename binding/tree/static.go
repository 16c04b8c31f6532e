package tree

import (
	"reflect"
	"slices"
)

// StaticType references a type by name rather than a value of it. Its
// static members are functions (possibly overloaded) and constants.
// A generic type definition has a nil type and instantiates to a closed
// StaticType through Instantiate.
type StaticType struct {
	Name        string
	Members     map[string][]reflect.Value
	Arity       int
	Instantiate func(args ...reflect.Type) (reflect.Type, error)
	typ         reflect.Type
}

// NewStaticType returns a reference to typ under the given name.
func NewStaticType(name string, typ reflect.Type) *StaticType {
	return &StaticType{Name: name, typ: typ}
}

// NewStaticClass returns a type-less holder of static members, such as a
// library of helper functions.
func NewStaticClass(name string) *StaticType {
	return &StaticType{Name: name}
}

// NewGenericType returns a generic type definition of the given arity.
func NewGenericType(
	name string,
	arity int,
	inst func(args ...reflect.Type) (reflect.Type, error),
) *StaticType {
	return &StaticType{Name: name, Arity: arity, Instantiate: inst}
}

// Define adds static members under name. A func value defines an overload;
// any other value defines a constant. Overloads keep their definition order.
// Define is meant for construction; a StaticType in use is not modified.
func (s *StaticType) Define(name string, values ...any) *StaticType {
	if s.Members == nil {
		s.Members = make(map[string][]reflect.Value)
	}

	for _, v := range values {
		s.Members[name] = append(s.Members[name], reflect.ValueOf(v))
	}

	return s
}

// MemberNames returns the names of the static members in sorted order.
func (s *StaticType) MemberNames() []string {
	names := make([]string, 0, len(s.Members))
	for name := range s.Members {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// IsGeneric reports whether s is an uninstantiated generic definition.
func (s *StaticType) IsGeneric() bool { return s.Arity > 0 && s.typ == nil }

func (*StaticType) Kind() Kind { return KindStaticType }

// Type returns the referenced type. It is nil for static classes and
// generic definitions.
func (s *StaticType) Type() reflect.Type { return s.typ }

// Candidate is one overload of a method group.
type Candidate struct {
	// Func is the function to call. It is invalid for instance methods, which
	// are looked up by Method on the target at evaluation time.
	Func   reflect.Value
	Method string
	// Signature is the func type as seen by the caller: the receiver of
	// instance methods and extension functions is not part of it.
	Signature reflect.Type
	// Extension marks a function that receives the target as its first
	// argument.
	Extension bool
	// Bind produces the function of a generic candidate from the argument
	// types known at the call site. Signature is nil until it is bound.
	Bind Binder
}

// Binder instantiates a generic function for the given argument types. An
// extension binder receives the target type first. Types of arguments that
// are not known yet are nil. It reports false when the types do not fit.
type Binder func(args []reflect.Type) (reflect.Value, bool)

var binderType = reflect.TypeFor[Binder]()

// NewCandidate returns the candidate calling fn, which is either a func value
// or a [Binder]. An extension candidate passes the call target as the first
// argument of fn. It reports false when fn is not callable.
func NewCandidate(fn reflect.Value, extension bool) (Candidate, bool) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return Candidate{}, false
	}

	if fn.Type() == binderType {
		return Candidate{
			Bind:      fn.Interface().(Binder),
			Extension: extension,
		}, true
	}

	sig := fn.Type()
	if extension {
		if sig.NumIn() == 0 {
			return Candidate{}, false
		}

		sig = DropParams(sig, 1)
	}

	return Candidate{Func: fn, Signature: sig, Extension: extension}, true
}

// Instantiate binds a generic candidate for a call on target with the
// given argument types. Non-generic candidates are returned as is.
func (c Candidate) Instantiate(
	target reflect.Type,
	args []reflect.Type,
) (Candidate, bool) {
	if c.Bind == nil {
		return c, true
	}

	if c.Extension {
		args = append([]reflect.Type{target}, args...)
	}

	fn, ok := c.Bind(args)
	if !ok {
		return Candidate{}, false
	}

	bound, ok := NewCandidate(fn, c.Extension)
	if !ok || bound.Bind != nil {
		return Candidate{}, false
	}

	return bound, true
}

// DropParams returns sig without its first n parameters.
func DropParams(sig reflect.Type, n int) reflect.Type {
	in := make([]reflect.Type, 0, sig.NumIn()-n)
	for i := n; i < sig.NumIn(); i++ {
		in = append(in, sig.In(i))
	}

	out := make([]reflect.Type, sig.NumOut())
	for i := range out {
		out[i] = sig.Out(i)
	}

	variadic := sig.IsVariadic() && len(in) > 0

	return reflect.FuncOf(in, out, variadic)
}

// Accepts reports whether the candidate can take argc arguments. Generic
// candidates accept any count until they are bound.
func (c Candidate) Accepts(argc int) bool {
	if c.Signature == nil {
		return c.Bind != nil
	}

	n := c.Signature.NumIn()
	if c.Signature.IsVariadic() {
		return argc >= n-1
	}

	return argc == n
}

// ParamType returns the type of the parameter receiving argument i,
// expanding a variadic tail.
func (c Candidate) ParamType(i int) reflect.Type {
	if c.Signature == nil {
		return nil
	}

	n := c.Signature.NumIn()
	if c.Signature.IsVariadic() && i >= n-1 {
		return c.Signature.In(n - 1).Elem()
	}

	if i < n {
		return c.Signature.In(i)
	}

	return nil
}

// MethodGroup is a named set of overloads bound to a target, produced by a
// member access and consumed by a call. Target is nil for free functions.
type MethodGroup struct {
	Target     Expr
	Name       string
	Candidates []Candidate
}

func (*MethodGroup) Kind() Kind         { return KindMethodGroup }
func (*MethodGroup) Type() reflect.Type { return nil }
