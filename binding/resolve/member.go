package resolve

import (
	"log/slog"
	"reflect"
	"slices"

	"github.com/ardnew/bindc/binding/internal/hint"
	"github.com/ardnew/bindc/binding/tree"
)

// Member resolves target.name. The target is a value or a static type
// reference. Fields resolve to a Member read, methods and extension
// functions to a MethodGroup, static constants to a Constant. String-keyed
// maps without a matching method resolve name as a key.
func (r *Resolver) Member(
	target tree.Expr,
	name string,
	typeArgs []reflect.Type,
) (tree.Expr, error) {
	if len(typeArgs) > 0 {
		return nil, ErrTypeArguments.Wrapf("member %s is not generic", name)
	}

	if s, ok := target.(*tree.StaticType); ok {
		return r.staticMember(s, name)
	}

	if !tree.IsValue(target) {
		return nil, ErrNotValue.Wrapf("%s has no members", target)
	}

	if e, ok := r.instanceMember(target, name); ok {
		return e, nil
	}

	t := target.Type()

	return nil, ErrMemberNotFound.
		Wrapf("%s has no member %q%s",
			tree.TypeName(t), name, hint.DidYouMean(name, r.MemberNames(t))).
		With(typeAttr("type", t), slog.String("member", name))
}

// TryMember is Member reporting false instead of an error.
func (r *Resolver) TryMember(target tree.Expr, name string) (tree.Expr, bool) {
	e, err := r.Member(target, name, nil)

	return e, err == nil
}

func (r *Resolver) instanceMember(target tree.Expr, name string) (tree.Expr, bool) {
	t := target.Type()

	if st := deref(t); st.Kind() == reflect.Struct {
		if f, ok := st.FieldByName(name); ok && f.IsExported() {
			return &tree.Member{Object: target, Field: f}, true
		}
	}

	var cands []tree.Candidate

	if sig, ok := method(t, name); ok {
		cands = append(cands, tree.Candidate{Method: name, Signature: sig})
	}

	for _, c := range r.extensions[name] {
		if r.extends(c, t) {
			cands = append(cands, c)
		}
	}

	if len(cands) > 0 {
		return &tree.MethodGroup{Target: target, Name: name, Candidates: cands}, true
	}

	if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
		key := tree.ConstantOf(reflect.ValueOf(name).Convert(t.Key()).Interface(), t.Key())

		return tree.NewIndex(target, key, t.Elem()), true
	}

	return nil, false
}

// extends reports whether the extension candidate c applies to values of t.
func (r *Resolver) extends(c tree.Candidate, t reflect.Type) bool {
	if c.Bind != nil {
		_, ok := c.Instantiate(t, nil)

		return ok
	}

	return r.Convertible(t, c.Func.Type().In(0))
}

func (r *Resolver) staticMember(s *tree.StaticType, name string) (tree.Expr, error) {
	if s.IsGeneric() {
		return nil, ErrTypeArguments.Wrapf(
			"generic type %s requires %d type arguments", s.Name, s.Arity)
	}

	values, ok := s.Members[name]
	if !ok {
		return nil, ErrMemberNotFound.
			Wrapf("%s has no static member %q%s",
				s.Name, name, hint.DidYouMean(name, s.MemberNames())).
			With(slog.String("type", s.Name), slog.String("member", name))
	}

	var cands []tree.Candidate

	for _, v := range values {
		if c, ok := tree.NewCandidate(v, false); ok {
			cands = append(cands, c)
		}
	}

	if len(cands) == 0 {
		return tree.ConstantOf(values[0].Interface(), values[0].Type()), nil
	}

	return &tree.MethodGroup{Target: s, Name: name, Candidates: cands}, nil
}

// InstantiateType closes the generic definition s over args.
func (r *Resolver) InstantiateType(
	s *tree.StaticType,
	args []reflect.Type,
) (*tree.StaticType, error) {
	if !s.IsGeneric() {
		return nil, ErrTypeArguments.Wrapf("%s is not generic", s.Name)
	}

	if len(args) != s.Arity {
		return nil, ErrTypeArguments.Wrapf(
			"%s takes %d type arguments, got %d", s.Name, s.Arity, len(args))
	}

	t, err := s.Instantiate(args...)
	if err != nil {
		return nil, ErrTypeArguments.Wrap(err)
	}

	return tree.NewStaticType(t.String(), t), nil
}

// MemberNames returns the exported fields and methods of t and the names of
// the extension functions that apply to it, sorted.
func (r *Resolver) MemberNames(t reflect.Type) []string {
	if t == nil {
		return nil
	}

	var names []string

	if st := deref(t); st.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(st) {
			if f.IsExported() && !f.Anonymous {
				names = append(names, f.Name)
			}
		}
	}

	for _, mt := range methodSets(t) {
		for i := range mt.NumMethod() {
			names = append(names, mt.Method(i).Name)
		}
	}

	for _, name := range r.extOrder {
		if slices.ContainsFunc(r.extensions[name], func(c tree.Candidate) bool {
			return r.extends(c, t)
		}) {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return slices.Compact(names)
}

func deref(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}

	return t
}

func methodSets(t reflect.Type) []reflect.Type {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return []reflect.Type{t}
	}

	return []reflect.Type{t, reflect.PointerTo(t)}
}

// method returns the signature, without receiver, of the named method
// callable on values of t. Methods with pointer receivers are included for
// non-pointer types.
func method(t reflect.Type, name string) (reflect.Type, bool) {
	for _, mt := range methodSets(t) {
		if m, ok := mt.MethodByName(name); ok {
			if mt.Kind() == reflect.Interface {
				return m.Type, true
			}

			return tree.DropParams(m.Type, 1), true
		}
	}

	return nil, false
}
