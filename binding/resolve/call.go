package resolve

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/ardnew/bindc/binding/tree"
)

// Call resolves an invocation of target with already built arguments.
// Targets are method groups, values of func type, and static type references
// applied to one argument, which convert it.
func (r *Resolver) Call(target tree.Expr, args []tree.Expr) (tree.Expr, error) {
	switch t := target.(type) {
	case *tree.MethodGroup:
		return r.callGroup(t, args)

	case *tree.StaticType:
		return r.convertCall(t, args)
	}

	t := target.Type()
	if !tree.IsValue(target) || t.Kind() != reflect.Func {
		return nil, ErrNotCallable.Wrapf("%s is not a function", target)
	}

	c := tree.Candidate{Signature: t}
	if err := checkResults(target.String(), t); err != nil {
		return nil, err
	}

	conv, cost := r.applicable(c, args)
	if cost < 0 {
		return nil, ErrNoOverload.Wrapf("%s(%s)", target, argTypes(args))
	}

	return &tree.Call{Callee: target, Args: conv, Signature: t}, nil
}

func (r *Resolver) callGroup(g *tree.MethodGroup, args []tree.Expr) (tree.Expr, error) {
	c, conv, err := r.SelectOverload(g, args)
	if err != nil {
		return nil, err
	}

	switch {
	case c.Method != "":
		return &tree.Call{
			Object:    g.Target,
			Method:    c.Method,
			Args:      conv,
			Signature: c.Signature,
		}, nil

	case c.Extension:
		recv := r.ImplicitConversion(g.Target, c.Func.Type().In(0), false)

		return &tree.Call{
			Func:      c.Func,
			Args:      append([]tree.Expr{recv}, conv...),
			Signature: c.Func.Type(),
		}, nil

	default:
		return &tree.Call{Func: c.Func, Args: conv, Signature: c.Func.Type()}, nil
	}
}

// SelectOverload picks the candidate of g applicable to args and returns it
// with the converted arguments.
func (r *Resolver) SelectOverload(
	g *tree.MethodGroup,
	args []tree.Expr,
) (tree.Candidate, []tree.Expr, error) {
	var recv reflect.Type
	if g.Target != nil && g.Target.Kind() != tree.KindStaticType {
		recv = g.Target.Type()
	}

	types := make([]reflect.Type, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}

	var (
		best     tree.Candidate
		bestArgs []tree.Expr
		bestCost = -1
		tied     bool
	)

	for _, c := range g.Candidates {
		c, ok := c.Instantiate(recv, types)
		if !ok {
			continue
		}

		conv, cost := r.applicable(c, args)

		switch {
		case cost < 0:
			continue
		case cost == 0:
			r.logger.Trace("overload selected",
				slog.String("name", g.Name), typeAttr("signature", c.Signature))

			return c, conv, nil
		case bestCost < 0 || cost < bestCost:
			best, bestArgs, bestCost, tied = c, conv, cost, false
		case cost == bestCost:
			tied = true
		}
	}

	switch {
	case bestCost < 0:
		return tree.Candidate{}, nil, ErrNoOverload.
			Wrapf("%s(%s)", g, argTypes(args)).
			With(slog.String("name", g.Name))
	case tied:
		return tree.Candidate{}, nil, ErrAmbiguousOverload.
			Wrapf("%s(%s)", g, argTypes(args)).
			With(slog.String("name", g.Name))
	}

	r.logger.Trace("overload selected with conversions",
		slog.String("name", g.Name),
		typeAttr("signature", best.Signature),
		slog.Int("conversions", bestCost))

	return best, bestArgs, nil
}

// applicable converts args to the parameters of c. It returns the number of
// conversions needed, or -1 when some argument does not convert.
func (r *Resolver) applicable(c tree.Candidate, args []tree.Expr) ([]tree.Expr, int) {
	if !c.Accepts(len(args)) {
		return nil, -1
	}

	if err := checkResults("", c.Signature); err != nil {
		return nil, -1
	}

	conv := make([]tree.Expr, len(args))
	cost := 0

	for i, a := range args {
		pt := c.ParamType(i)

		conv[i] = r.ImplicitConversion(a, pt, false)
		if conv[i] == nil {
			return nil, -1
		}

		if conv[i] != a {
			cost++
		}
	}

	return conv, cost
}

// checkResults rejects functions whose results cannot be represented: at
// most one value, optionally followed by an error.
func checkResults(name string, sig reflect.Type) error {
	if n := sig.NumOut(); n > 2 || (n == 2 && sig.Out(1) != tree.Error) {
		return ErrNotCallable.Wrapf("%s returns %d values", name, n)
	}

	return nil
}

func (r *Resolver) convertCall(s *tree.StaticType, args []tree.Expr) (tree.Expr, error) {
	t := s.Type()
	if t == nil || len(args) != 1 {
		return nil, ErrNotCallable.Wrapf("type %s takes exactly one argument", s.Name)
	}

	if c := r.ImplicitConversion(args[0], t, false); c != nil {
		return c, nil
	}

	if at := args[0].Type(); tree.IsValue(args[0]) && at.ConvertibleTo(t) {
		return tree.NewConvert(args[0], t), nil
	}

	return nil, ErrNoConversion.Wrapf("%s to %s", args[0], s.Name)
}

func argTypes(args []tree.Expr) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = tree.TypeName(a.Type())
	}

	return strings.Join(names, ", ")
}

// Index resolves target[index]. Types with a custom indexer yield an
// Indexer placeholder; slices, arrays, strings and maps yield an Index.
func (r *Resolver) Index(target, index tree.Expr) (tree.Expr, error) {
	if !tree.IsValue(target) {
		return nil, ErrNotValue.Wrapf("%s cannot be indexed", target)
	}

	if ix, ok, err := r.indexer(target, index); ok || err != nil {
		return ix, err
	}

	t := target.Type()

	var key, elem reflect.Type

	switch {
	case t.Kind() == reflect.Slice, t.Kind() == reflect.Array:
		key, elem = tree.Int, t.Elem()
	case t.Kind() == reflect.String:
		key, elem = tree.Int, reflect.TypeFor[byte]()
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Array:
		key, elem = tree.Int, t.Elem().Elem()
	case t.Kind() == reflect.Map:
		key, elem = t.Key(), t.Elem()
	default:
		return nil, ErrNotIndexable.Wrapf("%s of type %s", target, tree.TypeName(t))
	}

	k := r.ImplicitConversion(index, key, false)
	if k == nil {
		return nil, ErrNoConversion.Wrapf("index %s to %s", index, tree.TypeName(key))
	}

	return tree.NewIndex(target, k, elem), nil
}

func (r *Resolver) indexer(target, index tree.Expr) (tree.Expr, bool, error) {
	t := target.Type()

	get, hasGet := method(t, r.getter)
	hasGet = hasGet && get.NumIn() == 1 && get.NumOut() >= 1

	set, hasSet := method(t, r.setter)
	hasSet = hasSet && set.NumIn() == 2

	var key, elem reflect.Type

	switch {
	case hasGet:
		key, elem = get.In(0), get.Out(0)
	case hasSet:
		key, elem = set.In(0), set.In(1)
	default:
		return nil, false, nil
	}

	k := r.ImplicitConversion(index, key, false)
	if k == nil {
		return nil, true, ErrNoConversion.Wrapf(
			"index %s to %s", index, tree.TypeName(key))
	}

	var getter, setter string
	if hasGet {
		getter = r.getter
	}

	if hasSet {
		setter = r.setter
	}

	return tree.NewIndexer(target, []tree.Expr{k}, getter, setter, elem), true, nil
}

// IndexerGet lowers a read of ix to a call of its getter.
func (r *Resolver) IndexerGet(ix *tree.Indexer) (tree.Expr, error) {
	if ix.Getter == "" {
		return nil, ErrNotIndexable.Wrapf(
			"%s has no %s method", tree.TypeName(ix.Object.Type()), r.getter)
	}

	sig, _ := method(ix.Object.Type(), ix.Getter)
	if err := checkResults(ix.Getter, sig); err != nil {
		return nil, err
	}

	return &tree.Call{
		Object:    ix.Object,
		Method:    ix.Getter,
		Args:      ix.Args,
		Signature: sig,
	}, nil
}

// IndexerSet lowers an assignment of value to ix to a call of its setter.
func (r *Resolver) IndexerSet(ix *tree.Indexer, value tree.Expr) (tree.Expr, error) {
	if ix.Setter == "" {
		return nil, ErrReadOnly.Wrapf(
			"%s has no %s method", tree.TypeName(ix.Object.Type()), r.setter)
	}

	sig, _ := method(ix.Object.Type(), ix.Setter)

	v := r.ImplicitConversion(value, sig.In(1), false)
	if v == nil {
		return nil, ErrNoConversion.Wrapf(
			"%s to %s", value, tree.TypeName(sig.In(1)))
	}

	args := append(append([]tree.Expr(nil), ix.Args...), v)

	return &tree.Call{
		Object:    ix.Object,
		Method:    ix.Setter,
		Args:      args,
		Signature: sig,
	}, nil
}
