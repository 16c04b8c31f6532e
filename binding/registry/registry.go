// Package registry implements the layered symbol table that binding
// expressions resolve identifiers against.
//
// A Registry is immutable. Adding symbols returns a new layer over the
// receiver, so a scope extended for one subtree never affects its parent or
// siblings. Lookup walks layers innermost first.
package registry

import (
	"log/slog"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/bindc/binding/internal/hint"
	"github.com/ardnew/bindc/binding/tree"
	"github.com/ardnew/bindc/pkg"
)

// ErrSymbolNotFound is returned by Resolve for unknown names.
var ErrSymbolNotFound = pkg.NewError("symbol not found")

// Binding associates a name with the expression it resolves to.
type Binding struct {
	Name string
	Expr tree.Expr
}

// Symbol binds name to an arbitrary expression.
func Symbol(name string, expr tree.Expr) Binding {
	return Binding{Name: name, Expr: expr}
}

// Value binds name to a constant.
func Value(name string, v any) Binding {
	return Binding{Name: name, Expr: tree.NewConstant(v)}
}

// Type binds name to a static reference to t.
func Type(name string, t reflect.Type) Binding {
	return Binding{Name: name, Expr: tree.NewStaticType(name, t)}
}

// Func binds name to a free function. Each fn is a func value or a
// [tree.Binder]; together they form an overload set in the given order.
func Func(name string, fns ...any) Binding {
	g := &tree.MethodGroup{Name: name}

	for _, fn := range fns {
		if c, ok := tree.NewCandidate(reflect.ValueOf(fn), false); ok {
			g.Candidates = append(g.Candidates, c)
		}
	}

	return Binding{Name: name, Expr: g}
}

// Static binds a static class or generic definition under its own name.
// Generic definitions are registered as "Name`N".
func Static(s *tree.StaticType) Binding {
	name := s.Name
	if s.IsGeneric() {
		name = GenericName(s.Name, s.Arity)
	}

	return Binding{Name: name, Expr: s}
}

// GenericName returns the registry key of a generic definition.
func GenericName(name string, arity int) string {
	return name + "`" + strconv.Itoa(arity)
}

// Registry is one layer of the symbol table.
type Registry struct {
	parent  *Registry
	symbols map[string]tree.Expr
	imports []string
}

// New returns a root registry holding bindings.
func New(bindings ...Binding) *Registry {
	return (*Registry)(nil).AddSymbols(bindings...)
}

// AddSymbols returns a new layer holding bindings over r. When a name occurs
// more than once in bindings the first occurrence wins.
func (r *Registry) AddSymbols(bindings ...Binding) *Registry {
	layer := &Registry{
		parent:  r,
		symbols: make(map[string]tree.Expr, len(bindings)),
	}

	for _, b := range bindings {
		if _, dup := layer.symbols[b.Name]; !dup {
			layer.symbols[b.Name] = b.Expr
		}
	}

	return layer
}

// AddParameters returns a new layer binding each parameter by its name.
func (r *Registry) AddParameters(params ...*tree.Parameter) *Registry {
	bindings := make([]Binding, len(params))
	for i, p := range params {
		bindings[i] = Symbol(p.Name, p)
	}

	return r.AddSymbols(bindings...)
}

// Import returns a new layer that makes the symbols registered under each
// dotted prefix resolvable by their short names, so that after
// Import("time"), "Duration" resolves "time.Duration".
func (r *Registry) Import(prefixes ...string) *Registry {
	layer := r.AddSymbols()
	layer.imports = slices.Clone(prefixes)

	return layer
}

// Lookup returns the expression bound to name. Exact names are searched in
// every layer before imported prefixes are tried.
func (r *Registry) Lookup(name string) (tree.Expr, bool) {
	if e, ok := r.lookup(name); ok {
		return e, true
	}

	for l := r; l != nil; l = l.parent {
		for _, prefix := range l.imports {
			if e, ok := r.lookup(prefix + "." + name); ok {
				return e, true
			}
		}
	}

	return nil, false
}

func (r *Registry) lookup(name string) (tree.Expr, bool) {
	for l := r; l != nil; l = l.parent {
		if e, ok := l.symbols[name]; ok {
			return e, true
		}
	}

	return nil, false
}

// Resolve is Lookup returning ErrSymbolNotFound, with suggestions, for
// unknown names.
func (r *Registry) Resolve(name string) (tree.Expr, error) {
	if e, ok := r.Lookup(name); ok {
		return e, nil
	}

	return nil, ErrSymbolNotFound.
		Wrapf("%q%s", name, hint.DidYouMean(name, r.Names())).
		With(slog.String("name", name))
}

// HasPrefix reports whether any visible name starts with the dotted prefix,
// meaning that a longer qualified name may still resolve.
func (r *Registry) HasPrefix(prefix string) bool {
	prefix += "."

	for l := r; l != nil; l = l.parent {
		for name := range l.symbols {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}

	return false
}

// Names returns every name visible from r, sorted and without duplicates.
// Generic definitions are listed by their plain name.
func (r *Registry) Names() []string {
	var names []string

	for l := r; l != nil; l = l.parent {
		for name := range l.symbols {
			if i := strings.IndexByte(name, '`'); i >= 0 {
				name = name[:i]
			}

			names = append(names, name)
		}
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// Depth returns the number of layers in r.
func (r *Registry) Depth() int {
	n := 0
	for l := r; l != nil; l = l.parent {
		n++
	}

	return n
}
