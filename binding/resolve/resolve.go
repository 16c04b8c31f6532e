// Package resolve maps member accesses, calls, indexing and operators of
// binding expressions onto typed tree nodes using Go's reflective type
// system.
//
// Overloads are tried in a stable order: instance methods first, then
// extension functions in registration order. The first candidate whose
// arguments match without conversion wins; otherwise the candidate needing
// the fewest implicit conversions is chosen, and a tie is ambiguous.
package resolve

import (
	"log/slog"
	"reflect"

	"github.com/ardnew/bindc/binding/tree"
	"github.com/ardnew/bindc/log"
	"github.com/ardnew/bindc/pkg"
)

// Resolution errors.
var (
	ErrMemberNotFound    = pkg.NewError("member not found")
	ErrAmbiguousOverload = pkg.NewError("ambiguous overload")
	ErrNoOverload        = pkg.NewError("no overload accepts the arguments")
	ErrNoConversion      = pkg.NewError("no implicit conversion")
	ErrInvalidOperands   = pkg.NewError("invalid operand types")
	ErrNotCallable       = pkg.NewError("expression is not callable")
	ErrNotIndexable      = pkg.NewError("expression cannot be indexed")
	ErrNotValue          = pkg.NewError("expression is not a value")
	ErrReadOnly          = pkg.NewError("expression cannot be assigned")
	ErrTypeArguments     = pkg.NewError("invalid type arguments")
)

// Default names of the methods implementing a custom indexer.
const (
	DefaultGetter = "Get"
	DefaultSetter = "Set"
)

// operatorMethods names the methods that implement arithmetic operators on
// types without built-in support, such as time.Time.Add.
var operatorMethods = map[tree.BinaryOp]string{
	tree.Add:      "Add",
	tree.Subtract: "Sub",
	tree.Multiply: "Mul",
	tree.Divide:   "Div",
	tree.Modulo:   "Mod",
}

// Resolver resolves members and operators. It is immutable once built and
// safe for concurrent use.
type Resolver struct {
	extensions map[string][]tree.Candidate
	extOrder   []string
	getter     string
	setter     string
	logger     log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExtensions registers extension functions under name. Each fn is a func
// whose first parameter receives the target of the member access, or a
// [tree.Binder] that is given the target type first. Functions that take no
// parameters are ignored.
func WithExtensions(name string, fns ...any) Option {
	return func(r *Resolver) {
		if _, ok := r.extensions[name]; !ok {
			r.extOrder = append(r.extOrder, name)
		}

		for _, fn := range fns {
			if c, ok := tree.NewCandidate(reflect.ValueOf(fn), true); ok {
				r.extensions[name] = append(r.extensions[name], c)
			}
		}
	}
}

// WithIndexer sets the names of the getter and setter methods recognized as
// a custom indexer. The getter takes the index and returns the element; the
// setter takes the index and the element.
func WithIndexer(getter, setter string) Option {
	return func(r *Resolver) {
		r.getter, r.setter = getter, setter
	}
}

// WithLogger sets the logger used to trace overload resolution.
func WithLogger(logger log.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// New returns a Resolver configured by opts.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		extensions: make(map[string][]tree.Candidate),
		getter:     DefaultGetter,
		setter:     DefaultSetter,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Extensions returns the names of the registered extension functions in
// registration order.
func (r *Resolver) Extensions() []string { return r.extOrder }

func typeAttr(key string, t reflect.Type) slog.Attr {
	return slog.String(key, tree.TypeName(t))
}
