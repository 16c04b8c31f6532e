// Package model loads view-model definitions from YAML.
//
// A definition declares struct types field by field, selects one of them as
// the root of the view model, and may carry sample data decoded into a value
// of the root type:
//
//	root: Invoice
//	types:
//	  Line:
//	    Name: string
//	    Price: float64
//	    Qty: int
//	  Invoice:
//	    Customer: string
//	    Lines: "[]Line"
//	    Note: "*string"
//	data:
//	  Customer: ada
//	  Lines:
//	    - {Name: pen, Price: 1.5, Qty: 4}
//
// Types are built at run time with [reflect.StructOf], so bindings compiled
// against a model see the same fields and types they would see on a
// hand-written Go view model.
package model

import (
	"context"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/bindc/binding/eval"
	"github.com/ardnew/bindc/binding/registry"
	"github.com/ardnew/bindc/binding/tree"
	"github.com/ardnew/bindc/log"
	"github.com/ardnew/bindc/pkg"
)

// This is the name the view model is bound under.
const This = "_this"

// Model loading errors.
var (
	ErrRead   = pkg.NewError("read model")
	ErrSchema = pkg.NewError("invalid model schema")
	ErrData   = pkg.NewError("invalid model data")
)

// Model is a loaded view-model definition.
type Model struct {
	Root  string
	Types map[string]reflect.Type

	order []string
	scope *tree.Parameter
	value reflect.Value
}

// document is the decoded form of a definition file.
type document struct {
	Root  string        `yaml:"root"`
	Types yaml.MapSlice `yaml:"types"`
	Data  any           `yaml:"data"`
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	logger log.Logger
	name   string
}

// WithLogger sets the logger reporting loaded models.
func WithLogger(logger log.Logger) Option {
	return func(l *loader) { l.logger = logger }
}

// WithName sets the source name attached to errors and log records.
func WithName(name string) Option {
	return func(l *loader) { l.name = name }
}

// Load reads a definition from r.
func Load(ctx context.Context, r io.Reader, opts ...Option) (*Model, error) {
	l := loader{name: "reader"}
	for _, opt := range opts {
		opt(&l)
	}

	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("source", l.name))
	}

	m, err := Parse(data)
	if err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "model loaded",
		slog.String("source", l.name),
		slog.String("root", m.Root),
		slog.Int("types", len(m.Types)))

	return m, nil
}

// LoadFile reads the definition stored at path.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	return Load(ctx, f, append([]Option{WithName(path)}, opts...)...)
}

// Parse builds a model from the YAML definition in data.
func Parse(data []byte) (*Model, error) {
	var doc document

	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, ErrSchema.Wrap(err)
	}

	return doc.build()
}

func (doc *document) build() (*Model, error) {
	if len(doc.Types) == 0 {
		return nil, ErrSchema.Wrapf("no types defined")
	}

	b := newBuilder()

	for _, item := range doc.Types {
		name, ok := item.Key.(string)
		if !ok || !isIdent(name) {
			return nil, ErrSchema.Wrapf("type name %v is not an identifier", item.Key)
		}

		fields, ok := item.Value.(yaml.MapSlice)
		if !ok {
			return nil, ErrSchema.Wrapf("type %q must map field names to types", name)
		}

		if err := b.declare(name, fields); err != nil {
			return nil, ErrSchema.Wrap(err)
		}
	}

	for _, name := range b.order {
		if _, err := b.define(name); err != nil {
			return nil, ErrSchema.Wrap(err)
		}
	}

	root := doc.Root
	if root == "" {
		if len(b.order) > 1 {
			return nil, ErrSchema.Wrapf("root is required with %d types", len(b.order))
		}

		root = b.order[0]
	}

	rt, ok := b.types[root]
	if !ok {
		return nil, ErrSchema.Wrapf("root type %q is not defined", root)
	}

	m := &Model{
		Root:  root,
		Types: b.types,
		order: b.order,
		scope: tree.NewParameter(This, reflect.PointerTo(rt)),
		value: reflect.New(rt),
	}

	if doc.Data != nil {
		if err := m.decode(doc.Data); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// decode stores data in the root value, rejecting fields the root type
// does not declare.
func (m *Model) decode(data any) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return ErrData.Wrap(err)
	}

	err = yaml.UnmarshalWithOptions(raw, m.value.Interface(),
		yaml.DisallowUnknownField())
	if err != nil {
		return ErrData.Wrap(err).With(slog.String("root", m.Root))
	}

	return nil
}

// Type returns the type of the view model, a pointer to the root struct.
func (m *Model) Type() reflect.Type { return m.scope.Type() }

// Value returns the view model: a pointer to the root struct holding the
// sample data, or its zero value when the definition has none.
func (m *Model) Value() any { return m.value.Interface() }

// Names returns the defined type names in definition order.
func (m *Model) Names() []string { return append([]string(nil), m.order...) }

// Scope returns the parameter standing for the view model in compiled
// bindings.
func (m *Model) Scope() *tree.Parameter { return m.scope }

// Register returns a registry layer over reg naming every defined type and
// binding the view model under [This].
func (m *Model) Register(reg *registry.Registry) *registry.Registry {
	bindings := make([]registry.Binding, 0, len(m.order)+1)
	bindings = append(bindings, registry.Symbol(This, m.scope))

	for _, name := range m.order {
		bindings = append(bindings, registry.Type(name, m.Types[name]))
	}

	return reg.AddSymbols(bindings...)
}

// Env returns the evaluation environment binding the view model.
func (m *Model) Env() eval.Env {
	return eval.Env{This: m.Value()}
}
