package cmd

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/ardnew/bindc/binding"
	"github.com/ardnew/bindc/binding/builtin"
	"github.com/ardnew/bindc/binding/eval"
	"github.com/ardnew/bindc/binding/registry"
	"github.com/ardnew/bindc/binding/syntax"
	"github.com/ardnew/bindc/binding/tree"
	"github.com/ardnew/bindc/log"
	"github.com/ardnew/bindc/model"
)

// Options selects what a [Session] compiles against.
type Options struct {
	// Model is the path of a YAML data model. Without one, bindings see only
	// the builtin symbols.
	Model string
	// Imports are namespace prefixes whose members resolve unqualified.
	Imports []string
}

type optionsKey struct{}

// WithOptions returns a new context.Context holding the session options
// used by the commands.
func WithOptions(ctx context.Context, opts Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

func optionsFrom(ctx context.Context) Options {
	opts, _ := ctx.Value(optionsKey{}).(Options)

	return opts
}

// Session compiles and evaluates bindings against one registry.
type Session struct {
	registry *registry.Registry
	model    *model.Model
	cache    *syntax.Cache
	logger   log.Logger
}

// NewSession builds the registry described by opts, loading the model
// file if one is named.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	logger := log.With(slog.String("session", uuid.NewString()))

	s := &Session{
		registry: builtin.Register(registry.New()),
		cache:    syntax.NewCache(syntax.WithLogger(logger)),
		logger:   logger,
	}

	if len(opts.Imports) > 0 {
		s.registry = s.registry.Import(opts.Imports...)
	}

	if opts.Model != "" {
		m, err := model.LoadFile(ctx, opts.Model, model.WithLogger(logger))
		if err != nil {
			return nil, ErrSession.Wrap(err).With(slog.String("model", opts.Model))
		}

		s.model = m
		s.registry = m.Register(s.registry)
	}

	logger.DebugContext(ctx, "session opened",
		slog.Int("layers", s.registry.Depth()),
		slog.Bool("model", s.model != nil),
	)

	return s, nil
}

func openSession(ctx context.Context) (*Session, error) {
	return NewSession(ctx, optionsFrom(ctx))
}

// Names returns every name visible to bindings, including the fields of
// the model root.
func (s *Session) Names() []string {
	names := s.registry.Names()

	if s.model != nil {
		rt := s.model.Type().Elem()
		for i := range rt.NumField() {
			names = append(names, rt.Field(i).Name)
		}
	}

	return names
}

// Lookup returns the symbol bound to name.
func (s *Session) Lookup(name string) (tree.Expr, bool) {
	return s.registry.Lookup(name)
}

func (s *Session) options() []binding.Option {
	opts := []binding.Option{binding.WithLogger(s.logger)}

	if s.model != nil {
		opts = append(opts, binding.WithScope(s.model.Scope()))
	}

	return opts
}

// Type resolves a type name such as "int" or "[]Line" in the session.
// An empty name yields nil.
func (s *Session) Type(ctx context.Context, name string) (reflect.Type, error) {
	if name == "" {
		return nil, nil
	}

	node, err := s.cache.Parse(ctx, name)
	if err != nil {
		return nil, err
	}

	return binding.NewBuilder(s.registry, s.options()...).ResolveTypeName(node)
}

// Compile parses and compiles src. A non-nil expected converts the result,
// allowing conversion to text when expected is string.
func (s *Session) Compile(
	ctx context.Context,
	src string,
	expected reflect.Type,
) (tree.Expr, error) {
	node, err := s.cache.Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	return binding.Compile(node, s.registry, expected, s.options()...)
}

// Evaluate runs e against the model data and waits for deferred results.
func (s *Session) Evaluate(ctx context.Context, e tree.Expr) (any, error) {
	var env eval.Env
	if s.model != nil {
		env = s.model.Env()
	}

	v, err := eval.Eval(e, env)
	if err == nil {
		v, err = eval.Await(v)
	}

	if err != nil {
		return nil, ErrEvaluate.Wrap(err).With(slog.String("binding", e.String()))
	}

	s.logger.TraceContext(ctx, "evaluated", slog.String("binding", e.String()))

	return v, nil
}
