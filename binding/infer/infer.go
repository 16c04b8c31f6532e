// Package infer implements the call-site type inference used to type lambda
// arguments whose parameters carry no annotation.
//
// An Inferer keeps one frame per function call being built. The builder
// opens a frame once the call target is known, records each argument as it
// is built, and marks the lambda argument it is about to build as probed.
// Inference then picks the first candidate of the target, in the resolver's
// stable order, that accepts the argument count, accepts the arguments
// already known, and expects a function at the probed position.
package infer

import (
	"log/slog"
	"reflect"

	"github.com/ardnew/bindc/binding/tree"
	"github.com/ardnew/bindc/log"
)

// Inferer tracks the calls whose arguments are being built. It belongs to a
// single compilation unit and is not safe for concurrent use.
type Inferer struct {
	frames      []*frame
	convertible func(from, to reflect.Type) bool
	logger      log.Logger
}

type frame struct {
	target tree.Expr
	args   []reflect.Type
	probed int
}

// Option configures an Inferer.
type Option func(*Inferer)

// WithConvertible sets the predicate deciding whether a known argument type
// fits a parameter. The default accepts assignable types.
func WithConvertible(fn func(from, to reflect.Type) bool) Option {
	return func(i *Inferer) { i.convertible = fn }
}

// WithLogger sets the logger used to trace inference decisions.
func WithLogger(logger log.Logger) Option {
	return func(i *Inferer) { i.logger = logger }
}

// New returns an Inferer with no open calls.
func New(opts ...Option) *Inferer {
	i := &Inferer{
		convertible: func(from, to reflect.Type) bool { return from.AssignableTo(to) },
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// BeginCall opens a frame for a call of target with argc arguments.
func (i *Inferer) BeginCall(target tree.Expr, argc int) {
	i.frames = append(i.frames, &frame{
		target: target,
		args:   make([]reflect.Type, argc),
		probed: -1,
	})
}

// EndCall closes the innermost frame.
func (i *Inferer) EndCall() {
	if n := len(i.frames); n > 0 {
		i.frames = i.frames[:n-1]
	}
}

// Depth returns the number of open frames.
func (i *Inferer) Depth() int { return len(i.frames) }

// SetArgument records the built argument at index. A nil argument, left by a
// failed build, leaves the position unknown.
func (i *Inferer) SetArgument(arg tree.Expr, index int) {
	f := i.top()
	if f == nil || arg == nil || index < 0 || index >= len(f.args) {
		return
	}

	if tree.IsValue(arg) {
		f.args[index] = arg.Type()
	}
}

// SetProbedArgumentIndex marks the argument at index as the lambda about to
// be built. The mark is consumed by the next Infer.
func (i *Inferer) SetProbedArgumentIndex(index int) {
	if f := i.top(); f != nil {
		f.probed = index
	}
}

func (i *Inferer) top() *frame {
	if n := len(i.frames); n > 0 {
		return i.frames[n-1]
	}

	return nil
}

// Result is the outcome of an inference. The zero Result carries no
// information.
type Result struct {
	typ reflect.Type
}

// Type returns the inferred func type, or nil.
func (r Result) Type() reflect.Type { return r.typ }

// Lambda is the inferred shape of a lambda.
type Lambda struct {
	OK         bool
	Parameters []reflect.Type
	// Type is the delegate type the lambda is expected to convert to.
	Type reflect.Type
}

// Lambda returns the parameter types for a lambda of the given arity. It is
// not OK when nothing was inferred or the arity does not match.
func (r Result) Lambda(arity int) Lambda {
	if r.typ == nil || r.typ.Kind() != reflect.Func || r.typ.IsVariadic() ||
		r.typ.NumIn() != arity {
		return Lambda{}
	}

	params := make([]reflect.Type, arity)
	for n := range params {
		params[n] = r.typ.In(n)
	}

	return Lambda{OK: true, Parameters: params, Type: r.typ}
}

// Infer returns the delegate type expected by the lambda being built. A func
// hint takes precedence. Otherwise the probed argument of the innermost call
// is examined; the probe mark is consumed so lambdas nested in the probed
// lambda's body do not reuse it.
func (i *Inferer) Infer(hint reflect.Type) Result {
	if hint != nil && hint.Kind() == reflect.Func {
		return Result{typ: hint}
	}

	f := i.top()
	if f == nil || f.probed < 0 {
		return Result{}
	}

	index := f.probed
	f.probed = -1

	for _, c := range i.candidates(f) {
		if pt := c.ParamType(index); pt != nil && pt.Kind() == reflect.Func {
			i.logger.Trace("inferred lambda type",
				slog.String("call", f.target.String()),
				slog.Int("argument", index),
				slog.String("type", pt.String()))

			return Result{typ: pt}
		}
	}

	return Result{}
}

// candidates returns the signatures of the frame's target applicable to the
// arguments known so far, in order.
func (i *Inferer) candidates(f *frame) []tree.Candidate {
	var (
		cands []tree.Candidate
		recv  reflect.Type
	)

	switch t := f.target.(type) {
	case *tree.MethodGroup:
		cands = t.Candidates

		if t.Target != nil && tree.IsValue(t.Target) {
			recv = t.Target.Type()
		}

	case nil:
		return nil

	default:
		if tree.IsValue(t) && t.Type().Kind() == reflect.Func {
			cands = []tree.Candidate{{Signature: t.Type()}}
		}
	}

	var out []tree.Candidate

	for _, c := range cands {
		c, ok := c.Instantiate(recv, f.args)
		if !ok || !c.Accepts(len(f.args)) || !i.fits(c, f.args) {
			continue
		}

		out = append(out, c)
	}

	return out
}

func (i *Inferer) fits(c tree.Candidate, args []reflect.Type) bool {
	for n, at := range args {
		if at == nil {
			continue
		}

		if pt := c.ParamType(n); pt == nil || !i.convertible(at, pt) {
			return false
		}
	}

	return true
}
