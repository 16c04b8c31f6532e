package binding

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/file"

	"github.com/ardnew/bindc/binding/ast"
	"github.com/ardnew/bindc/binding/tree"
	"github.com/ardnew/bindc/pkg"
)

// Compilation errors.
var (
	ErrInternal        = pkg.NewError("binding compilation failed")
	ErrSyntax          = pkg.NewError("syntax error")
	ErrTypeNameOnly    = pkg.NewError("only a type name is supported")
	ErrUnknownName     = pkg.NewError("unknown identifier")
	ErrDuplicateParam  = pkg.NewError("duplicate lambda parameter")
	ErrParamCollision  = pkg.NewError("lambda parameter hides an existing symbol")
	ErrUntypedParam    = pkg.NewError("could not infer type of lambda parameter")
	ErrStatement       = pkg.NewError("only method invocations and assignments can be used as statements")
	ErrDeferredBinding = pkg.NewError("the result of a deferred expression cannot be bound to a variable")
	ErrNotType         = pkg.NewError("expression is not a type")
)

// CompileError is a compilation failure attributed to the syntax node that
// caused it.
type CompileError struct {
	Node ast.Node
	err  error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return e.err.Error()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CompileError) Unwrap() error { return e.err }

// Location returns the span of source text of the offending node.
func (e *CompileError) Location() file.Location {
	if e.Node == nil {
		return file.Location{}
	}

	return e.Node.Location()
}

// Snippet renders the error with the line of source containing the
// offending node and a marker under its first character.
func (e *CompileError) Snippet(source string) string {
	fe := &file.Error{Location: e.Location(), Message: e.Error()}

	return fe.Bind(file.NewSource(source)).Error()
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *CompileError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("error", e.err.Error())}

	if e.Node != nil {
		loc := e.Node.Location()
		attrs = append(attrs,
			slog.String("node", ast.String(e.Node)),
			slog.Int("from", loc.From),
			slog.Int("to", loc.To),
		)
	}

	var pe *pkg.Error
	if errors.As(e.err, &pe) {
		attrs = append(attrs, pe.Attrs()...)
	}

	return slog.GroupValue(attrs...)
}

// AggregateError holds every error of a compilation that failed in more
// than one place, in the order they were found.
type AggregateError struct {
	Errors []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, "; ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *AggregateError) LogValue() slog.Value {
	attrs := make([]slog.Attr, len(e.Errors))
	for i, err := range e.Errors {
		attrs[i] = slog.Any(strconv.Itoa(i), err)
	}

	return slog.GroupValue(attrs...)
}

// Errors flattens err into the compile errors it holds. A nil err yields
// nil; an error that is not a compilation error is returned alone.
func Errors(err error) []error {
	if err == nil {
		return nil
	}

	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg.Errors
	}

	return []error{err}
}

// errorScope accumulates the errors of the children of one node. It is
// drained exactly once, at the node's drain boundary.
type errorScope struct {
	errs []error
}

// handle records err, if any, and returns e.
func (s *errorScope) handle(e tree.Expr, err error) tree.Expr {
	if err != nil {
		s.record(err)

		return nil
	}

	return e
}

func (s *errorScope) record(err error) {
	var agg *AggregateError
	if errors.As(err, &agg) {
		s.errs = append(s.errs, agg.Errors...)

		return
	}

	s.errs = append(s.errs, err)
}

// drain returns nil when no error was recorded, the error itself when one
// was, and an AggregateError otherwise.
func (s *errorScope) drain() error {
	errs := s.errs
	s.errs = nil

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{Errors: errs}
	}
}
