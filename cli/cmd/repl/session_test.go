package repl

import (
	"context"
	"reflect"

	"github.com/ardnew/bindc/binding"
	"github.com/ardnew/bindc/binding/builtin"
	"github.com/ardnew/bindc/binding/eval"
	"github.com/ardnew/bindc/binding/registry"
	"github.com/ardnew/bindc/binding/syntax"
	"github.com/ardnew/bindc/binding/tree"
)

type item struct {
	Name string
	Qty  int
}

type invoice struct {
	Customer string
	Lines    []item
}

func (i *invoice) Discount(pct float64) float64 { return pct * float64(len(i.Lines)) }

// testSession compiles against the builtin symbols plus an invoice bound
// to "inv".
type testSession struct {
	reg *registry.Registry
}

func newTestSession() *testSession {
	inv := &invoice{
		Customer: "ada",
		Lines:    []item{{"pen", 4}, {"ink", 1}},
	}

	return &testSession{
		reg: builtin.Register(registry.New()).
			AddSymbols(registry.Value("inv", inv)),
	}
}

func (s *testSession) Names() []string { return s.reg.Names() }

func (s *testSession) Lookup(name string) (tree.Expr, bool) { return s.reg.Lookup(name) }

func (s *testSession) Compile(
	_ context.Context,
	src string,
	expected reflect.Type,
) (tree.Expr, error) {
	node, err := syntax.Parse(src)
	if err != nil {
		return nil, err
	}

	return binding.Compile(node, s.reg, expected)
}

func (s *testSession) Evaluate(_ context.Context, e tree.Expr) (any, error) {
	v, err := eval.Eval(e, nil)
	if err != nil {
		return nil, err
	}

	return eval.Await(v)
}
