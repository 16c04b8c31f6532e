package eval_test

import (
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/ardnew/bindc/binding"
	"github.com/ardnew/bindc/binding/ast"
	"github.com/ardnew/bindc/binding/builtin"
	"github.com/ardnew/bindc/binding/eval"
	"github.com/ardnew/bindc/binding/registry"
	"github.com/ardnew/bindc/binding/tree"
)

type item struct {
	Name  string
	Price float64
	Qty   int
}

type notes struct {
	m map[string]string
}

func (n *notes) Get(k string) string { return n.m[k] }

func (n *notes) Set(k, v string) { n.m[k] = v }

type cart struct {
	Owner   string
	Items   []item
	Coupon  *string
	Notes   *notes
	Counts  map[string]int
	Created time.Time
	calls   []string
}

func (c *cart) Total() float64 {
	var sum float64
	for _, it := range c.Items {
		sum += it.Price * float64(it.Qty)
	}

	return sum
}

func (c *cart) Mark(s string) string {
	c.calls = append(c.calls, s)

	return s
}

func (c *cart) Apply(a string, f func(string) string, b string) string {
	return f(a) + f(b)
}

func newCart() *cart {
	coupon := "SAVE"

	return &cart{
		Owner: "ada",
		Items: []item{
			{Name: "pen", Price: 1.5, Qty: 4},
			{Name: "ink", Price: 12, Qty: 1},
			{Name: "pad", Price: 3, Qty: 2},
		},
		Coupon:  &coupon,
		Notes:   &notes{m: map[string]string{"gift": "yes"}},
		Counts:  map[string]int{"pen": 4},
		Created: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func name(s string) ast.Node { return ast.NewSimpleName(s) }

func lit(v any) ast.Node { return ast.NewLiteral(v) }

func member(target ast.Node, m string) ast.Node {
	return ast.NewMemberAccess(target, ast.NewSimpleName(m))
}

func call(target ast.Node, args ...ast.Node) ast.Node {
	return ast.NewFunctionCall(target, args)
}

func lambda(body ast.Node, params ...string) ast.Node {
	ps := make([]*ast.LambdaParameter, len(params))
	for i, p := range params {
		ps[i] = ast.NewLambdaParameter(p, nil)
	}

	return ast.NewLambda(ps, body)
}

func bin(op ast.Token, l, r ast.Node) ast.Node { return ast.NewBinary(op, l, r) }

func run(t *testing.T, c *cart, node ast.Node) any {
	t.Helper()

	this := tree.NewParameter("_this", reflect.TypeFor[*cart]())
	reg := builtin.Register(registry.New(registry.Symbol("_this", this)))

	e, err := binding.NewBuilder(reg, binding.WithScope(this)).Build(node, nil)
	if err != nil {
		t.Fatalf("Build(%s) error = %v", ast.String(node), err)
	}

	v, err := eval.Eval(e, eval.Env{"_this": c})
	if err != nil {
		t.Fatalf("Eval(%s) error = %v", e, err)
	}

	return v
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want any
	}{
		{"field", name("Owner"), "ada"},
		{"method", call(name("Total")), 24.0},
		{"arithmetic", bin(ast.AddOperator, lit(1), bin(ast.MultiplyOperator, lit(2), lit(3))), 7},
		{"widening", bin(ast.MultiplyOperator, call(name("Total")), lit(2)), 48.0},
		{"concat", bin(ast.AddOperator, name("Owner"), lit(1)), "ada1"},
		{"modulo", bin(ast.ModulusOperator, lit(7), lit(3)), 1},
		{"bitwise", bin(ast.OrOperator, lit(4), lit(1)), 5},
		{"negate", ast.NewUnary(ast.SubtractOperator, member(ast.NewArrayAccess(name("Items"), lit(0)), "Qty")), -4},
		{"not", ast.NewUnary(ast.NotOperator, lit(false)), true},
		{"equal", bin(ast.EqualsEqualsOperator, name("Owner"), lit("ada")), true},
		{"nil compare", bin(ast.NotEqualsOperator, name("Coupon"), lit(nil)), true},
		{"ordering", bin(ast.LessThanOperator, lit(2), lit(2.5)), true},
		{"coalesce", bin(ast.NullCoalescingOperator, name("Coupon"), lit("none")), "SAVE"},
		{"short circuit", bin(ast.OrElseOperator, lit(true), bin(ast.EqualsEqualsOperator, bin(ast.DivideOperator, lit(1), lit(0)), lit(0))), true},
		{"conditional", ast.NewConditional(lit(false), lit(1), lit(2.5)), 2.5},
		{"map key member", member(name("Counts"), "pen"), 4},
		{"indexer", ast.NewArrayAccess(name("Notes"), lit("gift")), "yes"},
		{"static", call(ast.NewMemberAccess(name("Math"), ast.NewSimpleName("Max")), lit(2), lit(9)), 9},
		{
			"interpolation",
			ast.NewInterpolatedString("{0} owes {1:F2}", []ast.Node{name("Owner"), call(name("Total"))}),
			"ada owes 24.00",
		},
		{
			"where",
			call(member(call(member(name("Items"), "Where"),
				lambda(bin(ast.GreaterThanOperator, member(name("i"), "Qty"), lit(1)), "i")), "Count")),
			2,
		},
		{
			"map",
			call(name("len"), call(name("map"), name("Items"), lambda(member(name("i"), "Qty"), "i"))),
			3,
		},
		{
			"block",
			ast.NewBlock(lit(2), ast.NewSimpleName("v"), bin(ast.MultiplyOperator, name("v"), name("v"))),
			4,
		},
		{"time method", call(member(name("Created"), "Year")), 2024},
		{
			"time compare",
			bin(ast.GreaterThanOperator, name("Created"), member(name("_this"), "Created")),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, newCart(), tt.node)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Eval(%s) = %#v, want %#v", ast.String(tt.node), got, tt.want)
			}
		})
	}
}

func TestAssignments(t *testing.T) {
	c := newCart()

	run(t, c, bin(ast.AssignOperator, name("Owner"), lit("bob")))
	run(t, c, bin(ast.AssignOperator, ast.NewArrayAccess(name("Notes"), lit("wrap")), lit("no")))
	run(t, c, bin(ast.AssignOperator, ast.NewArrayAccess(name("Counts"), lit("ink")), lit(1)))
	run(t, c, bin(ast.AssignOperator,
		member(ast.NewArrayAccess(name("Items"), lit(1)), "Qty"), lit(3)))

	if c.Owner != "bob" || c.Notes.m["wrap"] != "no" || c.Counts["ink"] != 1 || c.Items[1].Qty != 3 {
		t.Errorf("assignments not applied: %+v", c)
	}
}

func TestArgumentOrder(t *testing.T) {
	c := newCart()
	node := call(name("Apply"),
		call(name("Mark"), lit("a")),
		lambda(call(name("Mark"), name("s")), "s"),
		call(name("Mark"), lit("b")))

	got := run(t, c, node)
	if got != "ab" {
		t.Errorf("Apply() = %v, want ab", got)
	}

	if want := []string{"a", "b", "a", "b"}; !slices.Equal(c.calls, want) {
		t.Errorf("calls = %v, want %v", c.calls, want)
	}
}

func TestDeferredSequencing(t *testing.T) {
	reg := builtin.Register(registry.New())
	node := ast.NewBlock(
		call(ast.NewMemberAccess(name("Task"), ast.NewSimpleName("FromResult")), lit(1)),
		nil,
		lit("done"))

	e, err := binding.NewBuilder(reg).Build(node, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	v, err := eval.Eval(e, nil)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	got, err := eval.Await(v)
	if err != nil || got != "done" {
		t.Errorf("Await() = %v, %v, want done", got, err)
	}
}

func TestErrors(t *testing.T) {
	this := tree.NewParameter("_this", reflect.TypeFor[*cart]())
	items := &tree.Member{Object: this, Field: mustField[cart]("Items")}

	tests := []struct {
		name string
		expr tree.Expr
		env  eval.Env
		err  error
	}{
		{"unbound", this, nil, eval.ErrUnbound},
		{"nil receiver", items, eval.Env{"_this": (*cart)(nil)}, eval.ErrNilPointer},
		{
			"index",
			tree.NewIndex(items, tree.NewConstant(5), reflect.TypeFor[item]()),
			eval.Env{"_this": newCart()},
			eval.ErrIndex,
		},
		{
			"division",
			tree.NewBinary(tree.Divide, tree.NewConstant(1), tree.NewConstant(0), tree.Int),
			nil,
			eval.ErrDivide,
		},
		{"static type", tree.NewStaticType("int", tree.Int), nil, eval.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := eval.Eval(tt.expr, tt.env); !errors.Is(err, tt.err) {
				t.Errorf("Eval() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestLambdaError(t *testing.T) {
	p := tree.NewParameter("n", tree.Int)
	body := tree.NewBinary(tree.Divide, tree.NewConstant(1), p, tree.Int)
	fn := tree.NewLambda(tree.FuncOf(tree.Int, p), body, p)
	apply := &tree.Call{
		Func:      reflect.ValueOf(func(f func(int) int) int { return f(0) }),
		Args:      []tree.Expr{fn},
		Signature: reflect.TypeFor[func(func(int) int) int](),
	}

	if _, err := eval.Eval(apply, nil); !errors.Is(err, eval.ErrDivide) {
		t.Errorf("Eval() error = %v, want ErrDivide", err)
	}
}

func mustField[T any](name string) reflect.StructField {
	f, ok := reflect.TypeFor[T]().FieldByName(name)
	if !ok {
		panic(name)
	}

	return f
}
