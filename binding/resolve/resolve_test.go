package resolve

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/bindc/binding/tree"
)

type order struct {
	Total float64
	Done  bool
}

type tags struct {
	items map[string]string
}

func (t *tags) Get(key string) string { return t.items[key] }

func (t *tags) Set(key, value string) { t.items[key] = value }

type customer struct {
	Name   string
	Orders []order
	Tags   *tags
	Since  time.Time
	Limits map[string]int
	secret string
}

func (c *customer) Greeting(prefix string) string { return prefix + c.Name }

func param[T any](name string) *tree.Parameter {
	return tree.NewParameter(name, reflect.TypeFor[T]())
}

func TestMember(t *testing.T) {
	r := New(WithExtensions("Shout", func(c *customer) string { return c.Name }))
	c := param[*customer]("c")

	tests := []struct {
		name string
		mem  string
		kind tree.Kind
		typ  reflect.Type
	}{
		{"field through pointer", "Name", tree.KindMember, tree.String},
		{"method", "Greeting", tree.KindMethodGroup, nil},
		{"extension", "Shout", tree.KindMethodGroup, nil},
		{"indexer field", "Tags", tree.KindMember, reflect.TypeFor[*tags]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := r.Member(c, tt.mem, nil)
			if err != nil {
				t.Fatalf("Member(%s) error = %v", tt.mem, err)
			}

			if e.Kind() != tt.kind || e.Type() != tt.typ {
				t.Errorf("Member(%s) = %v : %v", tt.mem, e.Kind(), e.Type())
			}
		})
	}
}

func TestMemberNotFound(t *testing.T) {
	r := New()
	c := param[customer]("c")

	_, err := r.Member(c, "Nam", nil)
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("Member() error = %v, want ErrMemberNotFound", err)
	}

	if !strings.Contains(err.Error(), "did you mean Name") {
		t.Errorf("error %q lacks suggestion", err)
	}

	if _, err := r.Member(c, "secret", nil); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("unexported field should not resolve, got %v", err)
	}

	if _, err := r.Member(c, "Name", []reflect.Type{tree.Int}); !errors.Is(err, ErrTypeArguments) {
		t.Errorf("type arguments on a field: got %v", err)
	}
}

func TestMapKeyMember(t *testing.T) {
	r := New()
	limits, _ := r.Member(param[customer]("c"), "Limits", nil)

	e, err := r.Member(limits, "daily", nil)
	if err != nil {
		t.Fatal(err)
	}

	if e.Kind() != tree.KindIndex || e.Type() != tree.Int {
		t.Errorf("Member(daily) = %v : %v", e.Kind(), e.Type())
	}
}

func TestCallOverloads(t *testing.T) {
	r := New(WithExtensions("Pick",
		func(_ customer, n int) string { return "int" },
		func(_ customer, f float64) string { return "float" },
	))
	c := param[customer]("c")
	group, _ := r.Member(c, "Pick", nil)

	t.Run("exact match wins", func(t *testing.T) {
		e, err := r.Call(group, []tree.Expr{tree.NewConstant(1)})
		if err != nil {
			t.Fatal(err)
		}

		call := e.(*tree.Call)
		if call.Signature.In(1) != tree.Int || len(call.Args) != 2 {
			t.Errorf("selected %v with %d args", call.Signature, len(call.Args))
		}
	})

	t.Run("ambiguous conversion", func(t *testing.T) {
		_, err := r.Call(group, []tree.Expr{param[int32]("n")})
		if !errors.Is(err, ErrAmbiguousOverload) {
			t.Errorf("Call() error = %v, want ErrAmbiguousOverload", err)
		}
	})

	t.Run("no overload", func(t *testing.T) {
		_, err := r.Call(group, []tree.Expr{tree.NewConstant("x")})
		if !errors.Is(err, ErrNoOverload) {
			t.Errorf("Call() error = %v, want ErrNoOverload", err)
		}
	})
}

func TestCallMethod(t *testing.T) {
	r := New()
	group, _ := r.Member(param[customer]("c"), "Greeting", nil)

	e, err := r.Call(group, []tree.Expr{tree.NewConstant("hi ")})
	if err != nil {
		t.Fatal(err)
	}

	if call := e.(*tree.Call); call.Method != "Greeting" || call.Type() != tree.String {
		t.Errorf("Call() = %v : %v", call, call.Type())
	}

	if _, err := r.Call(tree.NewConstant(1), nil); !errors.Is(err, ErrNotCallable) {
		t.Errorf("calling a constant: got %v", err)
	}
}

func TestImplicitConversion(t *testing.T) {
	r := New()
	x := param[int]("x")

	tests := []struct {
		name     string
		expr     tree.Expr
		to       reflect.Type
		toString bool
		want     tree.Kind
	}{
		{"identity", x, tree.Int, false, tree.KindParameter},
		{"constant to float", tree.NewConstant(5), tree.Float64, false, tree.KindConstant},
		{"constant to duration", tree.NewConstant(5), tree.Duration, false, tree.KindConstant},
		{"nil to pointer", tree.NewConstant(nil), reflect.TypeFor[*order](), false, tree.KindConstant},
		{"widening", x, reflect.TypeFor[int64](), false, tree.KindConvert},
		{"to interface", x, tree.Any, false, tree.KindConvert},
		{"to string", x, tree.String, true, tree.KindConvert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ImplicitConversion(tt.expr, tt.to, tt.toString)
			if got == nil {
				t.Fatal("ImplicitConversion() = nil")
			}

			if got.Kind() != tt.want || got.Type() != tt.to {
				t.Errorf("ImplicitConversion() = %v : %v", got.Kind(), got.Type())
			}
		})
	}

	rejected := []struct {
		name string
		expr tree.Expr
		to   reflect.Type
	}{
		{"overflow", tree.NewConstant(300), reflect.TypeFor[int8]()},
		{"fraction", tree.NewConstant(1.5), tree.Int},
		{"narrowing", param[int64]("y"), reflect.TypeFor[int32]()},
		{"nil to int", tree.NewConstant(nil), tree.Int},
		{"to string not allowed", x, tree.String},
		{"named to underlying", param[time.Duration]("d"), reflect.TypeFor[int64]()},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ImplicitConversion(tt.expr, tt.to, false); got != nil {
				t.Errorf("ImplicitConversion() = %v, want nil", got)
			}
		})
	}
}

type predicate func(order) bool

func TestLambdaConversion(t *testing.T) {
	r := New()
	o := param[order]("o")
	done := &tree.Member{Object: o, Field: reflect.TypeFor[order]().Field(1)}
	lambda := tree.NewLambda(tree.FuncOf(tree.Bool, o), done, o)

	e := r.ImplicitConversion(lambda, reflect.TypeFor[predicate](), false)
	if e == nil || e.Type() != reflect.TypeFor[predicate]() {
		t.Fatalf("lambda not retyped: %v", e)
	}

	if got := r.ImplicitConversion(lambda, reflect.TypeFor[func(order) any](), false); got == nil {
		t.Error("lambda body should convert to any")
	}

	if got := r.ImplicitConversion(lambda, reflect.TypeFor[func(int) bool](), false); got != nil {
		t.Error("parameter types must match exactly")
	}
}

func TestBinary(t *testing.T) {
	r := New()
	i := param[int]("i")
	f := param[float64]("f")
	s := param[string]("s")
	b := param[bool]("b")
	at := param[time.Time]("at")
	d := param[time.Duration]("d")
	p := param[*int]("p")

	tests := []struct {
		name   string
		op     tree.BinaryOp
		l, r   tree.Expr
		typ    reflect.Type
		method string
	}{
		{"int plus float", tree.Add, i, f, tree.Float64, ""},
		{"constant promotes", tree.Multiply, d, tree.NewConstant(2), tree.Duration, ""},
		{"string concat", tree.Add, s, i, tree.String, ""},
		{"comparison", tree.Less, i, tree.NewConstant(10), tree.Bool, ""},
		{"time plus duration", tree.Add, at, d, reflect.TypeFor[time.Time](), "Add"},
		{"time difference", tree.Subtract, at, at, tree.Duration, "Sub"},
		{"time equality", tree.Equal, at, at, tree.Bool, "Equal"},
		{"time ordering", tree.Greater, at, at, tree.Bool, "Compare"},
		{"short circuit", tree.AndAlso, b, b, tree.Bool, ""},
		{"bitwise", tree.And, i, i, tree.Int, ""},
		{"coalesce pointer", tree.Coalesce, p, tree.NewConstant(0), tree.Int, ""},
		{"compare with nil", tree.NotEqual, p, tree.NewConstant(nil), tree.Bool, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := r.Binary(tt.op, tt.l, tt.r)
			if err != nil {
				t.Fatalf("Binary() error = %v", err)
			}

			bin, ok := e.(*tree.Binary)
			if !ok {
				t.Fatalf("Binary() = %T", e)
			}

			if bin.Type() != tt.typ || bin.Method != tt.method {
				t.Errorf("Binary() = %v : %v via %q", bin, bin.Type(), bin.Method)
			}
		})
	}

	invalid := []struct {
		name string
		op   tree.BinaryOp
		l, r tree.Expr
	}{
		{"bool plus int", tree.Add, b, i},
		{"and on ints short circuit", tree.AndAlso, i, i},
		{"float modulo", tree.Modulo, f, f},
		{"coalesce non nillable", tree.Coalesce, i, i},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Binary(tt.op, tt.l, tt.r); !errors.Is(err, ErrInvalidOperands) {
				t.Errorf("Binary() error = %v, want ErrInvalidOperands", err)
			}
		})
	}
}

func TestUnary(t *testing.T) {
	r := New()

	e, err := r.Unary(tree.Negate, tree.NewConstant(5))
	if err != nil {
		t.Fatal(err)
	}

	if c, ok := e.(*tree.Constant); !ok || c.Value != -5 {
		t.Errorf("Unary(-5) = %v", e)
	}

	if _, err := r.Unary(tree.Not, param[string]("s")); !errors.Is(err, ErrInvalidOperands) {
		t.Errorf("Unary(!string) error = %v", err)
	}
}

func TestNegateConstant(t *testing.T) {
	r := New()

	tests := []struct {
		name    string
		value   any
		want    any
		wantErr bool
	}{
		{"int", 7, -7, false},
		{"int8", int8(-127), int8(127), false},
		{"int8 min", int8(math.MinInt8), nil, true},
		{"int64 min", int64(math.MinInt64), nil, true},
		{"uint", uint(3), int64(-3), false},
		{"uint64 min int64", uint64(1 << 63), int64(math.MinInt64), false},
		{"uint64 max", uint64(math.MaxUint64), nil, true},
		{"float64", 1.5, -1.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := r.Unary(tree.Negate, tree.NewConstant(tt.value))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOperands) {
					t.Fatalf("Unary(-%v) = %v, %v; want %v", tt.value, e, err, ErrInvalidOperands)
				}

				return
			}

			if err != nil {
				t.Fatalf("Unary(-%v) error = %v", tt.value, err)
			}

			if c, ok := e.(*tree.Constant); !ok || c.Value != tt.want {
				t.Errorf("Unary(-%v) = %#v, want %#v", tt.value, e, tt.want)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	r := New()
	c := param[*customer]("c")
	orders, _ := r.Member(c, "Orders", nil)
	tagsExpr, _ := r.Member(c, "Tags", nil)

	e, err := r.Index(orders, tree.NewConstant(0))
	if err != nil || e.Kind() != tree.KindIndex || e.Type() != reflect.TypeFor[order]() {
		t.Fatalf("Index(orders) = %v, %v", e, err)
	}

	ix, err := r.Index(tagsExpr, tree.NewConstant("color"))
	if err != nil {
		t.Fatal(err)
	}

	indexer, ok := ix.(*tree.Indexer)
	if !ok || indexer.Getter != "Get" || indexer.Setter != "Set" {
		t.Fatalf("Index(tags) = %#v", ix)
	}

	get, err := r.IndexerGet(indexer)
	if err != nil || get.(*tree.Call).Method != "Get" {
		t.Errorf("IndexerGet() = %v, %v", get, err)
	}

	set, err := r.Assign(indexer, tree.NewConstant("red"))
	if err != nil {
		t.Fatal(err)
	}

	if call, ok := set.(*tree.Call); !ok || call.Method != "Set" || len(call.Args) != 2 {
		t.Errorf("Assign(indexer) = %#v", set)
	}

	if _, err := r.Index(tree.NewConstant(1), tree.NewConstant(0)); !errors.Is(err, ErrNotIndexable) {
		t.Errorf("Index(int) error = %v", err)
	}
}

func TestAssign(t *testing.T) {
	r := New()
	c := param[*customer]("c")
	name, _ := r.Member(c, "Name", nil)

	if _, err := r.Assign(name, tree.NewConstant("Ada")); err != nil {
		t.Errorf("Assign(field) error = %v", err)
	}

	if _, err := r.Assign(name, tree.NewConstant(1)); !errors.Is(err, ErrNoConversion) {
		t.Errorf("Assign(field, 1) error = %v", err)
	}

	if _, err := r.Assign(tree.NewConstant(1), tree.NewConstant(2)); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Assign(constant) error = %v", err)
	}
}

func TestStaticMembers(t *testing.T) {
	r := New()
	math := tree.NewStaticClass("Math").
		Define("Max", func(a, b int) int { return max(a, b) }).
		Define("Pi", 3.14159)

	pi, err := r.Member(math, "Pi", nil)
	if err != nil || pi.Kind() != tree.KindConstant {
		t.Errorf("Member(Pi) = %v, %v", pi, err)
	}

	group, err := r.Member(math, "Max", nil)
	if err != nil {
		t.Fatal(err)
	}

	call, err := r.Call(group, []tree.Expr{tree.NewConstant(1), tree.NewConstant(2)})
	if err != nil || call.Type() != tree.Int {
		t.Errorf("Math.Max(1, 2) = %v, %v", call, err)
	}

	if _, err := r.Member(math, "Min", nil); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("Member(Min) error = %v", err)
	}
}
