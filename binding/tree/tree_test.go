package tree

import (
	"reflect"
	"strings"
	"testing"
)

type person struct {
	Name string
	Age  int
}

func TestResultType(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		want reflect.Type
	}{
		{"no results", func() {}, Void},
		{"error only", func() error { return nil }, Void},
		{"value", func() int { return 0 }, Int},
		{"value and error", func() (string, error) { return "", nil }, String},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResultType(reflect.TypeOf(tt.fn)); got != tt.want {
				t.Errorf("ResultType() = %v, want %v", got, tt.want)
			}
		})
	}

	if ResultType(Int) != nil {
		t.Error("ResultType of a non-func type should be nil")
	}
}

func TestConstant(t *testing.T) {
	if c := NewConstant(42); c.Type() != Int || c.Kind() != KindConstant {
		t.Errorf("NewConstant(42) = %v : %v", c.Kind(), c.Type())
	}

	if !IsNil(NewConstant(nil)) {
		t.Error("NewConstant(nil) should be the nil constant")
	}

	if IsNil(ConstantOf(nil, reflect.TypeFor[*person]())) {
		t.Error("typed nil is not the untyped nil constant")
	}
}

func TestString(t *testing.T) {
	p := NewParameter("p", reflect.TypeFor[person]())
	field, _ := p.Type().FieldByName("Age")
	age := &Member{Object: p, Field: field}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"member", age, "p.Age"},
		{"binary", NewBinary(Add, age, NewConstant(1), Int), "(p.Age + 1)"},
		{"lambda", NewLambda(FuncOf(Int, p), age, p), "(p) => p.Age"},
		{
			"block",
			&Block{Exprs: []Expr{NewConstant("x"), Empty()}},
			`{ "x"; {} }`,
		},
		{"to string", NewToString(age), "string(p.Age)"},
		{"unknown", &UnknownStaticIdentifier{Name: "time.Month"}, "time.Month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFuncOf(t *testing.T) {
	x := NewParameter("x", Int)

	if got := FuncOf(Void, x); got != reflect.TypeFor[func(int)]() {
		t.Errorf("FuncOf(void) = %v", got)
	}

	if got := FuncOf(String, x); got != reflect.TypeFor[func(int) string]() {
		t.Errorf("FuncOf(string) = %v", got)
	}
}

func TestCandidate(t *testing.T) {
	c := Candidate{Signature: reflect.TypeFor[func(string, ...int) int]()}

	for argc, want := range map[int]bool{0: false, 1: true, 3: true} {
		if got := c.Accepts(argc); got != want {
			t.Errorf("Accepts(%d) = %v, want %v", argc, got, want)
		}
	}

	if c.ParamType(0) != String || c.ParamType(4) != Int {
		t.Errorf("ParamType = %v, %v", c.ParamType(0), c.ParamType(4))
	}
}

func TestWalkAndDump(t *testing.T) {
	x := NewParameter("x", Int)
	body := NewBinary(Multiply, x, NewConstant(2), Int)
	lambda := NewLambda(FuncOf(Int, x), body, x)

	var kinds []Kind

	Walk(lambda, func(e Expr) bool {
		kinds = append(kinds, e.Kind())

		return true
	})

	want := []Kind{KindLambda, KindParameter, KindBinary, KindParameter, KindConstant}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Walk kinds = %v, want %v", kinds, want)
	}

	out := Dump(lambda)
	if !strings.HasPrefix(out, "Lambda : func(int) int\n") {
		t.Errorf("Dump() first line = %q", out)
	}

	if !strings.Contains(out, "    Constant 2 : int\n") {
		t.Errorf("Dump() missing nested constant:\n%s", out)
	}
}

func TestStaticType(t *testing.T) {
	s := NewStaticClass("Text").
		Define("Upper", strings.ToUpper).
		Define("Sep", "/")

	if got := s.MemberNames(); !reflect.DeepEqual(got, []string{"Sep", "Upper"}) {
		t.Errorf("MemberNames() = %v", got)
	}

	if IsValue(s) {
		t.Error("a static type reference is not a value")
	}

	g := NewGenericType("List", 1, func(args ...reflect.Type) (reflect.Type, error) {
		return reflect.SliceOf(args[0]), nil
	})
	if !g.IsGeneric() {
		t.Error("expected generic definition")
	}
}
