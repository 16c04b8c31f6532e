package model_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/bindc/binding"
	"github.com/ardnew/bindc/binding/ast"
	"github.com/ardnew/bindc/binding/builtin"
	"github.com/ardnew/bindc/binding/eval"
	"github.com/ardnew/bindc/binding/registry"
	"github.com/ardnew/bindc/binding/syntax"
	"github.com/ardnew/bindc/model"
)

const invoice = `
root: Invoice
types:
  Invoice:
    Customer: string
    Lines: "[]Line"
    Note: "*string"
    Tags: "map[string]int"
    Due: time.Duration
  Line:
    Name: string
    Price: float64
    Qty: int
data:
  Customer: ada
  Due: 72h
  Tags: {rush: 1}
  Lines:
    - {Name: pen, Price: 1.5, Qty: 4}
    - {Name: ink, Price: 12, Qty: 1}
`

func TestParse(t *testing.T) {
	m, err := model.Parse([]byte(invoice))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.Root != "Invoice" {
		t.Errorf("Root = %q", m.Root)
	}

	if got := m.Names(); !reflect.DeepEqual(got, []string{"Invoice", "Line"}) {
		t.Errorf("Names() = %v", got)
	}

	root := m.Type()
	if root.Kind() != reflect.Pointer || root.Elem() != m.Types["Invoice"] {
		t.Fatalf("Type() = %v", root)
	}

	lines, ok := root.Elem().FieldByName("Lines")
	if !ok || lines.Type != reflect.SliceOf(m.Types["Line"]) {
		t.Errorf("Lines field = %v", lines.Type)
	}

	v := reflect.ValueOf(m.Value()).Elem()
	if got := v.FieldByName("Customer").String(); got != "ada" {
		t.Errorf("Customer = %q", got)
	}

	if got := v.FieldByName("Lines").Len(); got != 2 {
		t.Errorf("len(Lines) = %d", got)
	}

	if got := v.FieldByName("Due").Interface(); got != 72*time.Hour {
		t.Errorf("Due = %v", got)
	}

	if !v.FieldByName("Note").IsNil() {
		t.Error("Note should be nil")
	}
}

func TestParseSingleType(t *testing.T) {
	m, err := model.Parse([]byte("types:\n  Point:\n    X: int\n    Y: int\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.Root != "Point" || m.Type().Elem().NumField() != 2 {
		t.Errorf("model = %s %v", m.Root, m.Type())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
		msg  string
	}{
		{"no types", "root: A\n", model.ErrSchema, "no types"},
		{"missing root", "types:\n  A: {X: int}\n  B: {Y: int}\n", model.ErrSchema, "root is required"},
		{"unknown root", "root: C\ntypes:\n  A: {X: int}\n", model.ErrSchema, `"C"`},
		{"unknown field type", "types:\n  A: {X: Widget}\n", model.ErrSchema, `unknown type "Widget"`},
		{"unexported field", "types:\n  A: {x: int}\n", model.ErrSchema, "exported identifier"},
		{"cycle", "root: A\ntypes:\n  A: {B: B}\n  B: {A: \"*A\"}\n", model.ErrSchema, "refers to itself"},
		{"bad map", "types:\n  A: {M: \"map[string\"}\n", model.ErrSchema, "malformed map"},
		{"uncomparable key", "types:\n  A: {M: \"map[[]int]int\"}\n", model.ErrSchema, "not comparable"},
		{"unknown data field", "types:\n  A: {X: int}\ndata: {Y: 1}\n", model.ErrData, ""},
		{"mistyped data", "types:\n  A: {X: int}\ndata: {X: [1]}\n", model.ErrData, ""},
		{"malformed yaml", "types: [\n", model.ErrSchema, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Parse([]byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.want)
			}

			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Parse() error = %q, want it to mention %q", err, tt.msg)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.yaml")
	if err := os.WriteFile(path, []byte(invoice), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := model.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if m.Root != "Invoice" {
		t.Errorf("Root = %q", m.Root)
	}

	_, err = model.LoadFile(context.Background(), path+".missing")
	if !errors.Is(err, model.ErrRead) {
		t.Errorf("LoadFile(missing) error = %v, want %v", err, model.ErrRead)
	}
}

func TestBindings(t *testing.T) {
	m, err := model.Load(context.Background(), strings.NewReader(invoice))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	reg := m.Register(builtin.Register(registry.New()))

	tests := []struct {
		src  string
		want any
	}{
		{"Customer", "ada"},
		{"_this.Customer", "ada"},
		{"Lines[1].Name", "ink"},
		{"len(Lines)", 2},
		{"count(Lines, .Qty > 1)", 1},
		{`Note ?? "none"`, "none"},
		{`Tags["rush"]`, 1},
		{"Lines[0].Price * Lines[0].Qty", 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			node, err := syntax.Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			e, err := binding.Compile(node, reg, nil, binding.WithScope(m.Scope()))
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}

			got, err := eval.Eval(e, m.Env())
			if err != nil {
				t.Fatalf("Eval() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Eval() = %v (%T), want %v", got, got, tt.want)
			}
		})
	}
}

func TestTypeNames(t *testing.T) {
	m, err := model.Parse([]byte(invoice))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	b := binding.NewBuilder(m.Register(registry.New()))

	got, err := b.ResolveTypeName(mustParse(t, "Line"))
	if err != nil {
		t.Fatalf("ResolveTypeName() error = %v", err)
	}

	if got != m.Types["Line"] {
		t.Errorf("ResolveTypeName() = %v, want %v", got, m.Types["Line"])
	}
}

func mustParse(t *testing.T, src string) ast.Node {
	t.Helper()

	node, err := syntax.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}

	return node
}
