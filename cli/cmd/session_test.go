package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
)

const invoice = `
root: Invoice
types:
  Invoice:
    Customer: string
    Lines: "[]Line"
  Line:
    Name: string
    Qty: int
data:
  Customer: ada
  Lines:
    - {Name: pen, Qty: 4}
    - {Name: ink, Qty: 1}
`

func newTestSession(t *testing.T) (*Session, context.Context) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "invoice.yaml")
	if err := os.WriteFile(path, []byte(invoice), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	s, err := NewSession(ctx, Options{Model: path})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	return s, ctx
}

func TestSessionNames(t *testing.T) {
	s, _ := newTestSession(t)

	names := s.Names()
	for _, want := range []string{"Customer", "Lines"} {
		if !slices.Contains(names, want) {
			t.Errorf("Names() = %v, missing %q", names, want)
		}
	}
}

func TestSessionType(t *testing.T) {
	s, ctx := newTestSession(t)

	tests := []struct {
		name string
		want reflect.Type
	}{
		{"", nil},
		{"int", reflect.TypeFor[int]()},
		{"string", reflect.TypeFor[string]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Type(ctx, tt.name)
			if err != nil {
				t.Fatalf("Type(%q) error = %v", tt.name, err)
			}

			if got != tt.want {
				t.Errorf("Type(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestSessionCompileEvaluate(t *testing.T) {
	s, ctx := newTestSession(t)

	tests := []struct {
		src  string
		want any
	}{
		{"Customer", "ada"},
		{"len(Lines)", 2},
		{"Lines[1].Qty + 1", 2},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := s.Compile(ctx, tt.src, nil)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.src, err)
			}

			got, err := s.Evaluate(ctx, e)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.src, err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestSessionCompileError(t *testing.T) {
	s, ctx := newTestSession(t)

	if _, err := s.Compile(ctx, "Custmer", nil); err == nil {
		t.Fatal("Compile(Custmer) succeeded")
	}
}

func TestNewSessionBadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("root: Missing\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewSession(context.Background(), Options{Model: path})
	if !errors.Is(err, ErrSession) {
		t.Errorf("NewSession() error = %v, want %v", err, ErrSession)
	}
}

func TestWriteResult(t *testing.T) {
	v := map[string]any{"n": 1}

	tests := []struct {
		format string
		want   string
	}{
		{"text", "\n"},
		{"json", "{\"n\":1}\n"},
		{"yaml", "n: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeResult(&buf, tt.format, v); err != nil {
				t.Fatalf("writeResult() error = %v", err)
			}

			got := strings.ReplaceAll(buf.String(), " ", "")
			if !strings.HasSuffix(got, tt.want) {
				t.Errorf("writeResult(%s) = %q, want suffix %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestCheckRun(t *testing.T) {
	var out bytes.Buffer

	ctx := WithOutput(context.Background(), &out)

	c := Check{Bindings: []string{"1 + 2", "nope"}}

	err := c.Run(ctx)
	if !errors.Is(err, ErrCheck) {
		t.Fatalf("Run() error = %v, want %v", err, ErrCheck)
	}

	got := out.String()
	if !strings.Contains(got, "arg 1: ok 1 + 2 int") {
		t.Errorf("output %q does not report the first binding", got)
	}

	if !strings.Contains(got, "arg 2: error:") {
		t.Errorf("output %q does not report the second binding", got)
	}
}
