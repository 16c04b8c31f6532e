package syntax

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/bindc/binding/ast"
)

func TestParse(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"Customer.Name", "Customer.Name"},
		{"Total() * 2", "(Total() * 2)"},
		{"Items[0].Qty", "Items[0].Qty"},
		{`Limits["max"]`, `Limits["max"]`},
		{"!Paid", "!Paid"},
		{"Paid and not Done", "(Paid && !Done)"},
		{"Paid ? 1 : 2.5", "Paid ? 1 : 2.5"},
		{"Note ?? 'none'", `(Note ?? "none")`},
		{"Math.Max(1, 2)", "Math.Max(1, 2)"},
		{"nil", "nil"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			node, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if got := ast.String(node); got != tt.want {
				t.Errorf("Parse() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseStructure(t *testing.T) {
	node, err := Parse("let v = 1; v + 1")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	b, ok := node.(*ast.Block)
	if !ok || b.Variable == nil || b.Variable.Name != "v" {
		t.Fatalf("Parse(let) = %#v", node)
	}

	node, err = Parse("Reset(); Save(); Total()")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if b, ok := node.(*ast.Block); !ok || b.Variable != nil {
		t.Fatalf("Parse(sequence) = %#v", node)
	} else if _, ok := b.Second.(*ast.Block); !ok {
		t.Errorf("sequence not nested to the right: %s", ast.String(node))
	}
}

func TestPredicates(t *testing.T) {
	node, err := Parse("filter(Items, .Qty > 1 && any(#.Tags, # == 'x'))")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	call, ok := node.(*ast.FunctionCall)
	if !ok || len(call.Arguments) != 2 {
		t.Fatalf("Parse() = %s", ast.String(node))
	}

	outer, ok := call.Arguments[1].(*ast.Lambda)
	if !ok || outer.Parameters[0].Name != Pointer {
		t.Fatalf("predicate = %s", ast.String(call.Arguments[1]))
	}

	s := ast.String(outer)
	if !strings.Contains(s, "#.Qty") || !strings.Contains(s, "#2 ==") {
		t.Errorf("nested predicate pointers = %s", s)
	}
}

func TestUnsupported(t *testing.T) {
	for _, src := range []string{"[1, 2]", "{a: 1}", "Items[1:2]", "a?.b", "a in b"} {
		t.Run(src, func(t *testing.T) {
			node, err := Parse(src)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if !hasErrors(node) {
				t.Errorf("Parse(%s) = %s without node errors", src, ast.String(node))
			}
		})
	}
}

func hasErrors(n ast.Node) bool {
	if n.HasNodeErrors() {
		return true
	}

	if b, ok := n.(*ast.Binary); ok {
		return hasErrors(b.Left) || hasErrors(b.Right)
	}

	return false
}

func TestParseError(t *testing.T) {
	_, err := Parse("Total(")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Parse() error = %v, want ErrParse", err)
	}

	if _, ok := Location(err); !ok {
		t.Errorf("Location() found no location in %v", err)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	var wg sync.WaitGroup

	nodes := make([]ast.Node, 8)
	for i := range nodes {
		wg.Add(1)

		go func() {
			defer wg.Done()

			nodes[i], _ = c.Parse(ctx, "Customer.Name")
		}()
	}

	wg.Wait()

	for i, n := range nodes {
		if n == nil || n != nodes[0] {
			t.Fatalf("Parse() #%d returned a different tree", i)
		}
	}

	if _, err := c.ParseReader(ctx, strings.NewReader("Total()")); err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear() = %d", c.Len())
	}
}
