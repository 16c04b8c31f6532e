package repl

import (
	"context"
	"slices"
	"testing"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "count(fo", 8, "fo", 6, 8},
		{"after_comma", "Math.Max(a, fo", 14, "fo", 12, 14},
		{"in_conditional", "x ? fo", 6, "fo", 4, 6},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"in_braces", "{fo", 3, "fo", 1, 3},
		{"in_string", "\"fo", 3, "fo", 1, 3},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"cursor_past_end", "foo", 10, "foo", 0, 3},
		{"empty_after_dot", "inv.", 4, "", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_equals", "x == a.b.", 9, "a.b"},
		{"partial_word", "inv.Cu", 4, "inv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parentPath(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	s := newTestSession()
	ctx := context.Background()

	tests := []struct {
		parent  string
		want    []string
		without []string
	}{
		{"", []string{"inv", "String", "count"}, nil},
		{"String", []string{"ToUpper", "Join"}, []string{"Pi"}},
		{"Math", []string{"Abs", "Pi"}, nil},
		{"time", []string{"Duration", "Time"}, nil},
		{"inv", []string{"Customer", "Lines", "Discount"}, nil},
		{"nope", nil, []string{"Customer"}},
	}

	for _, tt := range tests {
		t.Run(tt.parent, func(t *testing.T) {
			got := candidates(ctx, s, tt.parent)

			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("candidates(%q) = %v, missing %q", tt.parent, got, w)
				}
			}

			for _, w := range tt.without {
				if slices.Contains(got, w) {
					t.Errorf("candidates(%q) = %v, should not contain %q", tt.parent, got, w)
				}
			}

			if tt.parent != "" && !slices.IsSorted(got) {
				t.Errorf("candidates(%q) = %v, not sorted", tt.parent, got)
			}
		})
	}
}

func TestCallable(t *testing.T) {
	s := newTestSession()

	tests := []struct {
		name string
		want bool
	}{
		{"count", true},
		{"filter", true},
		{"String", false},
		{"inv", false},
		{"missing", false},
	}

	for _, tt := range tests {
		if got := callable(s, tt.name); got != tt.want {
			t.Errorf("callable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	s := newTestSession()

	tests := []struct {
		name string
		want string
	}{
		{"String", "class"},
		{"int", "type int"},
		{"List`1", "generic type"},
		{"missing", ""},
	}

	for _, tt := range tests {
		if got := describe(s, tt.name); got != tt.want {
			t.Errorf("describe(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
