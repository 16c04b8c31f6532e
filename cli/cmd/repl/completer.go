package repl

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/bindc/binding/tree"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "type", "tree", "edit", "clear", "quit"}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes: whitespace, the member-access dot, and operator or punctuation
// characters of the binding syntax.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%', '^',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'', '`':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor and its byte offsets within
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))
	start, end = cursor, cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word at
// wordStart. For input "x + Lines.Na" with the word "Na", the parent path is
// "Lines". Top-level words have an empty parent path.
func parentPath(input string, wordStart int) string {
	prefix := strings.TrimRight(input[:wordStart], ".")
	if prefix == "" || len(prefix) == len(input[:wordStart]) {
		return ""
	}

	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:])
}

// candidates returns the names completing a word whose member-access chain
// is parent. Top-level words complete to every visible name. After a dot,
// the members of a static class, the qualified names under the parent, or
// the fields and methods of the parent's type are offered.
func candidates(ctx context.Context, s Session, parent string) []string {
	names := s.Names()
	if parent == "" {
		return names
	}

	var out []string

	if e, ok := s.Lookup(parent); ok {
		if st, ok := e.(*tree.StaticType); ok {
			out = append(out, st.MemberNames()...)
		}
	}

	prefix := parent + "."

	for _, name := range names {
		if rest, ok := strings.CutPrefix(name, prefix); ok && !strings.Contains(rest, ".") {
			out = append(out, rest)
		}
	}

	if len(out) == 0 {
		if e, err := s.Compile(ctx, parent, nil); err == nil {
			out = members(e.Type())
		}
	}

	slices.Sort(out)

	return slices.Compact(out)
}

// members returns the exported fields and methods of t. Pointers to structs
// offer the fields of the struct.
func members(t reflect.Type) []string {
	if t == nil {
		return nil
	}

	var names []string

	for i := range t.NumMethod() {
		if m := t.Method(i); m.IsExported() {
			names = append(names, m.Name)
		}
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			if f.IsExported() && !f.Anonymous {
				names = append(names, f.Name)
			}
		}
	}

	return names
}

// callable reports whether name refers to a function, which the candidate
// bar marks with "()".
func callable(s Session, name string) bool {
	e, ok := s.Lookup(name)
	if !ok {
		return false
	}

	_, ok = e.(*tree.MethodGroup)

	return ok
}

// computeMatches calculates the fuzzy matches for the word at the cursor,
// ranked best first, with the word's boundaries. An empty top-level word has
// no matches, which keeps the hint line visible; an empty word after a dot
// matches every member so the user can browse them.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var list []string

	if m.mode == modeCtrl {
		if word == "" || strings.ContainsRune(input[:wordStart], ' ') {
			return nil, wordStart, wordEnd
		}

		list = ctrlCommands
	} else {
		parent := parentPath(input, wordStart)
		list = candidates(m.ctxFunc(), m.session, parent)

		if word == "" {
			if parent == "" {
				return nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(list))
			for i, c := range list {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, wordStart, wordEnd
		}
	}

	if len(list) == 0 {
		return nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, list), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit width. The candidate selected while tab-cycling is highlighted.
func (m model) renderCandidateBar() string {
	if len(m.matches) == 0 || m.width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	room := m.width - lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range m.matches {
		rendered := renderCandidate(match,
			m.tabActive && i == m.suggIdx,
			m.mode == modeEval && callable(m.session, match.Str))

		width := lipgloss.Width(rendered)
		if i > 0 {
			width += len(sep)
		}

		if i > 0 && i < len(m.matches)-1 && used+width > room {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += width
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected, function bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if function {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// describe returns a short description of the symbol bound to name: the
// signature of a function, the kind of a static type, or the type of a
// value.
func describe(s Session, name string) string {
	e, ok := s.Lookup(name)
	if !ok {
		return ""
	}

	switch x := e.(type) {
	case *tree.MethodGroup:
		sig, _ := groupSignature(name, x)

		return sig
	case *tree.StaticType:
		switch {
		case x.IsGeneric():
			return "generic type"
		case x.Type() == nil:
			return "class"
		default:
			return "type " + tree.TypeName(x.Type())
		}
	default:
		return tree.TypeName(e.Type())
	}
}
