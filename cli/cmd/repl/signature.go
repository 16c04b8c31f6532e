package repl

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/bindc/binding/tree"
)

// Styles of the signature hint.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is a call whose argument list contains the cursor.
type functionCall struct {
	name     string // callee path, e.g. "strings.Upper"
	argIndex int    // index of the argument under the cursor
	inCall   bool
}

// detectFunctionCall finds the innermost unclosed call before the cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')', ']':
			depth++
		case '(', '[':
			if depth > 0 {
				depth--
			} else if input[i] == '(' {
				open = i
			} else {
				return functionCall{}
			}
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && r != '_' && r != '#' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	arg := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				arg++
			}
		}
	}

	return functionCall{name: name, argIndex: arg, inCall: true}
}

// signature returns the signature of the function named by a callee path
// and its parameter types. Free functions and static class members are
// found in the registry; methods through the type of the receiver.
func signature(ctx context.Context, s Session, name string) (string, []string) {
	if e, ok := s.Lookup(name); ok {
		if g, ok := e.(*tree.MethodGroup); ok {
			return groupSignature(name, g)
		}

		return "", nil
	}

	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", nil
	}

	parent, member := name[:i], name[i+1:]

	if e, ok := s.Lookup(parent); ok {
		if st, ok := e.(*tree.StaticType); ok {
			if fns := st.Members[member]; len(fns) > 0 {
				return funcSignature(member, fns[0].Type(), len(fns)-1)
			}
		}
	}

	e, err := s.Compile(ctx, parent, nil)
	if err != nil || e.Type() == nil {
		return "", nil
	}

	m, ok := e.Type().MethodByName(member)
	if !ok {
		return "", nil
	}

	sig := m.Type
	if e.Type().Kind() != reflect.Interface {
		sig = tree.DropParams(sig, 1)
	}

	return funcSignature(member, sig, 0)
}

// groupSignature describes the first overload of g, counting the others.
func groupSignature(name string, g *tree.MethodGroup) (string, []string) {
	if len(g.Candidates) == 0 {
		return name + "()", nil
	}

	return funcSignature(name, g.Candidates[0].Signature, len(g.Candidates)-1)
}

// funcSignature formats sig as a call of name with typed parameters,
// noting how many other overloads exist.
func funcSignature(name string, sig reflect.Type, others int) (string, []string) {
	if sig == nil || sig.Kind() != reflect.Func {
		return "", nil
	}

	params := make([]string, sig.NumIn())

	for i := range params {
		t := sig.In(i)
		if sig.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + paramTypeName(t.Elem())
		} else {
			params[i] = paramTypeName(t)
		}
	}

	var b strings.Builder

	b.WriteString(name + "(" + strings.Join(params, ", ") + ")")

	if sig.NumOut() > 0 {
		b.WriteString(" " + paramTypeName(sig.Out(0)))
	}

	if others > 0 {
		b.WriteString(" (+" + strconv.Itoa(others) + " overloads)")
	}

	return b.String(), params
}

// paramTypeName shortens a parameter type for display.
func paramTypeName(t reflect.Type) string {
	switch {
	case t.Kind() == reflect.Func:
		return "func"
	case t.Kind() == reflect.Interface && t.NumMethod() == 0:
		return "any"
	default:
		return tree.TypeName(t)
	}
}

// renderSignatureHint renders sig with the parameter at arg highlighted.
// A variadic parameter stays highlighted for every trailing argument.
func renderSignatureHint(sig string, params []string, arg int) string {
	open := strings.IndexByte(sig, '(')
	if open < 0 || len(params) == 0 {
		return signatureStyle.Render(sig)
	}

	closing := open + 1 + len(strings.Join(params, ", "))

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(sig[:open]))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(p, "...")
		if i == arg || (variadic && arg >= i) {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(sig[closing:]))

	return b.String()
}
