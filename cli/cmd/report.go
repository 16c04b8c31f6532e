package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/bindc/binding"
	"github.com/ardnew/bindc/binding/tree"
)

// reporter writes compilation results. Styles render through a renderer
// bound to the output, so plain text is written when it is not a terminal.
type reporter struct {
	w                         io.Writer
	origin, fail, ok, ty, dim lipgloss.Style
}

func newReporter(w io.Writer) *reporter {
	r := lipgloss.NewRenderer(w)

	return &reporter{
		w:      w,
		origin: r.NewStyle().Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")),
		ty:     r.NewStyle().Foreground(lipgloss.Color("6")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// compiled reports the static type of a binding that compiled.
func (r *reporter) compiled(b Binding, e tree.Expr) {
	fmt.Fprintf(r.w, "%s %s %s %s\n",
		r.origin.Render(b.Origin+":"),
		r.ok.Render("ok"),
		b.Text,
		r.ty.Render(tree.TypeName(e.Type())),
	)
}

// failed reports every diagnostic in err and returns how many there were.
func (r *reporter) failed(b Binding, err error) int {
	errs := binding.Errors(err)

	for _, e := range errs {
		fmt.Fprintf(r.w, "%s %s %s\n",
			r.origin.Render(b.Origin+":"),
			r.fail.Render("error:"),
			diagnostic(b.Text, e),
		)
	}

	return len(errs)
}

// dump writes the indented expression tree of e.
func (r *reporter) dump(e tree.Expr) {
	for line := range strings.Lines(tree.Dump(e)) {
		fmt.Fprint(r.w, r.dim.Render("  "+strings.TrimRight(line, "\n"))+"\n")
	}
}

// diagnostic renders err with the source line it refers to, when known.
func diagnostic(src string, err error) string {
	var ce *binding.CompileError
	if errors.As(err, &ce) && ce.Node != nil {
		return ce.Snippet(src)
	}

	return err.Error()
}
