package tree

import (
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
)

func (c *Constant) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprint(v)
	}
}

func (d *Default) String() string {
	if d.typ == Void {
		return "{}"
	}

	return "default(" + TypeName(d.typ) + ")"
}

func (p *Parameter) String() string { return p.Name }

func (m *Member) String() string { return m.Object.String() + "." + m.Field.Name }

func (c *Call) String() string {
	var callee string

	switch {
	case c.Object != nil:
		callee = c.Object.String() + "." + c.Method
	case c.Func.IsValid():
		callee = FuncName(c.Func)
	case c.Callee != nil:
		callee = c.Callee.String()
	}

	return callee + "(" + join(c.Args) + ")"
}

func (i *Index) String() string {
	return i.Object.String() + "[" + i.Key.String() + "]"
}

func (i *Indexer) String() string {
	return i.Object.String() + "[" + join(i.Args) + "]"
}

func (u *Unary) String() string { return u.Op.String() + u.Operand.String() }

func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}

func (a *Assign) String() string {
	return a.Target.String() + " = " + a.Value.String()
}

func (c *Conditional) String() string {
	return "(" + c.Test.String() + " ? " + c.IfTrue.String() + " : " +
		c.IfFalse.String() + ")"
}

func (l *Lambda) String() string {
	names := make([]string, len(l.Params))
	for i, p := range l.Params {
		names[i] = p.Name
	}

	return "(" + strings.Join(names, ", ") + ") => " + l.Body.String()
}

func (b *Block) String() string {
	parts := make([]string, len(b.Exprs))
	for i, e := range b.Exprs {
		parts[i] = e.String()
	}

	return "{ " + strings.Join(parts, "; ") + " }"
}

func (c *Convert) String() string {
	return TypeName(c.typ) + "(" + c.Operand.String() + ")"
}

func (s *StaticType) String() string { return s.Name }

func (g *MethodGroup) String() string {
	if g.Target == nil {
		return g.Name
	}

	return g.Target.String() + "." + g.Name
}

func (u *UnknownStaticIdentifier) String() string { return u.Name }

// TypeName returns a short display name for t.
func TypeName(t reflect.Type) string {
	switch t {
	case nil:
		return "<none>"
	case Void:
		return "void"
	default:
		return t.String()
	}
}

// FuncName returns the unqualified name of a function value.
func FuncName(fn reflect.Value) string {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return "func"
	}

	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	return name
}

func join(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}

	return strings.Join(parts, ", ")
}

// Children returns the direct operands of e in evaluation order.
func Children(e Expr) []Expr {
	switch e := e.(type) {
	case *Member:
		return []Expr{e.Object}
	case *Call:
		var out []Expr
		if e.Object != nil {
			out = append(out, e.Object)
		}

		if e.Callee != nil {
			out = append(out, e.Callee)
		}

		return append(out, e.Args...)
	case *Index:
		return []Expr{e.Object, e.Key}
	case *Indexer:
		return append([]Expr{e.Object}, e.Args...)
	case *Unary:
		return []Expr{e.Operand}
	case *Binary:
		return []Expr{e.Left, e.Right}
	case *Assign:
		return []Expr{e.Target, e.Value}
	case *Conditional:
		return []Expr{e.Test, e.IfTrue, e.IfFalse}
	case *Lambda:
		out := make([]Expr, 0, len(e.Params)+1)
		for _, p := range e.Params {
			out = append(out, p)
		}

		return append(out, e.Body)
	case *Block:
		return e.Exprs
	case *Convert:
		return []Expr{e.Operand}
	case *MethodGroup:
		if e.Target != nil {
			return []Expr{e.Target}
		}
	}

	return nil
}

// Walk visits e and its descendants depth first. Children of a node are
// skipped when visit returns false for it.
func Walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}

	for _, c := range Children(e) {
		Walk(c, visit)
	}
}

// Dump renders e as an indented outline, one node per line, each annotated
// with its kind and type.
func Dump(e Expr) string {
	var sb strings.Builder

	dump(&sb, e, 0)

	return sb.String()
}

func dump(sb *strings.Builder, e Expr, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(e.Kind().String())

	switch n := e.(type) {
	case *Constant:
		sb.WriteString(" " + n.String())
	case *Parameter:
		sb.WriteString(" " + n.Name)
	case *Member:
		sb.WriteString(" ." + n.Field.Name)
	case *Call:
		switch {
		case n.Method != "":
			sb.WriteString(" ." + n.Method)
		case n.Func.IsValid():
			sb.WriteString(" " + FuncName(n.Func))
		}
	case *Indexer:
		sb.WriteString(" get=" + n.Getter + " set=" + n.Setter)
	case *Unary:
		sb.WriteString(" " + n.Op.String())
	case *Binary:
		sb.WriteString(" " + n.Op.String())

		if n.Method != "" {
			sb.WriteString(" via " + n.Method)
		}
	case *Convert:
		if n.ToString {
			sb.WriteString(" to-string")
		}
	case *StaticType, *MethodGroup, *UnknownStaticIdentifier:
		sb.WriteString(" " + n.String())
	}

	sb.WriteString(" : " + TypeName(e.Type()) + "\n")

	for _, c := range Children(e) {
		dump(sb, c, depth+1)
	}
}
