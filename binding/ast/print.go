package ast

import (
	"strconv"
	"strings"
)

// String renders node in binding syntax. The output is meant for
// diagnostics; it parenthesizes every operator application instead of
// tracking precedence.
func String(node Node) string {
	var sb strings.Builder

	write(&sb, node)

	return sb.String()
}

func write(sb *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		sb.WriteString("<nil>")

	case *Literal:
		writeLiteral(sb, n.Value)

	case *InterpolatedString:
		sb.WriteString("$")
		sb.WriteString(strconv.Quote(n.Format))

		for _, arg := range n.Arguments {
			sb.WriteString(", ")
			write(sb, arg)
		}

	case *Parenthesized:
		sb.WriteByte('(')
		write(sb, n.Inner)
		sb.WriteByte(')')

	case *Unary:
		sb.WriteString(n.Operator.String())
		write(sb, n.Operand)

	case *Binary:
		sb.WriteByte('(')
		write(sb, n.Left)
		sb.WriteString(" " + n.Operator.String() + " ")
		write(sb, n.Right)
		sb.WriteByte(')')

	case *Conditional:
		write(sb, n.Condition)
		sb.WriteString(" ? ")
		write(sb, n.True)
		sb.WriteString(" : ")
		write(sb, n.False)

	case *ArrayAccess:
		write(sb, n.Target)
		sb.WriteByte('[')
		write(sb, n.Index)
		sb.WriteByte(']')

	case *FunctionCall:
		write(sb, n.Target)
		writeList(sb, "(", n.Arguments, ")")

	case *SimpleName:
		sb.WriteString(n.Name)

	case *GenericName:
		sb.WriteString(n.Name)
		writeList(sb, "<", n.TypeArguments, ">")

	case *QualifiedName:
		write(sb, n.TypeName)

		if n.Package != nil {
			sb.WriteString(", " + n.Package.Name)
		}

	case *MemberAccess:
		write(sb, n.Target)
		sb.WriteByte('.')
		write(sb, n.Member)

	case *Lambda:
		sb.WriteByte('(')

		for i, p := range n.Parameters {
			if i > 0 {
				sb.WriteString(", ")
			}

			write(sb, p)
		}

		sb.WriteString(") => ")
		write(sb, n.Body)

	case *LambdaParameter:
		if n.Type != nil {
			write(sb, n.Type)
			sb.WriteByte(' ')
		}

		sb.WriteString(n.Name)

	case *Block:
		if n.Variable != nil {
			sb.WriteString("let " + n.Variable.Name + " = ")
		}

		write(sb, n.First)
		sb.WriteString("; ")
		write(sb, n.Second)

	case *Formatted:
		sb.WriteByte('{')
		write(sb, n.Node)
		sb.WriteString(":" + n.Format + "}")

	case *Void:
		// empty
	}
}

func writeList(sb *strings.Builder, open string, nodes []Node, end string) {
	sb.WriteString(open)

	for i, n := range nodes {
		if i > 0 {
			sb.WriteString(", ")
		}

		write(sb, n)
	}

	sb.WriteString(end)
}

func writeLiteral(sb *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		sb.WriteString("nil")
	case string:
		sb.WriteString(strconv.Quote(v))
	case bool:
		sb.WriteString(strconv.FormatBool(v))
	case int:
		sb.WriteString(strconv.Itoa(v))
	case int64:
		sb.WriteString(strconv.FormatInt(v, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		sb.WriteString("<literal>")
	}
}
