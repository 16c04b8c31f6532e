package builtin

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ardnew/bindc/pkg"
)

// ErrFormat is returned for malformed templates and unsupported format
// specifiers.
var ErrFormat = pkg.NewError("invalid format")

// Format substitutes positional placeholders in template with args.
// A placeholder is "{N}" or "{N:layout}"; "{{" and "}}" produce literal
// braces. The layout is a printf verb when it starts with '%', a layout for
// time.Time values, or one of the numeric forms F, N, D, X and P followed
// by an optional precision.
func Format(template string, args ...any) (string, error) {
	var sb strings.Builder

	for i := 0; i < len(template); i++ {
		ch := template[i]

		switch {
		case ch == '{' && i+1 < len(template) && template[i+1] == '{',
			ch == '}' && i+1 < len(template) && template[i+1] == '}':
			sb.WriteByte(ch)
			i++

		case ch == '{':
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", ErrFormat.Wrapf("unclosed placeholder at %d", i)
			}

			s, err := placeholder(template[i+1:i+end], args)
			if err != nil {
				return "", err
			}

			sb.WriteString(s)
			i += end

		case ch == '}':
			return "", ErrFormat.Wrapf("unmatched '}' at %d", i)

		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String(), nil
}

func placeholder(body string, args []any) (string, error) {
	index, layout, _ := strings.Cut(body, ":")

	n, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || n < 0 {
		return "", ErrFormat.Wrapf("placeholder {%s}", body)
	}

	if n >= len(args) {
		return "", ErrFormat.Wrapf("placeholder {%d} has no argument", n)
	}

	return FormatValue(args[n], layout)
}

// FormatValue formats a single value according to layout, as described for
// [Format].
func FormatValue(v any, layout string) (string, error) {
	switch {
	case layout == "":
		return Text(v), nil
	case layout[0] == '%':
		return fmt.Sprintf(layout, v), nil
	}

	if t, ok := v.(time.Time); ok {
		return t.Format(layout), nil
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return "", nil
	}

	prec := -1

	if len(layout) > 1 {
		p, err := strconv.Atoi(layout[1:])
		if err != nil {
			return "", ErrFormat.Wrapf("specifier %q", layout)
		}

		prec = p
	}

	f, isNum := toFloat(rv)
	if !isNum {
		return "", ErrFormat.Wrapf("specifier %q applied to %T", layout, v)
	}

	switch layout[0] {
	case 'F', 'f':
		return strconv.FormatFloat(f, 'f', precision(prec, 2), 64), nil
	case 'N', 'n':
		return group(strconv.FormatFloat(f, 'f', precision(prec, 2), 64)), nil
	case 'P', 'p':
		return strconv.FormatFloat(f*100, 'f', precision(prec, 0), 64) + "%", nil
	case 'D', 'd':
		return fmt.Sprintf("%0*d", max(prec, 0), int64(f)), nil
	case 'X':
		return fmt.Sprintf("%0*X", max(prec, 0), int64(f)), nil
	case 'x':
		return fmt.Sprintf("%0*x", max(prec, 0), int64(f)), nil
	}

	return "", ErrFormat.Wrapf("specifier %q", layout)
}

// Text returns the default text form of v: the empty string for nil, the
// value of a String method when present, fmt's default otherwise.
func Text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func precision(p, def int) int {
	if p < 0 {
		return def
	}

	return p
}

func toFloat(v reflect.Value) (float64, bool) {
	switch {
	case v.CanInt():
		return float64(v.Int()), true
	case v.CanUint():
		return float64(v.Uint()), true
	case v.CanFloat():
		return v.Float(), true
	default:
		return 0, false
	}
}

// group inserts thousands separators into the integral part of a decimal.
func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")

	var sb strings.Builder

	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}

		sb.WriteRune(r)
	}

	if hasFrac {
		sb.WriteString("." + frac)
	}

	return sign + sb.String()
}
