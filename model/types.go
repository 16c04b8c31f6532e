package model

import (
	"errors"
	"fmt"
	"go/token"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// basic maps the predeclared type names a field may use.
var basic = map[string]reflect.Type{
	"any":           reflect.TypeFor[any](),
	"bool":          reflect.TypeFor[bool](),
	"string":        reflect.TypeFor[string](),
	"int":           reflect.TypeFor[int](),
	"int8":          reflect.TypeFor[int8](),
	"int16":         reflect.TypeFor[int16](),
	"int32":         reflect.TypeFor[int32](),
	"int64":         reflect.TypeFor[int64](),
	"uint":          reflect.TypeFor[uint](),
	"uint8":         reflect.TypeFor[uint8](),
	"uint16":        reflect.TypeFor[uint16](),
	"uint32":        reflect.TypeFor[uint32](),
	"uint64":        reflect.TypeFor[uint64](),
	"float32":       reflect.TypeFor[float32](),
	"float64":       reflect.TypeFor[float64](),
	"byte":          reflect.TypeFor[byte](),
	"rune":          reflect.TypeFor[rune](),
	"time.Time":     reflect.TypeFor[time.Time](),
	"time.Duration": reflect.TypeFor[time.Duration](),
}

type field struct {
	name string
	expr string
}

// builder turns declared types into struct types. Types may refer to each
// other in any order but not cyclically, since a struct built at run time
// cannot contain itself.
type builder struct {
	decls    map[string][]field
	types    map[string]reflect.Type
	visiting map[string]bool
	order    []string
}

func newBuilder() *builder {
	return &builder{
		decls:    make(map[string][]field),
		types:    make(map[string]reflect.Type),
		visiting: make(map[string]bool),
	}
}

func (b *builder) declare(name string, fields yaml.MapSlice) error {
	if _, dup := b.decls[name]; dup {
		return fmt.Errorf("type %q defined twice", name)
	}

	if _, ok := basic[name]; ok {
		return fmt.Errorf("type %q redefines a predeclared type", name)
	}

	decl := make([]field, 0, len(fields))
	seen := make(map[string]bool, len(fields))

	for _, item := range fields {
		fname, ok := item.Key.(string)
		if !ok || !isIdent(fname) || !token.IsExported(fname) {
			return fmt.Errorf("type %q: field %v must be an exported identifier",
				name, item.Key)
		}

		if seen[fname] {
			return fmt.Errorf("type %q: field %q declared twice", name, fname)
		}

		seen[fname] = true

		expr, ok := item.Value.(string)
		if !ok {
			return fmt.Errorf("type %q: field %q must name a type", name, fname)
		}

		decl = append(decl, field{name: fname, expr: expr})
	}

	b.decls[name] = decl
	b.order = append(b.order, name)

	return nil
}

func (b *builder) define(name string) (reflect.Type, error) {
	if t, ok := b.types[name]; ok {
		return t, nil
	}

	decl, ok := b.decls[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}

	if b.visiting[name] {
		return nil, fmt.Errorf("type %q refers to itself", name)
	}

	b.visiting[name] = true
	defer delete(b.visiting, name)

	fields := make([]reflect.StructField, len(decl))

	for i, f := range decl {
		t, err := b.parse(f.expr)
		if err != nil {
			return nil, fmt.Errorf("type %q: field %q: %w", name, f.name, err)
		}

		fields[i] = reflect.StructField{
			Name: f.name,
			Type: t,
			Tag:  reflect.StructTag(`yaml:"` + f.name + `" json:"` + f.name + `"`),
		}
	}

	t := reflect.StructOf(fields)
	b.types[name] = t

	return t, nil
}

// parse resolves a type expression: a predeclared or defined name, or a
// slice, pointer or map composed of them.
func (b *builder) parse(expr string) (reflect.Type, error) {
	expr = strings.TrimSpace(expr)

	switch {
	case strings.HasPrefix(expr, "[]"):
		elem, err := b.parse(expr[2:])
		if err != nil {
			return nil, err
		}

		return reflect.SliceOf(elem), nil

	case strings.HasPrefix(expr, "*"):
		elem, err := b.parse(expr[1:])
		if err != nil {
			return nil, err
		}

		return reflect.PointerTo(elem), nil

	case strings.HasPrefix(expr, "map["):
		key, val, ok := splitMap(expr[len("map["):])
		if !ok {
			return nil, fmt.Errorf("malformed map type %q", expr)
		}

		kt, err := b.parse(key)
		if err != nil {
			return nil, err
		}

		if !kt.Comparable() {
			return nil, fmt.Errorf("map key type %s is not comparable", kt)
		}

		vt, err := b.parse(val)
		if err != nil {
			return nil, err
		}

		return reflect.MapOf(kt, vt), nil
	}

	if t, ok := basic[expr]; ok {
		return t, nil
	}

	if expr == "" {
		return nil, errors.New("missing type")
	}

	return b.define(expr)
}

// splitMap splits "K]V" at the bracket closing the key type.
func splitMap(s string) (key, val string, ok bool) {
	depth := 0

	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return s[:i], s[i+1:], i > 0 && i+1 < len(s)
			}

			depth--
		}
	}

	return "", "", false
}

func isIdent(s string) bool { return token.IsIdentifier(s) }
