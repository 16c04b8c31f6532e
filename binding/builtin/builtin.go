// Package builtin provides the symbols every binding can use: static
// classes (String, Math, Path, Task), collection functions, type names, and
// the extension functions available as members of collections.
package builtin

import (
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/ardnew/bindc/binding/registry"
	"github.com/ardnew/bindc/binding/resolve"
	"github.com/ardnew/bindc/binding/tree"
)

// StringClass returns the String static class.
func StringClass() *tree.StaticType {
	return tree.NewStaticClass("String").
		Define("Format", Format).
		Define("Join", strings.Join).
		Define("IsEmpty", func(s string) bool { return s == "" }).
		Define("ToUpper", strings.ToUpper).
		Define("ToLower", strings.ToLower).
		Define("Trim", strings.TrimSpace).
		Define("Contains", strings.Contains)
}

// MathClass returns the Math static class. Abs, Max and Min are overloaded
// for int and float64.
func MathClass() *tree.StaticType {
	return tree.NewStaticClass("Math").
		Define("Abs",
			func(n int) int { return max(n, -n) },
			math.Abs).
		Define("Max",
			func(a, b int) int { return max(a, b) },
			func(a, b float64) float64 { return math.Max(a, b) }).
		Define("Min",
			func(a, b int) int { return min(a, b) },
			func(a, b float64) float64 { return math.Min(a, b) }).
		Define("Round", math.Round).
		Define("Floor", math.Floor).
		Define("Ceil", math.Ceil).
		Define("Pi", math.Pi)
}

// PathClass returns the Path static class.
func PathClass() *tree.StaticType {
	return tree.NewStaticClass("Path").
		Define("Abs", pathAbs).
		Define("Join", pathJoin).
		Define("Rel", pathRel).
		Define("Base", filepath.Base).
		Define("Dir", filepath.Dir).
		Define("Ext", filepath.Ext).
		Define("Prefix", Prefix).
		Define("PrefixIf", PrefixIf)
}

// TaskClass returns the Task static class.
func TaskClass() *tree.StaticType {
	return tree.NewStaticClass("Task").
		Define("FromResult", FromResult).
		Define("Delay", Delay).
		Define("Then", Then).
		Define("ThenDo", ThenDo)
}

// List and Map are the generic collection type constructors.
var (
	List = tree.NewGenericType("List", 1,
		func(args ...reflect.Type) (reflect.Type, error) {
			return reflect.SliceOf(args[0]), nil
		})
	Map = tree.NewGenericType("Map", 2,
		func(args ...reflect.Type) (reflect.Type, error) {
			if !args[0].Comparable() {
				return nil, resolve.ErrTypeArguments.Wrapf(
					"map key %s is not comparable", args[0])
			}

			return reflect.MapOf(args[0], args[1]), nil
		})
)

// Types returns bindings for the predeclared type names usable in lambda
// parameter annotations and type references.
func Types() []registry.Binding {
	return []registry.Binding{
		registry.Type("bool", tree.Bool),
		registry.Type("int", tree.Int),
		registry.Type("int64", reflect.TypeFor[int64]()),
		registry.Type("float64", tree.Float64),
		registry.Type("string", tree.String),
		registry.Type("time.Time", reflect.TypeFor[time.Time]()),
		registry.Type("time.Duration", tree.Duration),
		registry.Static(List),
		registry.Static(Map),
	}
}

// Functions returns bindings for the free collection functions.
func Functions() []registry.Binding {
	return []registry.Binding{
		registry.Func("filter", Where),
		registry.Func("map", Select),
		registry.Func("all", All),
		registry.Func("any", Any),
		registry.Func("none", None),
		registry.Func("find", First),
		registry.Func("count", Count),
		registry.Func("sum", Sum),
		registry.Func("len", Len),
	}
}

// Register returns a layer over reg holding every builtin symbol.
func Register(reg *registry.Registry) *registry.Registry {
	bindings := []registry.Binding{
		registry.Static(StringClass()),
		registry.Static(MathClass()),
		registry.Static(PathClass()),
		registry.Static(TaskClass()),
	}

	bindings = append(bindings, Types()...)
	bindings = append(bindings, Functions()...)

	return reg.AddSymbols(bindings...)
}

// Extensions returns the resolver options registering the collection
// extension functions: Where, Select, Any, All, First, Count and Sum.
func Extensions() []resolve.Option {
	return []resolve.Option{
		resolve.WithExtensions("Where", Where),
		resolve.WithExtensions("Select", Select),
		resolve.WithExtensions("Any", Any),
		resolve.WithExtensions("All", All),
		resolve.WithExtensions("First", First),
		resolve.WithExtensions("Count", Count),
		resolve.WithExtensions("Sum", Sum),
	}
}

// Resolver returns a resolver with the builtin extensions and opts.
func Resolver(opts ...resolve.Option) *resolve.Resolver {
	return resolve.New(append(Extensions(), opts...)...)
}
