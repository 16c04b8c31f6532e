package tree

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	Plus UnaryOp = iota
	Negate
	Not
)

// String returns the operator symbol.
func (op UnaryOp) String() string {
	switch op {
	case Plus:
		return "+"
	case Negate:
		return "-"
	case Not:
		return "!"
	default:
		return "?"
	}
}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	Add BinaryOp = iota
	Subtract
	Multiply
	Divide
	Modulo
	Equal
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
	Coalesce
	And
	AndAlso
	Or
	OrElse
	Assignment
)

var binarySymbols = [...]string{
	Add:            "+",
	Subtract:       "-",
	Multiply:       "*",
	Divide:         "/",
	Modulo:         "%",
	Equal:          "==",
	NotEqual:       "!=",
	Less:           "<",
	LessOrEqual:    "<=",
	Greater:        ">",
	GreaterOrEqual: ">=",
	Coalesce:       "??",
	And:            "&",
	AndAlso:        "&&",
	Or:             "|",
	OrElse:         "||",
	Assignment:     "=",
}

// String returns the operator symbol.
func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binarySymbols) {
		return "?"
	}

	return binarySymbols[op]
}

// IsArithmetic reports whether op is one of + - * / %.
func (op BinaryOp) IsArithmetic() bool { return op >= Add && op <= Modulo }

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool {
	return op >= Equal && op <= GreaterOrEqual
}

// IsOrdering reports whether op is one of < <= > >=.
func (op BinaryOp) IsOrdering() bool { return op >= Less && op <= GreaterOrEqual }

// IsLogical reports whether op is one of & && | ||.
func (op BinaryOp) IsLogical() bool { return op >= And && op <= OrElse }

// ShortCircuit reports whether op skips its right operand when the left one
// decides the result.
func (op BinaryOp) ShortCircuit() bool {
	return op == AndAlso || op == OrElse || op == Coalesce
}
