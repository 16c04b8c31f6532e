package ast

// Token identifies an operator token kind as emitted by the binding
// tokenizer.
type Token int

const (
	InvalidToken Token = iota
	AddOperator
	SubtractOperator
	MultiplyOperator
	DivideOperator
	ModulusOperator
	NotOperator
	EqualsEqualsOperator
	NotEqualsOperator
	LessThanOperator
	LessThanEqualsOperator
	GreaterThanOperator
	GreaterThanEqualsOperator
	NullCoalescingOperator
	AndOperator
	AndAlsoOperator
	OrOperator
	OrElseOperator
	AssignOperator
)

var tokenSymbols = [...]string{
	InvalidToken:              "<invalid>",
	AddOperator:               "+",
	SubtractOperator:          "-",
	MultiplyOperator:          "*",
	DivideOperator:            "/",
	ModulusOperator:           "%",
	NotOperator:               "!",
	EqualsEqualsOperator:      "==",
	NotEqualsOperator:         "!=",
	LessThanOperator:          "<",
	LessThanEqualsOperator:    "<=",
	GreaterThanOperator:       ">",
	GreaterThanEqualsOperator: ">=",
	NullCoalescingOperator:    "??",
	AndOperator:               "&",
	AndAlsoOperator:           "&&",
	OrOperator:                "|",
	OrElseOperator:            "||",
	AssignOperator:            "=",
}

// String returns the operator's source symbol.
func (t Token) String() string {
	if t < 0 || int(t) >= len(tokenSymbols) {
		return tokenSymbols[InvalidToken]
	}

	return tokenSymbols[t]
}

// TokenOf returns the operator token for a source symbol.
// Word forms accepted by some front ends ("and", "or", "not") are mapped to
// their short-circuit equivalents.
func TokenOf(symbol string) (Token, bool) {
	switch symbol {
	case "and":
		return AndAlsoOperator, true
	case "or":
		return OrElseOperator, true
	case "not":
		return NotOperator, true
	}

	for t, s := range tokenSymbols {
		if t != int(InvalidToken) && s == symbol {
			return Token(t), true
		}
	}

	return InvalidToken, false
}
