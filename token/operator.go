package token

// Operator identifies the operator of an operand expression.
type Operator uint8

const (
	InvalidOperator Operator = iota
	Set
	Add
	Sub
	Mul
	Div
	Mod
	Lt
	Gt
	Not
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryNot
	AddSet
	SubSet
	MulSet
	DivSet
	ModSet
	Increment
	Decrement
	Equals
	NotEquals
	LesserEquals
	GreaterEquals
	LShift
	RShift
	And
	Or
)

var operatorSymbols = [...]string{
	InvalidOperator: "?",
	Set:             "=",
	Add:             "+",
	Sub:             "-",
	Mul:             "*",
	Div:             "/",
	Mod:             "%",
	Lt:              "<",
	Gt:              ">",
	Not:             "!",
	BinaryAnd:       "&",
	BinaryOr:        "|",
	BinaryXor:       "^",
	BinaryNot:       "~",
	AddSet:          "+=",
	SubSet:          "-=",
	MulSet:          "*=",
	DivSet:          "/=",
	ModSet:          "%=",
	Increment:       "++",
	Decrement:       "--",
	Equals:          "==",
	NotEquals:       "!=",
	LesserEquals:    "<=",
	GreaterEquals:   ">=",
	LShift:          "<<",
	RShift:          ">>",
	And:             "and",
	Or:              "or",
}

// String returns the source spelling of the operator.
func (o Operator) String() string {
	if int(o) < len(operatorSymbols) {
		return operatorSymbols[o]
	}
	return "?"
}

// LookupOperator returns the operator spelled by s.
func LookupOperator(s string) (Operator, bool) {
	for i, sym := range operatorSymbols {
		if i != int(InvalidOperator) && sym == s {
			return Operator(i), true
		}
	}
	return InvalidOperator, false
}

// IsCompound reports whether the operator is an arithmetic assignment such
// as "+=".
func (o Operator) IsCompound() bool {
	switch o {
	case AddSet, SubSet, MulSet, DivSet, ModSet:
		return true
	}
	return false
}

// Binary returns the arithmetic operator a compound assignment expands to.
// Other operators are returned unchanged.
func (o Operator) Binary() Operator {
	switch o {
	case AddSet:
		return Add
	case SubSet:
		return Sub
	case MulSet:
		return Mul
	case DivSet:
		return Div
	case ModSet:
		return Mod
	}
	return o
}

// IsComparison reports whether the operator yields a bool from two
// comparable operands.
func (o Operator) IsComparison() bool {
	switch o {
	case Lt, Gt, LesserEquals, GreaterEquals, Equals, NotEquals:
		return true
	}
	return false
}

// IsArithmetic reports whether the operator is one of + - * / %.
func (o Operator) IsArithmetic() bool {
	switch o {
	case Add, Sub, Mul, Div, Mod:
		return true
	}
	return false
}

// IsBitwise reports whether the operator works on the bits of integers.
func (o Operator) IsBitwise() bool {
	switch o {
	case BinaryAnd, BinaryOr, BinaryXor, LShift, RShift:
		return true
	}
	return false
}

// IsLogical reports whether the operator is a short-circuit boolean operator.
func (o Operator) IsLogical() bool {
	return o == And || o == Or
}
