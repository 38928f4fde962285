package ast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ipa-lang/ipa/token"
)

// LiteralClass is the lexical class of a constant.
type LiteralClass uint8

const (
	IntLiteral LiteralClass = iota
	FloatLiteral
	BoolLiteral
)

// Literal is a parsed constant.
type Literal struct {
	Class LiteralClass
	Int   uint64
	Float float64
	Bool  bool
}

func (l Literal) String() string {
	switch l.Class {
	case FloatLiteral:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case BoolLiteral:
		return strconv.FormatBool(l.Bool)
	default:
		return strconv.FormatUint(l.Int, 10)
	}
}

// FitsS32 reports whether an integer literal is representable as s32.
func (l Literal) FitsS32() bool { return l.Int <= math.MaxInt32 }

// FitsS64 reports whether an integer literal is representable as s64.
func (l Literal) FitsS64() bool { return l.Int <= math.MaxInt64 }

// ParseLiteral parses the literal held by an INT, FLOAT, TRUE or FALSE token.
// Integer literals accept the 0x, 0o and 0b prefixes and '_' separators.
func ParseLiteral(tok token.Token) (Literal, error) {
	switch tok.Type {
	case token.INT:
		v, err := strconv.ParseUint(strings.ReplaceAll(tok.Literal, "_", ""), 0, 64)
		if err != nil {
			return Literal{}, fmt.Errorf("invalid integer literal %q: %w", tok.Literal, err)
		}
		return Literal{Class: IntLiteral, Int: v}, nil
	case token.FLOAT:
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Literal, "_", ""), 64)
		if err != nil {
			return Literal{}, fmt.Errorf("invalid float literal %q: %w", tok.Literal, err)
		}
		return Literal{Class: FloatLiteral, Float: v}, nil
	case token.TRUE:
		return Literal{Class: BoolLiteral, Bool: true}, nil
	case token.FALSE:
		return Literal{Class: BoolLiteral}, nil
	}
	return Literal{}, fmt.Errorf("token %s %q is not a literal", tok.Type, tok.Literal)
}
