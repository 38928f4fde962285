// Package token defines the tokens handed to the compiler core by the lexer.
package token

import "strconv"

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int
	LineStart int
	Line      int
	Column    int
	File      string
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// String returns "file:line:column" using 1-indexed numbers.
func (p Position) String() string {
	s := strconv.Itoa(p.LineNumber()) + ":" + strconv.Itoa(p.ColumnNumber())
	if p.File != "" {
		return p.File + ":" + s
	}
	return s
}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	ILLEGAL     = "ILLEGAL"
	EOF         = "EOF"
	IDENT       = "IDENT"
	INT         = "INT"
	FLOAT       = "FLOAT"
	TRUE        = "TRUE"
	FALSE       = "FALSE"
	OPERATOR    = "OPERATOR"
	BLOCK_BEGIN = "BLOCK_BEGIN"
	BLOCK_END   = "BLOCK_END"
	END         = "END"
	COLON       = ":"
	DECLARE     = ":="
	COMMA       = ","
	PERIOD      = "."
	RANGE       = ".."
	ARROW       = "->"
	LPAREN      = "("
	RPAREN      = ")"
	LBRACKET    = "["
	RBRACKET    = "]"
	IF          = "IF"
	ELSE        = "ELSE"
	FOR         = "FOR"
	IN          = "IN"
	WHILE       = "WHILE"
	RETURN      = "RETURN"
	STRUCT      = "STRUCT"
	CONST       = "CONST"
	CAST        = "CAST"
	TYPE        = "TYPE"
)

// Reserved keywords
var keywords = map[string]Type{
	"if":     IF,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
	"while":  WHILE,
	"return": RETURN,
	"struct": STRUCT,
	"const":  CONST,
	"cast":   CAST,
	"true":   TRUE,
	"false":  FALSE,
	"and":    OPERATOR,
	"or":     OPERATOR,
	"void":   TYPE,
	"bool":   TYPE,
	"s8":     TYPE,
	"u8":     TYPE,
	"s16":    TYPE,
	"u16":    TYPE,
	"s32":    TYPE,
	"u32":    TYPE,
	"s64":    TYPE,
	"u64":    TYPE,
	"f32":    TYPE,
	"f64":    TYPE,
}

// LookupIdentifier used to determinate whether identifier is keyword nor not
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}

// New returns a token of the given type at a position.
func New(typ Type, literal string, pos Position) Token {
	end := pos
	end.Char += len(literal)
	end.Column += len(literal)
	return Token{Type: typ, Literal: literal, StartPosition: pos, EndPosition: end}
}

// Ident returns an identifier token without position information.
func Ident(name string) Token {
	return Token{Type: IDENT, Literal: name}
}
