package bytecode

import (
	"fmt"

	"github.com/ipa-lang/ipa/token"
)

// SourceLocation represents a position in source code.
type SourceLocation struct {
	Line   int // 1-based line number
	Column int // 1-based column number
}

// LocationOf converts a token position to a source location.
func LocationOf(pos token.Position) SourceLocation {
	return SourceLocation{Line: pos.LineNumber(), Column: pos.ColumnNumber()}
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}
