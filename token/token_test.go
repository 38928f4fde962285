package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  Type
	}{
		{"while", WHILE},
		{"return", RETURN},
		{"s32", TYPE},
		{"true", TRUE},
		{"and", OPERATOR},
		{"counter", IDENT},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, LookupIdentifier(tt.input), tt.input)
	}
}

func TestPosition(t *testing.T) {
	pos := Position{Line: 2, Column: 4}
	require.Equal(t, 3, pos.LineNumber())
	require.Equal(t, 5, pos.ColumnNumber())
	require.Equal(t, "3:5", pos.String())
	pos.File = "main.ipa"
	require.Equal(t, "main.ipa:3:5", pos.String())

	tok := New(IDENT, "total", pos)
	require.Equal(t, 9, tok.EndPosition.Column)
	require.Equal(t, pos, tok.StartPosition)
}

func TestOperators(t *testing.T) {
	for _, sym := range []string{"+", "+=", "<=", ">>", "and", "~"} {
		op, ok := LookupOperator(sym)
		require.True(t, ok, sym)
		require.Equal(t, sym, op.String())
	}
	_, ok := LookupOperator("?")
	require.False(t, ok)

	require.True(t, AddSet.IsCompound())
	require.Equal(t, Mod, ModSet.Binary())
	require.Equal(t, Lt, Lt.Binary())
	require.True(t, NotEquals.IsComparison())
	require.True(t, LShift.IsBitwise())
	require.False(t, Set.IsArithmetic())
	require.True(t, Or.IsLogical())
}
