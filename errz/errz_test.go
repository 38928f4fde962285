package errz

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/ipa-lang/ipa/token"
)

func TestDiagnosticMessage(t *testing.T) {
	tok := token.New(token.IDENT, "foo", token.Position{Line: 2, Column: 4, File: "main.ipa"})
	d := New(ErrName, E1001, Module{"main"}, Text{"unknown identifier"}, Token{tok}, Text{"in function"}, Text{"run"})
	require.Equal(t, `unknown identifier "foo" in function run`, d.Message())
	require.Equal(t, "main", d.ModuleName())
	require.Equal(t, `name error: unknown identifier "foo" in function run (main.ipa:3:5)`, d.Error())
	pos, ok := d.Position()
	require.True(t, ok)
	require.Equal(t, 3, pos.LineNumber())
}

func TestListErr(t *testing.T) {
	var l List
	require.Nil(t, l.Err())

	l.Addf(ErrType, E2001, "m", token.Ident("x"), "cannot add")
	l.Add(New(ErrUnsupported, E3001, Text{"operator"}, Operator{token.BinaryNot}))
	require.Equal(t, 2, l.Len())

	err := l.Err()
	require.NotNil(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)

	var d *Diagnostic
	require.True(t, errors.As(err, &d))
	require.Equal(t, E2001, d.Code)
}

func TestFormatWithoutColor(t *testing.T) {
	tok := token.New(token.IDENT, "a", token.Position{File: "m.ipa"})
	d := New(ErrType, E2002, Module{"m"}, Text{"circular type dependency on"}, Token{tok}, Text{"of type"}, TypeName{"s32"})
	var buf bytes.Buffer
	require.Nil(t, Render(&buf, d, false))
	require.Equal(t, "type error[E2002]: circular type dependency on \"a\" of type s32\n  --> m.ipa:1:1 (module m)\n", buf.String())
}

func TestFormatColor(t *testing.T) {
	tok := token.New(token.IDENT, "a", token.Position{File: "m.ipa"})
	d := New(ErrType, E2002, Text{"circular type dependency on"}, Token{tok})
	plain := NewFormatter(false).Format(d)

	tests := []struct {
		name string
		f    *Formatter
		ansi bool
	}{
		{"disabled", NewFormatter(false), false},
		{"enabled", NewFormatter(true), true},
		{"zero value", &Formatter{UseColor: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.f.Format(d)
			require.Equal(t, tt.ansi, strings.Contains(out, "\x1b["))
			if !tt.ansi {
				require.Equal(t, plain, out)
			}
		})
	}
}

func TestFormattersRunConcurrently(t *testing.T) {
	tok := token.New(token.IDENT, "a", token.Position{File: "m.ipa"})
	d := New(ErrType, E2002, Module{"m"}, Text{"circular type dependency on"}, Token{tok})
	shared := NewFormatter(true)
	var wg sync.WaitGroup
	outs := make([]string, 16)
	for i := range outs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				outs[i] = shared.Format(d)
			} else {
				outs[i] = NewFormatter(false).Format(d)
			}
		}(i)
	}
	wg.Wait()
	for i, out := range outs {
		require.Equal(t, i%2 == 0, strings.Contains(out, "\x1b["), i)
	}
}

func TestCodeDescription(t *testing.T) {
	require.Equal(t, "circular type dependency", E2002.Description())
	require.Equal(t, "", ErrorCode("E9999").Description())
}
