package errz

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders diagnostics in a Rust-like style.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool

	colors *palette
}

// NewFormatter creates a new diagnostic formatter.
func NewFormatter(useColor bool) *Formatter {
	f := &Formatter{UseColor: useColor}
	if useColor {
		f.colors = newPalette()
	}
	return f
}

// palette holds the colors of one formatter. Each color is forced on so the
// output does not depend on the global color.NoColor setting.
type palette struct {
	err      *color.Color
	code     *color.Color
	location *color.Color
	module   *color.Color
	token    *color.Color
	typ      *color.Color
}

func newPalette() *palette {
	p := &palette{
		err:      color.New(color.FgRed, color.Bold),
		code:     color.New(color.FgHiBlack),
		location: color.New(color.FgCyan),
		module:   color.New(color.FgBlue),
		token:    color.New(color.FgHiYellow, color.Bold),
		typ:      color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{p.err, p.code, p.location, p.module, p.token, p.typ} {
		c.EnableColor()
	}
	return p
}

// colorsFor returns the colors of one Format call. Every color is nil when
// color is disabled.
func (f *Formatter) colorsFor() *palette {
	if !f.UseColor {
		return &palette{}
	}
	if f.colors != nil {
		return f.colors
	}
	return newPalette()
}

func paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

// Format returns the rendered diagnostic:
//
//	type error[E2002]: circular type dependency between "a" and "b"
//	  --> main.ipa:3:1 (module main)
func (f *Formatter) Format(d *Diagnostic) string {
	var b strings.Builder
	colors := f.colorsFor()
	header := d.Kind.String()
	if d.Code != "" {
		header += "[" + d.Code.String() + "]"
	}
	b.WriteString(paint(colors.err, header))
	b.WriteString(": ")
	var words []string
	for _, p := range d.Parts {
		switch p := p.(type) {
		case Module:
			continue
		case Token, Operator:
			words = append(words, paint(colors.token, p.String()))
		case TypeName:
			words = append(words, paint(colors.typ, p.String()))
		default:
			words = append(words, p.String())
		}
	}
	b.WriteString(strings.Join(words, " "))
	b.WriteString("\n")
	pos, hasPos := d.Position()
	module := d.ModuleName()
	if hasPos || module != "" {
		b.WriteString(paint(colors.code, "  --> "))
		if hasPos {
			b.WriteString(paint(colors.location, pos.String()))
		}
		if module != "" {
			if hasPos {
				b.WriteString(" ")
			}
			b.WriteString(paint(colors.module, fmt.Sprintf("(module %s)", module)))
		}
		b.WriteString("\n")
	}
	if d.Cause != nil {
		b.WriteString(paint(colors.code, "  = cause: "))
		b.WriteString(d.Cause.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// Render writes a diagnostic to w.
func Render(w io.Writer, d *Diagnostic, useColor bool) error {
	_, err := io.WriteString(w, NewFormatter(useColor).Format(d))
	return err
}

// RenderList writes every diagnostic of the list to w in order.
func RenderList(w io.Writer, l *List, useColor bool) error {
	f := NewFormatter(useColor)
	for _, d := range l.Items() {
		if _, err := io.WriteString(w, f.Format(d)); err != nil {
			return err
		}
	}
	return nil
}
