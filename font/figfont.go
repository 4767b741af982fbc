package font

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/ansi"
	"github.com/ryanlewis/figgo"
)

// figFace renders text as multi-row FIGlet glyphs.
type figFace struct {
	name string
	font *figgo.Font

	// last successful render, so Measure followed by Render does the
	// glyph layout once
	lastText string
	lastRows []string
}

func parseFigFont(name string, r io.Reader) (*figFace, error) {
	f, err := figgo.ParseFont(r)
	if err != nil {
		return nil, fmt.Errorf("cannot load font %s: %w", name, err)
	}
	return &figFace{name: name, font: f}, nil
}

func (f *figFace) Height() int { return f.font.Height }
func (f *figFace) Ascent() int { return f.font.Baseline }

// MaxAdvance is the widest glyph line in the font, from the FIGfont header.
func (f *figFace) MaxAdvance() int { return f.font.MaxLen }

func (f *figFace) Measure(text string) (int, error) {
	rows, err := f.Render(text)
	if err != nil {
		return 0, err
	}
	width := 0
	for _, row := range rows {
		if w := ansi.PrintableRuneWidth(row); w > width {
			width = w
		}
	}
	return width, nil
}

func (f *figFace) Render(text string) ([]string, error) {
	if text == f.lastText && f.lastRows != nil {
		return f.lastRows, nil
	}
	out, err := figgo.Render(text, f.font, figgo.WithUnknownRune('?'))
	if err != nil {
		return nil, fmt.Errorf("font %s cannot render %q: %w", f.name, text, err)
	}
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// layout quirks never yield more rows than the font height, but pad
	// short output so callers can rely on Height rows
	for len(rows) < f.font.Height {
		rows = append(rows, "")
	}
	f.lastText = text
	f.lastRows = rows
	return rows, nil
}
