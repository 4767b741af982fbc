// Package font loads the faces the clock draws its text with. A face knows
// its vertical metrics and can measure and render a UTF-8 string as terminal
// rows.
package font

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-runewidth"
)

// Face is a loaded font ready for measurement and rendering.
type Face interface {
	// Height is ascent plus descent, in rows.
	Height() int
	// Ascent is the number of rows above the baseline.
	Ascent() int
	// MaxAdvance is the widest glyph advance, in cells.
	MaxAdvance() int
	// Measure reports the rendered width of text, in cells.
	Measure(text string) (int, error)
	// Render produces exactly Height rows of text cells.
	Render(text string) ([]string, error)
}

// FontDir is where descriptors that are not paths are looked up.
const FontDir = "/usr/share/figlet"

// Load resolves a face descriptor. The empty string and "cell" give the
// builtin one-row face; anything else names a FIGfont file, tried as a
// literal path, with an .flf extension added, and under FontDir.
func Load(descriptor string) (Face, error) {
	if descriptor == "" || descriptor == "cell" {
		return cellFace{}, nil
	}
	path := resolvePath(descriptor)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load font %s: %w", descriptor, err)
	}
	defer f.Close()
	return parseFigFont(descriptor, f)
}

func resolvePath(descriptor string) string {
	if filepath.Ext(descriptor) == ".flf" {
		return descriptor
	}
	if _, err := os.Stat(descriptor); err == nil {
		return descriptor
	}
	if withExt := descriptor + ".flf"; statOK(withExt) {
		return withExt
	}
	if shared := filepath.Join(FontDir, descriptor+".flf"); statOK(shared) {
		return shared
	}
	return descriptor
}

func statOK(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// cellFace renders text as a single terminal row, one cell per glyph (two
// for wide runes).
type cellFace struct{}

func (cellFace) Height() int     { return 1 }
func (cellFace) Ascent() int     { return 1 }
func (cellFace) MaxAdvance() int { return 1 }

func (cellFace) Measure(text string) (int, error) {
	return runewidth.StringWidth(text), nil
}

func (cellFace) Render(text string) ([]string, error) {
	return []string{text}, nil
}
