// Package line renders one formatted time line onto a surface, repainting
// only when its text changes and only the horizontal band it occupies.
package line

import (
	"fmt"
	"time"
	"unicode/utf8"

	"wallclock/device"
	"wallclock/font"

	"github.com/charmbracelet/log"
	strftime "github.com/ncruces/go-strftime"
	"golang.org/x/text/unicode/norm"
)

// MaxTextLen bounds the formatted text of a line, in bytes. A format string
// that blows this budget is a configuration error and is treated as fatal by
// the caller.
const MaxTextLen = 63

// Config is the immutable per-line configuration.
type Config struct {
	Format string // strftime pattern
	Font   string // face descriptor, see font.Load
	Color  string // text color name
	DY     int    // vertical offset in rows
}

// Policy selects how a line's paint width is computed.
type Policy int

const (
	// FixedPitch treats a near-monospaced face as fixed pitch and computes
	// width by glyph count; other faces fall back to measured width plus a
	// one-eighth slack band that absorbs the difference between measured
	// and drawn extents.
	FixedPitch Policy = iota
	// Proportional always uses the measured extent, with no slack.
	Proportional
)

// Surface is the drawing target shared by all lines: a canvas, the region
// being drawn into, and the colors used to clear.
type Surface struct {
	Canvas     device.Canvas
	Region     device.Region
	Background device.Color
	DebugFill  device.Color
	Debug      bool // clear bands with DebugFill so repaints are visible
}

func (s *Surface) fillColor() device.Color {
	if s.Debug {
		return s.DebugFill
	}
	return s.Background
}

// Line owns one text line's configuration and its last painted state.
type Line struct {
	cfg    Config
	face   font.Face
	color  device.Color
	policy Policy
	logger *log.Logger

	last   string // most recently painted text, empty before first paint
	y      int    // top row of the line's band, surface-absolute
	height int
	fwidth int // fixed glyph advance, 0 when measuring proportionally
	warned bool
}

// New resolves the width policy for the face and returns a line ready to
// render. Under FixedPitch the face counts as monospaced when its widest
// advance is at most 1.5 times the width of the "0" glyph.
func New(cfg Config, face font.Face, color device.Color, policy Policy, logger *log.Logger) (*Line, error) {
	l := &Line{
		cfg:    cfg,
		face:   face,
		color:  color,
		policy: policy,
		logger: logger,
		height: face.Height(),
	}
	if policy == FixedPitch {
		zero, err := face.Measure("0")
		if err != nil {
			return nil, err
		}
		if zero > 0 && 2*face.MaxAdvance() <= 3*zero {
			l.fwidth = face.MaxAdvance()
		} else {
			logger.Info("using non-monospaced font", "font", cfg.Font)
		}
	}
	return l, nil
}

// Height is the number of rows the line occupies.
func (l *Line) Height() int { return l.height }

// Place fixes the top row of the line's band. The baseline sits at
// y plus the face's ascent.
func (l *Line) Place(y int) { l.y = y }

// RenderIfChanged formats now with the line's pattern and repaints the
// line's band when the text differs from the last painted one, or always
// when force is set. It reports whether anything was painted.
func (l *Line) RenderIfChanged(s *Surface, now time.Time, force bool) (bool, error) {
	text, err := formatTime(l.cfg.Format, now)
	if err != nil {
		return false, err
	}
	if !force && text == l.last {
		return false, nil
	}

	w := l.fwidth * utf8.RuneCountInString(text)
	ew := 0
	if w == 0 {
		if w, err = l.face.Measure(text); err != nil {
			return false, err
		}
		if l.policy == FixedPitch {
			ew = w / 8
		}
	}

	rw := s.Region.Size.Width
	if !l.warned && w+ew > rw {
		l.warned = true
		l.logger.Warn("excessive width", "width", w+ew, "text", text, "font", l.cfg.Font)
	}

	rows, err := l.face.Render(text)
	if err != nil {
		return false, err
	}

	fill := s.fillColor()
	s.Canvas.Fill(
		device.Position{X: s.Region.Pos.X + (rw-w)/2, Y: l.y},
		device.Size{Width: w + ew, Height: l.height},
		fill,
	)
	tx := s.Region.Pos.X + (rw-w+ew)/2
	for i, row := range rows {
		s.Canvas.Text(device.Position{X: tx, Y: l.y + i}, []rune(row), l.color, fill)
	}

	l.last = text
	return true, nil
}

// formatTime formats now into a bounded buffer, normalized to NFC so that
// width measurement sees the same runes the terminal will.
func formatTime(format string, now time.Time) (string, error) {
	buf := make([]byte, 0, MaxTextLen+1)
	buf = strftime.AppendFormat(buf, format, now)
	text := norm.NFC.String(string(buf))
	if len(text) > MaxTextLen {
		return "", fmt.Errorf("format %q produces %d bytes, limit is %d", format, len(text), MaxTextLen)
	}
	return text, nil
}
