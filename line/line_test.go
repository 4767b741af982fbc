package line

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"wallclock/device"

	"github.com/charmbracelet/log"
)

var testTime = time.Date(2026, 8, 31, 12, 34, 56, 0, time.UTC)

type fillOp struct {
	pos  device.Position
	size device.Size
	bg   device.Color
}

type textOp struct {
	pos  device.Position
	text string
	fg   device.Color
	bg   device.Color
}

type testCanvas struct {
	fills []fillOp
	texts []textOp
}

func (c *testCanvas) Fill(pos device.Position, size device.Size, bg device.Color) {
	c.fills = append(c.fills, fillOp{pos, size, bg})
}

func (c *testCanvas) Text(pos device.Position, runes []rune, fg, bg device.Color) {
	c.texts = append(c.texts, textOp{pos, string(runes), fg, bg})
}

func (c *testCanvas) reset() {
	c.fills = c.fills[:0]
	c.texts = c.texts[:0]
}

func (c *testCanvas) ops() int {
	return len(c.fills) + len(c.texts)
}

// testFace has one-row glyphs of glyphWidth cells each and reports
// maxAdvance as its widest advance.
type testFace struct {
	glyphWidth int
	maxAdvance int
}

func (f *testFace) Height() int     { return 1 }
func (f *testFace) Ascent() int     { return 1 }
func (f *testFace) MaxAdvance() int { return f.maxAdvance }

func (f *testFace) Measure(text string) (int, error) {
	return utf8.RuneCountInString(text) * f.glyphWidth, nil
}

func (f *testFace) Render(text string) ([]string, error) {
	return []string{text}, nil
}

func testSurface(width int) (*Surface, *testCanvas) {
	canvas := &testCanvas{}
	return &Surface{
		Canvas:     canvas,
		Region:     device.Region{Size: device.Size{Width: width, Height: 24}},
		Background: 0,
		DebugFill:  1,
	}, canvas
}

func newTestLine(t *testing.T, cfg Config, face *testFace, policy Policy, out *bytes.Buffer) *Line {
	t.Helper()
	if out == nil {
		out = &bytes.Buffer{}
	}
	l, err := New(cfg, face, 2, policy, log.New(out))
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestRenderSkipsUnchangedText(t *testing.T) {
	face := &testFace{glyphWidth: 1, maxAdvance: 1}
	l := newTestLine(t, Config{Format: "%H:%M"}, face, FixedPitch, nil)
	surf, canvas := testSurface(80)

	changed, err := l.RenderIfChanged(surf, testTime, false)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("first render should paint")
	}
	if canvas.ops() == 0 {
		t.Error("first render should issue draw operations")
	}

	canvas.reset()
	changed, err = l.RenderIfChanged(surf, testTime, false)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("second render with same time should not paint")
	}
	if canvas.ops() != 0 {
		t.Errorf("second render issued %d draw operations", canvas.ops())
	}
}

func TestForcedRepaint(t *testing.T) {
	face := &testFace{glyphWidth: 1, maxAdvance: 1}
	l := newTestLine(t, Config{Format: "%H:%M"}, face, FixedPitch, nil)
	surf, canvas := testSurface(80)

	if _, err := l.RenderIfChanged(surf, testTime, false); err != nil {
		t.Fatal(err)
	}
	canvas.reset()

	changed, err := l.RenderIfChanged(surf, testTime, true)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("forced render should paint even with unchanged text")
	}
	if canvas.ops() == 0 {
		t.Error("forced render should issue draw operations")
	}
}

func TestFixedPitchWidth(t *testing.T) {
	// max advance 100 <= 1.5 * 70: fixed pitch, width is count * advance
	face := &testFace{glyphWidth: 70, maxAdvance: 100}
	l := newTestLine(t, Config{Format: "%H:%M"}, face, FixedPitch, nil)
	surf, canvas := testSurface(1000)

	if _, err := l.RenderIfChanged(surf, testTime, false); err != nil {
		t.Fatal(err)
	}
	if len(canvas.fills) != 1 {
		t.Fatalf("expected one band clear, got %d", len(canvas.fills))
	}
	if got := canvas.fills[0].size.Width; got != 5*100 {
		t.Errorf("paint width = %d, want %d", got, 5*100)
	}
	if got := canvas.fills[0].pos.X; got != (1000-500)/2 {
		t.Errorf("band starts at %d, want %d", got, (1000-500)/2)
	}
}

func TestNonMonospacedFallback(t *testing.T) {
	// max advance 120 > 1.5 * 70: measured width plus one eighth slack
	out := &bytes.Buffer{}
	face := &testFace{glyphWidth: 70, maxAdvance: 120}
	l := newTestLine(t, Config{Format: "%H:%M", Font: "wide"}, face, FixedPitch, out)
	surf, canvas := testSurface(1000)

	if _, err := l.RenderIfChanged(surf, testTime, false); err != nil {
		t.Fatal(err)
	}
	measured := 5 * 70
	want := measured + measured/8
	if got := canvas.fills[0].size.Width; got != want {
		t.Errorf("paint width = %d, want %d", got, want)
	}
	if n := strings.Count(out.String(), "non-monospaced"); n != 1 {
		t.Errorf("non-monospaced note emitted %d times, want 1", n)
	}
}

func TestProportionalPolicy(t *testing.T) {
	// measured extent only, no slack, no heuristic note
	out := &bytes.Buffer{}
	face := &testFace{glyphWidth: 70, maxAdvance: 100}
	l := newTestLine(t, Config{Format: "%H:%M"}, face, Proportional, out)
	surf, canvas := testSurface(1000)

	if _, err := l.RenderIfChanged(surf, testTime, false); err != nil {
		t.Fatal(err)
	}
	if got := canvas.fills[0].size.Width; got != 5*70 {
		t.Errorf("paint width = %d, want %d", got, 5*70)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected diagnostics: %q", out.String())
	}
}

func TestExcessiveWidthWarnsOnce(t *testing.T) {
	out := &bytes.Buffer{}
	face := &testFace{glyphWidth: 10, maxAdvance: 10}
	l := newTestLine(t, Config{Format: "%H:%M:%S", Font: "huge"}, face, FixedPitch, out)
	surf, canvas := testSurface(20)

	if _, err := l.RenderIfChanged(surf, testTime, false); err != nil {
		t.Fatal(err)
	}
	if _, err := l.RenderIfChanged(surf, testTime.Add(time.Second), false); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out.String(), "excessive width"); n != 1 {
		t.Errorf("excessive width warned %d times, want 1", n)
	}
	// overflow is a visible symptom, not an error: both ticks still paint
	if len(canvas.fills) != 2 {
		t.Errorf("expected 2 band clears, got %d", len(canvas.fills))
	}
}

func TestDebugFill(t *testing.T) {
	face := &testFace{glyphWidth: 1, maxAdvance: 1}
	l := newTestLine(t, Config{Format: "%H:%M"}, face, FixedPitch, nil)
	surf, canvas := testSurface(80)
	surf.Debug = true

	if _, err := l.RenderIfChanged(surf, testTime, false); err != nil {
		t.Fatal(err)
	}
	if got := canvas.fills[0].bg; got != surf.DebugFill {
		t.Errorf("band cleared with color %d, want debug fill %d", got, surf.DebugFill)
	}
}

func TestFormatOverflow(t *testing.T) {
	face := &testFace{glyphWidth: 1, maxAdvance: 1}
	l := newTestLine(t, Config{Format: strings.Repeat("%Y", 20)}, face, FixedPitch, nil)
	surf, canvas := testSurface(80)

	if _, err := l.RenderIfChanged(surf, testTime, false); err == nil {
		t.Fatal("expected an error for text over the buffer budget")
	}
	if canvas.ops() != 0 {
		t.Error("failed format must not paint")
	}
}

func TestBandHeightAndPlacement(t *testing.T) {
	face := &testFace{glyphWidth: 1, maxAdvance: 1}
	l := newTestLine(t, Config{Format: "%H:%M"}, face, FixedPitch, nil)
	l.Place(7)
	surf, canvas := testSurface(80)

	if _, err := l.RenderIfChanged(surf, testTime, false); err != nil {
		t.Fatal(err)
	}
	if got := canvas.fills[0].pos.Y; got != 7 {
		t.Errorf("band top = %d, want 7", got)
	}
	if got := canvas.fills[0].size.Height; got != face.Height() {
		t.Errorf("band height = %d, want %d", got, face.Height())
	}
	if got := canvas.texts[0].pos.Y; got != 7 {
		t.Errorf("text row = %d, want 7", got)
	}
}
