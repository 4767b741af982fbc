package device

import "fmt"

// Device is the output surface the clock draws on. Drawing goes into an
// off-screen buffer; Show presents the buffer and Sync forces a full
// re-present of everything already drawn.
type Device interface {
	Canvas
	Regions() []Region
	AllocColor(name string) (Color, error)
	Show()
	Sync()
	Events() <-chan Event
	Stop()
}

// Canvas is the drawing subset of Device used by the line renderer.
type Canvas interface {
	Fill(pos Position, size Size, bg Color)
	Text(pos Position, runes []rune, fg, bg Color)
}

// Color is a handle to a color previously allocated with AllocColor.
type Color int

type Position struct {
	X int
	Y int
}

type Size struct {
	Width  int
	Height int
}

// Region is one selectable output area. A terminal device has exactly one;
// a multi-monitor device would report one per monitor.
type Region struct {
	Pos  Position
	Size Size
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Size.Width, r.Size.Height, r.Pos.X, r.Pos.Y)
}

type Event interface {
	event()
}

// Expose is delivered when the surface asks to be re-presented. Size carries
// the surface size at the time of the event so the receiver can detect
// geometry changes.
type Expose struct {
	Size Size
}

func (Expose) event() {}

// Quit is delivered when the user asks to leave (quit key).
type Quit struct{}

func (Quit) event() {}
