package tcell

import (
	"fmt"
	"sync"

	"wallclock/device"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

type tcellDevice struct {
	screen   tcell.Screen
	colors   []tcell.Color
	events   chan device.Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewDevice opens the terminal as a full-screen drawing surface. The screen's
// cell buffer is the off-screen canvas: nothing reaches the terminal until
// Show or Sync.
func NewDevice() (device.Device, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return newDevice(screen)
}

func newDevice(screen tcell.Screen) (device.Device, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()

	d := &tcellDevice{
		screen: screen,
		events: make(chan device.Event, 1),
		done:   make(chan struct{}),
	}
	go d.pumpEvents()

	return d, nil
}

// Regions reports the selectable output areas. A terminal has exactly one:
// the whole screen.
func (d *tcellDevice) Regions() []device.Region {
	w, h := d.screen.Size()
	return []device.Region{{Size: device.Size{Width: w, Height: h}}}
}

// AllocColor resolves a W3C color name or #rrggbb spec to a color handle.
func (d *tcellDevice) AllocColor(name string) (device.Color, error) {
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault && name != "default" {
		return 0, fmt.Errorf("cannot load color: %s", name)
	}
	d.colors = append(d.colors, c)
	return device.Color(len(d.colors) - 1), nil
}

func (d *tcellDevice) style(fg, bg device.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(d.colors[fg]).Background(d.colors[bg])
}

func (d *tcellDevice) Fill(pos device.Position, size device.Size, bg device.Color) {
	style := d.style(bg, bg)
	for y := pos.Y; y < pos.Y+size.Height; y++ {
		for x := pos.X; x < pos.X+size.Width; x++ {
			d.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

func (d *tcellDevice) Text(pos device.Position, runes []rune, fg, bg device.Color) {
	style := d.style(fg, bg)
	x := pos.X
	for _, r := range runes {
		d.screen.SetContent(x, pos.Y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func (d *tcellDevice) Show() {
	d.screen.Show()
}

func (d *tcellDevice) Sync() {
	d.screen.Sync()
}

func (d *tcellDevice) Events() <-chan device.Event {
	return d.events
}

func (d *tcellDevice) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.screen.Fini()
	})
}

// pumpEvents translates terminal events into device events. It exits when
// Stop finalizes the screen, which makes PollEvent return nil, or when Stop
// unblocks a pending send. Either way the events channel is closed on exit.
func (d *tcellDevice) pumpEvents() {
	defer close(d.events)
	for {
		event := d.screen.PollEvent()
		if event == nil {
			return
		}
		switch event := event.(type) {
		case *tcell.EventResize:
			w, h := event.Size()
			if !d.send(device.Expose{Size: device.Size{Width: w, Height: h}}) {
				return
			}

		case *tcell.EventKey:
			switch event.Name() {
			case "Ctrl+C", "Esc", "Rune[q]", "Rune[Q]":
				if !d.send(device.Quit{}) {
					return
				}
			}

		default:
			// interrupt, paste and mouse events carry nothing the clock wants
		}
	}
}

// send delivers an event unless Stop has been called. It reports whether the
// pump should keep running. Without the done check the pump would block
// forever once the consumer stops reading.
func (d *tcellDevice) send(ev device.Event) bool {
	select {
	case d.events <- ev:
		return true
	case <-d.done:
		return false
	}
}
