// Package app runs the clock: it acquires the device resources, lays the
// lines out on the selected region and drives the redraw loop.
package app

import (
	"context"
	"fmt"
	"time"

	"wallclock/device"
	"wallclock/font"
	"wallclock/line"

	"github.com/charmbracelet/log"
)

// DebugFillColor is used instead of the background to clear line bands when
// the debug level makes repaints visible.
const DebugFillColor = "#302030"

type Config struct {
	Lines      []line.Config
	Background string
	Region     int // region (monitor) index, see Device.Regions
	Policy     line.Policy
	Interval   time.Duration
	Debug      int // 1 is the default verbosity; >2 paints bands in a debug color
}

type app struct {
	cfg    Config
	dev    device.Device
	logger *log.Logger
	surf   line.Surface
	lines  []*line.Line
	now    func() time.Time
}

// Run draws the clock until ctx is cancelled or the device reports a quit.
// Setup failures (region out of range, unknown color, unloadable font) and
// format overflows are returned as errors; the caller treats them as fatal.
func Run(ctx context.Context, dev device.Device, cfg Config, logger *log.Logger) error {
	a, err := setup(dev, cfg, logger)
	if err != nil {
		return err
	}
	return a.loop(ctx)
}

func setup(dev device.Device, cfg Config, logger *log.Logger) (*app, error) {
	regions := dev.Regions()
	if cfg.Region < 0 || cfg.Region >= len(regions) {
		return nil, fmt.Errorf("no region %d, device has %d", cfg.Region, len(regions))
	}

	bg, err := dev.AllocColor(cfg.Background)
	if err != nil {
		return nil, err
	}
	debugFill, err := dev.AllocColor(DebugFillColor)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		dev:    dev,
		logger: logger,
		now:    time.Now,
		surf: line.Surface{
			Canvas:     dev,
			Region:     regions[cfg.Region],
			Background: bg,
			DebugFill:  debugFill,
			Debug:      cfg.Debug > 2,
		},
	}

	for _, lc := range cfg.Lines {
		face, err := font.Load(lc.Font)
		if err != nil {
			return nil, err
		}
		color, err := dev.AllocColor(lc.Color)
		if err != nil {
			return nil, err
		}
		l, err := line.New(lc, face, color, cfg.Policy, logger)
		if err != nil {
			return nil, err
		}
		a.lines = append(a.lines, l)
	}
	a.place()

	return a, nil
}

// place centers the stack of lines vertically in the region and applies the
// per-line offsets.
func (a *app) place() {
	total := 0
	for _, l := range a.lines {
		total += l.Height()
	}
	y := a.surf.Region.Pos.Y + (a.surf.Region.Size.Height-total)/2
	for i, l := range a.lines {
		y += a.cfg.Lines[i].DY
		l.Place(y)
		y += l.Height()
	}
}

func (a *app) loop(ctx context.Context) error {
	if err := a.repaint(); err != nil {
		return err
	}
	a.dev.Show()

	interval := a.cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	events := a.dev.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case now := <-ticker.C:
			changed, err := a.render(now, false)
			if err != nil {
				return err
			}
			if changed {
				a.dev.Show()
			}

		case event, ok := <-events:
			if !ok {
				// the pump is gone; keep ticking on our own
				a.logger.Warn("device event channel closed")
				events = nil
				continue
			}
			switch event := event.(type) {
			case device.Expose:
				if err := a.expose(); err != nil {
					return err
				}
			case device.Quit:
				return nil
			default:
				a.logger.Warn("unhandled device event", "event", fmt.Sprintf("%T", event))
			}
		}
	}
}

// expose re-presents the already drawn canvas. When the region geometry
// changed underneath us the layout is redone and everything repainted first.
func (a *app) expose() error {
	regions := a.dev.Regions()
	if a.cfg.Region < len(regions) && regions[a.cfg.Region] != a.surf.Region {
		a.surf.Region = regions[a.cfg.Region]
		a.place()
		if err := a.repaint(); err != nil {
			return err
		}
	}
	a.dev.Sync()
	return nil
}

// repaint clears the whole region and force-renders every line.
func (a *app) repaint() error {
	a.dev.Fill(a.surf.Region.Pos, a.surf.Region.Size, a.surf.Background)
	_, err := a.render(a.now(), true)
	return err
}

func (a *app) render(now time.Time, force bool) (bool, error) {
	changed := false
	for _, l := range a.lines {
		ch, err := l.RenderIfChanged(&a.surf, now, force)
		if err != nil {
			return false, err
		}
		changed = changed || ch
	}
	return changed, nil
}
