// Command wallclock takes over the terminal and displays two lines of
// formatted date and time, redrawn once per second.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallclock/app"
	"wallclock/device/tcell"
	"wallclock/line"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// parseConfig turns command line arguments into the app configuration. The
// second result reports whether the user asked to stay attached to the
// terminal, which is the only supported mode anyway.
func parseConfig(args []string) (app.Config, bool, error) {
	cfg := app.Config{
		Lines: []line.Config{
			{Format: "%H:%M", Font: "cell", Color: "#202020"},
			{Format: "%Y-%m-%d %a. v. %V", Font: "cell", Color: "#303030"},
		},
		Background: "#000000",
	}

	fs := pflag.NewFlagSet("wallclock", pflag.ContinueOnError)
	fs.IntVarP(&cfg.Region, "screen", "s", 0, "draw on this region (monitor) index")
	fs.StringVarP(&cfg.Background, "background", "b", cfg.Background, "background color")
	fs.StringVarP(&cfg.Lines[0].Font, "font1", "F", cfg.Lines[0].Font, "font for line 1 (\"cell\" or a FIGfont)")
	fs.StringVarP(&cfg.Lines[1].Font, "font2", "f", cfg.Lines[1].Font, "font for line 2 (\"cell\" or a FIGfont)")
	fs.StringVarP(&cfg.Lines[0].Color, "color1", "C", cfg.Lines[0].Color, "text color for line 1")
	fs.StringVarP(&cfg.Lines[1].Color, "color2", "c", cfg.Lines[1].Color, "text color for line 2")
	fs.StringVarP(&cfg.Lines[0].Format, "format1", "D", cfg.Lines[0].Format, "strftime format for line 1")
	fs.StringVarP(&cfg.Lines[1].Format, "format2", "d", cfg.Lines[1].Format, "strftime format for line 2")
	fs.IntVarP(&cfg.Lines[0].DY, "dy1", "Y", 0, "vertical offset for line 1, in rows")
	fs.IntVarP(&cfg.Lines[1].DY, "dy2", "y", 0, "vertical offset for line 2, in rows")
	fs.DurationVarP(&cfg.Interval, "interval", "i", time.Second, "redraw poll interval")
	proportional := fs.BoolP("proportional", "p", false, "always use measured text width, no fixed-pitch shortcut")
	foreground := fs.BoolP("foreground", "x", false, "run attached to the terminal (always the case; kept for compatibility)")
	quiet := fs.CountP("quiet", "q", "decrease verbosity")
	verbose := fs.CountP("verbose", "v", "increase verbosity")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: wallclock [-s screen] [-b background] [-Ff font] [-Cc color] [-Dd datefmt] [-Yy y-offset]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
			fs.Usage()
		}
		return cfg, false, err
	}

	if *proportional {
		cfg.Policy = line.Proportional
	}
	cfg.Debug = 1 + *verbose - *quiet

	return cfg, *foreground, nil
}

func newLogger(debug int) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false, Prefix: "wallclock"})
	switch {
	case debug <= 0:
		logger.SetLevel(log.WarnLevel)
	case debug == 1:
		logger.SetLevel(log.InfoLevel)
	default:
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func run(args []string) int {
	cfg, foreground, err := parseConfig(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	logger := newLogger(cfg.Debug)
	logger.Debug("starting", "foreground", foreground, "interval", cfg.Interval)

	// set the terminal's default background for the session and put it
	// back on the way out
	output := termenv.NewOutput(os.Stdout)
	origFG := output.ForegroundColor()
	origBG := output.BackgroundColor()
	if c := termenv.ColorProfile().Color(cfg.Background); c != nil {
		output.SetBackgroundColor(c)
	}
	defer func() {
		output.SetForegroundColor(origFG)
		output.SetBackgroundColor(origBG)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer stop()

	dev, err := tcell.NewDevice()
	if err != nil {
		logger.Error("cannot open terminal", "error", err)
		return 1
	}
	err = app.Run(ctx, dev, cfg, logger)
	dev.Stop()
	if err != nil {
		logger.Error("wallclock failed", "error", err)
		return 1
	}
	return 0
}
