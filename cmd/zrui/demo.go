package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/inkterm/zrui/pkg/commit"
	"github.com/inkterm/zrui/pkg/layout"
	"github.com/inkterm/zrui/pkg/termio"
	"github.com/inkterm/zrui/pkg/widget"
	"github.com/inkterm/zrui/pkg/zrevent"
	"github.com/inkterm/zrui/pkg/zrui"
)

func demoCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Interactive stress test exercising most widget kinds",
		Long: `Launches a live screen with a scrolling log, a stats table, a filter
field, a spinner and a toast stack, driven entirely through the
vnode/commit/layout/drawlist pipeline.

Controls:
  c         Toggle colorized log lines.
  a         Append 10 log lines.
  A         Append 100 log lines.
  d         Delete the last 10 log lines.
  s         Start/stop the spinner (continuous repaints from a timer).
  t         Push a toast notification.
  r         Force a full redraw.
  Ctrl+C    Quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), lines)
		},
	}

	cmd.Flags().IntVar(&lines, "lines", 50, "Initial number of log lines")
	return cmd
}

// demoState holds the mutable state demoScreen renders, guarded by its own
// mutex rather than living in hooks, since it is written both from the key
// listener and from a background spinner ticker running off the UI
// goroutine.
type demoState struct {
	mu        sync.Mutex
	entries   []string
	colorize  bool
	spinnerOn bool
	frame     int
	toasts    []string
}

func newDemoState(n int) *demoState {
	s := &demoState{}
	for i := 0; i < n; i++ {
		s.entries = append(s.entries, demoLogLine(i))
	}
	return s
}

func demoLogLine(i int) string {
	levels := []string{"INFO", "DEBUG", "WARN", "ERROR"}
	return fmt.Sprintf("%s line %d latency=%dus", levels[rand.Intn(len(levels))], i, rand.Intn(5000))
}

func (s *demoState) appendLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.entries = append(s.entries, demoLogLine(len(s.entries)))
	}
}

func (s *demoState) deleteLast(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) <= n {
		s.entries = nil
		return
	}
	s.entries = s.entries[:len(s.entries)-n]
}

func (s *demoState) toggleColor() {
	s.mu.Lock()
	s.colorize = !s.colorize
	s.mu.Unlock()
}

const demoMaxToasts = 3

func (s *demoState) pushToast() {
	s.mu.Lock()
	s.toasts = append(s.toasts, fmt.Sprintf("frame %d saved", s.frame))
	if len(s.toasts) > demoMaxToasts*4 {
		s.toasts = s.toasts[len(s.toasts)-demoMaxToasts*4:]
	}
	s.mu.Unlock()
}

var spinnerFrames = []string{"|", "/", "-", "\\"}

const demoWindow = 20

func demoScreen(ctx *commit.HookContext, props any) *commit.Element {
	state := props.(*demoState)

	state.mu.Lock()
	entries := append([]string(nil), state.entries...)
	colorize := state.colorize
	spinnerOn := state.spinnerOn
	frame := state.frame
	toasts := append([]string(nil), state.toasts...)
	state.mu.Unlock()

	start := len(entries) - demoWindow
	if start < 0 {
		start = 0
	}
	window := entries[start:]

	items := make([]*commit.Element, len(window))
	for i, line := range window {
		props := widget.TextProps{Content: line}
		if colorize {
			props.HasFg = true
			props.FgColor = 0x5fafff
		}
		el := commit.HostEl(widget.KindText, props)
		el.Key = fmt.Sprintf("line-%d", start+i)
		items[i] = el
	}

	list := commit.HostEl(widget.KindList, widget.ListProps{
		ItemCount:     len(entries),
		ItemHeight:    1,
		OffsetIndex:   start,
		SelectedIndex: -1,
	}, items...)

	scrolledList := commit.HostEl(widget.KindScroll, widget.ScrollProps{
		Direction:  widget.DirectionColumn,
		OffsetMain: 0,
	}, list)

	filter := commit.HostEl(widget.KindTextInput, widget.TextInputProps{
		Placeholder: "filter (cosmetic only)",
	})

	statsTable := commit.HostEl(widget.KindTable, widget.TableProps{
		ColumnWidths: []int{12, 10},
		RowCount:     2,
		RowHeight:    1,
	},
		commit.HostEl(widget.KindText, widget.TextProps{Content: "entries"}),
		commit.HostEl(widget.KindText, widget.TextProps{Content: fmt.Sprintf("%d", len(entries))}),
		commit.HostEl(widget.KindText, widget.TextProps{Content: "frame"}),
		commit.HostEl(widget.KindText, widget.TextProps{Content: fmt.Sprintf("%d", frame)}),
	)

	children := []*commit.Element{filter, scrolledList, statsTable}
	if len(toasts) > 0 {
		recent := make([]*commit.Element, 0, demoMaxToasts)
		for i := len(toasts) - 1; i >= 0 && len(recent) < demoMaxToasts; i-- {
			recent = append(recent, commit.HostEl(widget.KindText, widget.TextProps{Content: toasts[i]}))
		}
		children = append(children, commit.HostEl(widget.KindToastContainer, widget.ToastContainerProps{
			MaxVisible: demoMaxToasts,
			Decoration: widget.Decoration{HasBg: true, Bg: 0x202030},
		}, recent...))
	}
	if spinnerOn {
		children = append(children, commit.HostEl(widget.KindSpinner, widget.SpinnerProps{
			Frames:     spinnerFrames,
			FrameIndex: frame % len(spinnerFrames),
			IntervalMS: 80,
		}))
	}
	children = append(children, commit.HostEl(widget.KindText, widget.TextProps{
		Content: "c=color a/A=append d=delete s=spinner r=redraw Ctrl+C=quit",
	}))

	return commit.HostEl(widget.KindBox, widget.BoxProps{
		Direction: widget.DirectionColumn,
		Gap:       1,
	}, children...)
}

func isCtrlC(ev zrevent.KeyEvent) bool {
	return ev.Rune == 3 || (ev.Rune == 'c' && ev.Mods&zrevent.ModCtrl != 0)
}

func runDemo(ctx context.Context, initialLines int) error {
	state := newDemoState(initialLines)

	term := termio.NewProcessTerminal()
	sink := termio.NewSink(term)
	app := zrui.NewApp(demoScreen, state, layout.Rect{W: term.Columns(), H: term.Rows()}, sink)

	quit := make(chan struct{})
	var quitOnce sync.Once
	closeQuit := func() { quitOnce.Do(func() { close(quit) }) }

	app.OnEvent(func(ev any) bool {
		key, ok := ev.(zrevent.KeyEvent)
		if !ok {
			return false
		}
		if isCtrlC(key) {
			closeQuit()
			return true
		}
		switch key.Rune {
		case 'c':
			state.toggleColor()
			app.RequestRender()
			return true
		case 'a':
			state.appendLines(10)
			app.RequestRender()
			return true
		case 'A':
			state.appendLines(100)
			app.RequestRender()
			return true
		case 'd':
			state.deleteLast(10)
			app.RequestRender()
			return true
		case 's':
			state.mu.Lock()
			state.spinnerOn = !state.spinnerOn
			state.mu.Unlock()
			app.RequestRender()
			return true
		case 't':
			state.pushToast()
			app.RequestRender()
			return true
		case 'r':
			app.RequestRender()
			return true
		}
		return false
	})

	pump := termio.NewPump(term, app)
	if err := pump.Start(); err != nil {
		return errors.Wrap(err, "demo: start terminal")
	}
	defer pump.Stop()

	if err := app.Start(ctx); err != nil {
		return errors.Wrap(err, "demo: start app")
	}

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				state.mu.Lock()
				spinning := state.spinnerOn
				state.frame++
				state.mu.Unlock()
				if spinning {
					app.RequestRender()
				}
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
	case <-sigCh:
	case <-quit:
	}
	closeQuit()
	<-tickerDone

	return app.Stop()
}
