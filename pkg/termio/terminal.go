// Package termio connects a zrui.App to a real OS terminal: raw mode and
// input decoding on the way in, ANSI output on the way out. It is the one
// place capability probing and platform syscalls are allowed to live —
// pkg/zrui and pkg/zrevent never touch an os.File.
package termio

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/x/ansi"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ioctlReadTermios/ioctlWriteTermios are the Linux termios ioctl request
// numbers; other unix targets would need their own build-tagged values.
const (
	ioctlReadTermios  = unix.TCGETS
	ioctlWriteTermios = unix.TCSETS
)

// ProcessTerminal drives stdin/stdout as a real terminal: raw mode, Kitty
// keyboard disambiguation, bracketed paste, and SIGWINCH-driven resize
// tracking. Terminal dimensions are cached and refreshed only on SIGWINCH
// to avoid a syscall on every frame.
type ProcessTerminal struct {
	origTermios *unix.Termios
	onInput     func([]byte)
	onResize    func()
	sigCh       chan os.Signal
	stopCancel  context.CancelFunc
	stopCtx     context.Context

	sizeMu sync.RWMutex
	cols   int
	rows   int
}

// NewProcessTerminal constructs a ProcessTerminal. Call Start before using it.
func NewProcessTerminal() *ProcessTerminal {
	return &ProcessTerminal{}
}

// Start puts the terminal into raw mode, enables Kitty keyboard and
// bracketed paste reporting, and begins delivering stdin bytes to onInput
// and resize notifications to onResize. Both callbacks may be called
// concurrently with Start's return and with each other.
func (t *ProcessTerminal) Start(onInput func([]byte), onResize func()) error {
	t.onInput = onInput
	t.onResize = onResize
	t.stopCtx, t.stopCancel = context.WithCancel(context.Background())

	fd := int(os.Stdin.Fd())
	orig, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return errors.Wrap(err, "termio: get termios")
	}
	t.origTermios = orig

	raw := *orig
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return errors.Wrap(err, "termio: set raw mode")
	}

	t.refreshSize()

	// Enable bracketed paste.
	t.WriteString("\x1b[?2004h")

	// Enable Kitty keyboard protocol (disambiguate escape codes) so
	// modified keys like Shift+Enter are reported distinctly.
	t.WriteString(ansi.KittyKeyboard(ansi.KittyDisambiguateEscapeCodes, 1))
	// Query keyboard enhancement support; the response arrives as input.
	t.WriteString(ansi.RequestKittyKeyboard)

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				t.onInput(data)
			}
			if err != nil {
				return
			}
		}
	}()

	t.sigCh = make(chan os.Signal, 1)
	signal.Notify(t.sigCh, syscall.SIGWINCH)
	go func() {
		for {
			select {
			case <-t.sigCh:
				t.refreshSize()
				if t.onResize != nil {
					t.onResize()
				}
			case <-t.stopCtx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop restores the original terminal state and disables every mode Start
// enabled. Safe to call once; calling it twice re-writes the disable
// sequences harmlessly.
func (t *ProcessTerminal) Stop() {
	t.WriteString(ansi.KittyKeyboard(0, 1))
	t.WriteString("\x1b[?2004l")

	if t.stopCancel != nil {
		t.stopCancel()
	}
	if t.sigCh != nil {
		signal.Stop(t.sigCh)
	}
	if t.origTermios != nil {
		fd := int(os.Stdin.Fd())
		_ = unix.IoctlSetTermios(fd, ioctlWriteTermios, t.origTermios)
	}
}

func (t *ProcessTerminal) Write(p []byte)       { _, _ = os.Stdout.Write(p) }
func (t *ProcessTerminal) WriteString(s string) { _, _ = os.Stdout.WriteString(s) }
func (t *ProcessTerminal) HideCursor()          { t.WriteString("\x1b[?25l") }
func (t *ProcessTerminal) ShowCursor()          { t.WriteString("\x1b[?25h") }

// Columns returns the last-known terminal width, 80 if never measured.
func (t *ProcessTerminal) Columns() int {
	t.sizeMu.RLock()
	c := t.cols
	t.sizeMu.RUnlock()
	if c == 0 {
		return 80
	}
	return c
}

// Rows returns the last-known terminal height, 24 if never measured.
func (t *ProcessTerminal) Rows() int {
	t.sizeMu.RLock()
	r := t.rows
	t.sizeMu.RUnlock()
	if r == 0 {
		return 24
	}
	return r
}

func (t *ProcessTerminal) refreshSize() {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return
	}
	t.sizeMu.Lock()
	if ws.Col > 0 {
		t.cols = int(ws.Col)
	}
	if ws.Row > 0 {
		t.rows = int(ws.Row)
	}
	t.sizeMu.Unlock()
}
