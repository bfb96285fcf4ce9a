package termio

import (
	"github.com/inkterm/zrui/pkg/layout"
	"github.com/inkterm/zrui/pkg/zrevent"
	"github.com/inkterm/zrui/pkg/zrui"
)

// appDriver is the subset of *zrui.App a Pump needs, kept narrow so tests
// can stub it without constructing a full App.
type appDriver interface {
	PushEvent(ev any)
	SetViewport(viewport layout.Rect)
}

var _ appDriver = (*zrui.App)(nil)

// Pump wires a ProcessTerminal's raw input to a running App: every stdin
// read is decoded into a ZREV batch, then re-decoded into the typed
// zrevent values App.PushEvent expects, and every SIGWINCH-driven resize
// updates the App's viewport directly.
type Pump struct {
	term *ProcessTerminal
	dec  *InputDecoder
	app  appDriver
}

// NewPump constructs a Pump. Call Start to begin delivering input.
func NewPump(term *ProcessTerminal, app appDriver) *Pump {
	return &Pump{term: term, dec: NewInputDecoder(), app: app}
}

// Start puts the terminal in raw mode and begins delivering decoded events
// to the App until Stop is called.
func (p *Pump) Start() error {
	return p.term.Start(p.onInput, p.onResize)
}

// Stop restores the terminal to its original state.
func (p *Pump) Stop() { p.term.Stop() }

func (p *Pump) onInput(data []byte) {
	batch, err := p.dec.Feed(data)
	if err != nil || batch == nil {
		return
	}
	dispatchZREVBatch(batch, p.app)
}

func (p *Pump) onResize() {
	p.app.SetViewport(layout.Rect{W: p.term.Columns(), H: p.term.Rows()})
}

// dispatchZREVBatch decodes a ZREV batch and pushes each key, mouse, paste
// and resize record to app as its typed zrevent value (text and focus
// records are not forwarded), the same decode path a recorded session replay
// or test harness would use — live input is never special-cased relative
// to a replayed one.
func dispatchZREVBatch(batch []byte, app appDriver) {
	dec, err := zrevent.Decode(batch)
	if err != nil {
		return
	}
	it := dec.Records()
	for {
		rec, ok := it.Next()
		if !ok {
			break
		}
		switch rec.Type {
		case zrevent.TypeKey:
			if ev, err := zrevent.DecodeKey(rec); err == nil {
				app.PushEvent(ev)
			}
		case zrevent.TypeMouse:
			if ev, err := zrevent.DecodeMouse(rec); err == nil {
				app.PushEvent(ev)
			}
		case zrevent.TypePaste:
			if ev, err := zrevent.DecodePaste(rec); err == nil {
				app.PushEvent(ev)
			}
		case zrevent.TypeResize:
			if ev, err := zrevent.DecodeResize(rec); err == nil {
				app.PushEvent(ev)
			}
		}
	}
}
