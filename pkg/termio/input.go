package termio

import (
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/inkterm/zrui/pkg/zrevent"
)

// InputDecoder turns raw terminal bytes into zrevent-encoded batches using
// ultraviolet's event decoder, the same stateless decoder pitui.TUI keeps
// as a zero-value field and feeds from its own input goroutine.
type InputDecoder struct {
	decoder uv.EventDecoder
	enc     zrevent.Encoder
}

// NewInputDecoder constructs an InputDecoder.
func NewInputDecoder() *InputDecoder {
	return &InputDecoder{}
}

// Feed decodes every recognized event out of buf and returns one ZREV batch
// containing them. buf may hold more than one escape sequence (a fast
// paste, or several keystrokes read in one stdin.Read); Feed loops until
// the whole buffer is consumed. Unrecognized or partially-buffered trailing
// bytes are silently dropped, matching the decoder's own handling of n==0.
func (d *InputDecoder) Feed(buf []byte) ([]byte, error) {
	d.enc.Reset()
	for len(buf) > 0 {
		n, ev := d.decoder.Decode(buf)
		if n == 0 {
			break
		}
		buf = buf[n:]
		if ev == nil {
			continue
		}
		d.encode(ev)
	}
	if err := d.enc.Err(); err != nil {
		return nil, err
	}
	return d.enc.Build()
}

func (d *InputDecoder) encode(ev uv.Event) {
	switch e := ev.(type) {
	case uv.KeyPressEvent:
		r, code, mods := translateKey(e)
		d.enc.AddKey(r, code, mods, e.IsRepeat)
	case uv.PasteEvent:
		d.enc.AddPaste(string(e), true)
	case uv.WindowSizeEvent:
		d.enc.AddResize(e.Width, e.Height, 0, 0)
	case uv.MouseClickEvent:
		d.encodeMouse(uv.Mouse(e), zrevent.MouseDown)
	case uv.MouseReleaseEvent:
		d.encodeMouse(uv.Mouse(e), zrevent.MouseUp)
	case uv.MouseMotionEvent:
		d.encodeMouse(uv.Mouse(e), zrevent.MouseMove)
	case uv.MouseWheelEvent:
		m := uv.Mouse(e)
		action := zrevent.MouseWheelDown
		if m.Button == uv.MouseWheelUp {
			action = zrevent.MouseWheelUp
		}
		d.encodeMouse(m, action)
	case uv.FocusEvent:
		d.enc.AddFocusIn()
	case uv.BlurEvent:
		d.enc.AddFocusOut()
	}
}

func (d *InputDecoder) encodeMouse(m uv.Mouse, action zrevent.MouseAction) {
	d.enc.AddMouse(m.X, m.Y, translateMouseButton(m.Button), action, translateMod(m.Mod))
}

func translateMouseButton(b uv.MouseButton) zrevent.MouseButton {
	switch b {
	case uv.MouseLeft:
		return zrevent.MouseButtonLeft
	case uv.MouseMiddle:
		return zrevent.MouseButtonMiddle
	case uv.MouseRight:
		return zrevent.MouseButtonRight
	default:
		return zrevent.MouseButtonNone
	}
}

func translateMod(m uv.KeyMod) uint8 {
	var mods uint8
	if m&uv.ModShift != 0 {
		mods |= zrevent.ModShift
	}
	if m&uv.ModAlt != 0 {
		mods |= zrevent.ModAlt
	}
	if m&uv.ModCtrl != 0 {
		mods |= zrevent.ModCtrl
	}
	if m&uv.ModMeta != 0 {
		mods |= zrevent.ModMeta
	}
	return mods
}

// translateKey maps an ultraviolet key press to zrevent's (rune, code, mods)
// triple. Printable keys carry Code == KeyNone and the printed rune in r;
// named keys carry KeyNone's rune-zero counterpart and a KeyCode instead.
func translateKey(ev uv.KeyPressEvent) (r rune, code zrevent.KeyCode, mods uint8) {
	mods = translateMod(ev.Mod)
	if named, ok := namedKeyCodes[ev.Code]; ok {
		return 0, named, mods
	}
	if ev.Text != "" {
		for _, c := range ev.Text {
			return c, zrevent.KeyNone, mods
		}
	}
	return ev.Code, zrevent.KeyNone, mods
}

var namedKeyCodes = map[rune]zrevent.KeyCode{
	uv.KeyEnter:     zrevent.KeyEnter,
	uv.KeyTab:       zrevent.KeyTab,
	uv.KeyBackspace: zrevent.KeyBackspace,
	uv.KeyDelete:    zrevent.KeyDelete,
	uv.KeyEscape:    zrevent.KeyEscape,
	uv.KeyUp:        zrevent.KeyUp,
	uv.KeyDown:      zrevent.KeyDown,
	uv.KeyLeft:      zrevent.KeyLeft,
	uv.KeyRight:     zrevent.KeyRight,
	uv.KeyHome:      zrevent.KeyHome,
	uv.KeyEnd:       zrevent.KeyEnd,
	uv.KeyPgUp:      zrevent.KeyPageUp,
	uv.KeyPgDown:    zrevent.KeyPageDown,
	uv.KeyInsert:    zrevent.KeyInsert,
	uv.KeyF1:        zrevent.KeyF1,
	uv.KeyF2:        zrevent.KeyF2,
	uv.KeyF3:        zrevent.KeyF3,
	uv.KeyF4:        zrevent.KeyF4,
	uv.KeyF5:        zrevent.KeyF5,
	uv.KeyF6:        zrevent.KeyF6,
	uv.KeyF7:        zrevent.KeyF7,
	uv.KeyF8:        zrevent.KeyF8,
	uv.KeyF9:        zrevent.KeyF9,
	uv.KeyF10:       zrevent.KeyF10,
	uv.KeyF11:       zrevent.KeyF11,
	uv.KeyF12:       zrevent.KeyF12,
}
