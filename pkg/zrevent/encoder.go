package zrevent

import (
	"encoding/binary"
	"math"
)

// Encoder accumulates event records into a single ZREV frame. Errors are
// sticky: once Err is non-nil every subsequent call is a no-op until Reset.
type Encoder struct {
	err   *Error
	recs  []byte
	count uint32
}

// NewEncoder creates an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Err returns the sticky error, if any.
func (e *Encoder) Err() error {
	if e.err == nil {
		return nil
	}
	return e.err
}

func (e *Encoder) fail(err *Error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) poisoned() bool { return e.err != nil }

// Reset clears all accumulated state, including the sticky error.
func (e *Encoder) Reset() {
	e.err = nil
	e.recs = e.recs[:0]
	e.count = 0
}

func fitsI32(v int) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

func (e *Encoder) appendRecord(t Type, flags uint16, payload []byte) {
	if e.poisoned() {
		return
	}
	pad := (4 - len(payload)%4) % 4
	size := recordHeaderSize + len(payload) + pad
	hdr := make([]byte, recordHeaderSize)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(t))
	binary.LittleEndian.PutUint16(hdr[2:4], flags)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(size))
	e.recs = append(e.recs, hdr...)
	e.recs = append(e.recs, payload...)
	if pad > 0 {
		e.recs = append(e.recs, make([]byte, pad)...)
	}
	e.count++
}

func putI32(buf []byte, off int, v int32) { binary.LittleEndian.PutUint32(buf[off:off+4], uint32(v)) }

func appendLenPrefixed(buf []byte, s string) []byte {
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint32(hdr, uint32(len(s)))
	buf = append(buf, hdr...)
	buf = append(buf, s...)
	return buf
}

// AddKey appends a key event. r is the printable rune (0 if code is set
// instead), code identifies a non-printable key, mods packs Mod* bits.
func (e *Encoder) AddKey(r rune, code KeyCode, mods uint8, repeat bool) {
	if e.poisoned() {
		return
	}
	payload := make([]byte, 8)
	putI32(payload, 0, int32(r))
	payload[4] = byte(code)
	payload[5] = mods
	if repeat {
		payload[6] = 1
	}
	e.appendRecord(TypeKey, 0, payload)
}

// AddText appends a composed-text insertion event (e.g. from an input
// method or Kitty keyboard text event).
func (e *Encoder) AddText(s string) {
	if e.poisoned() {
		return
	}
	e.appendRecord(TypeText, 0, appendLenPrefixed(nil, s))
}

// AddMouse appends a mouse event at cell coordinates (x, y).
func (e *Encoder) AddMouse(x, y int, button MouseButton, action MouseAction, mods uint8) {
	if e.poisoned() {
		return
	}
	if !fitsI32(x) || !fitsI32(y) {
		e.fail(badParams("mouse: coordinates out of range"))
		return
	}
	payload := make([]byte, 12)
	putI32(payload, 0, int32(x))
	putI32(payload, 4, int32(y))
	payload[8] = byte(button)
	payload[9] = byte(action)
	payload[10] = mods
	e.appendRecord(TypeMouse, 0, payload)
}

// AddPaste appends a paste event, recording whether it arrived inside a
// bracketed-paste sequence.
func (e *Encoder) AddPaste(data string, bracketed bool) {
	if e.poisoned() {
		return
	}
	var flags uint16
	if bracketed {
		flags = 1
	}
	e.appendRecord(TypePaste, flags, appendLenPrefixed(nil, data))
}

// AddResize appends a terminal resize event. pxW/pxH are pixel dimensions,
// 0 when unknown.
func (e *Encoder) AddResize(cols, rows, pxW, pxH int) {
	if e.poisoned() {
		return
	}
	if cols < 0 || rows < 0 {
		e.fail(badParams("resize: negative dimensions"))
		return
	}
	payload := make([]byte, 16)
	putI32(payload, 0, int32(cols))
	putI32(payload, 4, int32(rows))
	putI32(payload, 8, int32(pxW))
	putI32(payload, 12, int32(pxH))
	e.appendRecord(TypeResize, 0, payload)
}

// AddFocusIn appends a terminal focus-gained event.
func (e *Encoder) AddFocusIn() { e.appendRecord(TypeFocusIn, 0, nil) }

// AddFocusOut appends a terminal focus-lost event.
func (e *Encoder) AddFocusOut() { e.appendRecord(TypeFocusOut, 0, nil) }

// Build assembles the final event stream byte slice.
func (e *Encoder) Build() ([]byte, error) {
	if e.poisoned() {
		return nil, e.err
	}
	total := StreamHeaderSize + len(e.recs)
	dst := make([]byte, total)
	binary.LittleEndian.PutUint32(dst[0:4], Magic)
	binary.LittleEndian.PutUint32(dst[4:8], Version)
	binary.LittleEndian.PutUint32(dst[8:12], uint32(total))
	binary.LittleEndian.PutUint32(dst[12:16], e.count)
	copy(dst[StreamHeaderSize:], e.recs)
	return dst, nil
}
