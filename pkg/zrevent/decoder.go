package zrevent

import "encoding/binary"

func u32At(b []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[off : off+4]), true
}

// Decoded is a parsed event stream.
type Decoded struct {
	raw     []byte
	version uint32
	count   uint32
}

// Version reports the event stream format version.
func (d *Decoded) Version() uint32 { return d.version }

// Count reports the declared record count.
func (d *Decoded) Count() uint32 { return d.count }

// Decode validates a ZREV byte slice's stream header.
func Decode(data []byte) (*Decoded, error) {
	if len(data) < StreamHeaderSize {
		return nil, formatErr(0, "event stream shorter than header")
	}
	magic, _ := u32At(data, 0)
	if magic != Magic {
		return nil, formatErr(0, "bad magic")
	}
	version, _ := u32At(data, 4)
	if !supportedVersions[version] {
		return nil, unsupportedErr("unsupported event stream version")
	}
	total, _ := u32At(data, 8)
	if int(total) != len(data) {
		return nil, formatErr(8, "declared total size does not match buffer length")
	}
	count, _ := u32At(data, 12)
	return &Decoded{raw: data, version: version, count: count}, nil
}

// Record is one decoded event record with its raw payload.
type Record struct {
	Type    Type
	Flags   uint16
	Offset  int
	Payload []byte
}

// IsSupported reports whether t is a type this package version knows how to
// interpret. Unknown types should be surfaced to callers as
// ZREV_UNSUPPORTED rather than treated as a format error: forward streams
// may carry record types a reader predates.
func IsSupported(t Type) bool {
	return t >= TypeKey && t <= TypeFocusOut
}

// RecordIter walks a Decoded event stream's record sequence.
type RecordIter struct {
	d   *Decoded
	pos int
	end int
	err error
}

// Records returns an iterator over the stream's record sequence.
func (d *Decoded) Records() *RecordIter {
	return &RecordIter{d: d, pos: StreamHeaderSize, end: len(d.raw)}
}

// Err returns the error that stopped iteration, if any.
func (it *RecordIter) Err() error { return it.err }

// Next advances to the next record. Unknown record types are still
// returned (with IsSupported(rec.Type) == false) so callers can skip them
// via the declared size rather than treating them as a format failure.
func (it *RecordIter) Next() (Record, bool) {
	if it.err != nil || it.pos >= it.end {
		return Record{}, false
	}
	if it.pos+recordHeaderSize > it.end {
		it.err = formatErr(it.pos, "truncated record header")
		return Record{}, false
	}
	raw := it.d.raw
	t := binary.LittleEndian.Uint16(raw[it.pos : it.pos+2])
	flags := binary.LittleEndian.Uint16(raw[it.pos+2 : it.pos+4])
	size := binary.LittleEndian.Uint32(raw[it.pos+4 : it.pos+8])
	if size < recordHeaderSize || size%4 != 0 {
		it.err = formatErr(it.pos, "record size must be >= 8 and a multiple of 4")
		return Record{}, false
	}
	if it.pos+int(size) > it.end {
		it.err = formatErr(it.pos, "record overruns stream")
		return Record{}, false
	}
	payload := raw[it.pos+recordHeaderSize : it.pos+int(size)]
	rec := Record{Type: Type(t), Flags: flags, Offset: it.pos, Payload: payload}
	it.pos += int(size)
	return rec, true
}

func i32At(b []byte, off int) int32 { return int32(binary.LittleEndian.Uint32(b[off : off+4])) }

func readLenPrefixed(buf []byte, off int) (string, error) {
	if off+4 > len(buf) {
		return "", formatErr(off, "truncated length-prefixed string")
	}
	l := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	if l < 0 || off+l > len(buf) {
		return "", formatErr(off, "length-prefixed string exceeds payload")
	}
	return string(buf[off : off+l]), nil
}

// KeyEvent is the decoded form of a key record.
type KeyEvent struct {
	Rune   rune
	Code   KeyCode
	Mods   uint8
	Repeat bool
}

func DecodeKey(r Record) (KeyEvent, error) {
	if len(r.Payload) < 8 {
		return KeyEvent{}, formatErr(r.Offset, "truncated key payload")
	}
	return KeyEvent{
		Rune: rune(i32At(r.Payload, 0)), Code: KeyCode(r.Payload[4]),
		Mods: r.Payload[5], Repeat: r.Payload[6] != 0,
	}, nil
}

// DecodeText returns the composed text of a text record.
func DecodeText(r Record) (string, error) {
	return readLenPrefixed(r.Payload, 0)
}

// MouseEvent is the decoded form of a mouse record.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Action MouseAction
	Mods   uint8
}

func DecodeMouse(r Record) (MouseEvent, error) {
	if len(r.Payload) < 12 {
		return MouseEvent{}, formatErr(r.Offset, "truncated mouse payload")
	}
	return MouseEvent{
		X: int(i32At(r.Payload, 0)), Y: int(i32At(r.Payload, 4)),
		Button: MouseButton(r.Payload[8]), Action: MouseAction(r.Payload[9]), Mods: r.Payload[10],
	}, nil
}

// PasteEvent is the decoded form of a paste record.
type PasteEvent struct {
	Data      string
	Bracketed bool
}

func DecodePaste(r Record) (PasteEvent, error) {
	data, err := readLenPrefixed(r.Payload, 0)
	if err != nil {
		return PasteEvent{}, err
	}
	return PasteEvent{Data: data, Bracketed: r.Flags&1 != 0}, nil
}

// ResizeEvent is the decoded form of a resize record.
type ResizeEvent struct {
	Cols, Rows int
	PxW, PxH   int
}

func DecodeResize(r Record) (ResizeEvent, error) {
	if len(r.Payload) < 16 {
		return ResizeEvent{}, formatErr(r.Offset, "truncated resize payload")
	}
	return ResizeEvent{
		Cols: int(i32At(r.Payload, 0)), Rows: int(i32At(r.Payload, 4)),
		PxW: int(i32At(r.Payload, 8)), PxH: int(i32At(r.Payload, 12)),
	}, nil
}
