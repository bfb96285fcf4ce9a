package drawlist

import "encoding/binary"

// Decoded is a parsed drawlist: header fields plus offsets into the
// original byte slice's string/blob arenas. Blobs resolve to borrowed
// slices of that buffer; strings resolve to copies.
type Decoded struct {
	raw []byte

	version uint32

	cmdOffset int
	cmdBytes  int
	cmdCount  uint32

	stringSpanOffset int
	stringSpanCount  int
	stringBytesOff   int
	stringBytesLen   int

	blobSpanOffset int
	blobSpanCount  int
	blobBytesOff   int
	blobBytesLen   int
}

// Version reports the drawlist format version that produced this decode.
func (d *Decoded) Version() uint32 { return d.version }

// CmdCount reports the declared command count.
func (d *Decoded) CmdCount() uint32 { return d.cmdCount }

func u32At(b []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[off : off+4]), true
}

// Decode validates and parses a drawlist byte slice header. It does not
// walk commands; use Commands() for that.
func Decode(data []byte) (*Decoded, error) {
	if len(data) < HeaderSize {
		return nil, formatErr(0, "drawlist shorter than header")
	}
	magic, _ := u32At(data, 0)
	if magic != Magic {
		return nil, formatErr(0, "bad magic")
	}
	version, _ := u32At(data, 4)
	if !supportedVersions[version] {
		return nil, newErr(CodeUnsupported, "ZRDL_UNSUPPORTED", "unsupported drawlist version")
	}
	headerSize, _ := u32At(data, 8)
	if int(headerSize) != HeaderSize {
		return nil, formatErr(8, "unexpected header size")
	}
	total, _ := u32At(data, 12)
	if int(total) > len(data) {
		return nil, formatErr(12, "declared total size exceeds buffer")
	}

	d := &Decoded{raw: data, version: version}
	var ok bool
	var v uint32
	read := func(off int) int {
		v, ok = u32At(data, off)
		return int(v)
	}
	d.cmdOffset = read(16)
	d.cmdBytes = read(20)
	cc, _ := u32At(data, 24)
	d.cmdCount = cc
	d.stringSpanOffset = read(28)
	d.stringSpanCount = read(32)
	d.stringBytesOff = read(36)
	d.stringBytesLen = read(40)
	d.blobSpanOffset = read(44)
	d.blobSpanCount = read(48)
	d.blobBytesOff = read(52)
	d.blobBytesLen = read(56)
	if !ok {
		return nil, formatErr(16, "truncated header")
	}

	if d.cmdOffset < 0 || d.cmdBytes < 0 || d.cmdOffset+d.cmdBytes > len(data) {
		return nil, formatErr(16, "command span out of bounds")
	}
	if d.stringSpanOffset+d.stringSpanCount*spanEntrySize > len(data) {
		return nil, formatErr(28, "string span table out of bounds")
	}
	if d.stringBytesOff+d.stringBytesLen > len(data) {
		return nil, formatErr(36, "string bytes span out of bounds")
	}
	if d.blobSpanOffset+d.blobSpanCount*spanEntrySize > len(data) {
		return nil, formatErr(44, "blob span table out of bounds")
	}
	if d.blobBytesOff+d.blobBytesLen > len(data) {
		return nil, formatErr(52, "blob bytes span out of bounds")
	}
	return d, nil
}

func (d *Decoded) spanEntry(table string, idx int) (internEntry, error) {
	var base int
	var count int
	switch table {
	case "string":
		base, count = d.stringSpanOffset, d.stringSpanCount
	case "blob":
		base, count = d.blobSpanOffset, d.blobSpanCount
	}
	if idx < 0 || idx >= count {
		return internEntry{}, formatErr(base, table+" span index out of range")
	}
	off := base + idx*spanEntrySize
	o, _ := u32At(d.raw, off)
	l, _ := u32At(d.raw, off+4)
	return internEntry{offset: o, len: l}, nil
}

// ResolveString resolves a string ref into a string copied out of the
// original buffer.
func (d *Decoded) ResolveString(r stringRefPublic) (string, error) {
	ref := stringRef(r)
	if !ref.isSet() {
		return "", nil
	}
	e, err := d.spanEntry("string", int(ref.id-1))
	if err != nil {
		return "", err
	}
	if ref.byteOff+ref.byteLen > e.len {
		return "", formatErr(d.stringBytesOff, "string ref exceeds span bounds")
	}
	start := d.stringBytesOff + int(e.offset) + int(ref.byteOff)
	end := start + int(ref.byteLen)
	if start < d.stringBytesOff || end > d.stringBytesOff+d.stringBytesLen || end > len(d.raw) {
		return "", formatErr(start, "string ref outside declared string bytes span")
	}
	return string(d.raw[start:end]), nil
}

// ResolveBlob resolves a blob ref into a borrowed slice of the original
// buffer.
func (d *Decoded) ResolveBlob(r stringRefPublic) ([]byte, error) {
	ref := stringRef(r)
	if !ref.isSet() {
		return nil, nil
	}
	e, err := d.spanEntry("blob", int(ref.id-1))
	if err != nil {
		return nil, err
	}
	if ref.byteOff+ref.byteLen > e.len {
		return nil, formatErr(d.blobBytesOff, "blob ref exceeds span bounds")
	}
	start := d.blobBytesOff + int(e.offset) + int(ref.byteOff)
	end := start + int(ref.byteLen)
	if start < d.blobBytesOff || end > d.blobBytesOff+d.blobBytesLen || end > len(d.raw) {
		return nil, formatErr(start, "blob ref outside declared blob bytes span")
	}
	return d.raw[start:end], nil
}

// stringRefPublic is the exported shape of a string/blob reference,
// decoded out of a command payload.
type stringRefPublic struct {
	ID      uint32
	ByteOff uint32
	ByteLen uint32
}

func stringRef2Public(r stringRef) stringRefPublic {
	return stringRefPublic{ID: r.id, ByteOff: r.byteOff, ByteLen: r.byteLen}
}

// Command is one decoded drawlist record with its raw payload bytes.
// References are resolved lazily via the Decoded value's Resolve* methods.
type Command struct {
	Opcode Opcode
	Flags  uint16
	Offset int // byte offset of this command's header within the drawlist
	Payload []byte
}

// CommandIter walks a Decoded drawlist's command stream.
type CommandIter struct {
	d    *Decoded
	pos  int
	end  int
	err  error
}

// Commands returns an iterator over the drawlist's command stream.
func (d *Decoded) Commands() *CommandIter {
	return &CommandIter{d: d, pos: d.cmdOffset, end: d.cmdOffset + d.cmdBytes}
}

// Err returns the error that stopped iteration, if any.
func (it *CommandIter) Err() error { return it.err }

// Next advances to the next command, returning (cmd, true) or (_, false)
// at end of stream or on error (check Err after a false return).
func (it *CommandIter) Next() (Command, bool) {
	if it.err != nil || it.pos >= it.end {
		return Command{}, false
	}
	if it.pos+cmdHeaderSize > it.end {
		it.err = formatErr(it.pos, "truncated command header")
		return Command{}, false
	}
	raw := it.d.raw
	op := binary.LittleEndian.Uint16(raw[it.pos : it.pos+2])
	flags := binary.LittleEndian.Uint16(raw[it.pos+2 : it.pos+4])
	size := binary.LittleEndian.Uint32(raw[it.pos+4 : it.pos+8])
	if size < cmdHeaderSize || size%4 != 0 {
		it.err = formatErr(it.pos, "command size must be >= 8 and a multiple of 4")
		return Command{}, false
	}
	if it.pos+int(size) > it.end {
		it.err = formatErr(it.pos, "command overruns command span")
		return Command{}, false
	}
	payload := raw[it.pos+cmdHeaderSize : it.pos+int(size)]
	cmd := Command{Opcode: Opcode(op), Flags: flags, Offset: it.pos, Payload: payload}
	it.pos += int(size)
	return cmd, true
}

func i32At(b []byte, off int) int32 { return int32(binary.LittleEndian.Uint32(b[off : off+4])) }

// DecodedStyle is Style plus resolved link strings, produced by decoding a
// command's embedded style block.
type DecodedStyle struct {
	Style
}

func (d *Decoded) decodeStyle(buf []byte) (Style, error) {
	if len(buf) < styleEncodedSize {
		return Style{}, formatErr(0, "truncated style block")
	}
	flags := binary.LittleEndian.Uint16(buf[0:2])
	s := Style{
		HasFg:          flags&styleFlagHasFg != 0,
		HasBg:          flags&styleFlagHasBg != 0,
		HasUnderlineFg: flags&styleFlagHasUnderlineColor != 0,
		Attrs:          flags &^ (styleFlagHasFg | styleFlagHasBg | styleFlagHasUnderlineColor),
		Underline:      UnderlineStyle(buf[3]),
		Fg:             binary.LittleEndian.Uint32(buf[4:8]),
		Bg:             binary.LittleEndian.Uint32(buf[8:12]),
		UnderlineFg:    binary.LittleEndian.Uint32(buf[12:16]),
	}
	uriRef := getRef(buf[16:28])
	idRef := getRef(buf[28:40])
	var err error
	s.LinkURI, err = d.ResolveString(stringRef2Public(uriRef))
	if err != nil {
		return Style{}, err
	}
	s.LinkID, err = d.ResolveString(stringRef2Public(idRef))
	if err != nil {
		return Style{}, err
	}
	return s, nil
}

// FillRectPayload is the decoded form of an OpFillRect command.
type FillRectPayload struct {
	X, Y, W, H int
	Style      Style
}

func (d *Decoded) DecodeFillRect(c Command) (FillRectPayload, error) {
	if len(c.Payload) < 16+styleEncodedSize {
		return FillRectPayload{}, formatErr(c.Offset, "truncated fill-rect payload")
	}
	st, err := d.decodeStyle(c.Payload[16:])
	if err != nil {
		return FillRectPayload{}, err
	}
	return FillRectPayload{
		X: int(i32At(c.Payload, 0)), Y: int(i32At(c.Payload, 4)),
		W: int(i32At(c.Payload, 8)), H: int(i32At(c.Payload, 12)),
		Style: st,
	}, nil
}

// DrawTextPayload is the decoded form of an OpDrawText command.
type DrawTextPayload struct {
	X, Y  int
	Text  string
	Style Style
}

func (d *Decoded) DecodeDrawText(c Command) (DrawTextPayload, error) {
	if len(c.Payload) < 8+refSize+styleEncodedSize {
		return DrawTextPayload{}, formatErr(c.Offset, "truncated draw-text payload")
	}
	ref := getRef(c.Payload[8 : 8+refSize])
	text, err := d.ResolveString(stringRef2Public(ref))
	if err != nil {
		return DrawTextPayload{}, err
	}
	st, err := d.decodeStyle(c.Payload[8+refSize:])
	if err != nil {
		return DrawTextPayload{}, err
	}
	return DrawTextPayload{X: int(i32At(c.Payload, 0)), Y: int(i32At(c.Payload, 4)), Text: text, Style: st}, nil
}

// TextRunPayload is the decoded form of an OpDrawTextRun command.
type TextRunPayload struct {
	X, Y int
	Blob []byte
}

func (d *Decoded) DecodeDrawTextRun(c Command) (TextRunPayload, error) {
	if len(c.Payload) < 8+refSize {
		return TextRunPayload{}, formatErr(c.Offset, "truncated draw-text-run payload")
	}
	ref := getRef(c.Payload[8 : 8+refSize])
	blob, err := d.ResolveBlob(stringRef2Public(ref))
	if err != nil {
		return TextRunPayload{}, err
	}
	return TextRunPayload{X: int(i32At(c.Payload, 0)), Y: int(i32At(c.Payload, 4)), Blob: blob}, nil
}

// DecodeTextRunSegments decodes a text-run blob (as produced by
// Builder.AddTextRunBlob) into its styled segments.
func DecodeTextRunSegments(blob []byte) ([]TextRunSegment, error) {
	if len(blob) < 4 {
		return nil, formatErr(0, "truncated text-run blob")
	}
	n := binary.LittleEndian.Uint32(blob[0:4])
	pos := 4
	segs := make([]TextRunSegment, 0, n)
	for i := uint32(0); i < n; i++ {
		if pos+4 > len(blob) {
			return nil, formatErr(pos, "truncated text-run segment length")
		}
		tl := int(binary.LittleEndian.Uint32(blob[pos : pos+4]))
		pos += 4
		if pos+tl > len(blob) {
			return nil, formatErr(pos, "truncated text-run segment text")
		}
		text := string(blob[pos : pos+tl])
		pos += tl
		if pad := (4 - tl%4) % 4; pad > 0 {
			pos += pad
		}
		if pos+16 > len(blob) {
			return nil, formatErr(pos, "truncated text-run segment style")
		}
		flags := binary.LittleEndian.Uint16(blob[pos : pos+2])
		st := Style{
			HasFg:          flags&styleFlagHasFg != 0,
			HasBg:          flags&styleFlagHasBg != 0,
			HasUnderlineFg: flags&styleFlagHasUnderlineColor != 0,
			Attrs:          flags &^ (styleFlagHasFg | styleFlagHasBg | styleFlagHasUnderlineColor),
			Underline:      UnderlineStyle(blob[pos+3]),
			Fg:             binary.LittleEndian.Uint32(blob[pos+4 : pos+8]),
			Bg:             binary.LittleEndian.Uint32(blob[pos+8 : pos+12]),
			UnderlineFg:    binary.LittleEndian.Uint32(blob[pos+12 : pos+16]),
		}
		pos += 16
		var err error
		st.LinkURI, pos, err = readLenPrefixed(blob, pos)
		if err != nil {
			return nil, err
		}
		st.LinkID, pos, err = readLenPrefixed(blob, pos)
		if err != nil {
			return nil, err
		}
		text = text // keep explicit for clarity of flow
		segs = append(segs, TextRunSegment{Text: text, Style: st})
	}
	return segs, nil
}

func readLenPrefixed(buf []byte, pos int) (string, int, error) {
	if pos+4 > len(buf) {
		return "", pos, formatErr(pos, "truncated length-prefixed string")
	}
	l := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
	pos += 4
	if pos+l > len(buf) {
		return "", pos, formatErr(pos, "truncated length-prefixed string body")
	}
	s := string(buf[pos : pos+l])
	pos += l
	if pad := (4 - l%4) % 4; pad > 0 {
		pos += pad
	}
	return s, pos, nil
}

// PushClipPayload is the decoded form of an OpPushClip command.
type PushClipPayload struct{ X, Y, W, H int }

func (d *Decoded) DecodePushClip(c Command) (PushClipPayload, error) {
	if len(c.Payload) < 16 {
		return PushClipPayload{}, formatErr(c.Offset, "truncated push-clip payload")
	}
	return PushClipPayload{
		X: int(i32At(c.Payload, 0)), Y: int(i32At(c.Payload, 4)),
		W: int(i32At(c.Payload, 8)), H: int(i32At(c.Payload, 12)),
	}, nil
}

// SetCursorPayload is the decoded form of an OpSetCursor command.
type SetCursorPayload struct {
	X, Y           int
	Shape          CursorShape
	Visible, Blink bool
}

func (d *Decoded) DecodeSetCursor(c Command) (SetCursorPayload, error) {
	if len(c.Payload) < 12 {
		return SetCursorPayload{}, formatErr(c.Offset, "truncated set-cursor payload")
	}
	return SetCursorPayload{
		X: int(i32At(c.Payload, 0)), Y: int(i32At(c.Payload, 4)),
		Shape: CursorShape(c.Payload[8]), Visible: c.Payload[9] != 0, Blink: c.Payload[10] != 0,
	}, nil
}

// SetLinkPayload is the decoded form of an OpSetLink command.
type SetLinkPayload struct {
	URI string
	ID  string
	Set bool
}

func (d *Decoded) DecodeSetLink(c Command) (SetLinkPayload, error) {
	if len(c.Payload) < 2*refSize {
		return SetLinkPayload{}, formatErr(c.Offset, "truncated set-link payload")
	}
	uriRef := getRef(c.Payload[0:refSize])
	idRef := getRef(c.Payload[refSize:])
	uri, err := d.ResolveString(stringRef2Public(uriRef))
	if err != nil {
		return SetLinkPayload{}, err
	}
	id, err := d.ResolveString(stringRef2Public(idRef))
	if err != nil {
		return SetLinkPayload{}, err
	}
	return SetLinkPayload{URI: uri, ID: id, Set: uriRef.isSet()}, nil
}

// DrawCanvasPayload is the decoded form of an OpDrawCanvas command.
type DrawCanvasPayload struct {
	X, Y, W, H int
	Blob       []byte
	Blitter    Blitter
	PxW, PxH   int
}

func (d *Decoded) DecodeDrawCanvas(c Command) (DrawCanvasPayload, error) {
	if len(c.Payload) < 40 {
		return DrawCanvasPayload{}, formatErr(c.Offset, "truncated draw-canvas payload")
	}
	ref := getRef(c.Payload[16:28])
	blob, err := d.ResolveBlob(stringRef2Public(ref))
	if err != nil {
		return DrawCanvasPayload{}, err
	}
	return DrawCanvasPayload{
		X: int(i32At(c.Payload, 0)), Y: int(i32At(c.Payload, 4)),
		W: int(i32At(c.Payload, 8)), H: int(i32At(c.Payload, 12)),
		Blob: blob, Blitter: Blitter(c.Payload[28]),
		PxW: int(i32At(c.Payload, 32)), PxH: int(i32At(c.Payload, 36)),
	}, nil
}

// DrawImagePayload is the decoded form of an OpDrawImage command.
type DrawImagePayload struct {
	X, Y, W, H int
	Blob       []byte
	Format     ImageFormat
	Protocol   ImageProtocol
	Z          int
	Fit        ImageFit
	ImageID    string
	PxW, PxH   int
}

func (d *Decoded) DecodeDrawImage(c Command) (DrawImagePayload, error) {
	if len(c.Payload) < 16+refSize+4+refSize+8 {
		return DrawImagePayload{}, formatErr(c.Offset, "truncated draw-image payload")
	}
	blobRef := getRef(c.Payload[16 : 16+refSize])
	blob, err := d.ResolveBlob(stringRef2Public(blobRef))
	if err != nil {
		return DrawImagePayload{}, err
	}
	off := 16 + refSize
	format := ImageFormat(c.Payload[off])
	protocol := ImageProtocol(c.Payload[off+1])
	z := int(int8(c.Payload[off+2]))
	fit := ImageFit(c.Payload[off+3])
	off += 4
	idRef := getRef(c.Payload[off : off+refSize])
	imageID, err := d.ResolveString(stringRef2Public(idRef))
	if err != nil {
		return DrawImagePayload{}, err
	}
	off += refSize
	return DrawImagePayload{
		X: int(i32At(c.Payload, 0)), Y: int(i32At(c.Payload, 4)),
		W: int(i32At(c.Payload, 8)), H: int(i32At(c.Payload, 12)),
		Blob: blob, Format: format, Protocol: protocol, Z: z, Fit: fit, ImageID: imageID,
		PxW: int(i32At(c.Payload, off)), PxH: int(i32At(c.Payload, off+4)),
	}, nil
}
