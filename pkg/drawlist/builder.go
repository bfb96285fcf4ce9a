package drawlist

import (
	"encoding/binary"
	"math"
)

// Caps bounds the resources a single Builder frame may consume. A zero
// value in any field means "no cap" for that resource.
type Caps struct {
	MaxCmdCount      int
	MaxStrings       int
	MaxStringBytes   int
	MaxBlobBytes     int
	MaxDrawlistBytes int
}

// DefaultCaps returns generous per-frame caps suitable for interactive use.
func DefaultCaps() Caps {
	return Caps{
		MaxCmdCount:      1 << 16,
		MaxStrings:       1 << 15,
		MaxStringBytes:   8 << 20,
		MaxBlobBytes:     64 << 20,
		MaxDrawlistBytes: 96 << 20,
	}
}

type internEntry struct{ offset, len uint32 }

// CursorShape selects the hardware cursor glyph for set-cursor.
type CursorShape uint8

const (
	CursorBlock CursorShape = iota
	CursorUnderline
	CursorBar
)

// TextRunSegment is one styled run within a draw-text-run blob.
type TextRunSegment struct {
	Text  string
	Style Style
}

// Builder accumulates drawlist commands for a single frame. All errors are
// sticky: once Err is non-nil every subsequent call is a silent no-op until
// Reset.
type Builder struct {
	caps Caps
	err  *Error

	cmds     []byte
	cmdCount uint32

	internIdx   map[string]uint32 // byte string -> 1-based intern id
	stringSpans []internEntry
	stringBytes []byte

	blobSpans []internEntry
	blobBytes []byte

	linkSet bool
	linkURI string
	linkID  string

	clipDepth int

	// ReuseOutputBuffer opts into handing back a Builder-owned buffer from
	// Build, invalidating any slice returned by a previous Build call. See
	// BuildInto for the caller-supplied-buffer variant.
	ReuseOutputBuffer bool
	out               []byte
}

// NewBuilder creates a Builder with the given caps. A zero Caps uses
// DefaultCaps.
func NewBuilder(caps Caps) *Builder {
	b := &Builder{caps: caps}
	if b.caps == (Caps{}) {
		b.caps = DefaultCaps()
	}
	b.internIdx = make(map[string]uint32)
	return b
}

// Err returns the sticky error, if any, poisoning the current frame.
func (b *Builder) Err() error {
	if b.err == nil {
		return nil
	}
	return b.err
}

func (b *Builder) fail(e *Error) {
	if b.err == nil {
		b.err = e
	}
}

func (b *Builder) poisoned() bool { return b.err != nil }

// Reset clears all accumulated state, including the sticky error, and
// starts a fresh intern-id space.
func (b *Builder) Reset() {
	b.err = nil
	b.cmds = b.cmds[:0]
	b.cmdCount = 0
	b.internIdx = make(map[string]uint32)
	b.stringSpans = b.stringSpans[:0]
	b.stringBytes = b.stringBytes[:0]
	b.blobSpans = b.blobSpans[:0]
	b.blobBytes = b.blobBytes[:0]
	b.linkSet = false
	b.linkURI = ""
	b.linkID = ""
	b.clipDepth = 0
}

func fitsI32(v int) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }
func fitsU16(v int) bool { return v >= 0 && v <= math.MaxUint16 }

// internString deduplicates identical UTF-8 byte sequences within the
// frame and returns a fully-resolved ref covering the whole string.
func (b *Builder) internString(s string) (stringRef, bool) {
	if s == "" {
		return stringRef{}, true
	}
	if id, ok := b.internIdx[s]; ok {
		e := b.stringSpans[id-1]
		return stringRef{id: id, byteOff: 0, byteLen: e.len}, true
	}
	if b.caps.MaxStrings > 0 && len(b.stringSpans) >= b.caps.MaxStrings {
		b.fail(tooLarge("string intern table full"))
		return stringRef{}, false
	}
	if b.caps.MaxStringBytes > 0 && len(b.stringBytes)+len(s) > b.caps.MaxStringBytes {
		b.fail(tooLarge("string arena exceeds cap"))
		return stringRef{}, false
	}
	off := uint32(len(b.stringBytes))
	b.stringBytes = append(b.stringBytes, s...)
	b.stringSpans = append(b.stringSpans, internEntry{offset: off, len: uint32(len(s))})
	id := uint32(len(b.stringSpans))
	b.internIdx[s] = id
	return stringRef{id: id, byteOff: 0, byteLen: uint32(len(s))}, true
}

// AddBlob appends a new blob span (not interned; every
// call allocates a fresh span even for identical bytes) and returns its id.
func (b *Builder) AddBlob(data []byte) (uint32, error) {
	if b.poisoned() {
		return 0, b.err
	}
	if b.caps.MaxBlobBytes > 0 && len(b.blobBytes)+len(data) > b.caps.MaxBlobBytes {
		b.fail(tooLarge("blob arena exceeds cap"))
		return 0, b.err
	}
	off := uint32(len(b.blobBytes))
	b.blobBytes = append(b.blobBytes, data...)
	b.blobSpans = append(b.blobSpans, internEntry{offset: off, len: uint32(len(data))})
	return uint32(len(b.blobSpans)), nil
}

func (b *Builder) blobRefFor(id uint32) (blobRef, bool) {
	if id == 0 || int(id) > len(b.blobSpans) {
		b.fail(badParams("blob id out of range"))
		return blobRef{}, false
	}
	e := b.blobSpans[id-1]
	return blobRef{id: id, byteOff: 0, byteLen: e.len}, true
}

// AddTextRunBlob encodes a sequence of styled segments into a blob suitable
// for DrawTextRun and returns its blob id.
func (b *Builder) AddTextRunBlob(segs []TextRunSegment) (uint32, error) {
	if b.poisoned() {
		return 0, b.err
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(segs)))
	for _, seg := range segs {
		tl := len(seg.Text)
		hdr := make([]byte, 4)
		binary.LittleEndian.PutUint32(hdr, uint32(tl))
		buf = append(buf, hdr...)
		buf = append(buf, seg.Text...)
		if pad := (4 - tl%4) % 4; pad > 0 {
			buf = append(buf, make([]byte, pad)...)
		}
		buf = append(buf, encodeStyleInline(seg.Style)...)
	}
	return b.AddBlob(buf)
}

// encodeStyleInline encodes a Style with link strings embedded verbatim
// (length-prefixed) rather than via intern refs, for use inside blobs that
// are not backed by the per-frame string arena.
func encodeStyleInline(s Style) []byte {
	buf := make([]byte, 0, 32)
	flags := s.Attrs
	if s.HasFg {
		flags |= styleFlagHasFg
	}
	if s.HasBg {
		flags |= styleFlagHasBg
	}
	if s.HasUnderlineFg {
		flags |= styleFlagHasUnderlineColor
	}
	tmp := make([]byte, 16)
	binary.LittleEndian.PutUint16(tmp[0:2], flags)
	tmp[2] = 0
	tmp[3] = byte(s.Underline)
	binary.LittleEndian.PutUint32(tmp[4:8], s.Fg)
	binary.LittleEndian.PutUint32(tmp[8:12], s.Bg)
	binary.LittleEndian.PutUint32(tmp[12:16], s.UnderlineFg)
	buf = append(buf, tmp...)
	buf = appendLenPrefixed(buf, s.LinkURI)
	buf = appendLenPrefixed(buf, s.LinkID)
	return buf
}

func appendLenPrefixed(buf []byte, s string) []byte {
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint32(hdr, uint32(len(s)))
	buf = append(buf, hdr...)
	buf = append(buf, s...)
	if pad := (4 - len(s)%4) % 4; pad > 0 {
		buf = append(buf, make([]byte, pad)...)
	}
	return buf
}

// styleWithLink returns s with the active embedded link applied, unless s
// already specifies one explicitly.
func (b *Builder) styleWithLink(s Style) Style {
	if !b.linkSet || s.LinkURI != "" {
		return s
	}
	s.LinkURI = b.linkURI
	s.LinkID = b.linkID
	return s
}

// encodeStyle writes a Style's fixed-size wire form (with link strings
// interned into the frame's string arena) into the command buffer.
func (b *Builder) encodeStyle(s Style) ([]byte, bool) {
	uriRef, ok := b.internString(s.LinkURI)
	if !ok {
		return nil, false
	}
	idRef, ok := b.internString(s.LinkID)
	if !ok {
		return nil, false
	}
	buf := make([]byte, styleEncodedSize)
	flags := s.Attrs
	if s.HasFg {
		flags |= styleFlagHasFg
	}
	if s.HasBg {
		flags |= styleFlagHasBg
	}
	if s.HasUnderlineFg {
		flags |= styleFlagHasUnderlineColor
	}
	binary.LittleEndian.PutUint16(buf[0:2], flags)
	buf[2] = 0
	buf[3] = byte(s.Underline)
	binary.LittleEndian.PutUint32(buf[4:8], s.Fg)
	binary.LittleEndian.PutUint32(buf[8:12], s.Bg)
	binary.LittleEndian.PutUint32(buf[12:16], s.UnderlineFg)
	putRef(buf[16:28], uriRef)
	putRef(buf[28:40], idRef)
	return buf, true
}

// appendCmd appends a command header + payload, zero-padding the end of the
// payload to a 4-byte boundary, and enforces the MaxCmdCount / MaxDrawlistBytes caps.
func (b *Builder) appendCmd(op Opcode, flags uint16, payload []byte) {
	if b.poisoned() {
		return
	}
	if b.caps.MaxCmdCount > 0 && int(b.cmdCount)+1 > b.caps.MaxCmdCount {
		b.fail(tooLarge("command count exceeds cap"))
		return
	}
	pad := (4 - len(payload)%4) % 4
	size := cmdHeaderSize + len(payload) + pad
	hdr := make([]byte, cmdHeaderSize)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(op))
	binary.LittleEndian.PutUint16(hdr[2:4], flags)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(size))
	b.cmds = append(b.cmds, hdr...)
	b.cmds = append(b.cmds, payload...)
	if pad > 0 {
		b.cmds = append(b.cmds, make([]byte, pad)...)
	}
	b.cmdCount++
	if b.caps.MaxDrawlistBytes > 0 && b.estimatedSize() > b.caps.MaxDrawlistBytes {
		b.fail(tooLarge("drawlist size exceeds cap"))
	}
}

func (b *Builder) estimatedSize() int {
	return HeaderSize + len(b.cmds) +
		len(b.stringSpans)*spanEntrySize + len(b.stringBytes) +
		len(b.blobSpans)*spanEntrySize + len(b.blobBytes)
}

func putI32(buf []byte, off int, v int32) { binary.LittleEndian.PutUint32(buf[off:off+4], uint32(v)) }

// Clear emits a full-viewport clear command.
func (b *Builder) Clear() {
	b.appendCmd(OpClear, 0, nil)
}

// FillRect fills a rectangle with an optional style (nil uses no style).
func (b *Builder) FillRect(x, y, w, h int, style *Style) {
	if b.poisoned() {
		return
	}
	if !fitsI32(x) || !fitsI32(y) || !fitsI32(w) || !fitsI32(h) || w < 0 || h < 0 {
		b.fail(badParams("fill-rect: out-of-range or negative size"))
		return
	}
	st := Style{}
	if style != nil {
		st = *style
	}
	styleBuf, ok := b.encodeStyle(b.styleWithLink(st))
	if !ok {
		return
	}
	payload := make([]byte, 16+len(styleBuf))
	putI32(payload, 0, int32(x))
	putI32(payload, 4, int32(y))
	putI32(payload, 8, int32(w))
	putI32(payload, 12, int32(h))
	copy(payload[16:], styleBuf)
	b.appendCmd(OpFillRect, 0, payload)
}

// DrawText draws text at (x,y) with an optional style.
func (b *Builder) DrawText(x, y int, text string, style *Style) {
	if b.poisoned() {
		return
	}
	if !fitsI32(x) || !fitsI32(y) {
		b.fail(badParams("draw-text: coordinates out of range"))
		return
	}
	textRef, ok := b.internString(text)
	if !ok {
		return
	}
	st := Style{}
	if style != nil {
		st = *style
	}
	styleBuf, ok := b.encodeStyle(b.styleWithLink(st))
	if !ok {
		return
	}
	payload := make([]byte, 8+refSize+len(styleBuf))
	putI32(payload, 0, int32(x))
	putI32(payload, 4, int32(y))
	putRef(payload[8:8+refSize], textRef)
	copy(payload[8+refSize:], styleBuf)
	b.appendCmd(OpDrawText, 0, payload)
}

// DrawTextRun draws a pre-built styled-segment blob at (x,y).
func (b *Builder) DrawTextRun(x, y int, blobID uint32) {
	if b.poisoned() {
		return
	}
	if !fitsI32(x) || !fitsI32(y) {
		b.fail(badParams("draw-text-run: coordinates out of range"))
		return
	}
	ref, ok := b.blobRefFor(blobID)
	if !ok {
		return
	}
	payload := make([]byte, 8+refSize)
	putI32(payload, 0, int32(x))
	putI32(payload, 4, int32(y))
	putRef(payload[8:], ref)
	b.appendCmd(OpDrawTextRun, 0, payload)
}

// PushClip pushes a clip rectangle.
func (b *Builder) PushClip(x, y, w, h int) {
	if b.poisoned() {
		return
	}
	if !fitsI32(x) || !fitsI32(y) || w < 0 || h < 0 {
		b.fail(badParams("push-clip: out-of-range or negative size"))
		return
	}
	payload := make([]byte, 16)
	putI32(payload, 0, int32(x))
	putI32(payload, 4, int32(y))
	putI32(payload, 8, int32(w))
	putI32(payload, 12, int32(h))
	b.appendCmd(OpPushClip, 0, payload)
	b.clipDepth++
}

// PopClip pops the innermost clip rectangle.
func (b *Builder) PopClip() {
	if b.poisoned() {
		return
	}
	if b.clipDepth == 0 {
		b.fail(badParams("pop-clip: no matching push-clip"))
		return
	}
	b.appendCmd(OpPopClip, 0, nil)
	b.clipDepth--
}

// SetCursor positions and configures the hardware cursor.
func (b *Builder) SetCursor(x, y int, shape CursorShape, visible, blink bool) {
	if b.poisoned() {
		return
	}
	if !fitsI32(x) || !fitsI32(y) {
		b.fail(badParams("set-cursor: coordinates out of range"))
		return
	}
	payload := make([]byte, 12)
	putI32(payload, 0, int32(x))
	putI32(payload, 4, int32(y))
	payload[8] = byte(shape)
	if visible {
		payload[9] = 1
	}
	if blink {
		payload[10] = 1
	}
	b.appendCmd(OpSetCursor, 0, payload)
}

// HideCursor hides the hardware cursor.
func (b *Builder) HideCursor() {
	b.appendCmd(OpHideCursor, 0, nil)
}

// SetLink sets (uri != nil) or clears (uri == nil) the active embedded link
// applied to every subsequent DrawText/DrawTextRun style that does not set
// its own LinkURI.
func (b *Builder) SetLink(uri *string, id string) {
	if b.poisoned() {
		return
	}
	if uri == nil {
		b.linkSet = false
		b.linkURI = ""
		b.linkID = ""
	} else {
		b.linkSet = true
		b.linkURI = *uri
		b.linkID = id
	}
	uriRef, ok := b.internString(stringOrEmpty(uri))
	if !ok {
		return
	}
	idRef, ok := b.internString(id)
	if !ok {
		return
	}
	payload := make([]byte, 2*refSize)
	putRef(payload[0:refSize], uriRef)
	putRef(payload[refSize:], idRef)
	b.appendCmd(OpSetLink, 0, payload)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// DrawCanvas draws a pixel canvas via blitter into the destination rect. If
// pxW/pxH are both 0, pixel dimensions are derived from the blitter's
// subcell resolution against (w,h), falling back to blobLen/4 divided by
// the destination width for an RGBA blob when that also yields a clean
// division.
func (b *Builder) DrawCanvas(x, y, w, h int, blob []byte, blitter Blitter, pxW, pxH int) {
	if b.poisoned() {
		return
	}
	if !fitsI32(x) || !fitsI32(y) || w <= 0 || h <= 0 {
		b.fail(badParams("draw-canvas: invalid rect"))
		return
	}
	if pxW == 0 && pxH == 0 {
		cx, cy := blitter.CellsPerPixel()
		pxW, pxH = w*cx, h*cy
		if len(blob) != pxW*pxH*4 && len(blob)%4 == 0 && (len(blob)/4)%w == 0 {
			pxW, pxH = w, len(blob)/4/w
		}
	}
	if pxW <= 0 || pxH <= 0 {
		b.fail(badParams("draw-canvas: could not derive pixel dimensions"))
		return
	}
	if len(blob) != pxW*pxH*4 {
		b.fail(badParams("draw-canvas: blob length does not match pxW*pxH*4"))
		return
	}
	ref, err := b.AddBlob(blob)
	if err != nil {
		return
	}
	blobR, _ := b.blobRefFor(ref)
	payload := make([]byte, 40)
	putI32(payload, 0, int32(x))
	putI32(payload, 4, int32(y))
	putI32(payload, 8, int32(w))
	putI32(payload, 12, int32(h))
	putRef(payload[16:28], blobR)
	payload[28] = byte(blitter)
	putI32(payload, 32, int32(pxW))
	putI32(payload, 36, int32(pxH))
	b.appendCmd(OpDrawCanvas, 0, payload)
}

// DrawImage draws an image blob into the destination rect on the given
// z-layer (-1, 0, or 1). protocol must not be a "blitter" placeholder —
// callers needing cell-blitted pixel art must use DrawCanvas instead.
func (b *Builder) DrawImage(x, y, w, h int, blob []byte, format ImageFormat, protocol ImageProtocol, z int, fit ImageFit, imageID string, pxW, pxH int) {
	if b.poisoned() {
		return
	}
	if !fitsI32(x) || !fitsI32(y) || w <= 0 || h <= 0 {
		b.fail(badParams("draw-image: invalid rect"))
		return
	}
	if z < -1 || z > 1 {
		b.fail(badParams("draw-image: z-layer must be -1, 0, or 1"))
		return
	}
	if pxW == 0 && pxH == 0 && format == ImageFormatRGBA && len(blob)%4 == 0 {
		total := len(blob) / 4
		if w > 0 && total%w == 0 {
			pxW, pxH = w, total/w
		}
	}
	ref, err := b.AddBlob(blob)
	if err != nil {
		return
	}
	blobR, _ := b.blobRefFor(ref)
	idRef, ok := b.internString(imageID)
	if !ok {
		return
	}
	payload := make([]byte, 16+refSize+4+refSize+8)
	putI32(payload, 0, int32(x))
	putI32(payload, 4, int32(y))
	putI32(payload, 8, int32(w))
	putI32(payload, 12, int32(h))
	putRef(payload[16:16+refSize], blobR)
	off := 16 + refSize
	payload[off] = byte(format)
	payload[off+1] = byte(protocol)
	payload[off+2] = byte(int8(z))
	payload[off+3] = byte(fit)
	off += 4
	putRef(payload[off:off+refSize], idRef)
	off += refSize
	putI32(payload, off, int32(pxW))
	putI32(payload, off+4, int32(pxH))
	b.appendCmd(OpDrawImage, 0, payload)
}

// Build assembles the final drawlist byte slice. If ReuseOutputBuffer is
// set, the returned slice is owned by the Builder and invalidated by the
// next Build/BuildInto/Reset call.
func (b *Builder) Build() ([]byte, error) {
	if b.poisoned() {
		return nil, b.err
	}
	total := b.estimatedSize()
	var dst []byte
	if b.ReuseOutputBuffer {
		if cap(b.out) < total {
			b.out = make([]byte, total)
		}
		dst = b.out[:total]
	} else {
		dst = make([]byte, total)
	}
	n, err := b.encodeInto(dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// BuildInto writes the drawlist into dst, failing with CodeLimit if dst is
// too small.
func (b *Builder) BuildInto(dst []byte) (int, error) {
	if b.poisoned() {
		return 0, b.err
	}
	need := b.estimatedSize()
	if len(dst) < need {
		return 0, tooLarge("BuildInto: destination buffer too small")
	}
	return b.encodeInto(dst)
}

func (b *Builder) encodeInto(dst []byte) (int, error) {
	stringsSpanOff := HeaderSize
	stringsSpanBytes := len(b.stringSpans) * spanEntrySize
	stringsBytesOff := stringsSpanOff + stringsSpanBytes
	stringsBytesLen := len(b.stringBytes)

	blobsSpanOff := stringsBytesOff + stringsBytesLen
	blobsSpanBytes := len(b.blobSpans) * spanEntrySize
	blobsBytesOff := blobsSpanOff + blobsSpanBytes
	blobsBytesLen := len(b.blobBytes)

	cmdOff := blobsBytesOff + blobsBytesLen
	cmdBytes := len(b.cmds)
	total := cmdOff + cmdBytes

	if total > len(dst) {
		return 0, tooLarge("encodeInto: computed size exceeds destination")
	}

	h := dst[:HeaderSize]
	binary.LittleEndian.PutUint32(h[0:4], Magic)
	binary.LittleEndian.PutUint32(h[4:8], Version)
	binary.LittleEndian.PutUint32(h[8:12], HeaderSize)
	binary.LittleEndian.PutUint32(h[12:16], uint32(total))
	binary.LittleEndian.PutUint32(h[16:20], uint32(cmdOff))
	binary.LittleEndian.PutUint32(h[20:24], uint32(cmdBytes))
	binary.LittleEndian.PutUint32(h[24:28], b.cmdCount)
	binary.LittleEndian.PutUint32(h[28:32], uint32(stringsSpanOff))
	binary.LittleEndian.PutUint32(h[32:36], uint32(len(b.stringSpans)))
	binary.LittleEndian.PutUint32(h[36:40], uint32(stringsBytesOff))
	binary.LittleEndian.PutUint32(h[40:44], uint32(stringsBytesLen))
	binary.LittleEndian.PutUint32(h[44:48], uint32(blobsSpanOff))
	binary.LittleEndian.PutUint32(h[48:52], uint32(len(b.blobSpans)))
	binary.LittleEndian.PutUint32(h[52:56], uint32(blobsBytesOff))
	binary.LittleEndian.PutUint32(h[56:60], uint32(blobsBytesLen))
	binary.LittleEndian.PutUint32(h[60:64], 0)

	pos := stringsSpanOff
	for _, e := range b.stringSpans {
		binary.LittleEndian.PutUint32(dst[pos:pos+4], e.offset)
		binary.LittleEndian.PutUint32(dst[pos+4:pos+8], e.len)
		pos += spanEntrySize
	}
	copy(dst[stringsBytesOff:], b.stringBytes)

	pos = blobsSpanOff
	for _, e := range b.blobSpans {
		binary.LittleEndian.PutUint32(dst[pos:pos+4], e.offset)
		binary.LittleEndian.PutUint32(dst[pos+4:pos+8], e.len)
		pos += spanEntrySize
	}
	copy(dst[blobsBytesOff:], b.blobBytes)

	copy(dst[cmdOff:], b.cmds)

	return total, nil
}
