package drawlist

import "encoding/binary"

// Magic is the drawlist format magic, "ZRDL" read as a little-endian u32.
const Magic uint32 = 0x4c44525a

// Version is the current drawlist format version this package writes.
// Decode accepts this version and any version explicitly added to
// supportedVersions; old versions must always keep decoding.
const Version uint32 = 1

var supportedVersions = map[uint32]bool{1: true}

// HeaderSize is the fixed size, in bytes, of the drawlist preamble.
//
//	[ 0: 4) magic
//	[ 4: 8) version
//	[ 8:12) header size
//	[12:16) total size
//	[16:20) cmd offset
//	[20:24) cmd bytes
//	[24:28) cmd count
//	[28:32) strings span offset   [32:36) strings span count
//	[36:40) strings bytes offset  [40:44) strings bytes len
//	[44:48) blobs span offset     [48:52) blobs span count
//	[52:56) blobs bytes offset    [56:60) blobs bytes len
//	[60:64) reserved
const HeaderSize = 64

// spanEntrySize is the size of one (offset,len) entry in a span table.
const spanEntrySize = 8

// refSize is the size of one string/blob reference: id(+1), byteOff, byteLen.
const refSize = 12

// cmdHeaderSize is the size of a command record's fixed header:
// opcode u16, flags u16, size u32.
const cmdHeaderSize = 8

// Opcode identifies a drawlist command.
type Opcode uint16

const (
	OpClear Opcode = 1 + iota
	OpFillRect
	OpDrawText
	OpPushClip
	OpPopClip
	OpDrawTextRun
	OpSetCursor
	OpHideCursor
	OpSetLink
	OpDrawCanvas
	OpDrawImage
)

func (o Opcode) String() string {
	switch o {
	case OpClear:
		return "clear"
	case OpFillRect:
		return "fill-rect"
	case OpDrawText:
		return "draw-text"
	case OpPushClip:
		return "push-clip"
	case OpPopClip:
		return "pop-clip"
	case OpDrawTextRun:
		return "draw-text-run"
	case OpSetCursor:
		return "set-cursor"
	case OpHideCursor:
		return "hide-cursor"
	case OpSetLink:
		return "set-link"
	case OpDrawCanvas:
		return "draw-canvas"
	case OpDrawImage:
		return "draw-image"
	default:
		return "unknown"
	}
}

// Blitter selects the subcell resolution used to pack pixels into cells for
// draw-canvas commands.
type Blitter uint8

const (
	BlitterASCII Blitter = iota
	BlitterHalfBlock
	BlitterQuadrant
	BlitterSextant
	BlitterBraille
)

// CellsPerPixel returns the (columns, rows) of subcell pixel resolution
// packed into one terminal cell for the blitter.
func (b Blitter) CellsPerPixel() (px, py int) {
	switch b {
	case BlitterBraille:
		return 2, 4
	case BlitterSextant:
		return 2, 3
	case BlitterQuadrant:
		return 2, 2
	case BlitterHalfBlock:
		return 1, 2
	default:
		return 1, 1
	}
}

func (b Blitter) String() string {
	switch b {
	case BlitterBraille:
		return "braille"
	case BlitterSextant:
		return "sextant"
	case BlitterQuadrant:
		return "quadrant"
	case BlitterHalfBlock:
		return "halfblock"
	default:
		return "ascii"
	}
}

// ImageProtocol selects the terminal image transport for draw-image.
type ImageProtocol uint8

const (
	ImageProtocolNone ImageProtocol = iota
	ImageProtocolKitty
	ImageProtocolSixel
	ImageProtocolITerm2
)

// ImageFormat is the pixel encoding of an image blob.
type ImageFormat uint8

const (
	ImageFormatRGBA ImageFormat = iota
	ImageFormatIndexed
	ImageFormatPNG
)

// ImageFit controls how an image is fit into its destination rect.
type ImageFit uint8

const (
	ImageFitContain ImageFit = iota
	ImageFitCover
	ImageFitStretch
)

// UnderlineStyle enumerates supported underline renderings.
type UnderlineStyle uint8

const (
	UnderlineNone UnderlineStyle = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineCurly
	UnderlineDotted
	UnderlineDashed
)

// Attr bits, packed into Style.Attrs.
const (
	AttrBold uint16 = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrInverse
	AttrStrike
	AttrOverline
	AttrBlink
)

const (
	styleFlagHasFg uint16 = 1 << iota
	styleFlagHasBg
	styleFlagHasUnderlineColor
)

// Style carries the visual attributes attached to a draw-text or
// fill-rect command. Zero value means "inherit / no style".
type Style struct {
	HasFg bool
	Fg    uint32 // packed 0x00RRGGBB

	HasBg bool
	Bg    uint32

	Attrs uint16 // AttrBold | AttrDim | ...

	Underline      UnderlineStyle
	HasUnderlineFg bool
	UnderlineFg    uint32

	LinkURI string // embedded-ref model: active link is baked into the style
	LinkID  string
}

// styleEncodedSize is the fixed wire size of an encoded Style, not counting
// the variable-length link strings (which are interned separately and
// referenced by ref).
const styleEncodedSize = 2 /*flags*/ + 1 /*attrs pad*/ + 1 /*underline*/ + 4 /*fg*/ + 4 /*bg*/ + 4 /*underlineFg*/ + refSize /*linkURI*/ + refSize /*linkID*/

func putRef(buf []byte, r stringRef) {
	binary.LittleEndian.PutUint32(buf[0:4], r.id)
	binary.LittleEndian.PutUint32(buf[4:8], r.byteOff)
	binary.LittleEndian.PutUint32(buf[8:12], r.byteLen)
}

func getRef(buf []byte) stringRef {
	return stringRef{
		id:      binary.LittleEndian.Uint32(buf[0:4]),
		byteOff: binary.LittleEndian.Uint32(buf[4:8]),
		byteLen: binary.LittleEndian.Uint32(buf[8:12]),
	}
}

// stringRef addresses a byte slice within an intern span table: id 0 means
// absent, otherwise id-1 indexes the span table and (byteOff, byteLen) cuts
// a sub-slice of that entry. blobRef uses the identical shape.
type stringRef struct {
	id      uint32
	byteOff uint32
	byteLen uint32
}

type blobRef = stringRef

func (r stringRef) isSet() bool { return r.id != 0 }
