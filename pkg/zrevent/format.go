package zrevent

// Magic is the event stream format magic, "ZREV" read as a little-endian u32.
const Magic uint32 = 0x5645525a

// Version is the event format version this package writes. Decode accepts
// any version present in supportedVersions.
const Version uint32 = 1

var supportedVersions = map[uint32]bool{1: true}

// StreamHeaderSize is the fixed size, in bytes, of the stream preamble.
//
//	[ 0: 4) magic
//	[ 4: 8) version
//	[ 8:12) total size
//	[12:16) event count
const StreamHeaderSize = 16

// recordHeaderSize is one event record's fixed header: type u16, flags u16,
// size u32 (header + payload, 4-byte aligned).
const recordHeaderSize = 8

// Type identifies the kind of event carried by one record.
type Type uint16

const (
	TypeKey Type = 1 + iota
	TypeText
	TypeMouse
	TypePaste
	TypeResize
	TypeFocusIn
	TypeFocusOut
)

func (t Type) String() string {
	switch t {
	case TypeKey:
		return "key"
	case TypeText:
		return "text"
	case TypeMouse:
		return "mouse"
	case TypePaste:
		return "paste"
	case TypeResize:
		return "resize"
	case TypeFocusIn:
		return "focus-in"
	case TypeFocusOut:
		return "focus-out"
	default:
		return "unknown"
	}
}

// Mod bits, packed into a key or mouse record's modifier byte.
const (
	ModShift uint8 = 1 << iota
	ModAlt
	ModCtrl
	ModMeta
)

// KeyCode identifies a non-printable key. Printable keys are carried as a
// rune in Rune and KeyCode is zero.
type KeyCode uint8

const (
	KeyNone KeyCode = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// MouseAction enumerates mouse record actions.
type MouseAction uint8

const (
	MouseDown MouseAction = iota
	MouseUp
	MouseMove
	MouseWheelUp
	MouseWheelDown
)

// MouseButton enumerates the button a mouse record refers to.
type MouseButton uint8

const (
	MouseButtonNone MouseButton = iota
	MouseButtonLeft
	MouseButtonMiddle
	MouseButtonRight
)
