package zrevent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	e := NewEncoder()
	e.AddKey('a', KeyNone, ModCtrl, false)
	e.AddText("héllo")
	e.AddMouse(10, 4, MouseButtonLeft, MouseDown, 0)
	e.AddPaste("pasted\ncontent", true)
	e.AddResize(80, 24, 800, 480)
	e.AddFocusIn()
	e.AddFocusOut()

	data, err := e.Build()
	require.NoError(t, err)
	require.NoError(t, e.Err())

	d, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, Version, d.Version())
	require.EqualValues(t, 7, d.Count())

	it := d.Records()

	rec, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, TypeKey, rec.Type)
	key, err := DecodeKey(rec)
	require.NoError(t, err)
	require.Equal(t, 'a', key.Rune)
	require.Equal(t, ModCtrl, key.Mods)

	rec, ok = it.Next()
	require.True(t, ok)
	text, err := DecodeText(rec)
	require.NoError(t, err)
	require.Equal(t, "héllo", text)

	rec, ok = it.Next()
	require.True(t, ok)
	mouse, err := DecodeMouse(rec)
	require.NoError(t, err)
	require.Equal(t, 10, mouse.X)
	require.Equal(t, 4, mouse.Y)
	require.Equal(t, MouseButtonLeft, mouse.Button)
	require.Equal(t, MouseDown, mouse.Action)

	rec, ok = it.Next()
	require.True(t, ok)
	paste, err := DecodePaste(rec)
	require.NoError(t, err)
	require.Equal(t, "pasted\ncontent", paste.Data)
	require.True(t, paste.Bracketed)

	rec, ok = it.Next()
	require.True(t, ok)
	resize, err := DecodeResize(rec)
	require.NoError(t, err)
	require.Equal(t, 80, resize.Cols)
	require.Equal(t, 24, resize.Rows)
	require.Equal(t, 800, resize.PxW)

	rec, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, TypeFocusIn, rec.Type)

	rec, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, TypeFocusOut, rec.Type)

	_, ok = it.Next()
	require.False(t, ok)
	require.NoError(t, it.Err())
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	data := make([]byte, StreamHeaderSize)
	_, err := Decode(data)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, CodeFormat, zerr.Code)
}

func TestDecode_RejectsUnsupportedVersion(t *testing.T) {
	e := NewEncoder()
	e.AddFocusIn()
	data, err := e.Build()
	require.NoError(t, err)
	// Corrupt the version field to a value never added to supportedVersions.
	data[4] = 0xff

	_, err = Decode(data)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, CodeUnsupported, zerr.Code)
}

func TestRecordIter_UnknownTypeIsNotAFormatError(t *testing.T) {
	e := NewEncoder()
	e.AddFocusIn()
	data, err := e.Build()
	require.NoError(t, err)

	// Overwrite the declared type with a value beyond the known range; the
	// record's declared size still lets a reader skip it cleanly.
	data[StreamHeaderSize] = 0xEE

	d, err := Decode(data)
	require.NoError(t, err)
	it := d.Records()
	rec, ok := it.Next()
	require.True(t, ok)
	require.False(t, IsSupported(rec.Type))
	require.NoError(t, it.Err())
}

func TestEncoder_MouseRejectsOutOfRangeCoordinates(t *testing.T) {
	e := NewEncoder()
	e.AddMouse(1<<40, 0, MouseButtonLeft, MouseDown, 0)
	require.Error(t, e.Err())

	e.AddFocusIn()
	_, err := e.Build()
	require.Error(t, err, "sticky error must poison subsequent calls including Build")
}

func TestEncoder_Reset(t *testing.T) {
	e := NewEncoder()
	e.AddMouse(1<<40, 0, MouseButtonLeft, MouseDown, 0)
	require.Error(t, e.Err())
	e.Reset()
	require.NoError(t, e.Err())
	e.AddFocusIn()
	data, err := e.Build()
	require.NoError(t, err)
	d, err := Decode(data)
	require.NoError(t, err)
	require.EqualValues(t, 1, d.Count())
}

func TestTypeStringer(t *testing.T) {
	require.Equal(t, "key", TypeKey.String())
	require.Equal(t, "focus-out", TypeFocusOut.String())
	require.Equal(t, "unknown", Type(999).String())
}
