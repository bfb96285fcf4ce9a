// Package theme loads the color and style palette a running App paints
// with from a TOML file.
package theme

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Palette is a TOML-decodable color and style theme. Colors are packed
// 0xRRGGBB values written in TOML as a "#rrggbb" string.
type Palette struct {
	Name string `toml:"name"`

	Foreground Color `toml:"foreground"`
	Background Color `toml:"background"`
	Border     Color `toml:"border"`
	Accent     Color `toml:"accent"`
	Muted      Color `toml:"muted"`
	Danger     Color `toml:"danger"`
	Success    Color `toml:"success"`
	Warning    Color `toml:"warning"`

	// Bold, when true, renders Accent-colored text with the bold
	// attribute in addition to color — some themes rely on color alone
	// for emphasis, others want both.
	Bold bool `toml:"bold"`
}

// Color is a packed 0xRRGGBB value that unmarshals from TOML as a
// "#rrggbb" string, so a theme file reads like CSS rather than a
// decimal integer.
type Color uint32

// UnmarshalTOML implements toml.Unmarshaler so a Color field can be
// written as a "#rrggbb" string in a theme file instead of a decimal
// integer.
func (c *Color) UnmarshalTOML(data any) error {
	s, ok := data.(string)
	if !ok || len(s) != 7 || s[0] != '#' {
		return fmt.Errorf("theme: invalid color %v, want \"#rrggbb\"", data)
	}
	var v uint32
	if _, err := fmt.Sscanf(s[1:], "%06x", &v); err != nil {
		return fmt.Errorf("theme: invalid color %q: %w", s, err)
	}
	*c = Color(v)
	return nil
}

// String renders the color back as "#rrggbb".
func (c Color) String() string { return fmt.Sprintf("#%06x", uint32(c)) }

// Packed returns the color as the 0xRRGGBB value pkg/paint expects.
func (c Color) Packed() uint32 { return uint32(c) }

// Default is the palette used when no theme file is found.
func Default() Palette {
	return Palette{
		Name:       "default",
		Foreground: 0xe6e6e6,
		Background: 0x1e1e1e,
		Border:     0x4a4a4a,
		Accent:     0x5fafff,
		Muted:      0x808080,
		Danger:     0xff5f5f,
		Success:    0x87d787,
		Warning:    0xd7af5f,
	}
}

// Load decodes a theme file at path into a Palette, starting from
// Default so a theme file only needs to override the colors it cares
// about.
func Load(path string) (Palette, error) {
	p := Default()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Palette{}, errors.Wrapf(err, "theme: parsing %s", path)
	}
	return p, nil
}

// Find searches for a "theme.toml" file starting from dir and walking up
// to parent directories, stopping at a directory containing ".git" (the
// project boundary). Returns
// ("", Default(), nil) if no theme file is found — not an error, since
// running without a custom theme is the expected common case.
func Find(dir string) (string, Palette, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", Palette{}, err
	}
	for {
		path := filepath.Join(dir, "theme.toml")
		if _, err := os.Stat(path); err == nil {
			p, err := Load(path)
			if err != nil {
				return "", Palette{}, err
			}
			return path, p, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", Default(), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", Default(), nil
		}
		dir = parent
	}
}
