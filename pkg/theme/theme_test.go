package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_HasAllColorsSet(t *testing.T) {
	d := Default()
	require.Equal(t, "default", d.Name)
	require.NotZero(t, d.Foreground.Packed())
	require.NotZero(t, d.Background.Packed())
}

func TestLoad_OverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
name = "solarized"
accent = "#ff00ff"
bold = true
`), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "solarized", p.Name)
	require.EqualValues(t, 0xff00ff, p.Accent.Packed())
	require.True(t, p.Bold)
	// Unspecified fields keep the Default() values rather than zeroing out.
	require.Equal(t, Default().Background, p.Background)
}

func TestLoad_RejectsMalformedColor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme.toml")
	require.NoError(t, os.WriteFile(path, []byte(`accent = "not-a-color"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestColor_StringRoundTrip(t *testing.T) {
	c := Color(0x5fafff)
	require.Equal(t, "#5fafff", c.String())
}

func TestFind_WalksUpToProjectRootAndFallsBackToDefault(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	path, p, err := Find(sub)
	require.NoError(t, err)
	require.Empty(t, path)
	require.Equal(t, Default(), p)
}

func TestFind_LocatesThemeFileInAncestorDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "theme.toml"), []byte(`name = "found"`), 0o644))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	path, p, err := Find(sub)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "theme.toml"), path)
	require.Equal(t, "found", p.Name)
}
