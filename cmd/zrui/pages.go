package main

import (
	"fmt"

	"github.com/inkterm/zrui/pkg/commit"
	"github.com/inkterm/zrui/pkg/theme"
	"github.com/inkterm/zrui/pkg/widget"
	"github.com/inkterm/zrui/pkg/zrui"
)

// pageRegistry is the closed set of screens "zrui run" can navigate
// between by name. Route components are Go functions, not something a
// TOML file can itself describe, so a routes.toml only ever selects
// among the names registered here.
var pageRegistry = map[string]commit.ComponentFunc{
	"home":  homePage,
	"about": aboutPage,
}

func homePage(ctx *commit.HookContext, props any) *commit.Element {
	palette, _ := commit.UseAppState(ctx, zrui.ThemeKey(), theme.Default())

	return commit.HostEl(widget.KindBox, widget.BoxProps{
		Direction: widget.DirectionColumn,
		Gap:       1,
	},
		commit.HostEl(widget.KindText, widget.TextProps{
			Content: "zrui",
			Bold:    true,
			HasFg:   true,
			FgColor: uint32(palette.Accent),
		}),
		commit.HostEl(widget.KindText, widget.TextProps{
			Content: "Press Ctrl+C to quit.",
			HasFg:   true,
			FgColor: uint32(palette.Muted),
		}),
	)
}

func aboutPage(ctx *commit.HookContext, props any) *commit.Element {
	palette, _ := commit.UseAppState(ctx, zrui.ThemeKey(), theme.Default())

	return commit.HostEl(widget.KindBox, widget.BoxProps{
		Direction: widget.DirectionColumn,
		Gap:       0,
	},
		commit.HostEl(widget.KindText, widget.TextProps{
			Content: fmt.Sprintf("theme: %s", palette.Name),
			HasFg:   true,
			FgColor: uint32(palette.Foreground),
		}),
	)
}
