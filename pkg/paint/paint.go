// Package paint walks a computed layout tree and emits drawlist commands:
// the root-first depth-first visit that turns positioned widgets into the
// binary drawlist a renderer replays, with clip-stack culling for scroll
// viewports and profile-aware color downsampling.
package paint

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/inkterm/zrui/pkg/drawlist"
	"github.com/inkterm/zrui/pkg/layout"
	"github.com/inkterm/zrui/pkg/measure"
	"github.com/inkterm/zrui/pkg/widget"
)

// ColorProfile selects the terminal color fidelity styles are downsampled
// to before being baked into the drawlist.
type ColorProfile uint8

const (
	ProfileTrueColor ColorProfile = iota
	ProfileANSI256
	ProfileANSI
	ProfileAscii
)

func (p ColorProfile) lipgloss() lipgloss.Profile {
	switch p {
	case ProfileANSI256:
		return lipgloss.ANSI256
	case ProfileANSI:
		return lipgloss.ANSI
	case ProfileAscii:
		return lipgloss.Ascii
	default:
		return lipgloss.TrueColor
	}
}

// Context carries the shared state a single paint pass needs: the
// builder commands are appended to, the measurer for wrapping decisions,
// and the terminal color profile to downsample against.
type Context struct {
	Builder  *drawlist.Builder
	Measurer *measure.Measurer
	Profile  ColorProfile

	// ShadowExtend grows an overlay's clip rect by this many cells on
	// each side so a drop-shadow painted just outside a popup's own
	// bounds is not clipped away.
	ShadowExtend int
}

// downsample converts a packed 0xRRGGBB color to the context's terminal
// profile, baking the final displayable color into the drawlist so a
// renderer never needs per-frame color negotiation.
func (ctx *Context) downsample(packed uint32) uint32 {
	if ctx.Profile == ProfileTrueColor {
		return packed
	}
	hex := fmt.Sprintf("#%06x", packed&0xffffff)
	converted := ctx.Profile.lipgloss().Convert(lipgloss.Color(hex))
	r, g, b, _ := converted.RGBA()
	return (uint32(r>>8) << 16) | (uint32(g>>8) << 8) | uint32(b>>8)
}

func (ctx *Context) style(hasFg bool, fg uint32, hasBg bool, bg uint32, attrs uint16) drawlist.Style {
	s := drawlist.Style{HasFg: hasFg, HasBg: hasBg, Attrs: attrs}
	if hasFg {
		s.Fg = ctx.downsample(fg)
	}
	if hasBg {
		s.Bg = ctx.downsample(bg)
	}
	return s
}

// Paint walks the layout tree root-first depth-first, emitting a Clear
// followed by one command per visible widget. Scroll containers push a
// clip rect for their viewport before descending and pop it after.
func Paint(tree *layout.Box, ctx *Context) {
	ctx.Builder.Clear()
	paintNode(tree, ctx)
}

// PaintOverlay paints a layer-stack overlay (a modal, dropdown, or popup)
// whose clip rect is extended by ShadowExtend so a drop shadow rendered
// just outside its content bounds survives clipping.
func PaintOverlay(tree *layout.Box, ctx *Context) {
	r := tree.Rect
	ext := ctx.ShadowExtend
	ctx.Builder.PushClip(r.X-ext, r.Y-ext, r.W+2*ext, r.H+2*ext)
	paintNode(tree, ctx)
	ctx.Builder.PopClip()
}

func paintNode(b *layout.Box, ctx *Context) {
	if dec, ok := decorationOf(b.Node.Props); ok {
		paintDecoration(b, dec, ctx)
	}

	switch props := b.Node.Props.(type) {
	case widget.ScrollProps:
		ctx.Builder.PushClip(b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H)
		for _, c := range b.Children {
			paintNode(c, ctx)
		}
		ctx.Builder.PopClip()
		return
	case widget.TextProps:
		paintText(b, props, ctx)
	case widget.TextInputProps:
		paintTextInput(b, props, ctx)
	case widget.SpinnerProps:
		paintSpinner(b, props, ctx)
	case widget.TreeNodeProps:
		paintTreeNode(b, props, ctx)
	case widget.ModalProps:
		paintModalTitle(b, props, ctx)
	}
	for _, c := range b.Children {
		paintNode(c, ctx)
	}
}

// decorationOf extracts the Decoration a container-flavored props type
// carries, if any. Only BoxProps, TreeProps, ModalProps and
// ToastContainerProps own one.
func decorationOf(props widget.Props) (widget.Decoration, bool) {
	switch p := props.(type) {
	case widget.BoxProps:
		return p.Decoration, true
	case widget.TreeProps:
		return p.Decoration, true
	case widget.ModalProps:
		return p.Decoration, true
	case widget.ToastContainerProps:
		return p.Decoration, true
	default:
		return widget.Decoration{}, false
	}
}

// shadowColor is the flat dim fill a drop shadow paints; it carries no
// per-theme tuning since the shadow is a one-cell accent, not content.
const shadowColor = 0x000000

// paintDecoration fills a container's own background (before children, per
// the renderer's ordering rule), draws its border, if any, and a drop
// shadow extending one cell right and below the node's rect.
func paintDecoration(b *layout.Box, dec widget.Decoration, ctx *Context) {
	if dec.HasBg {
		style := ctx.style(false, 0, true, dec.Bg, 0)
		ctx.Builder.FillRect(b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H, &style)
	}
	if dec.Shadow {
		paintShadow(b.Rect, ctx)
	}
	if dec.Border != widget.BorderNone {
		paintBorder(b.Rect, dec.Border, ctx)
	}
}

// paintShadow fills the one-cell strip right of and below rect, the same
// bounds a shadow-carrying node extends its damage rect by.
func paintShadow(rect layout.Rect, ctx *Context) {
	style := ctx.style(false, 0, true, shadowColor, 0)
	ctx.Builder.FillRect(rect.X+rect.W, rect.Y+1, 1, rect.H, &style)
	ctx.Builder.FillRect(rect.X+1, rect.Y+rect.H, rect.W, 1, &style)
}

type borderGlyphs struct {
	h, v, tl, tr, bl, br string
}

func glyphsFor(style widget.Border) borderGlyphs {
	switch style {
	case widget.BorderRounded:
		return borderGlyphs{h: "─", v: "│", tl: "╭", tr: "╮", bl: "╰", br: "╯"}
	case widget.BorderDouble:
		return borderGlyphs{h: "═", v: "║", tl: "╔", tr: "╗", bl: "╚", br: "╝"}
	default:
		return borderGlyphs{h: "─", v: "│", tl: "┌", tr: "┐", bl: "└", br: "┘"}
	}
}

// paintBorder draws a one-cell-thick rectangle around rect using the glyph
// set for style. Rects narrower or shorter than 2 cells on an axis paint
// nothing on that axis rather than drawing overlapping corners.
func paintBorder(rect layout.Rect, borderStyle widget.Border, ctx *Context) {
	if rect.W < 2 || rect.H < 2 {
		return
	}
	g := glyphsFor(borderStyle)
	top := rect.Y
	bottom := rect.Y + rect.H - 1
	left := rect.X
	right := rect.X + rect.W - 1

	ctx.Builder.DrawText(left, top, g.tl+repeat(g.h, rect.W-2)+g.tr, nil)
	ctx.Builder.DrawText(left, bottom, g.bl+repeat(g.h, rect.W-2)+g.br, nil)
	for y := top + 1; y < bottom; y++ {
		ctx.Builder.DrawText(left, y, g.v, nil)
		ctx.Builder.DrawText(right, y, g.v, nil)
	}
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func paintTreeNode(b *layout.Box, p widget.TreeNodeProps, ctx *Context) {
	indent := repeat(" ", p.Depth*2)
	disclosure := ""
	if p.HasChildren {
		if p.Expanded {
			disclosure = "▼ "
		} else {
			disclosure = "▶ "
		}
	}
	ctx.Builder.DrawText(b.Rect.X, b.Rect.Y, indent+disclosure+p.Label, nil)
}

// paintModalTitle draws a modal's title text into the row layoutModal
// reserved just inside the top border.
func paintModalTitle(b *layout.Box, p widget.ModalProps, ctx *Context) {
	if p.Title == "" {
		return
	}
	inset := p.Decoration.InsetLeft()
	titleY := b.Rect.Y + p.Decoration.InsetTop()
	title := ctx.Measurer.Truncate(p.Title, max(0, b.Rect.W-2*inset))
	ctx.Builder.DrawText(b.Rect.X+inset, titleY, title, nil)
}

func paintText(b *layout.Box, p widget.TextProps, ctx *Context) {
	var attrs uint16
	if p.Bold {
		attrs |= drawlist.AttrBold
	}
	style := ctx.style(p.HasFg, p.FgColor, false, 0, attrs)
	content := p.Content
	if p.Wrap {
		content = ctx.Measurer.Truncate(content, b.Rect.W)
	}
	ctx.Builder.DrawText(b.Rect.X, b.Rect.Y, content, &style)
}

func paintTextInput(b *layout.Box, p widget.TextInputProps, ctx *Context) {
	content := p.Value
	style := drawlist.Style{}
	if content == "" {
		content = p.Placeholder
		style.HasFg = true
		style.Fg = ctx.downsample(0x808080)
	}
	visible := ctx.Measurer.Truncate(content, b.Rect.W)
	ctx.Builder.DrawText(b.Rect.X, b.Rect.Y, visible, &style)
	if p.Focused {
		col := ctx.Measurer.Width(visible)
		ctx.Builder.SetCursor(b.Rect.X+col, b.Rect.Y, drawlist.CursorBar, true, true)
	}
}

func paintSpinner(b *layout.Box, p widget.SpinnerProps, ctx *Context) {
	if len(p.Frames) == 0 {
		return
	}
	idx := p.FrameIndex % len(p.Frames)
	ctx.Builder.DrawText(b.Rect.X, b.Rect.Y, p.Frames[idx], nil)
}
