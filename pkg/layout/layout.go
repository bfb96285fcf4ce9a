// Package layout implements a flexbox-like layout algorithm over the
// widget vnode tree: intrinsic measurement, main-axis distribution with
// grow/shrink factors, wrapping, gaps, and alignment.
package layout

import (
	"github.com/inkterm/zrui/pkg/measure"
	"github.com/inkterm/zrui/pkg/widget"
)

// Rect is an axis-aligned cell rectangle.
type Rect struct {
	X, Y, W, H int
}

// Box is one positioned node in a computed layout tree.
type Box struct {
	Node     *widget.VNode
	Rect     Rect
	Children []*Box

	// ContentW/ContentH is the node's full content extent, which may
	// exceed Rect for a scroll container's child; Overflow reports the
	// amount clipped per axis.
	ContentW, ContentH int
}

// OverflowX/OverflowY report how much content extends beyond Rect.
func (b *Box) OverflowX() int {
	if d := b.ContentW - b.Rect.W; d > 0 {
		return d
	}
	return 0
}

func (b *Box) OverflowY() int {
	if d := b.ContentH - b.Rect.H; d > 0 {
		return d
	}
	return 0
}

type measured struct {
	w, h int
}

// Compute lays out root within viewport, returning the positioned tree.
func Compute(root *widget.VNode, viewport Rect, m *measure.Measurer) *Box {
	return layoutNode(root, viewport, m)
}

func layoutNode(n *widget.VNode, rect Rect, m *measure.Measurer) *Box {
	switch props := n.Props.(type) {
	case widget.BoxProps:
		return layoutFlex(n, props, rect, m)
	case widget.ScrollProps:
		return layoutScroll(n, props, rect, m)
	case widget.TreeProps:
		return layoutStack(n, rect, m, props.Decoration, len(n.Children))
	case widget.ToastContainerProps:
		visible := props.MaxVisible
		if visible <= 0 || visible > len(n.Children) {
			visible = len(n.Children)
		}
		return layoutStack(n, rect, m, props.Decoration, visible)
	case widget.ModalProps:
		return layoutModal(n, props, rect, m)
	default:
		w, h := widget.Intrinsic(n, m)
		return &Box{Node: n, Rect: rect, ContentW: w, ContentH: h}
	}
}

// insetRect subtracts dec's padding and border cells from rect, per the
// layout engine's first step: single, rounded and double borders all
// consume exactly one cell per edge.
func insetRect(rect Rect, dec widget.Decoration) Rect {
	return Rect{
		X: rect.X + dec.InsetLeft(),
		Y: rect.Y + dec.InsetTop(),
		W: max(0, rect.W-dec.InsetLeft()-dec.InsetRight()),
		H: max(0, rect.H-dec.InsetTop()-dec.InsetBottom()),
	}
}

// layoutStack lays out the first count children of n as a vertical stack
// inside dec's inset rect, the simplified container shape a tree or a
// toast stack needs (no flex growth, no gaps): each row gets its
// intrinsic height and the container's full inset width.
func layoutStack(n *widget.VNode, rect Rect, m *measure.Measurer, dec widget.Decoration, count int) *Box {
	inner := insetRect(rect, dec)
	result := &Box{Node: n, Rect: rect}
	if count > len(n.Children) {
		count = len(n.Children)
	}
	y := inner.Y
	maxW := 0
	children := make([]*Box, 0, count)
	for i := 0; i < count; i++ {
		c := n.Children[i]
		cw, ch := widget.Intrinsic(c, m)
		childRect := Rect{X: inner.X, Y: y, W: inner.W, H: ch}
		children = append(children, layoutNode(c, childRect, m))
		y += ch
		if cw > maxW {
			maxW = cw
		}
	}
	result.Children = children
	result.ContentW, result.ContentH = maxW, y-inner.Y
	return result
}

// layoutModal centers a fixed-width overlay horizontally within rect,
// insets it for its border, reserves the first inset row for the title,
// and lays out its single content child in the remainder.
func layoutModal(n *widget.VNode, props widget.ModalProps, rect Rect, m *measure.Measurer) *Box {
	width := props.Width
	if width <= 0 || width > rect.W {
		width = rect.W
	}
	outer := Rect{X: rect.X + max(0, (rect.W-width)/2), Y: rect.Y, W: width, H: rect.H}
	inner := insetRect(outer, props.Decoration)
	contentRect := Rect{X: inner.X, Y: inner.Y + 1, W: inner.W, H: max(0, inner.H-1)}

	result := &Box{Node: n, Rect: outer, ContentW: outer.W, ContentH: outer.H}
	if len(n.Children) > 0 {
		result.Children = []*Box{layoutNode(n.Children[0], contentRect, m)}
	}
	return result
}

func layoutScroll(n *widget.VNode, sp widget.ScrollProps, rect Rect, m *measure.Measurer) *Box {
	result := &Box{Node: n, Rect: rect}
	if len(n.Children) == 0 {
		return result
	}
	child := n.Children[0]
	// Measure the child's natural extent unconstrained along the scroll
	// axis, then clip its viewport to rect while keeping its own box sized
	// to its full content so OverflowX/Y can be read off it.
	var childRect Rect
	if sp.Direction == widget.DirectionColumn {
		cw, ch := measureContentExtent(child, rect.W, m)
		childRect = Rect{X: rect.X, Y: rect.Y - sp.OffsetMain, W: rect.W, H: ch}
		_ = cw
	} else {
		cw, ch := measureContentExtent(child, 0, m)
		childRect = Rect{X: rect.X - sp.OffsetMain, Y: rect.Y, W: cw, H: rect.H}
		_ = ch
	}
	childBox := layoutNode(child, childRect, m)
	result.Children = []*Box{childBox}
	result.ContentW = childBox.ContentW
	result.ContentH = childBox.ContentH
	if sp.Direction == widget.DirectionColumn {
		result.ContentH = childRect.H
	} else {
		result.ContentW = childRect.W
	}
	return result
}

// measureContentExtent returns a node's natural (width, height), walking
// flex containers to sum their children rather than using the zero
// intrinsic size layoutNode would otherwise assign a bare BoxProps node.
func measureContentExtent(n *widget.VNode, availableWidth int, m *measure.Measurer) (int, int) {
	box, ok := n.Props.(widget.BoxProps)
	if !ok {
		return widget.Intrinsic(n, m)
	}
	w, h := 0, 0
	for i, c := range n.Children {
		cw, ch := measureContentExtent(c, availableWidth, m)
		if box.Direction == widget.DirectionRow {
			w += cw
			if i > 0 {
				w += box.Gap
			}
			if ch > h {
				h = ch
			}
		} else {
			h += ch
			if i > 0 {
				h += box.Gap
			}
			if cw > w {
				w = cw
			}
		}
	}
	return w, h
}

type flexChild struct {
	node   *widget.VNode
	basis  int
	grow   float64
	shrink float64
	cross  int // cross-axis intrinsic size
}

func layoutFlex(n *widget.VNode, box widget.BoxProps, rect Rect, m *measure.Measurer) *Box {
	result := &Box{Node: n, Rect: rect}
	if len(n.Children) == 0 {
		return result
	}

	inner := insetRect(rect, box.Decoration)
	mainSize := inner.W
	if box.Direction == widget.DirectionColumn {
		mainSize = inner.H
	}

	children := make([]flexChild, len(n.Children))
	for i, c := range n.Children {
		cw, ch := widget.Intrinsic(c, m)
		basis := ch
		cross := cw
		grow, shrink := 1.0, 1.0
		if box.Direction == widget.DirectionRow {
			basis, cross = cw, ch
		}
		if cb, ok := c.Props.(widget.BoxProps); ok {
			grow, shrink = cb.Grow, cb.Shrink
			if cb.Basis >= 0 {
				basis = cb.Basis
			}
		}
		children[i] = flexChild{node: c, basis: basis, grow: grow, shrink: shrink, cross: cross}
	}

	gapTotal := box.Gap * max(0, len(children)-1)
	totalBasis := gapTotal
	for _, fc := range children {
		totalBasis += fc.basis
	}
	free := mainSize - totalBasis

	sizes := make([]int, len(children))
	if free >= 0 {
		totalGrow := 0.0
		for _, fc := range children {
			totalGrow += fc.grow
		}
		for i, fc := range children {
			extra := 0
			if totalGrow > 0 {
				extra = int(float64(free) * fc.grow / totalGrow)
			}
			sizes[i] = fc.basis + extra
		}
	} else {
		totalShrink := 0.0
		for _, fc := range children {
			totalShrink += fc.shrink * float64(fc.basis)
		}
		for i, fc := range children {
			reduction := 0
			if totalShrink > 0 {
				reduction = int(float64(-free) * fc.shrink * float64(fc.basis) / totalShrink)
			}
			sizes[i] = max(0, fc.basis-reduction)
		}
	}

	usedMain := gapTotal
	for _, s := range sizes {
		usedMain += s
	}
	leftover := max(0, mainSize-usedMain)
	startOffset, gapExtra := justifyOffsets(box.Justify, leftover, len(children))

	pos := startOffset
	result.Children = make([]*Box, len(children))
	for i, fc := range children {
		size := sizes[i]
		crossSize := fc.cross
		var childRect Rect
		if box.Direction == widget.DirectionRow {
			crossSize = alignCross(box.Align, fc.cross, inner.H)
			childRect = Rect{X: inner.X + pos, Y: inner.Y + crossOffset(box.Align, fc.cross, inner.H), W: size, H: crossSize}
		} else {
			crossSize = alignCross(box.Align, fc.cross, inner.W)
			childRect = Rect{X: inner.X + crossOffset(box.Align, fc.cross, inner.W), Y: inner.Y + pos, W: crossSize, H: size}
		}
		result.Children[i] = layoutNode(fc.node, childRect, m)
		pos += size + box.Gap + gapExtra
	}

	result.ContentW, result.ContentH = rect.W, rect.H
	return result
}

func justifyOffsets(j widget.Justify, leftover, count int) (start, gapExtra int) {
	switch j {
	case widget.JustifyCenter:
		return leftover / 2, 0
	case widget.JustifyEnd:
		return leftover, 0
	case widget.JustifySpaceBetween:
		if count > 1 {
			return 0, leftover / (count - 1)
		}
		return 0, 0
	case widget.JustifySpaceAround:
		if count > 0 {
			gap := leftover / count
			return gap / 2, gap
		}
		return 0, 0
	default:
		return 0, 0
	}
}

func alignCross(a widget.Align, intrinsic, available int) int {
	if a == widget.AlignStretch {
		return available
	}
	return intrinsic
}

func crossOffset(a widget.Align, intrinsic, available int) int {
	switch a {
	case widget.AlignCenter:
		return max(0, (available-intrinsic)/2)
	case widget.AlignEnd:
		return max(0, available-intrinsic)
	default:
		return 0
	}
}
