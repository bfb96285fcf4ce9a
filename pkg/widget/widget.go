// Package widget defines the closed set of vnode kinds the runtime
// supports, their per-kind props, and intrinsic measurement against
// pkg/measure.
package widget

import "github.com/inkterm/zrui/pkg/measure"

// Kind is a closed enumeration of vnode kinds. Adding a new kind requires
// updating every switch over Kind in this module (layout, paint, commit);
// there is no open/custom kind.
type Kind uint8

const (
	KindBox Kind = 1 + iota
	KindText
	KindTextInput
	KindScroll
	KindList
	KindTable
	KindSpinner
	KindTree
	KindModal
	KindToastContainer
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindText:
		return "text"
	case KindTextInput:
		return "text-input"
	case KindScroll:
		return "scroll"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	case KindSpinner:
		return "spinner"
	case KindTree:
		return "tree"
	case KindModal:
		return "modal"
	case KindToastContainer:
		return "toast-container"
	default:
		return "unknown"
	}
}

// Border selects a container's border style. Single, rounded and double
// all consume exactly one cell per edge; None consumes none.
type Border uint8

const (
	BorderNone Border = iota
	BorderSingle
	BorderRounded
	BorderDouble
)

// Overflow controls how a container handles content exceeding its rect.
type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
)

// Decoration groups the box-model attributes layout and paint apply to
// any container: padding (subtracted from content before children are
// measured), a border (consuming one more cell per edge when not
// BorderNone), an overflow policy, a drop shadow, and an owned background
// color painted before children.
type Decoration struct {
	PaddingTop    int
	PaddingRight  int
	PaddingBottom int
	PaddingLeft   int
	Border        Border
	Overflow      Overflow
	Shadow        bool
	HasBg         bool
	Bg            uint32
}

// PadX sets symmetric left/right padding.
func (d *Decoration) PadX(n int) { d.PaddingLeft, d.PaddingRight = n, n }

// PadY sets symmetric top/bottom padding.
func (d *Decoration) PadY(n int) { d.PaddingTop, d.PaddingBottom = n, n }

// Pad sets uniform padding on all four edges.
func (d *Decoration) Pad(n int) { d.PaddingTop, d.PaddingRight, d.PaddingBottom, d.PaddingLeft = n, n, n, n }

// BorderCells reports how many cells the border consumes per edge: 0 for
// BorderNone, 1 for every other style.
func (d Decoration) BorderCells() int {
	if d.Border == BorderNone {
		return 0
	}
	return 1
}

// InsetLeft/Top/Right/Bottom report the total cells subtracted from a
// container's rect before laying out its children: padding plus the
// border's single cell, per edge.
func (d Decoration) InsetLeft() int   { return d.PaddingLeft + d.BorderCells() }
func (d Decoration) InsetTop() int    { return d.PaddingTop + d.BorderCells() }
func (d Decoration) InsetRight() int  { return d.PaddingRight + d.BorderCells() }
func (d Decoration) InsetBottom() int { return d.PaddingBottom + d.BorderCells() }

// Direction is a flex container's main axis.
type Direction uint8

const (
	DirectionRow Direction = iota
	DirectionColumn
)

// Align controls cross-axis alignment within a flex line.
type Align uint8

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

// Justify controls main-axis distribution within a flex line.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
)

// Props is the marker interface every per-kind props type implements.
type Props interface {
	kind() Kind
}

// BoxProps configures a flex container.
type BoxProps struct {
	Direction  Direction
	Wrap       bool
	Gap        int
	Align      Align
	Justify    Justify
	Grow       float64
	Shrink     float64
	Basis      int // -1 means "auto"
	MinWidth   int
	MinHeight  int
	MaxWidth   int // 0 means unbounded
	MaxHeight  int
	Decoration Decoration
}

func (BoxProps) kind() Kind { return KindBox }

// TextProps configures a leaf text run.
type TextProps struct {
	Content string
	Wrap    bool
	Bold    bool
	FgColor uint32
	HasFg   bool
}

func (TextProps) kind() Kind { return KindText }

// TextInputProps configures an editable single-line or multi-line field.
type TextInputProps struct {
	Value       string
	Placeholder string
	Multiline   bool
	Focused     bool
}

func (TextInputProps) kind() Kind { return KindTextInput }

// ScrollProps configures a scrollable viewport over its single child.
type ScrollProps struct {
	Direction  Direction
	OffsetMain int
}

func (ScrollProps) kind() Kind { return KindScroll }

// ListProps configures a virtualized, vertically scrolling item list. Only
// the visible window of items starting at OffsetIndex is ever realized
// into child vnodes by the caller.
type ListProps struct {
	ItemCount    int
	ItemHeight   int
	OffsetIndex  int
	SelectedIndex int
}

func (ListProps) kind() Kind { return KindList }

// TableProps configures a virtualized grid with fixed column widths.
type TableProps struct {
	ColumnWidths  []int
	RowCount      int
	RowHeight     int
	OffsetRow     int
	SelectedRow   int
	SelectedCol   int
}

func (TableProps) kind() Kind { return KindTable }

// SpinnerProps configures an animated indeterminate-progress glyph.
type SpinnerProps struct {
	Frames       []string
	FrameIndex   int
	IntervalMS   int
}

func (SpinnerProps) kind() Kind { return KindSpinner }

// TreeProps configures a tree's container: a vertical stack of rows the
// caller has already flattened to the currently expanded set, the way
// ListProps's caller realizes only the visible window.
type TreeProps struct {
	Decoration Decoration
}

func (TreeProps) kind() Kind { return KindTree }

// TreeNodeProps configures one realized row within a tree: its label,
// nesting depth (used to compute indentation), and whether it owns a
// disclosure triangle and is currently expanded.
type TreeNodeProps struct {
	Label       string
	Depth       int
	HasChildren bool
	Expanded    bool
}

func (TreeNodeProps) kind() Kind { return KindTree }

// ModalProps configures a fixed-width overlay dialog: a title drawn in
// its border and a single content child.
type ModalProps struct {
	Width      int
	Title      string
	Decoration Decoration
}

func (ModalProps) kind() Kind { return KindModal }

// ToastContainerProps configures an overlay stack of transient
// notifications. Only the first MaxVisible children are realized into
// the layout tree; a MaxVisible of 0 means unbounded.
type ToastContainerProps struct {
	MaxVisible int
	Decoration Decoration
}

func (ToastContainerProps) kind() Kind { return KindToastContainer }

// VNode is one node in the immutable tree the application returns each
// render. Exactly one of Key or a positional index identifies it among
// siblings for reconciliation purposes (pkg/commit).
type VNode struct {
	Kind     Kind
	Key      string
	Props    Props
	Children []*VNode
}

// Box constructs a KindBox vnode.
func Box(props BoxProps, children ...*VNode) *VNode {
	return &VNode{Kind: KindBox, Props: props, Children: children}
}

// Text constructs a KindText vnode.
func Text(props TextProps) *VNode {
	return &VNode{Kind: KindText, Props: props}
}

// TextInput constructs a KindTextInput vnode.
func TextInput(props TextInputProps) *VNode {
	return &VNode{Kind: KindTextInput, Props: props}
}

// Scroll constructs a KindScroll vnode wrapping a single child.
func Scroll(props ScrollProps, child *VNode) *VNode {
	return &VNode{Kind: KindScroll, Props: props, Children: []*VNode{child}}
}

// List constructs a KindList vnode whose realized children are the caller's
// rendered items for the current visible window.
func List(props ListProps, items ...*VNode) *VNode {
	return &VNode{Kind: KindList, Props: props, Children: items}
}

// Table constructs a KindTable vnode whose realized children are the
// caller's rendered cells for the current visible window.
func Table(props TableProps, cells ...*VNode) *VNode {
	return &VNode{Kind: KindTable, Props: props, Children: cells}
}

// Spinner constructs a KindSpinner vnode.
func Spinner(props SpinnerProps) *VNode {
	return &VNode{Kind: KindSpinner, Props: props}
}

// Tree constructs a KindTree vnode whose realized children are the
// caller's flattened, currently-expanded rows (see TreeNode).
func Tree(props TreeProps, rows ...*VNode) *VNode {
	return &VNode{Kind: KindTree, Props: props, Children: rows}
}

// TreeNode constructs one realized row of a tree.
func TreeNode(props TreeNodeProps) *VNode {
	return &VNode{Kind: KindTree, Props: props}
}

// Modal constructs a KindModal vnode wrapping a single content child.
func Modal(props ModalProps, content *VNode) *VNode {
	return &VNode{Kind: KindModal, Props: props, Children: []*VNode{content}}
}

// ToastContainer constructs a KindToastContainer vnode; only the first
// props.MaxVisible children are laid out and painted.
func ToastContainer(props ToastContainerProps, toasts ...*VNode) *VNode {
	return &VNode{Kind: KindToastContainer, Props: props, Children: toasts}
}

// WithKey returns n with Key set, for use as a direct return value from a
// child-building expression.
func (n *VNode) WithKey(key string) *VNode {
	n.Key = key
	return n
}

// Intrinsic reports a vnode's natural (width, height) in cells before any
// flex growth/shrink is applied, using m to measure text content.
func Intrinsic(n *VNode, m *measure.Measurer) (width, height int) {
	switch p := n.Props.(type) {
	case TextProps:
		lines := splitLines(p.Content)
		h := len(lines)
		if h == 0 {
			h = 1
		}
		w := 0
		for _, l := range lines {
			if lw := m.Width(l); lw > w {
				w = lw
			}
		}
		return w, h
	case TextInputProps:
		content := p.Value
		if content == "" {
			content = p.Placeholder
		}
		w := m.Width(content)
		if w == 0 {
			w = 1
		}
		h := 1
		if p.Multiline {
			h = len(splitLines(content))
			if h == 0 {
				h = 1
			}
		}
		return w, h
	case ScrollProps:
		return 0, 0
	case ListProps:
		return 0, p.ItemHeight * p.ItemCount
	case TableProps:
		w := 0
		for _, cw := range p.ColumnWidths {
			w += cw
		}
		return w, p.RowHeight * p.RowCount
	case SpinnerProps:
		w := 0
		for _, f := range p.Frames {
			if fw := m.Width(f); fw > w {
				w = fw
			}
		}
		return w, 1
	case TreeNodeProps:
		indent := p.Depth * 2
		disclosure := 0
		if p.HasChildren {
			disclosure = 2
		}
		return indent + disclosure + m.Width(p.Label), 1
	case TreeProps:
		return 0, 0
	case ModalProps:
		return p.Width, 0
	case ToastContainerProps:
		return 0, 0
	default: // BoxProps and any container: layout computes size from children.
		return 0, 0
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
