package layout

import (
	"testing"

	"github.com/inkterm/zrui/pkg/measure"
	"github.com/inkterm/zrui/pkg/widget"
	"github.com/stretchr/testify/require"
)

func m() *measure.Measurer { return measure.NewMeasurer(measure.DefaultCapabilities()) }

func TestCompute_RowDistributesGrowEvenly(t *testing.T) {
	root := widget.Box(widget.BoxProps{Direction: widget.DirectionRow},
		widget.Box(widget.BoxProps{Grow: 1, Basis: -1}),
		widget.Box(widget.BoxProps{Grow: 1, Basis: -1}),
	)
	tree := Compute(root, Rect{W: 40, H: 10}, m())
	require.Len(t, tree.Children, 2)
	require.Equal(t, 20, tree.Children[0].Rect.W)
	require.Equal(t, 20, tree.Children[1].Rect.W)
	require.Equal(t, 20, tree.Children[1].Rect.X)
}

func TestCompute_RowRespectsGap(t *testing.T) {
	root := widget.Box(widget.BoxProps{Direction: widget.DirectionRow, Gap: 2},
		widget.Box(widget.BoxProps{Basis: 5}),
		widget.Box(widget.BoxProps{Basis: 5}),
	)
	tree := Compute(root, Rect{W: 20, H: 10}, m())
	require.Equal(t, 0, tree.Children[0].Rect.X)
	require.Equal(t, 7, tree.Children[1].Rect.X)
}

func TestCompute_ColumnStacksChildren(t *testing.T) {
	root := widget.Box(widget.BoxProps{Direction: widget.DirectionColumn},
		widget.Text(widget.TextProps{Content: "line one"}),
		widget.Text(widget.TextProps{Content: "line two"}),
	)
	tree := Compute(root, Rect{W: 20, H: 10}, m())
	require.Equal(t, 0, tree.Children[0].Rect.Y)
	require.Equal(t, 1, tree.Children[1].Rect.Y)
}

func TestCompute_ShrinkWhenOverflowing(t *testing.T) {
	root := widget.Box(widget.BoxProps{Direction: widget.DirectionRow},
		widget.Box(widget.BoxProps{Basis: 30, Shrink: 1}),
		widget.Box(widget.BoxProps{Basis: 30, Shrink: 1}),
	)
	tree := Compute(root, Rect{W: 40, H: 10}, m())
	total := tree.Children[0].Rect.W + tree.Children[1].Rect.W
	require.LessOrEqual(t, total, 40)
}

func TestCompute_JustifyCenter(t *testing.T) {
	root := widget.Box(widget.BoxProps{Direction: widget.DirectionRow, Justify: widget.JustifyCenter},
		widget.Box(widget.BoxProps{Basis: 10}),
	)
	tree := Compute(root, Rect{W: 40, H: 10}, m())
	require.Equal(t, 15, tree.Children[0].Rect.X)
}

func TestCompute_AlignStretchFillsCrossAxis(t *testing.T) {
	root := widget.Box(widget.BoxProps{Direction: widget.DirectionRow, Align: widget.AlignStretch},
		widget.Box(widget.BoxProps{Basis: 10}),
	)
	tree := Compute(root, Rect{W: 40, H: 12}, m())
	require.Equal(t, 12, tree.Children[0].Rect.H)
}

func TestCompute_ScrollReportsOverflow(t *testing.T) {
	child := widget.Box(widget.BoxProps{Direction: widget.DirectionColumn},
		widget.Text(widget.TextProps{Content: "a"}),
		widget.Text(widget.TextProps{Content: "b"}),
		widget.Text(widget.TextProps{Content: "c"}),
	)
	root := widget.Scroll(widget.ScrollProps{Direction: widget.DirectionColumn}, child)
	tree := Compute(root, Rect{W: 10, H: 2}, m())
	require.Positive(t, tree.OverflowY())
}

func TestCompute_BoxDecorationInsetsChildrenByPaddingAndBorder(t *testing.T) {
	dec := widget.Decoration{Border: widget.BorderSingle}
	dec.Pad(1)
	root := widget.Box(widget.BoxProps{Direction: widget.DirectionColumn, Align: widget.AlignStretch, Decoration: dec},
		widget.Text(widget.TextProps{Content: "hi"}),
	)
	tree := Compute(root, Rect{W: 20, H: 10}, m())
	require.Equal(t, 2, tree.Children[0].Rect.X)
	require.Equal(t, 2, tree.Children[0].Rect.Y)
	require.Equal(t, 16, tree.Children[0].Rect.W)
}

func TestCompute_TreeStacksOnlyRealizedRows(t *testing.T) {
	root := widget.Tree(widget.TreeProps{},
		widget.TreeNode(widget.TreeNodeProps{Label: "root", HasChildren: true, Expanded: false}),
	)
	tree := Compute(root, Rect{W: 20, H: 10}, m())
	require.Len(t, tree.Children, 1)
	require.Equal(t, 0, tree.Children[0].Rect.Y)

	expanded := widget.Tree(widget.TreeProps{},
		widget.TreeNode(widget.TreeNodeProps{Label: "root", HasChildren: true, Expanded: true}),
		widget.TreeNode(widget.TreeNodeProps{Label: "child-a", Depth: 1}),
	)
	treeExpanded := Compute(expanded, Rect{W: 20, H: 10}, m())
	require.Len(t, treeExpanded.Children, 2)
	require.Equal(t, 1, treeExpanded.Children[1].Rect.Y)
}

func TestCompute_ToastContainerCapsAtMaxVisible(t *testing.T) {
	root := widget.ToastContainer(widget.ToastContainerProps{MaxVisible: 2},
		widget.Text(widget.TextProps{Content: "first"}),
		widget.Text(widget.TextProps{Content: "second"}),
		widget.Text(widget.TextProps{Content: "third"}),
	)
	tree := Compute(root, Rect{W: 20, H: 10}, m())
	require.Len(t, tree.Children, 2)
}

func TestCompute_ModalRecentersTitleRowAcrossResize(t *testing.T) {
	content := widget.Text(widget.TextProps{Content: "Proceed?"})
	root := widget.Modal(widget.ModalProps{Width: 32, Title: "Confirm", Decoration: widget.Decoration{Border: widget.BorderSingle}}, content)

	wide := Compute(root, Rect{W: 80, H: 24}, m())
	narrow := Compute(root, Rect{W: 40, H: 12}, m())

	require.NotEqual(t, wide.Rect.X, narrow.Rect.X)
	require.GreaterOrEqual(t, wide.Rect.X, 0)
	require.GreaterOrEqual(t, narrow.Rect.X, 0)
	require.LessOrEqual(t, wide.Rect.X+wide.Rect.W, 80)
	require.LessOrEqual(t, narrow.Rect.X+narrow.Rect.W, 40)
}
