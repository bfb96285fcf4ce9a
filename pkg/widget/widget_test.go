package widget

import (
	"testing"

	"github.com/inkterm/zrui/pkg/measure"
	"github.com/stretchr/testify/require"
)

func TestIntrinsic_Text(t *testing.T) {
	m := measure.NewMeasurer(measure.DefaultCapabilities())
	n := Text(TextProps{Content: "hello\nworld!!"})
	w, h := Intrinsic(n, m)
	require.Equal(t, 6, w)
	require.Equal(t, 2, h)
}

func TestIntrinsic_TextInputUsesPlaceholderWhenEmpty(t *testing.T) {
	m := measure.NewMeasurer(measure.DefaultCapabilities())
	n := TextInput(TextInputProps{Placeholder: "search..."})
	w, h := Intrinsic(n, m)
	require.Equal(t, m.Width("search..."), w)
	require.Equal(t, 1, h)
}

func TestIntrinsic_Table(t *testing.T) {
	m := measure.NewMeasurer(measure.DefaultCapabilities())
	n := Table(TableProps{ColumnWidths: []int{10, 20, 5}, RowHeight: 1, RowCount: 3})
	w, h := Intrinsic(n, m)
	require.Equal(t, 35, w)
	require.Equal(t, 3, h)
}

func TestBox_ChildrenAttached(t *testing.T) {
	a := Text(TextProps{Content: "a"})
	b := Text(TextProps{Content: "b"})
	box := Box(BoxProps{Direction: DirectionRow}, a, b)
	require.Equal(t, KindBox, box.Kind)
	require.Len(t, box.Children, 2)
}

func TestWithKey(t *testing.T) {
	n := Text(TextProps{Content: "x"}).WithKey("item-1")
	require.Equal(t, "item-1", n.Key)
}

func TestKindStringer(t *testing.T) {
	require.Equal(t, "text-input", KindTextInput.String())
	require.Equal(t, "tree", KindTree.String())
	require.Equal(t, "modal", KindModal.String())
	require.Equal(t, "toast-container", KindToastContainer.String())
	require.Equal(t, "unknown", Kind(200).String())
}

func TestDecoration_PadSetsAllFourEdges(t *testing.T) {
	var d Decoration
	d.Pad(2)
	require.Equal(t, 2, d.PaddingTop)
	require.Equal(t, 2, d.PaddingRight)
	require.Equal(t, 2, d.PaddingBottom)
	require.Equal(t, 2, d.PaddingLeft)
}

func TestDecoration_InsetsIncludeBorderCellOnlyWhenBordered(t *testing.T) {
	var none Decoration
	none.PadX(1)
	require.Equal(t, 1, none.InsetLeft())
	require.Equal(t, 1, none.InsetRight())

	bordered := none
	bordered.Border = BorderSingle
	require.Equal(t, 2, bordered.InsetLeft())
	require.Equal(t, 2, bordered.InsetRight())
}

func TestIntrinsic_TreeNodeAccountsForDepthAndDisclosure(t *testing.T) {
	m := measure.NewMeasurer(measure.DefaultCapabilities())
	leaf := TreeNode(TreeNodeProps{Label: "leaf", Depth: 1})
	w, h := Intrinsic(leaf, m)
	require.Equal(t, 2+m.Width("leaf"), w)
	require.Equal(t, 1, h)

	branch := TreeNode(TreeNodeProps{Label: "leaf", Depth: 1, HasChildren: true})
	w2, _ := Intrinsic(branch, m)
	require.Equal(t, w+2, w2)
}

func TestModal_ChildAttachedAndKindSet(t *testing.T) {
	content := Text(TextProps{Content: "body"})
	m := Modal(ModalProps{Width: 20, Title: "t"}, content)
	require.Equal(t, KindModal, m.Kind)
	require.Len(t, m.Children, 1)
}

func TestToastContainer_ChildrenAttached(t *testing.T) {
	tc := ToastContainer(ToastContainerProps{MaxVisible: 1},
		Text(TextProps{Content: "a"}),
		Text(TextProps{Content: "b"}),
	)
	require.Equal(t, KindToastContainer, tc.Kind)
	require.Len(t, tc.Children, 2)
}
