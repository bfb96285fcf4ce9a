package zrui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkterm/zrui/pkg/commit"
	"github.com/inkterm/zrui/pkg/drawlist"
	"github.com/inkterm/zrui/pkg/layout"
	"github.com/inkterm/zrui/pkg/widget"
)

// These tests each exercise one end-to-end scenario through the full
// commit -> layout -> paint -> drawlist pipeline, mirroring the shape the
// rest of this file's tests already use (a component, a recordingSink, a
// decoded frame).

type tableSortProps struct {
	sortColumn int
	descending bool
}

// sortableTableComponent renders two header cells, appending a sort glyph
// next to whichever column is currently sorted.
func sortableTableComponent(ctx *commit.HookContext, props any) *commit.Element {
	p := props.(tableSortProps)
	columns := []string{"Name", "Score"}
	cells := make([]*commit.Element, 0, len(columns))
	for i, col := range columns {
		label := col
		if i == p.sortColumn {
			if p.descending {
				label += " ▼"
			} else {
				label += " ▲"
			}
		}
		cells = append(cells, commit.HostEl(widget.KindText, widget.TextProps{Content: label}))
	}
	return commit.HostEl(widget.KindBox, widget.BoxProps{Direction: widget.DirectionRow, Gap: 1}, cells...)
}

func internedStrings(t *testing.T, frame []byte) []string {
	t.Helper()
	d, err := drawlist.Decode(frame)
	require.NoError(t, err)
	var texts []string
	it := d.Commands()
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		if c.Opcode != drawlist.OpDrawText {
			continue
		}
		p, err := d.DecodeDrawText(c)
		require.NoError(t, err)
		texts = append(texts, p.Text)
	}
	require.NoError(t, it.Err())
	return texts
}

func countDrawText(t *testing.T, frame []byte) int {
	t.Helper()
	return len(internedStrings(t, frame))
}

// Scenario: flipping a table's sort column/direction between two frames
// must change the sort glyph's position/identity, so the two frames are
// byte-distinct.
func TestScenario_TableSortIndicatorFlipsBetweenFrames(t *testing.T) {
	sink := newRecordingSink()
	a := NewApp(sortableTableComponent, tableSortProps{sortColumn: 0, descending: false}, layout.Rect{W: 20, H: 1}, sink)
	require.NoError(t, a.renderFrame(context.Background()))
	frame1 := append([]byte(nil), sink.last()...)
	texts1 := internedStrings(t, frame1)

	a.ReplaceView(sortableTableComponent, tableSortProps{sortColumn: 1, descending: true})
	require.NoError(t, a.renderFrame(context.Background()))
	frame2 := sink.last()
	texts2 := internedStrings(t, frame2)

	require.NotEqual(t, frame1, frame2)
	require.Contains(t, texts1, "Name ▲")
	require.Contains(t, texts2, "Score ▼")
	require.NotContains(t, texts2, "Name ▲")
}

func treeComponent(ctx *commit.HookContext, props any) *commit.Element {
	expanded := props.(map[string]bool)
	rows := []*commit.Element{
		commit.HostEl(widget.KindTree, widget.TreeNodeProps{Label: "root", HasChildren: true, Expanded: expanded["root"]}),
	}
	if expanded["root"] {
		rows = append(rows,
			commit.HostEl(widget.KindTree, widget.TreeNodeProps{Label: "child-a", Depth: 1}),
			commit.HostEl(widget.KindTree, widget.TreeNodeProps{Label: "child-b", Depth: 1}),
		)
	}
	return commit.HostEl(widget.KindTree, widget.TreeProps{}, rows...)
}

// Scenario: expanding a tree node must reveal its children's labels as
// newly-interned text and increase the draw-text command count.
func TestScenario_TreeExpandRevealsChildLabels(t *testing.T) {
	sink := newRecordingSink()
	a := NewApp(treeComponent, map[string]bool{}, layout.Rect{W: 20, H: 5}, sink)
	require.NoError(t, a.renderFrame(context.Background()))
	frame1 := append([]byte(nil), sink.last()...)
	texts1 := internedStrings(t, frame1)

	a.ReplaceView(treeComponent, map[string]bool{"root": true})
	require.NoError(t, a.renderFrame(context.Background()))
	frame2 := sink.last()
	texts2 := internedStrings(t, frame2)

	require.NotContains(t, texts1, "child-a")
	require.Contains(t, texts2, "child-a")
	require.Greater(t, len(texts2), len(texts1))
}

func modalLayerComponent(ctx *commit.HookContext, props any) *commit.Element {
	return commit.HostEl(widget.KindBox, widget.BoxProps{Direction: widget.DirectionColumn, Align: widget.AlignStretch},
		commit.HostEl(widget.KindText, widget.TextProps{Content: "base"}),
		commit.HostEl(widget.KindModal, widget.ModalProps{Width: 32, Title: "Confirm", Decoration: widget.Decoration{Border: widget.BorderSingle}},
			commit.HostEl(widget.KindText, widget.TextProps{Content: "Proceed?"}),
		),
	)
}

// Scenario: resizing the viewport with a modal mounted must reflow the
// modal (its title moves since it's re-centered) while every rect in both
// frames stays non-negative and in-bounds, and the resize itself forces a
// full-viewport clear.
func TestScenario_ModalReflowsOnResize(t *testing.T) {
	sink := newRecordingSink()
	a := NewApp(modalLayerComponent, nil, layout.Rect{W: 80, H: 24}, sink)
	require.NoError(t, a.renderFrame(context.Background()))
	frame1 := append([]byte(nil), sink.last()...)

	a.SetViewport(layout.Rect{W: 40, H: 12})
	require.NoError(t, a.renderFrame(context.Background()))
	frame2 := sink.last()

	titleAt := func(frame []byte) (int, int) {
		d, err := drawlist.Decode(frame)
		require.NoError(t, err)
		it := d.Commands()
		for {
			c, ok := it.Next()
			if !ok {
				break
			}
			if c.Opcode != drawlist.OpDrawText {
				continue
			}
			p, err := d.DecodeDrawText(c)
			require.NoError(t, err)
			if p.Text == "Confirm" {
				return p.X, p.Y
			}
		}
		t.Fatal("title not found")
		return 0, 0
	}

	x1, _ := titleAt(frame1)
	x2, _ := titleAt(frame2)
	require.NotEqual(t, x1, x2)

	for _, frame := range [][]byte{frame1, frame2} {
		d, err := drawlist.Decode(frame)
		require.NoError(t, err)
		it := d.Commands()
		for {
			c, ok := it.Next()
			if !ok {
				break
			}
			if c.Opcode == drawlist.OpFillRect {
				p, err := d.DecodeFillRect(c)
				require.NoError(t, err)
				require.GreaterOrEqual(t, p.X, 0)
				require.GreaterOrEqual(t, p.Y, 0)
			}
			if c.Opcode == drawlist.OpDrawText {
				p, err := d.DecodeDrawText(c)
				require.NoError(t, err)
				require.GreaterOrEqual(t, p.X, 0)
				require.GreaterOrEqual(t, p.Y, 0)
			}
		}
		require.NoError(t, it.Err())
	}

	d2, err := drawlist.Decode(frame2)
	require.NoError(t, err)
	it2 := d2.Commands()
	c, ok := it2.Next()
	require.True(t, ok)
	require.Equal(t, drawlist.OpClear, c.Opcode)
}

func toastComponent(ctx *commit.HookContext, props any) *commit.Element {
	return commit.HostEl(widget.KindToastContainer, widget.ToastContainerProps{MaxVisible: 2, Decoration: widget.Decoration{HasBg: true, Bg: 0x202020}},
		commit.HostEl(widget.KindText, widget.TextProps{Content: "first"}),
		commit.HostEl(widget.KindText, widget.TextProps{Content: "second"}),
		commit.HostEl(widget.KindText, widget.TextProps{Content: "third"}),
	)
}

// Scenario: a toast container must show only its first MaxVisible
// entries and still paint its own fill rect.
func TestScenario_ToastContainerCapsVisibleCount(t *testing.T) {
	sink := newRecordingSink()
	a := NewApp(toastComponent, nil, layout.Rect{W: 20, H: 10}, sink)
	require.NoError(t, a.renderFrame(context.Background()))
	frame := sink.last()

	texts := internedStrings(t, frame)
	require.Contains(t, texts, "first")
	require.Contains(t, texts, "second")
	require.NotContains(t, texts, "third")

	d, err := drawlist.Decode(frame)
	require.NoError(t, err)
	it := d.Commands()
	sawFill := false
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		if c.Opcode == drawlist.OpFillRect {
			sawFill = true
		}
	}
	require.True(t, sawFill)
}
