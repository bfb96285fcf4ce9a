package damage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker_SingleMarkIsReportedVerbatim(t *testing.T) {
	tr := NewTracker(Rect{W: 40, H: 20}, 0)
	tr.Mark(Rect{X: 1, Y: 1, W: 5, H: 2})
	require.False(t, tr.Full())
	require.Equal(t, []Rect{{X: 1, Y: 1, W: 5, H: 2}}, tr.Rects())
}

func TestTracker_OverlappingMarksMerge(t *testing.T) {
	tr := NewTracker(Rect{W: 40, H: 20}, 0)
	tr.Mark(Rect{X: 0, Y: 0, W: 4, H: 4})
	tr.Mark(Rect{X: 2, Y: 2, W: 4, H: 4})
	require.False(t, tr.Full())
	require.Len(t, tr.Rects(), 1)
	require.Equal(t, Rect{X: 0, Y: 0, W: 6, H: 6}, tr.Rects()[0])
}

func TestTracker_DisjointMarksStaySeparate(t *testing.T) {
	tr := NewTracker(Rect{W: 40, H: 20}, 0)
	tr.Mark(Rect{X: 0, Y: 0, W: 2, H: 2})
	tr.Mark(Rect{X: 30, Y: 10, W: 2, H: 2})
	require.False(t, tr.Full())
	require.Len(t, tr.Rects(), 2)
}

func TestTracker_CrossingThresholdForcesFullRedraw(t *testing.T) {
	// viewport is 10x10 = 100 cells, threshold 0.5 -> 50 cells trips it.
	tr := NewTracker(Rect{W: 10, H: 10}, 0.5)
	tr.Mark(Rect{X: 0, Y: 0, W: 10, H: 6}) // 60 cells >= 50
	require.True(t, tr.Full())
	require.Empty(t, tr.Rects())
}

func TestTracker_MarkOutsideViewportIsClipped(t *testing.T) {
	tr := NewTracker(Rect{W: 10, H: 10}, 0)
	tr.Mark(Rect{X: 8, Y: 8, W: 10, H: 10})
	require.False(t, tr.Full())
	require.Equal(t, []Rect{{X: 8, Y: 8, W: 2, H: 2}}, tr.Rects())
}

func TestTracker_MarkFullyOutsideViewportIsIgnored(t *testing.T) {
	tr := NewTracker(Rect{W: 10, H: 10}, 0)
	tr.Mark(Rect{X: 20, Y: 20, W: 3, H: 3})
	require.False(t, tr.Full())
	require.Empty(t, tr.Rects())
}

func TestTracker_ResizeForcesFullRedrawAndUpdatesViewport(t *testing.T) {
	tr := NewTracker(Rect{W: 10, H: 10}, 0)
	tr.Mark(Rect{X: 0, Y: 0, W: 1, H: 1})
	tr.Resize(Rect{W: 20, H: 20})
	require.True(t, tr.Full())
	require.Empty(t, tr.Rects())

	tr.Reset()
	tr.Mark(Rect{X: 15, Y: 15, W: 2, H: 2})
	require.Equal(t, []Rect{{X: 15, Y: 15, W: 2, H: 2}}, tr.Rects())
}

func TestTracker_MarkFullDiscardsPendingRects(t *testing.T) {
	tr := NewTracker(Rect{W: 10, H: 10}, 0)
	tr.Mark(Rect{X: 0, Y: 0, W: 1, H: 1})
	tr.MarkFull()
	require.True(t, tr.Full())
	tr.Mark(Rect{X: 5, Y: 5, W: 1, H: 1})
	require.True(t, tr.Full())
	require.Empty(t, tr.Rects())
}

func TestTracker_ResetClearsStateForNextFrame(t *testing.T) {
	tr := NewTracker(Rect{W: 10, H: 10}, 0)
	tr.MarkFull()
	tr.Reset()
	require.False(t, tr.Full())
	require.Empty(t, tr.Rects())
}

func TestTracker_DefaultThresholdIsUsedWhenNonPositive(t *testing.T) {
	tr := NewTracker(Rect{W: 10, H: 10}, 0)
	require.Equal(t, DefaultFullRedrawThreshold, tr.threshold)

	tr2 := NewTracker(Rect{W: 10, H: 10}, -1)
	require.Equal(t, DefaultFullRedrawThreshold, tr2.threshold)
}

func TestTracker_ChainOfOverlapsCollapsesToSingleRect(t *testing.T) {
	tr := NewTracker(Rect{W: 40, H: 40}, 0.9)
	tr.Mark(Rect{X: 0, Y: 0, W: 3, H: 3})
	tr.Mark(Rect{X: 2, Y: 0, W: 3, H: 3})
	tr.Mark(Rect{X: 4, Y: 0, W: 3, H: 3})
	require.False(t, tr.Full())
	require.Len(t, tr.Rects(), 1)
	require.Equal(t, Rect{X: 0, Y: 0, W: 7, H: 3}, tr.Rects()[0])
}
