package focus

import (
	"testing"

	"github.com/inkterm/zrui/pkg/zrevent"
	"github.com/stretchr/testify/require"
)

func TestRouter_LinearZoneTabAdvancesAndClampsAtEdges(t *testing.T) {
	r := NewRouter()
	r.SetZone(1, Zone{Shape: ZoneLinear, Members: []ID{10, 11, 12}})
	r.Focus(10)

	require.True(t, r.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyTab}))
	require.Equal(t, ID(11), r.Focused())

	require.True(t, r.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyTab}))
	require.Equal(t, ID(12), r.Focused())

	// Already at the last member; another Tab clamps rather than wrapping.
	require.True(t, r.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyTab}))
	require.Equal(t, ID(12), r.Focused())
}

func TestRouter_ShiftTabMovesBackward(t *testing.T) {
	r := NewRouter()
	r.SetZone(1, Zone{Shape: ZoneLinear, Members: []ID{10, 11, 12}})
	r.Focus(12)

	r.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyTab, Mods: zrevent.ModShift})
	require.Equal(t, ID(11), r.Focused())
}

func TestRouter_GridZoneArrowsMoveByRowAndColumn(t *testing.T) {
	r := NewRouter()
	// 2x3 grid: [0 1 2]
	//           [3 4 5]
	r.SetZone(1, Zone{Shape: ZoneGrid, Columns: 3, Members: []ID{0, 1, 2, 3, 4, 5}})
	r.Focus(1)

	r.Navigate(DirDown)
	require.Equal(t, ID(4), r.Focused())

	r.Navigate(DirRight)
	require.Equal(t, ID(5), r.Focused())

	// At the right edge; another Right clamps instead of wrapping to next row.
	r.Navigate(DirRight)
	require.Equal(t, ID(5), r.Focused())

	r.Navigate(DirUp)
	require.Equal(t, ID(2), r.Focused())
}

func TestRouter_PushPopLayerRestoresPriorFocus(t *testing.T) {
	r := NewRouter()
	r.SetZone(1, Zone{Shape: ZoneLinear, Members: []ID{10, 11}})
	r.Focus(10)

	r.PushLayer(true)
	require.Equal(t, 2, r.Depth())
	r.SetZone(2, Zone{Shape: ZoneLinear, Members: []ID{20, 21}})
	r.Focus(20)
	require.Equal(t, ID(20), r.Focused())

	r.PopLayer()
	require.Equal(t, 1, r.Depth())
	require.Equal(t, ID(10), r.Focused())
}

func TestRouter_EscapeClosesTrappingLayerButNotBaseLayer(t *testing.T) {
	r := NewRouter()
	require.False(t, r.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyEscape}))
	require.Equal(t, 1, r.Depth())

	r.PushLayer(true)
	require.True(t, r.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyEscape}))
	require.Equal(t, 1, r.Depth())
}

func TestRouter_EscapeIsUnhandledWhenLayerDoesNotTrapIt(t *testing.T) {
	r := NewRouter()
	r.PushLayer(false)
	require.False(t, r.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyEscape}))
	require.Equal(t, 2, r.Depth())
}

func TestRouter_NavigateWithNoZoneIsNoOp(t *testing.T) {
	r := NewRouter()
	r.Focus(99)
	r.Navigate(DirDown)
	require.Equal(t, ID(99), r.Focused())
}

func TestListCursor_ClampsOnShrinkPreservingNearbyIndex(t *testing.T) {
	c := NewListCursor(10)
	c.Set(8)
	require.Equal(t, 8, c.Index())

	c.SetCount(5)
	require.Equal(t, 4, c.Index())
}

func TestListCursor_EmptyListReportsNegativeOne(t *testing.T) {
	c := NewListCursor(0)
	require.Equal(t, -1, c.Index())
	c.Move(1) // must not panic on an empty list
	require.Equal(t, -1, c.Index())
}

func TestListCursor_MoveClampsAtBounds(t *testing.T) {
	c := NewListCursor(3)
	c.Move(-5)
	require.Equal(t, 0, c.Index())
	c.Move(5)
	require.Equal(t, 2, c.Index())
}

func TestEditorCursor_BoundaryDetectionForZoneHandoff(t *testing.T) {
	e := NewEditorCursor([]string{"a", "b", "c"})
	require.True(t, e.AtEnd())
	require.False(t, e.AtStart())

	e.MoveLeft()
	e.MoveLeft()
	e.MoveLeft()
	require.True(t, e.AtStart())

	// Further left clamps rather than underflowing.
	e.MoveLeft()
	require.Equal(t, 0, e.Pos())
}

func TestEditorCursor_SetGraphemesClampsCursorAfterShrink(t *testing.T) {
	e := NewEditorCursor([]string{"a", "b", "c"})
	require.Equal(t, 3, e.Pos())
	e.SetGraphemes([]string{"a"})
	require.Equal(t, 1, e.Pos())
}

func TestEditorCursor_ShiftArrowExtendsThenCollapsesSelection(t *testing.T) {
	e := NewEditorCursor([]string{"a", "b", "c", "d"})
	e.SetGraphemes([]string{"a", "b", "c", "d"})
	for i := 0; i < 4; i++ {
		e.MoveLeft()
	}
	require.True(t, e.AtStart())

	_, handled := e.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyRight, Mods: zrevent.ModShift})
	require.True(t, handled)
	_, handled = e.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyRight, Mods: zrevent.ModShift})
	require.True(t, handled)
	start, end, ok := e.Selection()
	require.True(t, ok)
	require.Equal(t, 0, start)
	require.Equal(t, 2, end)

	// A bare (non-Shift) arrow collapses the selection instead of extending it.
	e.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyRight})
	_, _, ok = e.Selection()
	require.False(t, ok)
}

func TestEditorCursor_BackspaceDeletesSelectionElseAdjacentGrapheme(t *testing.T) {
	e := NewEditorCursor([]string{"a", "b", "c", "d"})
	e.moveTo(1, false)
	e.moveTo(3, true) // select "bc"
	result, handled := e.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyBackspace})
	require.True(t, handled)
	require.Equal(t, []string{"a", "d"}, result.Graphemes)
	require.Equal(t, 1, e.Pos())
	_, _, ok := e.Selection()
	require.False(t, ok)

	result, _ = e.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyBackspace})
	require.Equal(t, []string{"d"}, result.Graphemes)
	require.Equal(t, 0, e.Pos())
}

func TestEditorCursor_PrintableRuneReplacesSelection(t *testing.T) {
	e := NewEditorCursor([]string{"a", "b", "c"})
	e.moveTo(0, false)
	e.moveTo(2, true) // select "ab"
	result, handled := e.HandleKey(zrevent.KeyEvent{Rune: 'x'})
	require.True(t, handled)
	require.Equal(t, []string{"x", "c"}, result.Graphemes)
	require.Equal(t, 1, e.Pos())
}

func TestEditorCursor_CtrlModifiedKeyPassesThrough(t *testing.T) {
	e := NewEditorCursor([]string{"a"})
	_, handled := e.HandleKey(zrevent.KeyEvent{Rune: 'c', Mods: zrevent.ModCtrl})
	require.False(t, handled)
}

func TestDropdownRouter_NavigationScenario(t *testing.T) {
	items := []DropdownItem{{Divider: true}, {Disabled: true}, {}, {}}
	var router DropdownRouter

	res := router.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyEnter}, items, 0)
	require.Equal(t, 2, res.SelectedIndex)
	require.Equal(t, DropdownSelect, res.Action)

	res = router.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyDown}, items, 2)
	require.Equal(t, 3, res.SelectedIndex)

	res = router.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyDown}, items, res.SelectedIndex)
	require.Equal(t, 2, res.SelectedIndex)

	res = router.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyUp}, items, 2)
	require.Equal(t, 3, res.SelectedIndex)

	res = router.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyEscape}, []DropdownItem{{Divider: true}}, 0)
	require.Equal(t, DropdownClose, res.Action)
}

func TestListCursor_PageAndHomeEndNavigationTracksScrollTop(t *testing.T) {
	c := NewListCursor(100)
	action := c.Navigate(zrevent.KeyEvent{Code: zrevent.KeyPageDown}, 10)
	require.Equal(t, ListActionNone, action)
	require.Equal(t, 10, c.Index())

	c.Navigate(zrevent.KeyEvent{Code: zrevent.KeyEnd}, 10)
	require.Equal(t, 99, c.Index())
	require.Equal(t, 90, c.ScrollTop())

	c.Navigate(zrevent.KeyEvent{Code: zrevent.KeyHome}, 10)
	require.Equal(t, 0, c.Index())
	require.Equal(t, 0, c.ScrollTop())

	action = c.Navigate(zrevent.KeyEvent{Code: zrevent.KeyEnter}, 10)
	require.Equal(t, ListActionSelect, action)

	action = c.Navigate(zrevent.KeyEvent{Rune: ' '}, 10)
	require.Equal(t, ListActionRowPress, action)
}

func TestListCursor_StaleIndexClampedBeforeActionOnShrink(t *testing.T) {
	c := NewListCursor(20)
	c.Set(19)
	c.SetCount(5)
	require.Equal(t, 4, c.Index())
	action := c.Navigate(zrevent.KeyEvent{Code: zrevent.KeyEnter}, 10)
	require.Equal(t, ListActionSelect, action)
}

func TestRouter_TrapRestrictsNavigationAndActivatesInitialFocus(t *testing.T) {
	r := NewRouter()
	r.SetZone(1, Zone{Shape: ZoneLinear, Members: []ID{10, 11, 12}})
	r.Focus(10)

	r.PushTrap(TrapOptions{CloseOnEscape: true, InitialFocus: 21, ReturnFocusTo: 10, Focusable: []ID{20, 21, 22}})
	require.Equal(t, ID(21), r.Focused())

	r.SetZone(2, Zone{Shape: ZoneLinear, Members: []ID{20, 21, 22}})
	r.Navigate(DirNext)
	require.Equal(t, ID(22), r.Focused())

	r.HandleKey(zrevent.KeyEvent{Code: zrevent.KeyEscape})
	require.Equal(t, 1, r.Depth())
	require.Equal(t, ID(10), r.Focused())
}

func TestRouter_TrapFallsBackToFirstFocusableWithoutInitialFocus(t *testing.T) {
	r := NewRouter()
	r.PushTrap(TrapOptions{Focusable: []ID{30, 31}})
	require.Equal(t, ID(30), r.Focused())
}

func TestZone_WrapAroundAllowsNavigationPastEdges(t *testing.T) {
	r := NewRouter()
	r.SetZone(1, Zone{Shape: ZoneLinear, Wrap: true, Members: []ID{10, 11, 12}})
	r.Focus(12)
	r.Navigate(DirDown)
	require.Equal(t, ID(10), r.Focused())
	r.Navigate(DirUp)
	require.Equal(t, ID(12), r.Focused())
}
