// Package focus routes key and navigation events to the single widget
// that currently owns keyboard input: zones (linear tab order or a grid)
// with tab/arrow traversal, a modal trap stack that confines traversal to
// a restricted focusable set and restores focus on close, a layer stack
// so a popup's Escape key closes only that popup, and the widget-specific
// routers for dropdowns, input editors and virtual lists/tables that turn
// a key event into the action the owning widget should take.
package focus

import "github.com/inkterm/zrui/pkg/zrevent"

// ID identifies a focusable widget instance. The zero value means "no
// focus target".
type ID uint64

// ZoneShape determines how arrow keys move focus within a zone.
type ZoneShape uint8

const (
	// ZoneLinear moves focus forward/backward through members in
	// order; Up/Left and Down/Right both move one step.
	ZoneLinear ZoneShape = iota
	// ZoneGrid moves focus by row and column; Up/Down change row,
	// Left/Right change column, using Columns to compute rows.
	ZoneGrid
)

// Zone groups a set of focusable members that the arrow keys navigate
// between as a unit (a toolbar, a list of form fields, a button grid).
// Wrap controls whether traversal off one edge continues from the other.
type Zone struct {
	Shape   ZoneShape
	Columns int // only meaningful for ZoneGrid; must be >= 1
	Wrap    bool
	Members []ID
}

func (z Zone) indexOf(id ID) int {
	for i, m := range z.Members {
		if m == id {
			return i
		}
	}
	return -1
}

// Direction is a navigation intent derived from an arrow key press.
type Direction uint8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
	DirNext // Tab
	DirPrev // Shift+Tab
)

// Trap restricts focus traversal to a subset of ids while its layer is
// active (a modal dialog, a popover). InitialFocus, if non-zero and
// present in Focusable, receives focus when the trap activates;
// otherwise the first id in Focusable does. ReturnFocusTo, if non-zero,
// receives focus once the trap's layer is popped; whether it is still
// focusable in the layer beneath is not checked.
type Trap struct {
	InitialFocus  ID
	ReturnFocusTo ID
	Focusable     []ID
}

func (t *Trap) contains(id ID) bool {
	if t == nil {
		return true
	}
	for _, m := range t.Focusable {
		if m == id {
			return true
		}
	}
	return false
}

// layer is one entry in the modal/overlay stack. Each layer owns its own
// zone set and remembers which widget had focus in the layer beneath it,
// so closing a popup restores focus exactly where it was.
type layer struct {
	zones         map[ID]*Zone
	focused       ID
	restoreID     ID // focus to restore in the layer below once this one closes
	closeOnEscape bool
	onClose       func() error
	trap          *Trap
}

// Router owns the layer stack and dispatches focus navigation and
// Escape-to-close routing. A fresh Router starts with a single base
// layer that can never be popped.
type Router struct {
	layers []*layer
}

// NewRouter constructs a Router with an empty base layer.
func NewRouter() *Router {
	return &Router{layers: []*layer{{zones: map[ID]*Zone{}}}}
}

func (r *Router) top() *layer {
	return r.layers[len(r.layers)-1]
}

// TrapOptions configures a modal trap pushed via PushTrap.
type TrapOptions struct {
	// CloseOnEscape marks this layer as one ESC can close.
	CloseOnEscape bool
	// OnClose is invoked when ESC closes this layer. Its error, if any,
	// is swallowed: the layer is considered closed regardless.
	OnClose func() error
	// InitialFocus, ReturnFocusTo, and Focusable describe a modal trap.
	// A zero-value Focusable means this layer has no trap: Navigate is
	// unrestricted within it and activation does not move focus.
	InitialFocus  ID
	ReturnFocusTo ID
	Focusable     []ID
}

// PushLayer opens a new untrapped layer on top of the stack — the simple
// form of PushTrap for overlays (toasts, tooltips) that need Escape
// handling but no restricted focusable set. trapsEscape controls whether
// an Escape key with no other handler closes this layer.
//
// The currently focused widget in the layer beneath is remembered and
// restored automatically when this layer is popped.
func (r *Router) PushLayer(trapsEscape bool) {
	r.PushTrap(TrapOptions{CloseOnEscape: trapsEscape})
}

// PushTrap opens a new layer on top of the stack and, when Focusable is
// non-empty, activates its modal trap: focus moves to InitialFocus when
// present and focusable, else the first id in Focusable, else it is left
// unchanged.
func (r *Router) PushTrap(opts TrapOptions) {
	prev := r.top()
	l := &layer{
		zones:         map[ID]*Zone{},
		focused:       prev.focused,
		restoreID:     prev.focused,
		closeOnEscape: opts.CloseOnEscape,
		onClose:       opts.OnClose,
	}
	if len(opts.Focusable) > 0 {
		trap := &Trap{InitialFocus: opts.InitialFocus, ReturnFocusTo: opts.ReturnFocusTo, Focusable: opts.Focusable}
		l.trap = trap
		if opts.InitialFocus != 0 && trap.contains(opts.InitialFocus) {
			l.focused = opts.InitialFocus
		} else {
			l.focused = opts.Focusable[0]
		}
	}
	r.layers = append(r.layers, l)
}

// PopLayer closes the topmost layer and restores focus in the layer
// beneath it: the closed layer's trap's ReturnFocusTo when set (without
// checking that it is focusable there), else the focus captured when the
// layer was pushed.
// The base layer can never be popped.
func (r *Router) PopLayer() {
	if len(r.layers) <= 1 {
		return
	}
	closed := r.layers[len(r.layers)-1]
	r.layers = r.layers[:len(r.layers)-1]
	r.top().focused = restoreTarget(closed)
}

func restoreTarget(closed *layer) ID {
	if closed.trap != nil && closed.trap.ReturnFocusTo != 0 {
		return closed.trap.ReturnFocusTo
	}
	return closed.restoreID
}

// Depth reports how many layers are currently open, including the base.
func (r *Router) Depth() int { return len(r.layers) }

// SetZone registers or replaces a zone on the current topmost layer.
func (r *Router) SetZone(zoneID ID, z Zone) {
	r.top().zones[zoneID] = &z
}

// Focused returns the widget focused in the topmost layer.
func (r *Router) Focused() ID {
	return r.top().focused
}

// Focus sets the focused widget in the topmost layer directly, used for
// pointer clicks and programmatic focus changes rather than arrow-key
// navigation.
func (r *Router) Focus(id ID) {
	r.top().focused = id
}

func (r *Router) zoneContaining(id ID) (ID, *Zone) {
	top := r.top()
	for zid, z := range top.zones {
		if z.indexOf(id) >= 0 {
			return zid, z
		}
	}
	return 0, nil
}

// Navigate moves focus within the topmost layer's current zone according
// to dir. Members are filtered against the active trap's focusable set,
// if any, so traversal never leaves the trap. Edges clamp unless the
// zone's Wrap flag is set, in which case traversal wraps around. If no
// zone currently contains the focused widget, Navigate is a no-op.
func (r *Router) Navigate(dir Direction) {
	top := r.top()
	_, z := r.zoneContaining(top.focused)
	if z == nil || len(z.Members) == 0 {
		return
	}
	members := z.Members
	if top.trap != nil {
		filtered := make([]ID, 0, len(members))
		for _, m := range members {
			if top.trap.contains(m) {
				filtered = append(filtered, m)
			}
		}
		members = filtered
	}
	if len(members) == 0 {
		return
	}
	idx := indexOfID(members, top.focused)
	if idx < 0 {
		idx = 0
	}
	next := idx
	switch z.Shape {
	case ZoneGrid:
		cols := z.Columns
		if cols < 1 {
			cols = 1
		}
		switch dir {
		case DirNext:
			next = wrapOrClamp(idx+1, len(members), z.Wrap)
		case DirPrev:
			next = wrapOrClamp(idx-1, len(members), z.Wrap)
		default:
			totalRows := (len(members) + cols - 1) / cols
			row, col := idx/cols, idx%cols
			switch dir {
			case DirUp:
				row = wrapOrClamp(row-1, totalRows, z.Wrap)
			case DirDown:
				row = wrapOrClamp(row+1, totalRows, z.Wrap)
			case DirLeft:
				col = wrapOrClamp(col-1, cols, z.Wrap)
			case DirRight:
				col = wrapOrClamp(col+1, cols, z.Wrap)
			}
			next = row*cols + col
		}
	default: // ZoneLinear
		switch dir {
		case DirUp, DirLeft, DirPrev:
			next = wrapOrClamp(idx-1, len(members), z.Wrap)
		case DirDown, DirRight, DirNext:
			next = wrapOrClamp(idx+1, len(members), z.Wrap)
		}
	}
	if next < 0 {
		next = 0
	}
	if next >= len(members) {
		next = len(members) - 1
	}
	top.focused = members[next]
}

func wrapOrClamp(idx, count int, wrap bool) int {
	if count <= 0 {
		return 0
	}
	if wrap {
		idx %= count
		if idx < 0 {
			idx += count
		}
		return idx
	}
	if idx < 0 {
		return 0
	}
	if idx >= count {
		return count - 1
	}
	return idx
}

func indexOfID(ids []ID, id ID) int {
	for i, m := range ids {
		if m == id {
			return i
		}
	}
	return -1
}

// HandleKey translates a key event into a focus action. It returns true
// when the event was consumed (any arrow or Tab key, which is routed to
// Navigate whether or not focus moves, or an Escape that closed a layer) so the caller knows not to forward the key to the
// focused widget itself.
//
// ESC walks the stack from the top down, skipping layers that do not
// close on escape, and closes the first eligible one it finds,
// collapsing any skipped layers above it; the closed layer's close
// callback, if any, is invoked and its error swallowed. ESC is consumed
// iff a layer was closed.
func (r *Router) HandleKey(ev zrevent.KeyEvent) bool {
	switch ev.Code {
	case zrevent.KeyUp:
		r.Navigate(DirUp)
		return true
	case zrevent.KeyDown:
		r.Navigate(DirDown)
		return true
	case zrevent.KeyLeft:
		r.Navigate(DirLeft)
		return true
	case zrevent.KeyRight:
		r.Navigate(DirRight)
		return true
	case zrevent.KeyTab:
		if ev.Mods&zrevent.ModShift != 0 {
			r.Navigate(DirPrev)
		} else {
			r.Navigate(DirNext)
		}
		return true
	case zrevent.KeyEscape:
		return r.closeTopEligibleLayer()
	}
	return false
}

func (r *Router) closeTopEligibleLayer() bool {
	for i := len(r.layers) - 1; i >= 1; i-- {
		l := r.layers[i]
		if !l.closeOnEscape {
			continue
		}
		if l.onClose != nil {
			_ = l.onClose()
		}
		r.layers = r.layers[:i]
		r.top().focused = restoreTarget(l)
		return true
	}
	return false
}

// DropdownItem describes one entry a DropdownRouter navigates over;
// dividers and disabled entries are never selectable.
type DropdownItem struct {
	Divider  bool
	Disabled bool
}

func dropdownSelectable(items []DropdownItem, i int) bool {
	if i < 0 || i >= len(items) {
		return false
	}
	return !items[i].Divider && !items[i].Disabled
}

// DropdownAction is what a DropdownRouter produces for a keystroke.
type DropdownAction uint8

const (
	DropdownNone DropdownAction = iota
	// DropdownSelect fires on-select for SelectedIndex and signals close.
	DropdownSelect
	// DropdownClose signals close without a selection.
	DropdownClose
)

// DropdownResult is a DropdownRouter's response to one keystroke.
type DropdownResult struct {
	SelectedIndex int
	Action        DropdownAction
}

// DropdownRouter routes key events over a dropdown or menu's items and
// selected index: ArrowDown/Up move to the next/previous selectable item
// (skipping dividers and disabled entries), wrapping; Home/End jump to
// the first/last selectable; Enter/Space activate the nearest selectable
// from the current index, forward-scanning if it is itself non-selectable,
// fire on-select and signal close; ESC signals close without a selection.
type DropdownRouter struct{}

// HandleKey resolves one key event against items and the current
// selected index.
func (DropdownRouter) HandleKey(ev zrevent.KeyEvent, items []DropdownItem, selectedIndex int) DropdownResult {
	switch ev.Code {
	case zrevent.KeyDown:
		return DropdownResult{SelectedIndex: scanSelectable(items, selectedIndex, 1, selectedIndex)}
	case zrevent.KeyUp:
		return DropdownResult{SelectedIndex: scanSelectable(items, selectedIndex, -1, selectedIndex)}
	case zrevent.KeyHome:
		if idx := firstSelectable(items); idx >= 0 {
			return DropdownResult{SelectedIndex: idx}
		}
		return DropdownResult{SelectedIndex: selectedIndex}
	case zrevent.KeyEnd:
		if idx := lastSelectable(items); idx >= 0 {
			return DropdownResult{SelectedIndex: idx}
		}
		return DropdownResult{SelectedIndex: selectedIndex}
	case zrevent.KeyEnter:
		return activateDropdown(items, selectedIndex)
	case zrevent.KeyEscape:
		return DropdownResult{SelectedIndex: selectedIndex, Action: DropdownClose}
	default:
		if ev.Rune == ' ' {
			return activateDropdown(items, selectedIndex)
		}
	}
	return DropdownResult{SelectedIndex: selectedIndex}
}

func activateDropdown(items []DropdownItem, selectedIndex int) DropdownResult {
	idx := nearestSelectable(items, selectedIndex)
	if idx < 0 {
		return DropdownResult{SelectedIndex: selectedIndex}
	}
	return DropdownResult{SelectedIndex: idx, Action: DropdownSelect}
}

// nearestSelectable returns "from" itself if selectable, else the
// nearest selectable scanning forward, wrapping once through the list.
func nearestSelectable(items []DropdownItem, from int) int {
	if dropdownSelectable(items, from) {
		return from
	}
	n := len(items)
	if n == 0 {
		return -1
	}
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if dropdownSelectable(items, i) {
			return i
		}
	}
	return -1
}

// scanSelectable scans from "from" in the given direction (+1 or -1),
// wrapping, and returns the next selectable index, or fallback if none
// exists.
func scanSelectable(items []DropdownItem, from, dir, fallback int) int {
	n := len(items)
	if n == 0 {
		return fallback
	}
	i := from
	for step := 0; step < n; step++ {
		i = ((i+dir)%n + n) % n
		if dropdownSelectable(items, i) {
			return i
		}
	}
	return fallback
}

func firstSelectable(items []DropdownItem) int {
	for i := range items {
		if dropdownSelectable(items, i) {
			return i
		}
	}
	return -1
}

func lastSelectable(items []DropdownItem) int {
	for i := len(items) - 1; i >= 0; i-- {
		if dropdownSelectable(items, i) {
			return i
		}
	}
	return -1
}

// ListAction is what ListCursor.Navigate emits for a virtual list/table
// keystroke.
type ListAction uint8

const (
	ListActionNone ListAction = iota
	ListActionSelect
	ListActionRowPress
)

// ListCursor tracks the focused row of a virtualized list or table whose
// backing data can shrink out from under it (a filter narrows the result
// set, a row is deleted), along with the scroll-top needed to keep the
// focused row visible in a viewport of known height. Clamp keeps the
// cursor valid without the caller needing to remember to check bounds on
// every mutation.
type ListCursor struct {
	index     int
	count     int
	scrollTop int
}

// NewListCursor constructs a cursor over a list of the given length.
func NewListCursor(count int) *ListCursor {
	return &ListCursor{count: count}
}

// Index returns the current selection, or -1 if the list is empty.
func (c *ListCursor) Index() int {
	if c.count == 0 {
		return -1
	}
	return c.index
}

// ScrollTop reports the first row a viewport should render.
func (c *ListCursor) ScrollTop() int {
	if c.count == 0 {
		return 0
	}
	return c.scrollTop
}

// SetCount updates the backing list length and clamps the current
// selection and scroll-top into range before any action can be produced,
// preferring to keep the same index rather than resetting to zero so a
// shrink near the end of the list doesn't surprise the user by jumping
// selection back to the top.
func (c *ListCursor) SetCount(count int) {
	c.count = count
	if count <= 0 {
		c.index = 0
		c.scrollTop = 0
		return
	}
	if c.index >= count {
		c.index = count - 1
	}
	if c.index < 0 {
		c.index = 0
	}
	if c.scrollTop > count-1 {
		c.scrollTop = count - 1
	}
	if c.scrollTop < 0 {
		c.scrollTop = 0
	}
}

// Move shifts the selection by delta, clamping at the list bounds.
func (c *ListCursor) Move(delta int) {
	if c.count == 0 {
		return
	}
	c.Set(c.index + delta)
}

// Set moves the selection to an explicit index, clamping into range.
func (c *ListCursor) Set(index int) {
	c.index = index
	c.SetCount(c.count)
}

// Navigate advances the cursor per ev against a viewport of viewportRows
// visible rows: Up/Down move by one row, PageUp/PageDown by the visible
// row span, Home/End jump to the first/last row and snap the scroll
// offset to the corresponding extreme, and Enter/Space report the action
// the owning widget should fire (Enter selects the row, Space presses
// it). Any other key reports ListActionNone.
func (c *ListCursor) Navigate(ev zrevent.KeyEvent, viewportRows int) ListAction {
	if c.count == 0 {
		return ListActionNone
	}
	span := viewportRows
	if span < 1 {
		span = 1
	}
	switch ev.Code {
	case zrevent.KeyUp:
		c.Move(-1)
	case zrevent.KeyDown:
		c.Move(1)
	case zrevent.KeyPageUp:
		c.Move(-span)
	case zrevent.KeyPageDown:
		c.Move(span)
	case zrevent.KeyHome:
		c.Set(0)
		c.scrollTop = 0
		return ListActionNone
	case zrevent.KeyEnd:
		c.Set(c.count - 1)
		c.scrollTop = max(0, c.count-viewportRows)
		return ListActionNone
	case zrevent.KeyEnter:
		return ListActionSelect
	default:
		if ev.Rune == ' ' {
			return ListActionRowPress
		}
		return ListActionNone
	}
	c.ensureVisible(viewportRows)
	return ListActionNone
}

func (c *ListCursor) ensureVisible(viewportRows int) {
	if viewportRows <= 0 {
		return
	}
	if c.index < c.scrollTop {
		c.scrollTop = c.index
	} else if c.index >= c.scrollTop+viewportRows {
		c.scrollTop = c.index - viewportRows + 1
	}
	if top := max(0, c.count-viewportRows); c.scrollTop > top {
		c.scrollTop = top
	}
	if c.scrollTop < 0 {
		c.scrollTop = 0
	}
}

// EditorResult is an input editor router's response to one keystroke: the
// (possibly mutated) grapheme sequence and whether it changed.
type EditorResult struct {
	Graphemes []string
	Changed   bool
}

// EditorCursor tracks a grapheme-cluster cursor position and selection
// anchor within a string, generalized from a single-line text input's
// cursor handling to support the multi-field routing a focus zone needs
// (knowing whether Left/Right should move the cursor within the field or
// hand off to zone navigation at the field's edges). The selection is
// empty exactly when anchor equals pos; otherwise it spans the two in
// grapheme-index order, so every public method leaves
// 0 <= start <= end <= len(graphemes) with both endpoints on grapheme
// boundaries.
type EditorCursor struct {
	graphemes []string
	pos       int // index into graphemes, 0..len(graphemes)
	anchor    int // selection anchor; equals pos when there is no selection
}

// NewEditorCursor builds a cursor over text already split into grapheme
// clusters (see pkg/measure.Graphemes), positioned at the end with no
// selection.
func NewEditorCursor(graphemes []string) *EditorCursor {
	n := len(graphemes)
	return &EditorCursor{graphemes: graphemes, pos: n, anchor: n}
}

// Pos returns the current cluster index.
func (e *EditorCursor) Pos() int { return e.pos }

// AtStart reports whether the cursor is at the first cluster, meaning a
// further Left press should be handed off to zone navigation instead of
// moving within the field.
func (e *EditorCursor) AtStart() bool { return e.pos == 0 }

// AtEnd reports whether the cursor is at the last cluster, meaning a
// further Right press should be handed off to zone navigation.
func (e *EditorCursor) AtEnd() bool { return e.pos == len(e.graphemes) }

// MoveLeft moves the cursor one grapheme cluster left, clamping at 0 and
// collapsing any selection.
func (e *EditorCursor) MoveLeft() {
	if e.pos > 0 {
		e.pos--
	}
	e.anchor = e.pos
}

// MoveRight moves the cursor one grapheme cluster right, clamping at the
// end and collapsing any selection.
func (e *EditorCursor) MoveRight() {
	if e.pos < len(e.graphemes) {
		e.pos++
	}
	e.anchor = e.pos
}

// SetGraphemes replaces the backing text and clamps the cursor and
// selection anchor into the new bounds, used after an edit changes the
// cluster count.
func (e *EditorCursor) SetGraphemes(graphemes []string) {
	e.graphemes = graphemes
	if e.pos > len(graphemes) {
		e.pos = len(graphemes)
	}
	if e.anchor > len(graphemes) {
		e.anchor = len(graphemes)
	}
}

// Selection reports the normalized selection range, or ok=false when the
// cursor has no selection (anchor == pos).
func (e *EditorCursor) Selection() (start, end int, ok bool) {
	if e.anchor == e.pos {
		return 0, 0, false
	}
	if e.anchor < e.pos {
		return e.anchor, e.pos, true
	}
	return e.pos, e.anchor, true
}

func (e *EditorCursor) result() EditorResult {
	return EditorResult{Graphemes: e.graphemes}
}

// HandleKey routes one key event against the editor state: ArrowLeft/
// Right move the cursor (Shift extends the selection instead of
// collapsing it), Home/End jump to the bounds (with the same Shift
// behavior), Backspace/Delete remove the selection or the adjacent
// grapheme, a bare printable rune replaces the selection with itself, and
// any Ctrl-modified key passes through unhandled. The bool result reports
// whether the event was consumed.
func (e *EditorCursor) HandleKey(ev zrevent.KeyEvent) (EditorResult, bool) {
	if ev.Mods&zrevent.ModCtrl != 0 {
		return e.result(), false
	}
	extend := ev.Mods&zrevent.ModShift != 0
	switch ev.Code {
	case zrevent.KeyLeft:
		e.moveTo(e.pos-1, extend)
		return e.result(), true
	case zrevent.KeyRight:
		e.moveTo(e.pos+1, extend)
		return e.result(), true
	case zrevent.KeyHome:
		e.moveTo(0, extend)
		return e.result(), true
	case zrevent.KeyEnd:
		e.moveTo(len(e.graphemes), extend)
		return e.result(), true
	case zrevent.KeyBackspace:
		return e.backspace(), true
	case zrevent.KeyDelete:
		return e.deleteForward(), true
	default:
		if ev.Rune >= 0x20 && ev.Rune != 0x7f {
			return e.InsertGraphemes([]string{string(ev.Rune)}), true
		}
	}
	return e.result(), false
}

func (e *EditorCursor) moveTo(pos int, extend bool) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(e.graphemes) {
		pos = len(e.graphemes)
	}
	e.pos = pos
	if !extend {
		e.anchor = pos
	}
}

// InsertGraphemes replaces the current selection (or inserts at the
// cursor when there is none) with graphemes, used for both a single
// printable keystroke and a pasted run of text split by
// pkg/measure.Graphemes.
func (e *EditorCursor) InsertGraphemes(graphemes []string) EditorResult {
	start, end, ok := e.Selection()
	if !ok {
		start, end = e.pos, e.pos
	}
	merged := make([]string, 0, start+len(graphemes)+(len(e.graphemes)-end))
	merged = append(merged, e.graphemes[:start]...)
	merged = append(merged, graphemes...)
	merged = append(merged, e.graphemes[end:]...)
	e.graphemes = merged
	e.pos = start + len(graphemes)
	e.anchor = e.pos
	return EditorResult{Graphemes: e.graphemes, Changed: true}
}

func (e *EditorCursor) backspace() EditorResult {
	if start, end, ok := e.Selection(); ok {
		return e.deleteRange(start, end)
	}
	if e.pos == 0 {
		return e.result()
	}
	return e.deleteRange(e.pos-1, e.pos)
}

func (e *EditorCursor) deleteForward() EditorResult {
	if start, end, ok := e.Selection(); ok {
		return e.deleteRange(start, end)
	}
	if e.pos >= len(e.graphemes) {
		return e.result()
	}
	return e.deleteRange(e.pos, e.pos+1)
}

func (e *EditorCursor) deleteRange(start, end int) EditorResult {
	merged := make([]string, 0, len(e.graphemes)-(end-start))
	merged = append(merged, e.graphemes[:start]...)
	merged = append(merged, e.graphemes[end:]...)
	e.graphemes = merged
	e.pos = start
	e.anchor = start
	return EditorResult{Graphemes: e.graphemes, Changed: true}
}
