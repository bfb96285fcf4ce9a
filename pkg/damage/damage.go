// Package damage tracks dirty rectangles between frames and decides
// whether a partial repaint is worthwhile or the viewport should just be
// redrawn in full.
package damage

// Rect is an axis-aligned cell rectangle.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) area() int { return r.W * r.H }

func (r Rect) empty() bool { return r.W <= 0 || r.H <= 0 }

// union returns the smallest rect containing both a and b. Unlike a tight
// bounding union of disjoint rects this can overcount covered area, which
// is why Tracker keeps a list of rects rather than collapsing eagerly.
func union(a, b Rect) Rect {
	if a.empty() {
		return b
	}
	if b.empty() {
		return a
	}
	x0 := min(a.X, b.X)
	y0 := min(a.Y, b.Y)
	x1 := max(a.X+a.W, b.X+b.W)
	y1 := max(a.Y+a.H, b.Y+b.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func overlaps(a, b Rect) bool {
	if a.empty() || b.empty() {
		return false
	}
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// Tracker accumulates dirty rects for the current frame and decides
// whether they should be merged into a full-viewport redraw.
type Tracker struct {
	viewport  Rect
	threshold float64 // fraction of viewport cells dirty before forcing full redraw
	rects     []Rect
	full      bool
}

// DefaultFullRedrawThreshold is the fraction of dirty viewport cells at
// or above which a full redraw is cheaper than tracking individual rects.
const DefaultFullRedrawThreshold = 0.70

// NewTracker constructs a Tracker for the given viewport. threshold <= 0
// uses DefaultFullRedrawThreshold.
func NewTracker(viewport Rect, threshold float64) *Tracker {
	if threshold <= 0 {
		threshold = DefaultFullRedrawThreshold
	}
	return &Tracker{viewport: viewport, threshold: threshold}
}

// Resize updates the tracked viewport and forces a full redraw, since
// every cell's prior content is invalid after a terminal resize.
func (t *Tracker) Resize(viewport Rect) {
	t.viewport = viewport
	t.MarkFull()
}

// MarkFull forces the next Rects() call to report the whole viewport,
// used for focus changes, theme changes, and other events that
// invalidate arbitrary parts of the screen rather than a specific rect.
func (t *Tracker) MarkFull() {
	t.full = true
	t.rects = t.rects[:0]
}

// Mark records rect as dirty for the current frame, intersected with the
// viewport. Overlapping rects are merged to keep the list small; this
// deliberately does not attempt an exact non-overlapping rect partition.
func (t *Tracker) Mark(rect Rect) {
	if t.full {
		return
	}
	rect = intersect(rect, t.viewport)
	if rect.empty() {
		return
	}
	for i, existing := range t.rects {
		if overlaps(existing, rect) {
			t.rects[i] = union(existing, rect)
			t.coalesce()
			return
		}
	}
	t.rects = append(t.rects, rect)
	t.coalesce()
}

// coalesce merges any rects that now overlap after a Mark, and promotes
// to a full redraw once the merged dirty area crosses the threshold.
func (t *Tracker) coalesce() {
	merged := true
	for merged {
		merged = false
		for i := 0; i < len(t.rects); i++ {
			for j := i + 1; j < len(t.rects); j++ {
				if overlaps(t.rects[i], t.rects[j]) {
					t.rects[i] = union(t.rects[i], t.rects[j])
					t.rects = append(t.rects[:j], t.rects[j+1:]...)
					merged = true
					break
				}
			}
			if merged {
				break
			}
		}
	}
	if t.dirtyArea() >= int(float64(t.viewport.area())*t.threshold) {
		t.MarkFull()
	}
}

func (t *Tracker) dirtyArea() int {
	total := 0
	for _, r := range t.rects {
		total += r.area()
	}
	return total
}

// Full reports whether the current frame should redraw the whole
// viewport rather than replay individual dirty rects.
func (t *Tracker) Full() bool { return t.full }

// Rects returns the current frame's dirty rects. If Full() is true this
// is empty; the caller should treat the whole viewport as dirty instead.
func (t *Tracker) Rects() []Rect {
	return append([]Rect(nil), t.rects...)
}

// Reset clears all tracked damage after a frame has been rendered.
func (t *Tracker) Reset() {
	t.rects = t.rects[:0]
	t.full = false
}

func intersect(a, b Rect) Rect {
	x0 := max(a.X, b.X)
	y0 := max(a.Y, b.Y)
	x1 := min(a.X+a.W, b.X+b.W)
	y1 := min(a.Y+a.H, b.Y+b.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
