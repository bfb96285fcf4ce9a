// Package zrui is the runtime root: it drives the frame loop that turns a
// tree of components into drawlist frames, on a single UI goroutine so
// component state never needs its own locking, the way pitui.TUI drives
// its render loop.
package zrui

import (
	"context"
	"errors"
	"sync"

	"github.com/cenkalti/backoff/v5"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/inkterm/zrui/pkg/commit"
	"github.com/inkterm/zrui/pkg/damage"
	"github.com/inkterm/zrui/pkg/drawlist"
	"github.com/inkterm/zrui/pkg/focus"
	"github.com/inkterm/zrui/pkg/layout"
	"github.com/inkterm/zrui/pkg/measure"
	"github.com/inkterm/zrui/pkg/paint"
	"github.com/inkterm/zrui/pkg/zrevent"
)

// FrameSink receives the drawlist bytes produced by each frame. A real
// terminal-backed sink lives in pkg/termio; tests and the demo use an
// in-memory stub. Returning ErrBackpressure tells the App to retry the
// write with backoff rather than drop or block the UI goroutine.
type FrameSink interface {
	WriteFrame(ctx context.Context, frame []byte) error
}

// ErrBackpressure signals that a FrameSink could not accept a frame right
// now (a full pipe, a slow SSH link) and the App should retry.
var ErrBackpressure = errors.New("zrui: sink backpressure")

// ErrUpdateDuringRender is returned by Update when called re-entrantly
// from inside the component tree's own render pass — e.g. a component
// calling App.Update synchronously from its own render function instead
// of scheduling the mutation for the next frame via an effect. Allowing
// that would mutate hook state out from under the reconciler mid-walk.
var ErrUpdateDuringRender = errors.New("zrui: update called during render (ZRUI_UPDATE_DURING_RENDER)")

// EventListener observes every decoded event before it reaches focus
// routing or the component tree. Returning true consumes the event.
type EventListener func(ev any) bool

// App owns the component tree, the focus router, damage tracking, and the
// frame loop that ties them to a FrameSink. All component state — render
// functions, effects, event handlers — runs on the single UI goroutine
// started by Start, mirroring pitui.TUI's single-goroutine ownership
// model.
type App struct {
	sink     FrameSink
	measurer *measure.Measurer

	mu       sync.Mutex
	viewport layout.Rect

	// UI-goroutine-only state.
	root       commit.ComponentFunc
	rootProps  any
	tree       *commit.Tree
	app        *commit.AppState
	sess       *commit.Session
	router     *focus.Router
	tracker    *damage.Tracker
	listeners  []EventListener
	rendering  bool
	frameCount uint64
	profile    paint.ColorProfile

	eventCh    chan any
	dispatchMu sync.Mutex
	dispatchQ  []func()
	dispatchCh chan struct{}
	renderCh   chan struct{}
	loopDone   chan struct{}

	group      *errgroup.Group
	groupCtx   context.Context
	stopCancel context.CancelFunc

	routes *routeTable
}

// Option configures an App at construction.
type Option func(*App)

// WithColorProfile sets the terminal color profile frames are downsampled
// to. Defaults to ProfileTrueColor.
func WithColorProfile(p paint.ColorProfile) Option {
	return func(a *App) { a.profile = p }
}

// NewApp constructs an App rendering root into viewport and writing
// frames to sink. The app is idle until Start is called.
func NewApp(root commit.ComponentFunc, props any, viewport layout.Rect, sink FrameSink, opts ...Option) *App {
	a := &App{
		root:      root,
		rootProps: props,
		viewport:  viewport,
		sink:      sink,
		measurer:  measure.NewMeasurer(measure.DefaultCapabilities()),
		app:       commit.NewAppState(),
		sess:      &commit.Session{},
		router:    focus.NewRouter(),
		tracker:   damage.NewTracker(damage.Rect{W: viewport.W, H: viewport.H}, 0),
		profile:   paint.ProfileTrueColor,

		eventCh:    make(chan any, 64),
		dispatchCh: make(chan struct{}, 1),
		renderCh:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start begins the frame loop. The returned context's cancellation (via
// Stop, or a sink error propagating through the supervised goroutine)
// ends the loop. Start returns as soon as the loop goroutine is running
// and the first frame has been requested; it does not wait for that frame.
func (a *App) Start(ctx context.Context) error {
	groupCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(groupCtx)
	a.group = g
	a.groupCtx = gctx
	a.stopCancel = cancel
	a.loopDone = make(chan struct{})

	g.Go(func() error {
		defer close(a.loopDone)
		return a.runLoop(gctx)
	})

	a.RequestRender()
	return nil
}

// Stop ends the frame loop and waits for it to exit, returning the first
// error any supervised goroutine reported (nil on a clean shutdown).
func (a *App) Stop() error {
	if a.stopCancel == nil {
		return nil
	}
	a.stopCancel()
	<-a.loopDone
	return a.group.Wait()
}

// Update schedules fn to run on the UI goroutine before the next frame,
// the safe way for code outside the component tree (an external event
// source, a background goroutine) to mutate app state. Returns
// ErrUpdateDuringRender if called synchronously from within the UI
// goroutine's own render pass.
func (a *App) Update(fn func()) error {
	if a.onUIGoroutineRendering() {
		return ErrUpdateDuringRender
	}
	a.dispatchMu.Lock()
	a.dispatchQ = append(a.dispatchQ, fn)
	a.dispatchMu.Unlock()
	select {
	case a.dispatchCh <- struct{}{}:
	default:
	}
	return nil
}

func (a *App) onUIGoroutineRendering() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rendering
}

// OnEvent registers a listener invoked with every decoded event before
// focus routing. Listeners run in registration order; the first to
// return true consumes the event.
func (a *App) OnEvent(l EventListener) {
	a.listeners = append(a.listeners, l)
}

// PushEvent delivers a decoded input event to the app. Safe to call from
// any goroutine (an EventSource feeding the channel from its own
// goroutine, a test driving the app directly).
func (a *App) PushEvent(ev any) {
	select {
	case a.eventCh <- ev:
	default:
		// Drop rather than block the producer; a full queue means the UI
		// goroutine is behind and the next render will still pick up
		// whatever made it through.
	}
}

// ReplaceView swaps the root component, discarding the previous
// reconciliation tree so the new view mounts fresh rather than being
// diffed against unrelated prior state.
func (a *App) ReplaceView(root commit.ComponentFunc, props any) {
	a.root = root
	a.rootProps = props
	a.tree = nil
	a.tracker.MarkFull()
	a.RequestRender()
}

// SetViewport updates the render viewport, forcing a full redraw since a
// resize invalidates the prior frame's damage accounting.
func (a *App) SetViewport(viewport layout.Rect) {
	a.mu.Lock()
	a.viewport = viewport
	a.mu.Unlock()
	a.tracker.Resize(damage.Rect{W: viewport.W, H: viewport.H})
	a.RequestRender()
}

// Focus exposes the app's focus router so components can register zones
// and react to focus changes.
func (a *App) Focus() *focus.Router { return a.router }

// themeStateKey is the AppState key components read via
// commit.UseAppState to observe the active theme.
const themeStateKey = "zrui.theme"

// SetTheme pushes a new theme value into app state, visible to every
// component that calls commit.UseAppState[T](ctx, zrui.ThemeKey(), ...),
// and schedules a re-render. Safe to call from any goroutine.
func (a *App) SetTheme(theme any) error {
	return a.Update(func() {
		a.app.Set(themeStateKey, theme)
	})
}

// ThemeKey returns the AppState key a component should pass to
// commit.UseAppState to read the theme SetTheme installs.
func ThemeKey() string { return themeStateKey }

// RequestRender schedules a render on the next loop iteration. Safe to
// call from any goroutine; multiple rapid requests coalesce into one
// frame.
func (a *App) RequestRender() {
	select {
	case a.renderCh <- struct{}{}:
	default:
	}
}

// runLoop is the single UI goroutine: it drains events and dispatched
// closures, then renders, repeating until ctx is done. Modeled on
// pitui.TUI.runLoop's coalescing event/dispatch/render select loop.
func (a *App) runLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-a.eventCh:
			a.handleEvent(ev)
		case <-a.dispatchCh:
			a.drainDispatch()
		case <-a.renderCh:
		}

	drain:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev := <-a.eventCh:
				a.handleEvent(ev)
			case <-a.dispatchCh:
				a.drainDispatch()
			default:
				break drain
			}
		}

		if err := a.renderFrame(ctx); err != nil {
			return err
		}
	}
}

func (a *App) drainDispatch() {
	a.dispatchMu.Lock()
	q := a.dispatchQ
	a.dispatchQ = nil
	a.dispatchMu.Unlock()
	for _, fn := range q {
		fn()
	}
}

func (a *App) handleEvent(ev any) {
	for _, l := range a.listeners {
		if l(ev) {
			return
		}
	}
	if key, ok := ev.(zrevent.KeyEvent); ok {
		if a.router.HandleKey(key) {
			return
		}
	}
	// Unhandled events (and keys the router didn't consume) are left for
	// the focused component to pick up via its own hook-driven state;
	// the commit tree's next render observes whatever app state the
	// listener chain or router already mutated.
}

// renderFrame runs one commit/layout/paint cycle and writes the result to
// the sink, retrying on backpressure with exponential backoff.
func (a *App) renderFrame(ctx context.Context) error {
	a.mu.Lock()
	a.rendering = true
	a.mu.Unlock()

	rootEl := commit.ComponentEl(a.root, a.rootProps, "")
	tree, vn, err := commit.Commit(rootEl, a.tree, a.app, a.sess)

	a.mu.Lock()
	a.rendering = false
	viewport := a.viewport
	a.mu.Unlock()

	if err != nil {
		return pkgerrors.Wrap(err, "zrui: commit failed")
	}
	a.tree = tree
	if flushErr := a.sess.FlushEffects(); flushErr != nil {
		return pkgerrors.Wrap(flushErr, "zrui: effect flush failed")
	}
	if a.sess.Dirty() {
		a.sess.ResetDirty()
		a.RequestRender()
	}

	box := layout.Compute(vn, viewport, a.measurer)
	builder := drawlist.NewBuilder(drawlist.Caps{})
	paintCtx := &paint.Context{Builder: builder, Measurer: a.measurer, Profile: a.profile}
	paint.Paint(box, paintCtx)

	frame, buildErr := builder.Build()
	if buildErr != nil {
		return pkgerrors.Wrap(buildErr, "zrui: drawlist build failed")
	}

	a.frameCount++
	if writeErr := a.writeFrame(ctx, frame); writeErr != nil {
		return writeErr
	}
	a.tracker.Reset()
	return nil
}

// Damage exposes the app's dirty-rect tracker so a FrameSink (or a test)
// can decide whether the last frame warranted a partial or full repaint.
func (a *App) Damage() *damage.Tracker { return a.tracker }

// FrameCount returns how many frames have been rendered since Start.
func (a *App) FrameCount() uint64 { return a.frameCount }

// writeFrame pushes frame to the sink, retrying on ErrBackpressure with
// backoff's v5 retry helper rather than dropping a frame or blocking the
// UI goroutine indefinitely on a slow consumer (a laggy SSH pipe, a
// debug-bundle recorder flushing to disk).
func (a *App) writeFrame(ctx context.Context, frame []byte) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		werr := a.sink.WriteFrame(ctx, frame)
		if errors.Is(werr, ErrBackpressure) {
			return struct{}{}, werr
		}
		if werr != nil {
			return struct{}{}, backoff.Permanent(werr)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(8))
	return err
}

// nopSink discards frames; useful for tests and headless demos that only
// care about the component tree's behavior.
type nopSink struct{}

// WriteFrame implements FrameSink by discarding frame.
func (nopSink) WriteFrame(context.Context, []byte) error { return nil }

// NopSink returns a FrameSink that discards every frame.
func NopSink() FrameSink { return nopSink{} }
