// Package commit implements the reconciler: turning a tree of elements
// (host widgets and function components) into a positioned widget.VNode
// tree across renders, while giving each component instance a stable
// slot vector of hooks (state, refs, effects, memo, callback, app state).
package commit

import (
	"fmt"

	"github.com/inkterm/zrui/pkg/widget"
)

// ComponentFunc is a function component: given a hook context and its
// props, it returns the element tree it renders to.
type ComponentFunc func(ctx *HookContext, props any) *Element

type nodeKind uint8

const (
	nodeHost nodeKind = iota
	nodeComponent
)

// Element is one node in the tree an application (or a component) returns.
// Exactly one of the host fields or the component fields is populated,
// per nodeKind.
type Element struct {
	nodeKind nodeKind
	Key      string

	hostKind  widget.Kind
	hostProps widget.Props
	children  []*Element

	component ComponentFunc
	props     any
}

// HostEl constructs a host element wrapping a widget kind/props pair.
func HostEl(kind widget.Kind, props widget.Props, children ...*Element) *Element {
	return &Element{nodeKind: nodeHost, hostKind: kind, hostProps: props, children: children}
}

// ComponentEl constructs a composite element calling fn with props on
// render. key distinguishes same-typed siblings for reconciliation when a
// list can reorder.
func ComponentEl(fn ComponentFunc, props any, key string) *Element {
	return &Element{nodeKind: nodeComponent, component: fn, props: props, Key: key}
}

// identity is the reconciliation key: (kind discriminator, key-or-index).
type identity struct {
	isComponent bool
	widgetKind  widget.Kind
	fnPtr       uintptr
	key         string
	hasKey      bool
	index       int
}

func elementIdentity(el *Element, index int) identity {
	id := identity{index: index}
	if el.nodeKind == nodeComponent {
		id.isComponent = true
		id.fnPtr = componentPtr(el.component)
	} else {
		id.widgetKind = el.hostKind
	}
	if el.Key != "" {
		id.key = el.Key
		id.hasKey = true
	}
	return id
}

func (id identity) matches(other identity) bool {
	if id.isComponent != other.isComponent {
		return false
	}
	if id.isComponent && id.fnPtr != other.fnPtr {
		return false
	}
	if !id.isComponent && id.widgetKind != other.widgetKind {
		return false
	}
	if id.hasKey || other.hasKey {
		return id.hasKey == other.hasKey && id.key == other.key
	}
	return id.index == other.index
}

// Instance is a mounted node, reused in place across renders when its
// identity keeps matching — this is what makes hook slots stable and
// lets a setState closure detect staleness via Mounted.
type Instance struct {
	identity identity
	element  *Element

	// component instance state
	hooks      []hookSlot
	generation uint64
	mounted    bool
	child      *Instance

	// host instance state
	hostChildren []*Instance
}

// Mounted reports whether this instance is still part of the live tree.
// A setState closure captured by a component checks this before mutating
// hook state, so calling a stale setter after the component has been torn
// out of the tree is a safe no-op rather than corrupting a reused slot.
func (inst *Instance) Mounted() bool { return inst.mounted }

// Tree is the result of a Commit.
type Tree struct {
	root *Instance
	app  *AppState
}

// AppState is the shared store UseAppState reads and writes, keyed by
// string across the whole component tree rather than per-instance.
type AppState struct {
	values map[string]any
}

// NewAppState constructs an empty shared app-state store.
func NewAppState() *AppState { return &AppState{values: make(map[string]any)} }

// Set seeds or overwrites a key in the store directly, for state pushed
// in from outside the component tree (a loaded theme, a config reload)
// rather than through UseAppState's component-local hook.
func (a *AppState) Set(key string, value any) { a.values[key] = value }

// Get reads a key set either via Set or via a component's UseAppState.
func (a *AppState) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Session accumulates effect and cleanup work across one Commit call. Call
// FlushEffects after Commit returns to run it: cleanups first (for
// dependencies that changed or components that unmounted), then new
// effects, matching FIFO effect / LIFO-relative-to-mount cleanup ordering.
type Session struct {
	pendingCleanups []func()
	pendingEffects  []func()
	dirty           bool
}

// RequestRerender marks the session dirty; a setState call during or
// after commit calls this instead of forcing a synchronous re-entrant
// commit.
func (s *Session) RequestRerender() { s.dirty = true }

// Dirty reports whether any setState call fired during this commit or any
// effect scheduled during FlushEffects.
func (s *Session) Dirty() bool { return s.dirty }

// ResetDirty clears the dirty flag once the caller has scheduled the
// re-render Dirty asked for, so the next commit starts from a clean
// slate rather than looping forever on a stale flag.
func (s *Session) ResetDirty() { s.dirty = false }

// FatalError is raised when a component violates the hook-order
// invariant: hook calls must be unconditional and in the same order on
// every render of a given instance.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string { return "ZRUI_HOOK_ORDER: " + e.Message }

// Commit renders root against the previous tree (nil for the first
// render), matching instances by identity, reusing hook state in place
// where identity matches, and returns the new Tree plus the final
// widget.VNode. Hook-order violations surface as *FatalError.
func Commit(root *Element, prev *Tree, app *AppState, sess *Session) (tree *Tree, vnode *widget.VNode, err error) {
	if app == nil {
		app = NewAppState()
	}
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*FatalError); ok {
				err = fe
				return
			}
			panic(r)
		}
	}()

	var prevRoot *Instance
	if prev != nil {
		prevRoot = prev.root
	}
	inst, vn, rerr := reconcile(root, prevRoot, 0, app, sess)
	if rerr != nil {
		return nil, nil, rerr
	}
	return &Tree{root: inst, app: app}, vn, nil
}

func reconcile(el *Element, prev *Instance, index int, app *AppState, sess *Session) (*Instance, *widget.VNode, error) {
	if el == nil {
		if prev != nil {
			prune(prev, sess)
		}
		return nil, nil, nil
	}

	id := elementIdentity(el, index)
	var inst *Instance
	if prev != nil && prev.identity.matches(id) {
		inst = prev
		inst.element = el
		inst.identity = id
		inst.generation++
	} else {
		if prev != nil {
			prune(prev, sess)
		}
		inst = &Instance{identity: id, element: el, generation: 1, mounted: true}
	}

	if el.nodeKind == nodeComponent {
		return reconcileComponent(el, inst, app, sess)
	}
	return reconcileHost(el, inst, app, sess)
}

func reconcileComponent(el *Element, inst *Instance, app *AppState, sess *Session) (*Instance, *widget.VNode, error) {
	ctx := &HookContext{inst: inst, app: app, sess: sess, prevHookLen: len(inst.hooks)}
	rendered := el.component(ctx, el.props)
	ctx.finish()

	child, vn, err := reconcile(rendered, inst.child, 0, app, sess)
	if err != nil {
		return nil, nil, err
	}
	inst.child = child
	return inst, vn, nil
}

func reconcileHost(el *Element, inst *Instance, app *AppState, sess *Session) (*Instance, *widget.VNode, error) {
	vn := &widget.VNode{Kind: el.hostKind, Key: el.Key, Props: el.hostProps}

	used := make(map[*Instance]bool, len(inst.hostChildren))
	childInstances := make([]*Instance, len(el.children))
	childVNodes := make([]*widget.VNode, 0, len(el.children))
	for i, childEl := range el.children {
		prevChild := findPrevChild(inst.hostChildren, childEl, i)
		ci, cv, err := reconcile(childEl, prevChild, i, app, sess)
		if err != nil {
			return nil, nil, err
		}
		if prevChild != nil {
			used[prevChild] = true
		}
		childInstances[i] = ci
		if cv != nil {
			childVNodes = append(childVNodes, cv)
		}
	}
	for _, prevChild := range inst.hostChildren {
		if !used[prevChild] {
			prune(prevChild, sess)
		}
	}
	inst.hostChildren = childInstances
	vn.Children = childVNodes
	return inst, vn, nil
}

func findPrevChild(prevChildren []*Instance, el *Element, index int) *Instance {
	want := elementIdentity(el, index)
	for _, c := range prevChildren {
		if c.identity.matches(want) {
			return c
		}
	}
	return nil
}

// prune marks inst and its descendants unmounted and schedules every
// live effect cleanup in the tree for the next FlushEffects call.
func prune(inst *Instance, sess *Session) {
	inst.mounted = false
	for _, slot := range inst.hooks {
		if slot.kind == hookEffect && slot.cleanup != nil {
			sess.pendingCleanups = append(sess.pendingCleanups, slot.cleanup)
		}
	}
	if inst.child != nil {
		prune(inst.child, sess)
	}
	for _, c := range inst.hostChildren {
		prune(c, sess)
	}
}

// FlushEffects runs every cleanup recorded this commit before every newly
// scheduled effect, converting a panicking effect into an error rather
// than crashing the frame loop.
func (s *Session) FlushEffects() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("zrui: effect panicked: %v", r)
		}
	}()
	for i := len(s.pendingCleanups) - 1; i >= 0; i-- {
		s.pendingCleanups[i]()
	}
	s.pendingCleanups = s.pendingCleanups[:0]
	for _, fn := range s.pendingEffects {
		fn()
	}
	s.pendingEffects = s.pendingEffects[:0]
	return nil
}
