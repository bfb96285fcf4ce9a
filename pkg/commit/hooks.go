package commit

import (
	"fmt"
	"reflect"
)

type hookKind uint8

const (
	hookState hookKind = iota
	hookRef
	hookEffect
	hookMemo
	hookCallback
	hookAppState
)

type hookSlot struct {
	kind    hookKind
	value   any
	deps    []any
	cleanup func() // hookEffect only: the cleanup returned by the last run
	appKey  string // hookAppState only
}

// HookContext is passed to a component on every render. Hooks are called
// through the package-level UseX functions taking ctx as their first
// argument (Go methods cannot be generic), in the same order and count on
// every render of a given instance — violating this raises a *FatalError.
type HookContext struct {
	inst        *Instance
	app         *AppState
	sess        *Session
	cursor      int
	prevHookLen int
}

func (ctx *HookContext) nextSlot(kind hookKind) int {
	idx := ctx.cursor
	ctx.cursor++
	if idx < len(ctx.inst.hooks) {
		if ctx.inst.hooks[idx].kind != kind {
			panic(&FatalError{Message: fmt.Sprintf(
				"hook order changed at slot %d: previously %d, now %d", idx, ctx.inst.hooks[idx].kind, kind)})
		}
		return idx
	}
	ctx.inst.hooks = append(ctx.inst.hooks, hookSlot{kind: kind})
	return idx
}

func (ctx *HookContext) finish() {
	if ctx.prevHookLen > 0 && ctx.cursor != ctx.prevHookLen {
		panic(&FatalError{Message: fmt.Sprintf(
			"hook count changed: previously %d hooks, this render called %d", ctx.prevHookLen, ctx.cursor)})
	}
}

func componentPtr(fn ComponentFunc) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func depsEqual(a, b []any) bool {
	if a == nil || b == nil {
		return false // nil deps means "always rerun"
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UseState returns the current value of a state cell plus a setter. The
// setter is a no-op if the owning instance has since been unmounted,
// protecting against a stale closure retained past the component's
// lifetime (e.g. a goroutine or timer started on an earlier render).
func UseState[T any](ctx *HookContext, initial T) (T, func(T)) {
	idx := ctx.nextSlot(hookState)
	inst := ctx.inst
	if inst.hooks[idx].value == nil {
		inst.hooks[idx].value = initial
	}
	val, _ := inst.hooks[idx].value.(T)
	sess := ctx.sess
	setter := func(v T) {
		if !inst.Mounted() {
			return
		}
		inst.hooks[idx].value = v
		sess.RequestRerender()
	}
	return val, setter
}

// Ref is a mutable cell that survives across renders without triggering a
// rerender when written.
type Ref[T any] struct {
	Current T
}

// UseRef returns the same *Ref across every render of this instance,
// initialized to initial on the first call only.
func UseRef[T any](ctx *HookContext, initial T) *Ref[T] {
	idx := ctx.nextSlot(hookRef)
	if ctx.inst.hooks[idx].value == nil {
		ctx.inst.hooks[idx].value = &Ref[T]{Current: initial}
	}
	return ctx.inst.hooks[idx].value.(*Ref[T])
}

// UseMemo recomputes compute() only when deps changes from the previous
// render (by shallow interface comparison); nil deps recomputes every
// render.
func UseMemo[T any](ctx *HookContext, deps []any, compute func() T) T {
	idx := ctx.nextSlot(hookMemo)
	slot := &ctx.inst.hooks[idx]
	if slot.value == nil || !depsEqual(slot.deps, deps) {
		slot.value = compute()
		slot.deps = deps
	}
	return slot.value.(T)
}

// UseCallback memoizes fn itself across renders, following the same deps
// comparison as UseMemo. Useful to keep a callback's identity stable for
// child components or effect dependency lists.
func UseCallback[T any](ctx *HookContext, deps []any, fn T) T {
	idx := ctx.nextSlot(hookCallback)
	slot := &ctx.inst.hooks[idx]
	if slot.value == nil || !depsEqual(slot.deps, deps) {
		slot.value = fn
		slot.deps = deps
	}
	return slot.value.(T)
}

// UseEffect schedules fn to run after the commit's render pass completes
// (via Session.FlushEffects), skipping it when deps are unchanged from the
// previous render. If fn returns a non-nil cleanup, it runs before the
// effect's next invocation or when the component unmounts. nil deps runs
// the effect (and its previous cleanup) on every commit.
func UseEffect(ctx *HookContext, deps []any, fn func() (cleanup func())) {
	idx := ctx.nextSlot(hookEffect)
	inst := ctx.inst
	slot := &inst.hooks[idx]
	if slot.deps != nil && depsEqual(slot.deps, deps) {
		return
	}
	slot.deps = deps
	if slot.cleanup != nil {
		prevCleanup := slot.cleanup
		ctx.sess.pendingCleanups = append(ctx.sess.pendingCleanups, prevCleanup)
		slot.cleanup = nil
	}
	ctx.sess.pendingEffects = append(ctx.sess.pendingEffects, func() {
		inst.hooks[idx].cleanup = fn()
	})
}

// UseAppState is like UseState but the value lives in the shared AppState
// store keyed by key, visible to every component that calls UseAppState
// with the same key rather than being private to one instance.
func UseAppState[T any](ctx *HookContext, key string, initial T) (T, func(T)) {
	idx := ctx.nextSlot(hookAppState)
	ctx.inst.hooks[idx].appKey = key
	app := ctx.app
	if _, ok := app.values[key]; !ok {
		app.values[key] = initial
	}
	val := app.values[key].(T)
	sess := ctx.sess
	setter := func(v T) {
		app.values[key] = v
		sess.RequestRerender()
	}
	return val, setter
}
