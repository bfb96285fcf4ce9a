package commit

import (
	"testing"

	"github.com/inkterm/zrui/pkg/widget"
	"github.com/stretchr/testify/require"
)

func counterComponent(ctx *HookContext, props any) *Element {
	count, setCount := UseState(ctx, 0)
	_ = setCount
	return HostEl(widget.KindText, widget.TextProps{Content: itoa(count)})
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func TestCommit_BasicRenderAndStateReuse(t *testing.T) {
	root := ComponentEl(counterComponent, nil, "")
	sess := &Session{}
	tree, vn, err := Commit(root, nil, nil, sess)
	require.NoError(t, err)
	require.Equal(t, widget.KindText, vn.Kind)
	require.Equal(t, "0", vn.Props.(widget.TextProps).Content)

	_, vn2, err := Commit(root, tree, nil, sess)
	require.NoError(t, err)
	require.Equal(t, "0", vn2.Props.(widget.TextProps).Content)
}

func stateMutator(ctx *HookContext, props any) *Element {
	count, setCount := UseState(ctx, 0)
	captured := props.(*capturedSetter)
	captured.setCount = func() { setCount(count + 1) }
	return HostEl(widget.KindText, widget.TextProps{Content: itoa(count)})
}

type capturedSetter struct {
	setCount func()
}

func TestCommit_SetStateAdvancesAcrossCommits(t *testing.T) {
	cap1 := &capturedSetter{}
	root := ComponentEl(stateMutator, cap1, "")
	sess := &Session{}
	tree, vn, err := Commit(root, nil, nil, sess)
	require.NoError(t, err)
	require.Equal(t, "0", vn.Props.(widget.TextProps).Content)

	cap1.setCount()
	require.True(t, sess.Dirty())

	tree, vn, err = Commit(root, tree, nil, sess)
	require.NoError(t, err)
	require.Equal(t, "1", vn.Props.(widget.TextProps).Content)
	_ = tree
}

func TestCommit_StaleSetterAfterUnmountIsNoOp(t *testing.T) {
	cap1 := &capturedSetter{}
	showChild, setShowChild := true, func(bool) {}
	toggle := func(ctx *HookContext, props any) *Element {
		var show bool
		show, setShowChild = UseState(ctx, true)
		if show {
			return HostEl(widget.KindBox, widget.BoxProps{}, ComponentEl(stateMutator, cap1, "child"))
		}
		return HostEl(widget.KindBox, widget.BoxProps{})
	}
	_ = showChild

	root := ComponentEl(toggle, nil, "")
	sess := &Session{}
	tree, _, err := Commit(root, nil, nil, sess)
	require.NoError(t, err)

	// Unmount the child by re-rendering with show=false.
	setShowChild(false)
	tree, _, err = Commit(root, tree, nil, sess)
	require.NoError(t, err)

	// Calling the stale setter captured from the now-unmounted child must
	// not panic and must not mark the session dirty on its own.
	sess.dirty = false
	cap1.setCount()
	require.False(t, sess.Dirty())
	_ = tree
}

func badOrderComponent(ctx *HookContext, props any) *Element {
	callSecond := props.(bool)
	if callSecond {
		UseState(ctx, 0)
		UseRef(ctx, 0)
	} else {
		UseState(ctx, 0)
	}
	return HostEl(widget.KindText, widget.TextProps{})
}

func TestCommit_HookOrderViolationIsFatal(t *testing.T) {
	root := ComponentEl(badOrderComponent, false, "")
	sess := &Session{}
	tree, _, err := Commit(root, nil, nil, sess)
	require.NoError(t, err)

	root2 := ComponentEl(badOrderComponent, true, "")
	_, _, err = Commit(root2, tree, nil, sess)
	require.Error(t, err)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
}

func TestCommit_EffectRunsOnceAndCleansUpOnUnmount(t *testing.T) {
	var ran, cleaned int
	effectComp := func(ctx *HookContext, props any) *Element {
		UseEffect(ctx, []any{}, func() func() {
			ran++
			return func() { cleaned++ }
		})
		return HostEl(widget.KindText, widget.TextProps{})
	}

	var show bool
	var setShow func(bool)
	root := func(ctx *HookContext, props any) *Element {
		var s bool
		s, setShow = UseState(ctx, true)
		show = s
		if s {
			return HostEl(widget.KindBox, widget.BoxProps{}, ComponentEl(effectComp, nil, ""))
		}
		return HostEl(widget.KindBox, widget.BoxProps{})
	}

	rootEl := ComponentEl(root, nil, "")
	sess := &Session{}
	tree, _, err := Commit(rootEl, nil, nil, sess)
	require.NoError(t, err)
	require.NoError(t, sess.FlushEffects())
	require.Equal(t, 1, ran)
	require.Equal(t, 0, cleaned)

	setShow(false)
	tree, _, err = Commit(rootEl, tree, nil, sess)
	require.NoError(t, err)
	require.NoError(t, sess.FlushEffects())
	require.Equal(t, 1, cleaned)
	_ = show
	_ = tree
}

func TestCommit_ListReconciliationByKeyPreservesState(t *testing.T) {
	item := func(ctx *HookContext, props any) *Element {
		id := props.(string)
		count, setCount := UseState(ctx, 0)
		if count == 0 {
			setCount(100) // mark first render so reuse is observable
		}
		return HostEl(widget.KindText, widget.TextProps{Content: id + ":" + itoa(count)})
	}
	list := func(ctx *HookContext, props any) *Element {
		ids := props.([]string)
		children := make([]*Element, len(ids))
		for i, id := range ids {
			children[i] = ComponentEl(item, id, id)
		}
		return HostEl(widget.KindBox, widget.BoxProps{}, children...)
	}

	sess := &Session{}
	root1 := ComponentEl(list, []string{"a", "b"}, "")
	tree, _, err := Commit(root1, nil, nil, sess)
	require.NoError(t, err)
	tree, _, err = Commit(root1, tree, nil, sess) // let setCount(100) take effect

	require.NoError(t, err)

	root2 := ComponentEl(list, []string{"b", "a"}, "")
	_, vn, err := Commit(root2, tree, nil, sess)
	require.NoError(t, err)
	require.Len(t, vn.Children, 2)
	require.Equal(t, "b:100", vn.Children[0].Props.(widget.TextProps).Content)
	require.Equal(t, "a:100", vn.Children[1].Props.(widget.TextProps).Content)
}
