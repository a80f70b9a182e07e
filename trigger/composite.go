package trigger

import (
	"github.com/rillflow/rill/window"
)

type repeatedly[T any] struct {
	inner Trigger[T]
}

// NewRepeatedly wraps a trigger so that a purge decision of the child
// only resets the child's own bookkeeping: the window state stays and
// keeps accumulating, the child starts a fresh round.
func NewRepeatedly[T any](inner Trigger[T]) Trigger[T] {
	return repeatedly[T]{inner: inner}
}

func (t repeatedly[T]) OnElement(stamp int64, value T, w window.TimeInterval, ctx Context) Result {
	return t.reset(t.inner.OnElement(stamp, value, w, ctx), w, ctx)
}

func (t repeatedly[T]) OnTimer(stamp int64, w window.TimeInterval, ctx Context) Result {
	return t.reset(t.inner.OnTimer(stamp, w, ctx), w, ctx)
}

func (t repeatedly[T]) reset(result Result, w window.TimeInterval, ctx Context) Result {
	if result.IsPurge() {
		t.inner.OnClear(w, ctx)
		return result &^ Purge
	}
	return result
}

func (t repeatedly[T]) OnClear(w window.TimeInterval, ctx Context) {
	t.inner.OnClear(w, ctx)
}

func (t repeatedly[T]) OnMerge(target window.TimeInterval, ctx Context) {
	if mergeable, ok := t.inner.(Mergeable); ok {
		mergeable.OnMerge(target, ctx)
	}
}

type afterAny[T any] struct {
	children []Trigger[T]
}

// NewAfterAny fires as soon as any child fires; a purge by any child
// purges the whole window, and onClear propagates to every child.
func NewAfterAny[T any](children ...Trigger[T]) Trigger[T] {
	return afterAny[T]{children: children}
}

func (t afterAny[T]) OnElement(stamp int64, value T, w window.TimeInterval, ctx Context) Result {
	combined := Continue
	for _, child := range t.children {
		combined |= child.OnElement(stamp, value, w, ctx)
	}
	return combined
}

func (t afterAny[T]) OnTimer(stamp int64, w window.TimeInterval, ctx Context) Result {
	combined := Continue
	for _, child := range t.children {
		combined |= child.OnTimer(stamp, w, ctx)
	}
	return combined
}

func (t afterAny[T]) OnClear(w window.TimeInterval, ctx Context) {
	for _, child := range t.children {
		child.OnClear(w, ctx)
	}
}

func (t afterAny[T]) OnMerge(target window.TimeInterval, ctx Context) {
	for _, child := range t.children {
		if mergeable, ok := child.(Mergeable); ok {
			mergeable.OnMerge(target, ctx)
		}
	}
}
