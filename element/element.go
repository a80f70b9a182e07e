package element

import (
	"github.com/rillflow/rill/window"
)

// Element is one token of the per-partition stream: an *Event[T], a
// Watermark, a WindowTrigger or an EndOfStream, consumed strictly in
// arrival order.
type Element any

// Pane describes one firing of a window.
type Pane struct {
	//zero-based firing index within the window's lifetime
	Index  int64
	IsLast bool
}

type Event[T any] struct {
	//keep in mind that it is not thread-safe when you modify
	Value     T
	Timestamp int64
	//Windows is set once by an assign-windows stage and afterwards
	//only reused by attached windowing
	Windows []window.TimeInterval
	Pane    Pane
}

// Watermark promises that no element with a smaller or equal
// timestamp will arrive on this partition.
type Watermark struct {
	Timestamp int64
}

// WindowTrigger notifies downstream reducers that the given window was
// flushed upstream at the given stamp. Attached windowing re-arms its
// triggers on it without re-reading elements.
type WindowTrigger struct {
	Window    window.TimeInterval
	Timestamp int64
}

type EndOfStream struct{}

// KV is the keyed output pair emitted by a reduce partition.
type KV[K comparable, V any] struct {
	Key   K
	Value V
}

type Emit func(element Element)
