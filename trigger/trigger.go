package trigger

import (
	"github.com/rillflow/rill/storage"
	"github.com/rillflow/rill/window"
)

// Result tells the engine what to do with a window's accumulated
// state: emit it (flush), discard it (purge), both, or nothing.
type Result int

const (
	Continue      Result = 0
	Flush         Result = 1
	Purge         Result = 2
	FlushAndPurge Result = 3
)

func (r Result) IsFlush() bool {
	return r&Flush != 0
}

func (r Result) IsPurge() bool {
	return r&Purge != 0
}

// Context is the engine-side view a trigger gets for one keyed window.
// Timer registration returns false when the stamp already passed the
// domain's current time; the trigger must then act immediately instead
// of waiting.
type Context interface {
	RegisterTimer(stamp int64, w window.TimeInterval) bool
	DeleteTimer(stamp int64, w window.TimeInterval)
	RegisterProcessingTimer(stamp int64, w window.TimeInterval) bool
	DeleteProcessingTimer(stamp int64, w window.TimeInterval)
	//CurrentTimestamp is the event time watermark of the partition
	CurrentTimestamp() int64
	CurrentProcessingTimestamp() int64
	//Storage holds trigger-private bookkeeping scoped to the keyed
	//window, distinct from the accumulator state
	Storage() storage.Scoped
}

// Trigger decides when a window's state is emitted or discarded. A
// trigger instance is stateless across windows; all per-window
// bookkeeping lives in ctx.Storage().
type Trigger[T any] interface {
	OnElement(stamp int64, value T, w window.TimeInterval, ctx Context) Result
	OnTimer(stamp int64, w window.TimeInterval, ctx Context) Result
	//OnClear releases trigger-private storage and pending timers
	OnClear(w window.TimeInterval, ctx Context)
}

// Mergeable is implemented by triggers usable with merging windowing;
// OnMerge re-arms the trigger for the coalesced target window.
type Mergeable interface {
	OnMerge(target window.TimeInterval, ctx Context)
}

type noop[T any] struct{}

// NewNoop returns a trigger that never fires on its own. Attached
// windowing uses it: flushes there are driven by upstream window
// trigger notifications and the end-of-stream drain.
func NewNoop[T any]() Trigger[T] {
	return noop[T]{}
}

func (noop[T]) OnElement(_ int64, _ T, _ window.TimeInterval, _ Context) Result {
	return Continue
}

func (noop[T]) OnTimer(_ int64, _ window.TimeInterval, _ Context) Result {
	return Continue
}

func (noop[T]) OnClear(_ window.TimeInterval, _ Context) {}

func (noop[T]) OnMerge(_ window.TimeInterval, _ Context) {}
