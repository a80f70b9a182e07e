package trigger

import (
	"github.com/rillflow/rill/window"
)

type afterWatermark[T any] struct{}

// NewAfterWatermark returns the default event time trigger: fire once
// when the watermark passes the window's max timestamp, then purge.
// Elements arriving after that bound (but within allowed lateness, or
// the engine would have dropped them) fire immediately.
func NewAfterWatermark[T any]() Trigger[T] {
	return afterWatermark[T]{}
}

func (afterWatermark[T]) OnElement(_ int64, _ T, w window.TimeInterval, ctx Context) Result {
	if ctx.RegisterTimer(w.MaxTimestamp(), w) {
		return Continue
	}
	//the bound already passed, fire for this late comer right away
	return FlushAndPurge
}

func (afterWatermark[T]) OnTimer(stamp int64, w window.TimeInterval, _ Context) Result {
	if stamp >= w.MaxTimestamp() {
		return FlushAndPurge
	}
	return Continue
}

func (afterWatermark[T]) OnClear(w window.TimeInterval, ctx Context) {
	ctx.DeleteTimer(w.MaxTimestamp(), w)
}

func (afterWatermark[T]) OnMerge(target window.TimeInterval, ctx Context) {
	if !ctx.RegisterTimer(target.MaxTimestamp(), target) {
		//the merged span may already be behind the watermark; the
		//engine fires the due timer on the next advance anyway, so
		//nothing to re-arm here
		_ = target
	}
}
