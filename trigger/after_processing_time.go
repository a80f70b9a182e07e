package trigger

import (
	"time"

	"github.com/rillflow/rill/storage"
	"github.com/rillflow/rill/window"
)

type afterProcessingTime[T any] struct {
	delay int64
}

var deadlineDescriptor = storage.ValueDescriptor[int64]{ID: "trigger.deadline"}

// NewAfterProcessingTime returns a trigger firing the given wall clock
// delay after the first element of the window, regardless of the
// watermark.
func NewAfterProcessingTime[T any](delay time.Duration) Trigger[T] {
	return afterProcessingTime[T]{delay: delay.Milliseconds()}
}

func (t afterProcessingTime[T]) OnElement(_ int64, _ T, w window.TimeInterval, ctx Context) Result {
	deadline := storage.Value(ctx.Storage(), deadlineDescriptor)
	if _, armed := deadline.Get(); armed {
		return Continue
	}
	stamp := ctx.CurrentProcessingTimestamp() + t.delay
	deadline.Set(stamp)
	if !ctx.RegisterProcessingTimer(stamp, w) {
		deadline.Clear()
		return FlushAndPurge
	}
	return Continue
}

func (afterProcessingTime[T]) OnTimer(stamp int64, _ window.TimeInterval, ctx Context) Result {
	deadline := storage.Value(ctx.Storage(), deadlineDescriptor)
	armedAt, armed := deadline.Get()
	if !armed || stamp < armedAt {
		return Continue
	}
	deadline.Clear()
	return FlushAndPurge
}

func (t afterProcessingTime[T]) OnClear(w window.TimeInterval, ctx Context) {
	deadline := storage.Value(ctx.Storage(), deadlineDescriptor)
	if armedAt, armed := deadline.Get(); armed {
		ctx.DeleteProcessingTimer(armedAt, w)
		deadline.Clear()
	}
}
