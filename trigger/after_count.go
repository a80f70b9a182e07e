package trigger

import (
	"github.com/rillflow/rill/storage"
	"github.com/rillflow/rill/window"
)

type afterCount[T any] struct {
	count int64
}

var countDescriptor = storage.ValueDescriptor[int64]{ID: "trigger.count"}

// NewAfterCount returns a trigger firing once the window accumulated
// the given number of elements since the last firing.
func NewAfterCount[T any](count int64) Trigger[T] {
	if count <= 0 {
		count = 1
	}
	return afterCount[T]{count: count}
}

func (t afterCount[T]) OnElement(_ int64, _ T, _ window.TimeInterval, ctx Context) Result {
	seen := storage.Value(ctx.Storage(), countDescriptor)
	n, _ := seen.Get()
	n++
	if n >= t.count {
		seen.Clear()
		return FlushAndPurge
	}
	seen.Set(n)
	return Continue
}

func (afterCount[T]) OnTimer(_ int64, _ window.TimeInterval, _ Context) Result {
	return Continue
}

func (afterCount[T]) OnClear(_ window.TimeInterval, ctx Context) {
	storage.Value(ctx.Storage(), countDescriptor).Clear()
}
