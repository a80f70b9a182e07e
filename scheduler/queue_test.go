package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimerQueueOrder(t *testing.T) {
	queue := newTimerQueue[string]()
	for _, stamp := range []int64{2, 5, 3, 1, 7} {
		assert.True(t, queue.PushTimer(Timer[string]{Scope: "w", Timestamp: stamp}))
	}
	//duplicate (scope, stamp) pair is rejected
	assert.False(t, queue.PushTimer(Timer[string]{Scope: "w", Timestamp: 3}))
	assert.Equal(t, 5, queue.Len())

	var popped []int64
	for queue.Len() > 0 {
		popped = append(popped, queue.PopTimer().Timestamp)
	}
	assert.Equal(t, []int64{1, 2, 3, 5, 7}, popped)
}

func TestTimerQueueSameStampDifferentScope(t *testing.T) {
	queue := newTimerQueue[string]()
	assert.True(t, queue.PushTimer(Timer[string]{Scope: "a", Timestamp: 5}))
	assert.True(t, queue.PushTimer(Timer[string]{Scope: "b", Timestamp: 5}))
	assert.Equal(t, 2, queue.Len())
}

func TestTimerQueueRemove(t *testing.T) {
	queue := newTimerQueue[string]()
	queue.PushTimer(Timer[string]{Scope: "a", Timestamp: 1})
	queue.PushTimer(Timer[string]{Scope: "a", Timestamp: 2})

	assert.True(t, queue.Remove(Timer[string]{Scope: "a", Timestamp: 1}))
	assert.False(t, queue.Remove(Timer[string]{Scope: "a", Timestamp: 1}))
	assert.Equal(t, 1, queue.Len())
	assert.Equal(t, int64(2), queue.PeekTimer().Timestamp)

	//a removed timer can be pushed again
	assert.True(t, queue.PushTimer(Timer[string]{Scope: "a", Timestamp: 1}))
}

func TestTimerQueueRemoveScope(t *testing.T) {
	queue := newTimerQueue[string]()
	queue.PushTimer(Timer[string]{Scope: "a", Timestamp: 1})
	queue.PushTimer(Timer[string]{Scope: "a", Timestamp: 2})
	queue.PushTimer(Timer[string]{Scope: "b", Timestamp: 3})

	removed := queue.RemoveScope("a")
	assert.Len(t, removed, 2)
	assert.Equal(t, 1, queue.Len())
	assert.Equal(t, "b", queue.PeekTimer().Scope)

	assert.Empty(t, queue.RemoveScope("missing"))
}
