package scheduler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestScheduler() (*TriggerScheduler[string], *sync.Mutex) {
	var mu sync.Mutex
	return New[string](&mu), &mu
}

func TestScheduleAtFiresOnce(t *testing.T) {
	s, _ := newTestScheduler()
	fired := 0
	assert.True(t, s.ScheduleAt(100, "w", func(stamp int64, scope string) {
		fired++
		assert.Equal(t, int64(100), stamp)
		assert.Equal(t, "w", scope)
	}))

	s.UpdateStamp(99)
	assert.Equal(t, 0, fired)
	s.UpdateStamp(100)
	assert.Equal(t, 1, fired)
	//advancing further never re-fires a consumed timer
	s.UpdateStamp(200)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, s.PendingTimers())
}

func TestScheduleAtBehindWatermark(t *testing.T) {
	s, _ := newTestScheduler()
	s.UpdateStamp(100)
	assert.False(t, s.ScheduleAt(100, "w", func(int64, string) {}))
	assert.False(t, s.ScheduleAt(50, "w", func(int64, string) {}))
	assert.True(t, s.ScheduleAt(101, "w", func(int64, string) {}))
}

func TestScheduleAtDedupeKeepsFirstCallback(t *testing.T) {
	s, _ := newTestScheduler()
	var order []string
	assert.True(t, s.ScheduleAt(100, "w", func(int64, string) { order = append(order, "first") }))
	assert.True(t, s.ScheduleAt(100, "w", func(int64, string) { order = append(order, "second") }))
	s.UpdateStamp(100)
	assert.Equal(t, []string{"first"}, order)
}

func TestUpdateStampFiresInOrder(t *testing.T) {
	s, _ := newTestScheduler()
	var order []int64
	record := func(stamp int64, _ string) { order = append(order, stamp) }
	s.ScheduleAt(300, "a", record)
	s.ScheduleAt(100, "b", record)
	s.ScheduleAt(200, "c", record)

	s.UpdateStamp(250)
	assert.Equal(t, []int64{100, 200}, order)
	s.UpdateStamp(300)
	assert.Equal(t, []int64{100, 200, 300}, order)
}

func TestUpdateStampRegressionClamped(t *testing.T) {
	s, _ := newTestScheduler()
	fired := false
	s.UpdateStamp(200)
	s.ScheduleAt(250, "w", func(int64, string) { fired = true })

	s.UpdateStamp(100)
	assert.Equal(t, int64(200), s.CurrentTimestamp())
	assert.False(t, fired)
	assert.Equal(t, 1, s.PendingTimers())
}

func TestCancel(t *testing.T) {
	s, _ := newTestScheduler()
	fired := false
	s.ScheduleAt(100, "w", func(int64, string) { fired = true })
	s.Cancel(100, "w")
	s.UpdateStamp(200)
	assert.False(t, fired)

	//canceling a non-pending timer is a no-op
	s.Cancel(100, "w")
	s.Cancel(500, "missing")
}

func TestCancelScope(t *testing.T) {
	s, _ := newTestScheduler()
	var fired []string
	record := func(_ int64, scope string) { fired = append(fired, scope) }
	s.ScheduleAt(100, "a", record)
	s.ScheduleAt(200, "a", record)
	s.ScheduleAt(150, "b", record)

	s.CancelScope("a")
	s.UpdateStamp(300)
	assert.Equal(t, []string{"b"}, fired)
}

func TestScheduleProcessingAt(t *testing.T) {
	s, _ := newTestScheduler()
	now := int64(1000)
	s.now = func() int64 { return now }

	assert.False(t, s.ScheduleProcessingAt(1000, "w", func(int64, string) {}))
	assert.False(t, s.ScheduleProcessingAt(999, "w", func(int64, string) {}))

	fired := 0
	assert.True(t, s.ScheduleProcessingAt(1100, "w", func(stamp int64, scope string) {
		fired++
		assert.Equal(t, int64(1100), stamp)
	}))
	assert.Equal(t, 1, s.PendingTimers())

	s.advanceProcessingTime(1099)
	assert.Equal(t, 0, fired)
	s.advanceProcessingTime(1100)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, s.PendingTimers())
}

func TestCancelProcessing(t *testing.T) {
	s, _ := newTestScheduler()
	now := int64(1000)
	s.now = func() int64 { return now }

	fired := false
	s.ScheduleProcessingAt(1100, "w", func(int64, string) { fired = true })
	s.CancelProcessing(1100, "w")
	s.advanceProcessingTime(2000)
	assert.False(t, fired)
}

func TestCloseDropsEverything(t *testing.T) {
	s, _ := newTestScheduler()
	fired := false
	s.ScheduleAt(100, "w", func(int64, string) { fired = true })
	s.Close()

	assert.Equal(t, 0, s.PendingTimers())
	assert.False(t, s.ScheduleAt(500, "w", func(int64, string) {}))
	s.UpdateStamp(1000)
	assert.False(t, fired)
}
