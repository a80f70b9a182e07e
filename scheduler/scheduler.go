package scheduler

import (
	"math"
	"sync"
	"time"
)

// Triggerable is a due-timer callback.
type Triggerable[S comparable] func(stamp int64, scope S)

// TriggerScheduler keeps the pending (timestamp, scope) callbacks of
// one partition in both time domains and fires them exactly once when
// time passes them.
//
// The scheduler itself does not lock: every method expects the
// caller to hold the partition lock it was constructed with. The only
// exception is the background processing time clock, which acquires
// that lock itself before firing, so registry and trigger mutation is
// always serialized through the one lock.
type TriggerScheduler[S comparable] struct {
	mu *sync.Mutex

	watermark       int64
	eventQueue      *timerQueue[S]
	processingQueue *timerQueue[S]
	eventCallbacks  map[Timer[S]]Triggerable[S]
	procCallbacks   map[Timer[S]]Triggerable[S]

	nextTimer *time.Timer
	closed    bool

	now func() int64
}

func New[S comparable](mu *sync.Mutex) *TriggerScheduler[S] {
	return &TriggerScheduler[S]{
		mu:              mu,
		watermark:       math.MinInt64,
		eventQueue:      newTimerQueue[S](),
		processingQueue: newTimerQueue[S](),
		eventCallbacks:  map[Timer[S]]Triggerable[S]{},
		procCallbacks:   map[Timer[S]]Triggerable[S]{},
		now:             func() int64 { return time.Now().UnixMilli() },
	}
}

// CurrentTimestamp is the event time watermark last observed.
func (s *TriggerScheduler[S]) CurrentTimestamp() int64 {
	return s.watermark
}

func (s *TriggerScheduler[S]) CurrentProcessingTimestamp() int64 {
	return s.now()
}

// ScheduleAt registers an event time callback. It returns false
// without enqueueing when the stamp is already at or behind the
// watermark; the caller must then fire the callback itself.
// Re-scheduling a pending (stamp, scope) pair is a no-op that keeps
// the first callback.
func (s *TriggerScheduler[S]) ScheduleAt(stamp int64, scope S, fn Triggerable[S]) bool {
	if s.closed || stamp <= s.watermark {
		return false
	}
	timer := Timer[S]{Scope: scope, Timestamp: stamp}
	if s.eventQueue.PushTimer(timer) {
		s.eventCallbacks[timer] = fn
	}
	return true
}

// Cancel removes a pending event time entry; canceling an entry that
// is not pending is a silent no-op.
func (s *TriggerScheduler[S]) Cancel(stamp int64, scope S) {
	timer := Timer[S]{Scope: scope, Timestamp: stamp}
	if s.eventQueue.Remove(timer) {
		delete(s.eventCallbacks, timer)
	}
}

// CancelScope drops every pending timer of the scope in both domains.
func (s *TriggerScheduler[S]) CancelScope(scope S) {
	for _, timer := range s.eventQueue.RemoveScope(scope) {
		delete(s.eventCallbacks, timer)
	}
	for _, timer := range s.processingQueue.RemoveScope(scope) {
		delete(s.procCallbacks, timer)
	}
}

// UpdateStamp advances the watermark and fires, in increasing stamp
// order, every event time callback that became due. Regressions are
// clamped: a smaller stamp neither moves the watermark nor fires
// anything.
func (s *TriggerScheduler[S]) UpdateStamp(watermark int64) {
	if s.closed || watermark <= s.watermark {
		return
	}
	s.watermark = watermark
	for s.eventQueue.Len() > 0 && s.eventQueue.PeekTimer().Timestamp <= s.watermark {
		timer := s.eventQueue.PopTimer()
		fn := s.eventCallbacks[timer]
		delete(s.eventCallbacks, timer)
		if fn != nil {
			fn(timer.Timestamp, timer.Scope)
		}
	}
}

// ScheduleProcessingAt registers a wall clock callback and arms the
// background clock. It returns false when the stamp already passed.
func (s *TriggerScheduler[S]) ScheduleProcessingAt(stamp int64, scope S, fn Triggerable[S]) bool {
	if s.closed || stamp <= s.now() {
		return false
	}
	timer := Timer[S]{Scope: scope, Timestamp: stamp}
	if s.processingQueue.PushTimer(timer) {
		s.procCallbacks[timer] = fn
	}
	s.armClock()
	return true
}

func (s *TriggerScheduler[S]) CancelProcessing(stamp int64, scope S) {
	timer := Timer[S]{Scope: scope, Timestamp: stamp}
	if s.processingQueue.Remove(timer) {
		delete(s.procCallbacks, timer)
	}
}

func (s *TriggerScheduler[S]) armClock() {
	if s.processingQueue.Len() == 0 {
		return
	}
	head := s.processingQueue.PeekTimer()
	if s.nextTimer != nil {
		if !s.nextTimer.Stop() {
			//clock already fired, it re-arms itself
		}
	}
	duration := time.Duration(head.Timestamp-s.now()) * time.Millisecond
	if duration < 0 {
		duration = 0
	}
	target := head.Timestamp
	s.nextTimer = time.AfterFunc(duration, func() {
		s.advanceProcessingTime(target)
	})
}

func (s *TriggerScheduler[S]) advanceProcessingTime(target int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for s.processingQueue.Len() > 0 && s.processingQueue.PeekTimer().Timestamp <= target {
		timer := s.processingQueue.PopTimer()
		fn := s.procCallbacks[timer]
		delete(s.procCallbacks, timer)
		if fn != nil {
			fn(timer.Timestamp, timer.Scope)
		}
	}
	s.nextTimer = nil
	s.armClock()
}

// PendingTimers reports how many callbacks are enqueued over both
// domains.
func (s *TriggerScheduler[S]) PendingTimers() int {
	return s.eventQueue.Len() + s.processingQueue.Len()
}

// Close cancels all pending timers in both domains and stops the
// background clock. The scheduler accepts nothing afterwards.
func (s *TriggerScheduler[S]) Close() {
	s.closed = true
	if s.nextTimer != nil {
		s.nextTimer.Stop()
		s.nextTimer = nil
	}
	s.eventQueue.Clear()
	s.processingQueue.Clear()
	s.eventCallbacks = map[Timer[S]]Triggerable[S]{}
	s.procCallbacks = map[Timer[S]]Triggerable[S]{}
}
