package scheduler

import (
	"container/heap"
)

// Timer is one pending callback registration for a scope.
type Timer[S comparable] struct {
	Scope     S
	Timestamp int64
}

// timerQueue is a priority queue sorted from smallest to largest
// Timer.Timestamp, with a dedupeMap preventing the same (scope, stamp)
// pair from being enqueued twice.
// If timestamps are inserted in this order
// +---+     +---+     +---+     +---+     +-------------+     +---+
// | 2 | --> | 5 | --> | 3 | --> | 1 | --> | duplicate:3 | --> | 7 |
// +---+     +---+     +---+     +---+     +-------------+     +---+
// items:
// +---+     +---+     +---+     +---+     +---+
// | 1 | --> | 2 | --> | 3 | --> | 5 | --> | 7 |
// +---+     +---+     +---+     +---+     +---+
type timerQueue[S comparable] struct {
	items     []Timer[S]
	dedupeMap map[Timer[S]]struct{}
	nil       Timer[S]
}

func newTimerQueue[S comparable]() *timerQueue[S] {
	return &timerQueue[S]{dedupeMap: map[Timer[S]]struct{}{}}
}

//---------------------------------------------------------------------------------
//Warning: Do not call directly, expose the function only for the heap package to use
//---------------------------------------------------------------------------------

func (t *timerQueue[S]) Less(i, j int) bool {
	return t.items[i].Timestamp < t.items[j].Timestamp
}

func (t *timerQueue[S]) Swap(i, j int) {
	t.items[i], t.items[j] = t.items[j], t.items[i]
}

func (t *timerQueue[S]) Push(x any) {
	item := x.(Timer[S])
	t.items = append(t.items, item)
}

func (t *timerQueue[S]) Pop() any {
	old := t.items
	n := len(old)
	x := old[n-1]
	t.items = old[0 : n-1]
	return x
}

//---------------------------------------------------------------------------------

func (t *timerQueue[S]) Len() int {
	return len(t.items)
}

// PushTimer enqueues the timer unless the same (scope, stamp) pair is
// already pending; it reports whether a new entry was added.
func (t *timerQueue[S]) PushTimer(item Timer[S]) bool {
	if _, ok := t.dedupeMap[item]; ok {
		return false
	}
	t.dedupeMap[item] = struct{}{}
	heap.Push(t, item)
	return true
}

func (t *timerQueue[S]) PopTimer() Timer[S] {
	if len(t.items) == 0 {
		return t.nil
	}
	item := heap.Pop(t).(Timer[S])
	delete(t.dedupeMap, item)
	return item
}

func (t *timerQueue[S]) PeekTimer() Timer[S] {
	return t.items[0]
}

func (t *timerQueue[S]) Remove(timer Timer[S]) bool {
	if _, ok := t.dedupeMap[timer]; !ok {
		return false
	}
	delete(t.dedupeMap, timer)
	for index, item := range t.items {
		if item == timer {
			heap.Remove(t, index)
			break
		}
	}
	return true
}

// RemoveScope drops every pending timer of the scope and returns the
// removed entries.
func (t *timerQueue[S]) RemoveScope(scope S) []Timer[S] {
	var removed []Timer[S]
	for timer := range t.dedupeMap {
		if timer.Scope == scope {
			removed = append(removed, timer)
		}
	}
	for _, timer := range removed {
		t.Remove(timer)
	}
	return removed
}

func (t *timerQueue[S]) Clear() {
	t.items = nil
	t.dedupeMap = map[Timer[S]]struct{}{}
}
