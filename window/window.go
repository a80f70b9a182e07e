package window

import "fmt"

// TimeInterval is a half-open event time range [Start, End).
type TimeInterval struct {
	Start int64
	End   int64
}

// MaxTimestamp is the largest timestamp that still belongs to the
// window, used as its natural event time firing bound.
func (w TimeInterval) MaxTimestamp() int64 {
	return w.End - 1
}

func (w TimeInterval) Contains(timestamp int64) bool {
	return timestamp >= w.Start && timestamp < w.End
}

// Intersects reports whether the two intervals share any instant.
func (w TimeInterval) Intersects(other TimeInterval) bool {
	return w.Start < other.End && other.Start < w.End
}

// Span returns the smallest interval covering both w and other.
func (w TimeInterval) Span(other TimeInterval) TimeInterval {
	span := w
	if other.Start < span.Start {
		span.Start = other.Start
	}
	if other.End > span.End {
		span.End = other.End
	}
	return span
}

func (w TimeInterval) String() string {
	return fmt.Sprintf("[%d,%d)", w.Start, w.End)
}

// KeyedWindow is the (window, key) pair identifying one state entry.
// It is the scope for accumulator state, trigger storage and timers.
type KeyedWindow[K comparable] struct {
	Window TimeInterval
	Key    K
}

func (kw KeyedWindow[K]) String() string {
	return fmt.Sprintf("%s/%v", kw.Window, kw.Key)
}
