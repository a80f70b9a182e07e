package window

import (
	"time"

	"github.com/pkg/errors"
)

// Assigner maps an element to the set of windows it belongs to. The
// assignment must be deterministic and side effect free: the same
// value and timestamp always produce the same window set. An assigner
// never discards elements.
type Assigner[T any] interface {
	Assign(value T, timestamp int64) []TimeInterval
}

// Merge is a proposal to coalesce the Sources windows into Target.
type Merge struct {
	Sources []TimeInterval
	Target  TimeInterval
}

// MergingAssigner is implemented by windowing whose windows coalesce
// over time (sessions). MergeCandidates inspects a key's active
// windows and proposes merges; proposals with fewer than two sources
// must not be returned.
type MergingAssigner[T any] interface {
	Assigner[T]
	MergeCandidates(actives []TimeInterval) []Merge
}

type fixed[T any] struct {
	size   int64
	offset int64
}

// NewFixed returns an assigner of aligned, non overlapping windows of
// the given size. Offset shifts the alignment, e.g. for non-UTC days.
func NewFixed[T any](size time.Duration, offset time.Duration) (Assigner[T], error) {
	if size <= 0 {
		return nil, errors.New("fixed windowing with non-positive size")
	}
	if offset < 0 || offset >= size {
		return nil, errors.Errorf("fixed windowing offset %s out of range [0, %s)", offset, size)
	}
	return &fixed[T]{size: size.Milliseconds(), offset: offset.Milliseconds()}, nil
}

func (f *fixed[T]) Assign(_ T, timestamp int64) []TimeInterval {
	start := timestamp - mod(timestamp-f.offset, f.size)
	return []TimeInterval{{Start: start, End: start + f.size}}
}

type sliding[T any] struct {
	size  int64
	slide int64
}

// NewSliding returns an assigner of aligned overlapping windows. Every
// element belongs to size/slide windows; size must be a multiple of
// slide so all windows stay aligned.
func NewSliding[T any](size time.Duration, slide time.Duration) (Assigner[T], error) {
	if size <= 0 || slide <= 0 {
		return nil, errors.New("sliding windowing with non-positive size or slide")
	}
	if size.Milliseconds()%slide.Milliseconds() != 0 {
		return nil, errors.Errorf("sliding windowing size %s is not a multiple of slide %s", size, slide)
	}
	return &sliding[T]{size: size.Milliseconds(), slide: slide.Milliseconds()}, nil
}

func (s *sliding[T]) Assign(_ T, timestamp int64) []TimeInterval {
	windows := make([]TimeInterval, 0, s.size/s.slide)
	for start := timestamp - mod(timestamp, s.slide); start > timestamp-s.size; start -= s.slide {
		windows = append(windows, TimeInterval{Start: start, End: start + s.size})
	}
	return windows
}

type global[T any] struct{}

// NewGlobal returns an assigner mapping every element to the single
// all-covering window. State under it only leaves on an explicit
// trigger or the end-of-stream drain.
func NewGlobal[T any]() Assigner[T] {
	return global[T]{}
}

func (global[T]) Assign(_ T, _ int64) []TimeInterval {
	return []TimeInterval{GlobalWindow()}
}

// GlobalWindow is the window the global assigner produces.
func GlobalWindow() TimeInterval {
	return TimeInterval{Start: minTimestamp, End: maxTimestamp}
}

const (
	minTimestamp int64 = -(1 << 62)
	maxTimestamp int64 = 1 << 62
)

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
