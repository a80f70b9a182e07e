package window

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

type session[T any] struct {
	gap int64
}

// NewSession returns a merging assigner. Each element initially opens
// a window [timestamp, timestamp+gap); windows of the same key that
// overlap are coalesced into their span as elements arrive.
func NewSession[T any](gap time.Duration) (MergingAssigner[T], error) {
	if gap <= 0 {
		return nil, errors.New("session windowing with non-positive gap")
	}
	return &session[T]{gap: gap.Milliseconds()}, nil
}

func (s *session[T]) Assign(_ T, timestamp int64) []TimeInterval {
	return []TimeInterval{{Start: timestamp, End: timestamp + s.gap}}
}

// MergeCandidates sweeps the active windows in start order and groups
// every run of transitively overlapping intervals into one proposal
// whose target is the span of the run.
func (s *session[T]) MergeCandidates(actives []TimeInterval) []Merge {
	if len(actives) < 2 {
		return nil
	}
	sorted := make([]TimeInterval, len(actives))
	copy(sorted, actives)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var merges []Merge
	group := []TimeInterval{sorted[0]}
	span := sorted[0]
	for _, w := range sorted[1:] {
		if span.Intersects(w) {
			group = append(group, w)
			span = span.Span(w)
			continue
		}
		if len(group) > 1 {
			merges = append(merges, Merge{Sources: group, Target: span})
		}
		group = []TimeInterval{w}
		span = w
	}
	if len(group) > 1 {
		merges = append(merges, Merge{Sources: group, Target: span})
	}
	return merges
}
