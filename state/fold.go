package state

import (
	"github.com/rillflow/rill/storage"
)

type foldState[V, ACC, OUT any] struct {
	collector Collector[OUT]
	fold      func(ACC, V) ACC
	output    func(ACC) OUT
	acc       ACC
	empty     bool
}

// NewFoldFactory builds a factory of fold states together with their
// combiner. Fold is applied per element; output converts the
// accumulator on flush; combine merges two accumulators when session
// windows coalesce.
func NewFoldFactory[V, ACC, OUT any](
	initial func() ACC,
	fold func(ACC, V) ACC,
	combine func(ACC, ACC) ACC,
	output func(ACC) OUT,
) (Factory[V, OUT], Combiner[V]) {
	factory := func(collector Collector[OUT], _ storage.Scoped) State[V] {
		return &foldState[V, ACC, OUT]{
			collector: collector,
			fold:      fold,
			output:    output,
			acc:       initial(),
			empty:     true,
		}
	}
	combiner := func(states []State[V]) State[V] {
		target := states[0].(*foldState[V, ACC, OUT])
		for _, other := range states[1:] {
			folded := other.(*foldState[V, ACC, OUT])
			if folded.empty {
				continue
			}
			if target.empty {
				target.acc = folded.acc
				target.empty = false
			} else {
				target.acc = combine(target.acc, folded.acc)
			}
		}
		return target
	}
	return factory, combiner
}

func (s *foldState[V, ACC, OUT]) Add(value V) {
	s.acc = s.fold(s.acc, value)
	s.empty = false
}

func (s *foldState[V, ACC, OUT]) Flush() {
	s.collector.Collect(s.output(s.acc))
}

func (s *foldState[V, ACC, OUT]) Close() {}

type bufferState[V any] struct {
	collector Collector[[]V]
	items     []V
}

// NewBufferFactory builds a factory of states that simply collect
// every element and emit the buffered slice on flush.
func NewBufferFactory[V any]() (Factory[V, []V], Combiner[V]) {
	factory := func(collector Collector[[]V], _ storage.Scoped) State[V] {
		return &bufferState[V]{collector: collector}
	}
	combiner := func(states []State[V]) State[V] {
		target := states[0].(*bufferState[V])
		for _, other := range states[1:] {
			target.items = append(target.items, other.(*bufferState[V]).items...)
		}
		return target
	}
	return factory, combiner
}

func (s *bufferState[V]) Add(value V) {
	s.items = append(s.items, value)
}

func (s *bufferState[V]) Flush() {
	out := make([]V, len(s.items))
	copy(out, s.items)
	s.collector.Collect(out)
}

func (s *bufferState[V]) Close() {
	s.items = nil
}
