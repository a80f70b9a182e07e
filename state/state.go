package state

import (
	"github.com/rillflow/rill/storage"
)

// State is the runner-supplied accumulator for one keyed window,
// created lazily on the window's first element. Flush emits the
// accumulated result through the collector the factory received;
// Close releases resources. After Close the state is never touched
// again.
type State[V any] interface {
	Add(value V)
	Flush()
	Close()
}

// Collector is where a state emits on Flush. The engine binds it to
// the firing window and stamps outputs by the output time policy.
type Collector[OUT any] interface {
	Collect(value OUT)
}

// Factory constructs a fresh state. The storage handle offers scoped
// value/list storages should the accumulator want spill bookkeeping;
// most in-memory states ignore it.
type Factory[V, OUT any] func(collector Collector[OUT], store storage.Scoped) State[V]

// Combiner merges split accumulators when windows coalesce. The first
// state belongs to the merge target and the returned state replaces
// it; implementations usually fold the rest into it.
type Combiner[V any] func(states []State[V]) State[V]
