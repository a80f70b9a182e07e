package reducer

import (
	"math"

	"github.com/rillflow/rill/element"
	"github.com/rillflow/rill/state"
	"github.com/rillflow/rill/window"
)

// entry is the registry's record for one keyed window: the accumulator
// state, the collector its flushes go through, and the firing/stamp
// bookkeeping the output time policy needs. The registry owns the
// entry exclusively; other components address it by its KeyedWindow.
type entry[K comparable, V, OUT any] struct {
	state     state.State[V]
	collector *keyedCollector[K, OUT]
	pane      int64
	minStamp  int64
	maxStamp  int64
}

func newEntry[K comparable, V, OUT any](st state.State[V], collector *keyedCollector[K, OUT]) *entry[K, V, OUT] {
	return &entry[K, V, OUT]{
		state:     st,
		collector: collector,
		minStamp:  math.MaxInt64,
		maxStamp:  math.MinInt64,
	}
}

func (e *entry[K, V, OUT]) observe(stamp int64) {
	if stamp < e.minStamp {
		e.minStamp = stamp
	}
	if stamp > e.maxStamp {
		e.maxStamp = stamp
	}
}

// absorb folds another entry's stamp bookkeeping in during a window
// merge.
func (e *entry[K, V, OUT]) absorb(other *entry[K, V, OUT]) {
	if other.minStamp < e.minStamp {
		e.minStamp = other.minStamp
	}
	if other.maxStamp > e.maxStamp {
		e.maxStamp = other.maxStamp
	}
}

// windowRegistry indexes live state both by window (window -> key ->
// entry) and by key (key -> active windows). Empty index levels are
// garbage collected on removal so a drained registry holds nothing.
type windowRegistry[K comparable, V, OUT any] struct {
	windows map[window.TimeInterval]map[K]*entry[K, V, OUT]
	keyMap  map[K]map[window.TimeInterval]struct{}
}

func newWindowRegistry[K comparable, V, OUT any]() *windowRegistry[K, V, OUT] {
	return &windowRegistry[K, V, OUT]{
		windows: map[window.TimeInterval]map[K]*entry[K, V, OUT]{},
		keyMap:  map[K]map[window.TimeInterval]struct{}{},
	}
}

func (r *windowRegistry[K, V, OUT]) get(kw window.KeyedWindow[K]) *entry[K, V, OUT] {
	if keys, ok := r.windows[kw.Window]; ok {
		return keys[kw.Key]
	}
	return nil
}

// set registers the entry in both indexes. Registering the same keyed
// window again only overwrites the entry pointer, it never duplicates
// index rows.
func (r *windowRegistry[K, V, OUT]) set(kw window.KeyedWindow[K], e *entry[K, V, OUT]) {
	keys, ok := r.windows[kw.Window]
	if !ok {
		keys = map[K]*entry[K, V, OUT]{}
		r.windows[kw.Window] = keys
	}
	keys[kw.Key] = e
	actives, ok := r.keyMap[kw.Key]
	if !ok {
		actives = map[window.TimeInterval]struct{}{}
		r.keyMap[kw.Key] = actives
	}
	actives[kw.Window] = struct{}{}
}

// remove detaches and returns the entry, or nil when the keyed window
// is not live; the caller treats nil as a no-op, not an error.
func (r *windowRegistry[K, V, OUT]) remove(kw window.KeyedWindow[K]) *entry[K, V, OUT] {
	keys, ok := r.windows[kw.Window]
	if !ok {
		return nil
	}
	e, ok := keys[kw.Key]
	if !ok {
		return nil
	}
	delete(keys, kw.Key)
	if len(keys) == 0 {
		delete(r.windows, kw.Window)
	}
	if actives, ok := r.keyMap[kw.Key]; ok {
		delete(actives, kw.Window)
		if len(actives) == 0 {
			delete(r.keyMap, kw.Key)
		}
	}
	return e
}

// activesForKey returns the key's live windows; the slice is empty,
// never nil semantics aside, when the key is unknown.
func (r *windowRegistry[K, V, OUT]) activesForKey(key K) []window.TimeInterval {
	actives := make([]window.TimeInterval, 0, len(r.keyMap[key]))
	for w := range r.keyMap[key] {
		actives = append(actives, w)
	}
	return actives
}

// keyedWindowsOf snapshots the keyed windows live under one window,
// so callers can mutate the registry while walking them.
func (r *windowRegistry[K, V, OUT]) keyedWindowsOf(w window.TimeInterval) []window.KeyedWindow[K] {
	keys := r.windows[w]
	kws := make([]window.KeyedWindow[K], 0, len(keys))
	for key := range keys {
		kws = append(kws, window.KeyedWindow[K]{Window: w, Key: key})
	}
	return kws
}

// all snapshots every live keyed window.
func (r *windowRegistry[K, V, OUT]) all() []window.KeyedWindow[K] {
	var kws []window.KeyedWindow[K]
	for w := range r.windows {
		kws = append(kws, r.keyedWindowsOf(w)...)
	}
	return kws
}

func (r *windowRegistry[K, V, OUT]) size() int {
	n := 0
	for _, keys := range r.windows {
		n += len(keys)
	}
	return n
}

// keyedCollector tags everything a state flush emits with the owning
// key and window, stamped by the engine right before the flush.
type keyedCollector[K comparable, OUT any] struct {
	emit   element.Emit
	key    K
	window window.TimeInterval
	stamp  int64
	pane   element.Pane
}

func (c *keyedCollector[K, OUT]) Collect(value OUT) {
	c.emit(&element.Event[element.KV[K, OUT]]{
		Value:     element.KV[K, OUT]{Key: c.key, Value: value},
		Timestamp: c.stamp,
		Windows:   []window.TimeInterval{c.window},
		Pane:      c.pane,
	})
}
