package reducer

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rillflow/rill/common/safe"
	"github.com/rillflow/rill/element"
	"github.com/rillflow/rill/log"
	"github.com/rillflow/rill/scheduler"
	"github.com/rillflow/rill/state"
	"github.com/rillflow/rill/storage"
	"github.com/rillflow/rill/trigger"
	"github.com/rillflow/rill/window"
	"github.com/uber-go/tally/v4"
)

// OutputTimePolicy selects the timestamp of emitted results.
type OutputTimePolicy int

const (
	//OutputAtEndOfWindow stamps results with the window's max timestamp
	OutputAtEndOfWindow OutputTimePolicy = iota
	OutputAtEarliestInput
	OutputAtLatestInput
)

// Config assembles one reduce partition. Windowing, Trigger and the
// state factories are the runner-supplied policy objects; everything
// else has defaults.
type Config[K comparable, V, OUT any] struct {
	Name string

	//Windowing assigns elements to windows; nil means attached
	//windowing, reusing the windows already carried by the elements
	Windowing window.Assigner[V]
	//Trigger defaults to AfterWatermark, or Noop when attached
	Trigger trigger.Trigger[V]

	StateFactory state.Factory[V, OUT]
	//StateCombiner merges split accumulators; required for merging
	//windowing
	StateCombiner state.Combiner[V]
	KeyExtractor  func(V) K

	//AllowedLateness extends the horizon past a window's end during
	//which late elements are still accepted
	AllowedLateness time.Duration
	OutputTime      OutputTimePolicy

	//StorageBackend optionally makes trigger bookkeeping durable
	StorageBackend storage.Backend

	Logger      log.Logger
	Metrics     tally.Scope
	ChannelSize int
}

// Reducer is the windowed, keyed state-and-trigger engine of one
// partition. It consumes elements, watermarks, upstream window trigger
// notifications and end-of-stream from its input channel, maintains
// per keyed window accumulator state, and emits keyed results plus
// watermark and window-close notifications downstream.
//
// All registry, state and trigger mutation happens under one mutex
// shared between the element path and the scheduler's processing time
// clock; this is the only lock in the engine.
type Reducer[K comparable, V, OUT any] struct {
	name   string
	logger log.Logger

	mu       sync.Mutex
	input    chan element.Element
	output   chan element.Element
	registry *windowRegistry[K, V, OUT]
	sched    *scheduler.TriggerScheduler[window.KeyedWindow[K]]
	storage  *storage.Provider
	stats    *stats

	windowing    window.Assigner[V]
	merging      window.MergingAssigner[V]
	trigger      trigger.Trigger[V]
	stateFactory state.Factory[V, OUT]
	combiner     state.Combiner[V]
	keyExtractor func(V) K

	attached        bool
	allowedLateness int64
	outputTime      OutputTimePolicy

	//flushed windows with the time of the flush, drained into
	//downstream notifications after every watermark advance
	flushedWindows map[window.TimeInterval]int64

	currentElementTime int64
	stopped            bool
}

// New validates the configuration and builds the partition engine.
// Configuration errors are fatal and reported here, before any element
// flows.
func New[K comparable, V, OUT any](cfg Config[K, V, OUT]) (*Reducer[K, V, OUT], error) {
	if cfg.StateFactory == nil {
		return nil, errors.New("reducer requires a state factory")
	}
	if cfg.KeyExtractor == nil {
		return nil, errors.New("reducer requires a key extractor")
	}
	if cfg.AllowedLateness < 0 {
		return nil, errors.New("allowed lateness must not be negative")
	}
	name := cfg.Name
	if name == "" {
		name = "reduce"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Global().Named(name + ".reducer")
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = tally.NoopScope
	}
	channelSize := cfg.ChannelSize
	if channelSize <= 0 {
		channelSize = 1024
	}

	attached := cfg.Windowing == nil
	merging, isMerging := cfg.Windowing.(window.MergingAssigner[V])
	if !isMerging {
		merging = nil
	}

	triggerV := cfg.Trigger
	if triggerV == nil {
		if attached {
			triggerV = trigger.NewNoop[V]()
		} else {
			triggerV = trigger.NewAfterWatermark[V]()
		}
	}
	if merging != nil {
		if cfg.StateCombiner == nil {
			return nil, errors.Errorf("merging windowing %T requires a state combiner", cfg.Windowing)
		}
		if _, ok := triggerV.(trigger.Mergeable); !ok {
			return nil, errors.Errorf("merging windowing %T requires a mergeable trigger, got %T", cfg.Windowing, triggerV)
		}
	}

	r := &Reducer[K, V, OUT]{
		name:            name,
		logger:          logger,
		input:           make(chan element.Element, channelSize),
		output:          make(chan element.Element, channelSize),
		registry:        newWindowRegistry[K, V, OUT](),
		storage:         storage.NewProvider(cfg.StorageBackend),
		stats:           newStats(metrics, logger),
		windowing:       cfg.Windowing,
		merging:         merging,
		trigger:         triggerV,
		stateFactory:    cfg.StateFactory,
		combiner:        cfg.StateCombiner,
		keyExtractor:    cfg.KeyExtractor,
		attached:        attached,
		allowedLateness: cfg.AllowedLateness.Milliseconds(),
		outputTime:      cfg.OutputTime,
		flushedWindows:  map[window.TimeInterval]int64{},
	}
	r.sched = scheduler.New[window.KeyedWindow[K]](&r.mu)
	return r, nil
}

func (r *Reducer[K, V, OUT]) Name() string {
	return r.name
}

// In is the partition's input queue.
func (r *Reducer[K, V, OUT]) In() chan<- element.Element {
	return r.input
}

// Out carries emitted results, watermarks, window-close notifications
// and the propagated end-of-stream.
func (r *Reducer[K, V, OUT]) Out() <-chan element.Element {
	return r.output
}

// Run consumes the input queue until end-of-stream and returns the
// first fatal error. State factory and trigger panics surface here;
// the engine never retries over possibly half-mutated accumulators.
// The output channel is closed on return.
func (r *Reducer[K, V, OUT]) Run() error {
	r.logger.Info("starting...")
	defer close(r.output)
	for item := range r.input {
		var done bool
		if err := safe.Run(func() error {
			r.mu.Lock()
			defer r.mu.Unlock()
			done = r.dispatch(item)
			return nil
		}); err != nil {
			r.logger.Errorf("partition failed: %+v", err)
			return errors.WithMessagef(err, "reducer %s failed", r.name)
		}
		if done {
			r.logger.Info("drained")
			return nil
		}
	}
	//input closed without an explicit end-of-stream token
	return safe.Run(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.stopped {
			r.processEndOfStream()
		}
		return nil
	})
}

// Stop is the hard-stop path: it cancels all pending timers and closes
// all live states without flushing them. Tokens still queued are
// ignored afterwards. The graceful path is an EndOfStream token.
func (r *Reducer[K, V, OUT]) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	r.sched.Close()
	for _, kw := range r.registry.all() {
		if e := r.registry.remove(kw); e != nil {
			e.state.Close()
		}
		r.storage.DropScope(scopeKey(kw))
	}
	r.logger.Info("stopped")
}

// dispatch routes one token; it reports whether the stream ended.
func (r *Reducer[K, V, OUT]) dispatch(item element.Element) bool {
	if r.stopped {
		return false
	}
	switch it := item.(type) {
	case *element.Event[V]:
		r.processElement(it)
	case element.Watermark:
		r.processWatermark(it)
	case element.WindowTrigger:
		r.processWindowTrigger(it)
	case element.EndOfStream:
		r.processEndOfStream()
		return true
	default:
		r.logger.Warnf("dropping element of unknown kind %T", item)
	}
	return false
}

func (r *Reducer[K, V, OUT]) processElement(event *element.Event[V]) {
	r.currentElementTime = event.Timestamp
	r.stats.update(event.Timestamp, r.sched.CurrentTimestamp())

	var windows []window.TimeInterval
	if r.attached {
		windows = event.Windows
	} else {
		windows = r.windowing.Assign(event.Value, event.Timestamp)
	}
	key := r.keyExtractor(event.Value)

	for _, w := range windows {
		kw := window.KeyedWindow[K]{Window: w, Key: key}
		if r.isLate(kw) {
			r.stats.lateDropped.Inc(1)
			r.logger.Debugf("window %s discarded for key %v at watermark %d", w, key, r.sched.CurrentTimestamp())
			continue
		}
		e := r.getWindowStateForUpdate(kw)
		e.state.Add(event.Value)
		e.observe(event.Timestamp)

		result := r.trigger.OnElement(event.Timestamp, event.Value, w, &triggerContext[K, V, OUT]{reducer: r, scope: kw})
		r.handleTriggerResult(result, kw)
	}
	if r.merging != nil {
		r.mergeActives(key)
	}
}

// isLate is the deliberate drop decision point: a window is late when
// its registry entry is gone and the watermark passed its allowed
// lateness horizon.
func (r *Reducer[K, V, OUT]) isLate(kw window.KeyedWindow[K]) bool {
	if r.attached {
		return false
	}
	if r.registry.get(kw) != nil {
		return false
	}
	return r.sched.CurrentTimestamp() > kw.Window.MaxTimestamp()+r.allowedLateness
}

func (r *Reducer[K, V, OUT]) getWindowStateForUpdate(kw window.KeyedWindow[K]) *entry[K, V, OUT] {
	if e := r.registry.get(kw); e != nil {
		return e
	}
	//no such window yet, set it up
	collector := &keyedCollector[K, OUT]{
		emit:   func(el element.Element) { r.output <- el },
		key:    kw.Key,
		window: kw.Window,
	}
	e := newEntry[K, V, OUT](r.stateFactory(collector, r.storage.Scope(scopeKey(kw))), collector)
	r.registry.set(kw, e)
	return e
}

// onTimerFire is the due-timer callback for both time domains.
func (r *Reducer[K, V, OUT]) onTimerFire(stamp int64, kw window.KeyedWindow[K]) {
	result := r.trigger.OnTimer(stamp, kw.Window, &triggerContext[K, V, OUT]{reducer: r, scope: kw})
	r.handleTriggerResult(result, kw)
}

func (r *Reducer[K, V, OUT]) handleTriggerResult(result trigger.Result, kw window.KeyedWindow[K]) {
	if result.IsFlush() {
		r.flushWindow(kw, result.IsPurge())
	}
	if result.IsPurge() {
		r.purgeWindow(kw)
	}
}

// flushWindow emits the accumulated result of the keyed window,
// stamped by the output time policy, and remembers the flush so one
// window-close notification per window reaches downstream operators.
func (r *Reducer[K, V, OUT]) flushWindow(kw window.KeyedWindow[K], last bool) {
	e := r.registry.get(kw)
	if e == nil {
		return
	}
	e.collector.stamp = r.outputStamp(kw, e)
	e.collector.pane = element.Pane{Index: e.pane, IsLast: last}
	e.state.Flush()
	e.pane++
	r.stats.flushes.Inc(1)
	r.flushedWindows[kw.Window] = r.sched.CurrentTimestamp()
}

// purgeWindow discards the keyed window: state closed, trigger
// storage released, pending timers cancelled. Purging an absent window
// is a no-op.
func (r *Reducer[K, V, OUT]) purgeWindow(kw window.KeyedWindow[K]) {
	if e := r.registry.remove(kw); e != nil {
		e.state.Close()
		r.stats.purges.Inc(1)
	}
	r.trigger.OnClear(kw.Window, &triggerContext[K, V, OUT]{reducer: r, scope: kw})
	r.sched.CancelScope(kw)
	r.storage.DropScope(scopeKey(kw))
}

func (r *Reducer[K, V, OUT]) outputStamp(kw window.KeyedWindow[K], e *entry[K, V, OUT]) int64 {
	switch r.outputTime {
	case OutputAtEarliestInput:
		return e.minStamp
	case OutputAtLatestInput:
		return e.maxStamp
	default:
		return kw.Window.MaxTimestamp()
	}
}

func (r *Reducer[K, V, OUT]) processWatermark(watermark element.Watermark) {
	r.sched.UpdateStamp(watermark.Timestamp)
	//the scheduler clamps regressions, so the forwarded watermark never
	//moves backwards even when the input one does
	r.notifyFlushedWindows(r.sched.CurrentTimestamp())
}

// notifyFlushedWindows tells downstream operators which windows closed
// during this advance and then forwards a watermark that is never less
// than the input one.
func (r *Reducer[K, V, OUT]) notifyFlushedWindows(inputStamp int64) {
	max := inputStamp
	for w, stamp := range r.flushedWindows {
		r.output <- element.WindowTrigger{Window: w, Timestamp: stamp}
		if stamp > max {
			max = stamp
		}
	}
	r.flushedWindows = map[window.TimeInterval]int64{}
	r.stats.advance(max)
	r.output <- element.Watermark{Timestamp: max}
}

// processWindowTrigger re-arms triggers of windows whose upstream
// already closed; only attached windowing reacts, generic windowing
// governs its windows itself.
func (r *Reducer[K, V, OUT]) processWindowTrigger(wt element.WindowTrigger) {
	if !r.attached {
		return
	}
	r.logger.Debugf("updating trigger of window %s to %d", wt.Window, wt.Timestamp)
	for _, kw := range r.registry.keyedWindowsOf(wt.Window) {
		fire := func(stamp int64, kw window.KeyedWindow[K]) {
			r.flushWindow(kw, true)
			r.purgeWindow(kw)
		}
		if !r.sched.ScheduleAt(wt.Timestamp, kw, fire) {
			r.logger.Debugf("manually firing already passed flush event for window %s", kw)
			fire(wt.Timestamp, kw)
		}
	}
}

// processEndOfStream flushes and closes every remaining live state, so
// nothing is silently lost, then propagates end-of-stream downstream.
func (r *Reducer[K, V, OUT]) processEndOfStream() {
	r.sched.Close()
	for _, kw := range r.registry.all() {
		e := r.registry.remove(kw)
		if e == nil {
			continue
		}
		e.collector.stamp = r.outputStamp(kw, e)
		e.collector.pane = element.Pane{Index: e.pane, IsLast: true}
		e.state.Flush()
		e.state.Close()
		r.stats.flushes.Inc(1)
		r.storage.DropScope(scopeKey(kw))
	}
	r.notifyFlushedWindows(r.sched.CurrentTimestamp())
	r.output <- element.EndOfStream{}
	r.stopped = true
}

// mergeActives coalesces the key's overlapping session windows.
func (r *Reducer[K, V, OUT]) mergeActives(key K) {
	actives := r.registry.activesForKey(key)
	if len(actives) < 2 {
		return
	}
	for _, merge := range r.merging.MergeCandidates(actives) {
		r.mergeWindows(merge.Sources, merge.Target, key)
	}
}

// mergeWindows removes the source windows, rebinds their collectors to
// the target so anything emitted during the combine lands in the
// target's scope, and combines the accumulators into the target's
// entry. Pending timers and trigger storage of merged-away windows are
// dropped; the trigger re-arms itself for the target via OnMerge.
func (r *Reducer[K, V, OUT]) mergeWindows(sources []window.TimeInterval, target window.TimeInterval, key K) {
	targetKw := window.KeyedWindow[K]{Window: target, Key: key}
	targetEntry := r.getWindowStateForUpdate(targetKw)

	states := []state.State[V]{targetEntry.state}
	for _, source := range sources {
		if source == target {
			continue
		}
		sourceKw := window.KeyedWindow[K]{Window: source, Key: key}
		e := r.registry.remove(sourceKw)
		if e == nil {
			continue
		}
		e.collector.window = target
		states = append(states, e.state)
		targetEntry.absorb(e)
		r.sched.CancelScope(sourceKw)
		r.storage.DropScope(scopeKey(sourceKw))
	}
	if len(states) > 1 {
		targetEntry.state = r.combiner(states)
	}

	ctx := &triggerContext[K, V, OUT]{reducer: r, scope: targetKw}
	if mergeable, ok := r.trigger.(trigger.Mergeable); ok {
		mergeable.OnMerge(target, ctx)
	}
	//the coalesced span may already be due
	if target.MaxTimestamp() <= r.sched.CurrentTimestamp() {
		r.onTimerFire(r.sched.CurrentTimestamp(), targetKw)
	}
}
