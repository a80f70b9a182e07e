package reducer

import (
	"github.com/rillflow/rill/storage"
	"github.com/rillflow/rill/window"
)

// triggerContext is the trigger.Context handed to the trigger tree,
// scoped to one keyed window. Timer registrations for a window other
// than the scope's are programming errors; they are logged and applied
// to the scope anyway rather than corrupting another window's
// lifecycle.
type triggerContext[K comparable, V, OUT any] struct {
	reducer *Reducer[K, V, OUT]
	scope   window.KeyedWindow[K]
}

func (c *triggerContext[K, V, OUT]) guard(w window.TimeInterval, op string) {
	if w != c.scope.Window {
		c.reducer.logger.Warnf("%s for window %s outside of scope %s", op, w, c.scope)
	}
}

func (c *triggerContext[K, V, OUT]) RegisterTimer(stamp int64, w window.TimeInterval) bool {
	c.guard(w, "timer registration")
	return c.reducer.sched.ScheduleAt(stamp, c.scope, c.reducer.onTimerFire)
}

func (c *triggerContext[K, V, OUT]) DeleteTimer(stamp int64, w window.TimeInterval) {
	c.guard(w, "timer cancellation")
	c.reducer.sched.Cancel(stamp, c.scope)
}

func (c *triggerContext[K, V, OUT]) RegisterProcessingTimer(stamp int64, w window.TimeInterval) bool {
	c.guard(w, "processing timer registration")
	return c.reducer.sched.ScheduleProcessingAt(stamp, c.scope, c.reducer.onTimerFire)
}

func (c *triggerContext[K, V, OUT]) DeleteProcessingTimer(stamp int64, w window.TimeInterval) {
	c.guard(w, "processing timer cancellation")
	c.reducer.sched.CancelProcessing(stamp, c.scope)
}

func (c *triggerContext[K, V, OUT]) CurrentTimestamp() int64 {
	return c.reducer.sched.CurrentTimestamp()
}

func (c *triggerContext[K, V, OUT]) CurrentProcessingTimestamp() int64 {
	return c.reducer.sched.CurrentProcessingTimestamp()
}

func (c *triggerContext[K, V, OUT]) Storage() storage.Scoped {
	return c.reducer.storage.Scope(scopeKey(c.scope))
}

func scopeKey[K comparable](kw window.KeyedWindow[K]) storage.ScopeKey {
	return storage.ScopeKey{Window: kw.Window, Key: kw.Key}
}
