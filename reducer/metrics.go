package reducer

import (
	"time"

	"github.com/rillflow/rill/log"
	"github.com/uber-go/tally/v4"
)

// stats tracks the running partition: tally counters for the
// externally observable decisions (late drops in particular) and the
// throttled processing log the reducer prints while it runs.
type stats struct {
	logger log.Logger

	elements    tally.Counter
	flushes     tally.Counter
	purges      tally.Counter
	lateDropped tally.Counter
	watermark   tally.Gauge

	watermarkPassed int64
	maxElementStamp int64
	lastLogTime     time.Time
}

func newStats(scope tally.Scope, logger log.Logger) *stats {
	return &stats{
		logger:          logger,
		elements:        scope.Counter("elements"),
		flushes:         scope.Counter("flushes"),
		purges:          scope.Counter("purges"),
		lateDropped:     scope.Counter("late_dropped"),
		watermark:       scope.Gauge("watermark"),
		watermarkPassed: -1,
		maxElementStamp: -1,
	}
}

func (s *stats) update(elementStamp int64, watermark int64) {
	s.elements.Inc(1)
	s.watermarkPassed = watermark
	if s.maxElementStamp < elementStamp {
		s.maxElementStamp = elementStamp
	}
	now := time.Now()
	if s.lastLogTime.Add(5 * time.Second).Before(now) {
		s.logger.Infof("processing stats: at watermark %d, maxElementStamp %d", s.watermarkPassed, s.maxElementStamp)
		s.lastLogTime = now
	}
}

func (s *stats) advance(watermark int64) {
	s.watermark.Update(float64(watermark))
}
