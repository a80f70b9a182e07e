package exec

import "math"

// partialWatermark is the progress of one union input. An idle input is
// excluded from the combine so a finished edge can't hold the watermark
// back forever.
type partialWatermark struct {
	idle      bool
	timestamp int64
}

// combineWatermark combines the watermarks of several inputs into the
// minimum over all non-idle inputs. The combined value only ever moves
// forward.
type combineWatermark struct {
	combined int64
	partials []partialWatermark
}

func newCombineWatermark(inputs int) *combineWatermark {
	partials := make([]partialWatermark, inputs)
	for i := range partials {
		partials[i] = partialWatermark{idle: false, timestamp: math.MinInt64}
	}
	return &combineWatermark{combined: math.MinInt64, partials: partials}
}

func (c *combineWatermark) GetCombinedWatermarkTimestamp() int64 {
	return c.combined
}

// UpdateWatermarkTimestamp records input's progress and reports whether
// the combined watermark advanced.
func (c *combineWatermark) UpdateWatermarkTimestamp(timestamp int64, input int) bool {
	if timestamp > c.partials[input].timestamp {
		c.partials[input].timestamp = timestamp
	}
	return c.recombine()
}

// UpdateIdle marks an input idle or active; marking the slowest input
// idle may advance the combined watermark.
func (c *combineWatermark) UpdateIdle(idle bool, input int) bool {
	c.partials[input].idle = idle
	return c.recombine()
}

func (c *combineWatermark) recombine() bool {
	min := int64(math.MaxInt64)
	active := false
	for _, p := range c.partials {
		if p.idle {
			continue
		}
		active = true
		if p.timestamp < min {
			min = p.timestamp
		}
	}
	if active && min > c.combined {
		c.combined = min
		return true
	}
	return false
}
