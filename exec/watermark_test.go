package exec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineWatermarkMinOverInputs(t *testing.T) {
	cw := newCombineWatermark(2)
	assert.Equal(t, int64(math.MinInt64), cw.GetCombinedWatermarkTimestamp())

	//one input alone cannot advance the combined watermark past the other
	assert.False(t, cw.UpdateWatermarkTimestamp(100, 0))
	assert.True(t, cw.UpdateWatermarkTimestamp(50, 1))
	assert.Equal(t, int64(50), cw.GetCombinedWatermarkTimestamp())

	assert.True(t, cw.UpdateWatermarkTimestamp(200, 1))
	assert.Equal(t, int64(100), cw.GetCombinedWatermarkTimestamp())
}

func TestCombineWatermarkNeverRegresses(t *testing.T) {
	cw := newCombineWatermark(2)
	cw.UpdateWatermarkTimestamp(100, 0)
	cw.UpdateWatermarkTimestamp(100, 1)
	assert.Equal(t, int64(100), cw.GetCombinedWatermarkTimestamp())

	assert.False(t, cw.UpdateWatermarkTimestamp(50, 0))
	assert.Equal(t, int64(100), cw.GetCombinedWatermarkTimestamp())
}

func TestCombineWatermarkIdleInputExcluded(t *testing.T) {
	cw := newCombineWatermark(2)
	cw.UpdateWatermarkTimestamp(100, 0)
	cw.UpdateWatermarkTimestamp(30, 1)
	assert.Equal(t, int64(30), cw.GetCombinedWatermarkTimestamp())

	//the lagging input going idle releases the combined watermark
	assert.True(t, cw.UpdateIdle(true, 1))
	assert.Equal(t, int64(100), cw.GetCombinedWatermarkTimestamp())
}

func TestCombineWatermarkAllIdle(t *testing.T) {
	cw := newCombineWatermark(1)
	cw.UpdateWatermarkTimestamp(100, 0)
	assert.False(t, cw.UpdateIdle(true, 0))
	assert.Equal(t, int64(100), cw.GetCombinedWatermarkTimestamp())
}
