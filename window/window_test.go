package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeIntervalBounds(t *testing.T) {
	w := TimeInterval{Start: 0, End: 600000}
	assert.Equal(t, int64(599999), w.MaxTimestamp())
	assert.True(t, w.Contains(0))
	assert.True(t, w.Contains(599999))
	assert.False(t, w.Contains(600000))
	assert.False(t, w.Contains(-1))
	assert.Equal(t, "[0,600000)", w.String())
}

func TestTimeIntervalIntersects(t *testing.T) {
	a := TimeInterval{Start: 0, End: 100}
	b := TimeInterval{Start: 50, End: 150}
	c := TimeInterval{Start: 100, End: 200}
	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))
	//half-open intervals touching at the boundary do not intersect
	assert.False(t, a.Intersects(c))
	assert.True(t, b.Intersects(c))
}

func TestTimeIntervalSpan(t *testing.T) {
	a := TimeInterval{Start: 10, End: 100}
	b := TimeInterval{Start: 50, End: 150}
	assert.Equal(t, TimeInterval{Start: 10, End: 150}, a.Span(b))
	assert.Equal(t, TimeInterval{Start: 10, End: 150}, b.Span(a))
	assert.Equal(t, a, a.Span(a))
}
