package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type capture[OUT any] struct {
	collected []OUT
}

func (c *capture[OUT]) Collect(value OUT) {
	c.collected = append(c.collected, value)
}

func sumFactory() (Factory[int64, int64], Combiner[int64]) {
	return NewFoldFactory(
		func() int64 { return 0 },
		func(acc int64, v int64) int64 { return acc + v },
		func(a int64, b int64) int64 { return a + b },
		func(acc int64) int64 { return acc },
	)
}

func TestFoldState(t *testing.T) {
	factory, _ := sumFactory()
	collector := &capture[int64]{}
	st := factory(collector, nil)

	st.Add(3)
	st.Add(4)
	st.Flush()
	assert.Equal(t, []int64{7}, collector.collected)

	//flushing again re-emits the running accumulator
	st.Add(1)
	st.Flush()
	assert.Equal(t, []int64{7, 8}, collector.collected)
	st.Close()
}

func TestFoldCombiner(t *testing.T) {
	factory, combiner := sumFactory()
	collector := &capture[int64]{}

	target := factory(collector, nil)
	target.Add(3)
	source := factory(collector, nil)
	source.Add(4)

	combined := combiner([]State[int64]{target, source})
	combined.Flush()
	assert.Equal(t, []int64{7}, collector.collected)
}

func TestFoldCombinerEmptyStates(t *testing.T) {
	factory, combiner := sumFactory()
	collector := &capture[int64]{}

	target := factory(collector, nil)
	source := factory(collector, nil)
	source.Add(5)

	//an empty target adopts the source accumulator instead of folding
	//the initial value in twice
	combined := combiner([]State[int64]{target, source, factory(collector, nil)})
	combined.Flush()
	assert.Equal(t, []int64{5}, collector.collected)
}

func TestBufferState(t *testing.T) {
	factory, combiner := NewBufferFactory[string]()
	collector := &capture[[]string]{}

	st := factory(collector, nil)
	st.Add("a")
	st.Add("b")
	st.Flush()
	assert.Equal(t, [][]string{{"a", "b"}}, collector.collected)

	other := factory(collector, nil)
	other.Add("c")
	combined := combiner([]State[string]{st, other})
	combined.Flush()
	assert.Equal(t, []string{"a", "b", "c"}, collector.collected[1])

	combined.Close()
}
