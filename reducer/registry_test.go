package reducer

import (
	"testing"

	"github.com/rillflow/rill/window"
	"github.com/stretchr/testify/assert"
)

func kw(start, end int64, key string) window.KeyedWindow[string] {
	return window.KeyedWindow[string]{Window: window.TimeInterval{Start: start, End: end}, Key: key}
}

func newTestEntry() *entry[string, int64, int64] {
	return newEntry[string, int64, int64](nil, &keyedCollector[string, int64]{})
}

func TestRegistrySetGet(t *testing.T) {
	registry := newWindowRegistry[string, int64, int64]()
	assert.Nil(t, registry.get(kw(0, 100, "a")))

	e := newTestEntry()
	registry.set(kw(0, 100, "a"), e)
	assert.Same(t, e, registry.get(kw(0, 100, "a")))
	assert.Nil(t, registry.get(kw(0, 100, "b")))
	assert.Nil(t, registry.get(kw(100, 200, "a")))
	assert.Equal(t, 1, registry.size())
}

func TestRegistrySetIdempotent(t *testing.T) {
	registry := newWindowRegistry[string, int64, int64]()
	registry.set(kw(0, 100, "a"), newTestEntry())
	registry.set(kw(0, 100, "a"), newTestEntry())
	assert.Equal(t, 1, registry.size())
	assert.Len(t, registry.activesForKey("a"), 1)
}

func TestRegistryRemoveCollectsIndexes(t *testing.T) {
	registry := newWindowRegistry[string, int64, int64]()
	e := newTestEntry()
	registry.set(kw(0, 100, "a"), e)
	registry.set(kw(0, 100, "b"), newTestEntry())

	assert.Same(t, e, registry.remove(kw(0, 100, "a")))
	assert.Nil(t, registry.remove(kw(0, 100, "a")))
	assert.Empty(t, registry.activesForKey("a"))
	assert.Equal(t, 1, registry.size())

	registry.remove(kw(0, 100, "b"))
	assert.Equal(t, 0, registry.size())
	assert.Empty(t, registry.windows)
	assert.Empty(t, registry.keyMap)
}

func TestRegistryActivesForKey(t *testing.T) {
	registry := newWindowRegistry[string, int64, int64]()
	registry.set(kw(0, 100, "a"), newTestEntry())
	registry.set(kw(100, 200, "a"), newTestEntry())
	registry.set(kw(0, 100, "b"), newTestEntry())

	actives := registry.activesForKey("a")
	assert.Len(t, actives, 2)
	assert.Contains(t, actives, window.TimeInterval{Start: 0, End: 100})
	assert.Contains(t, actives, window.TimeInterval{Start: 100, End: 200})
}

func TestRegistryKeyedWindowsOf(t *testing.T) {
	registry := newWindowRegistry[string, int64, int64]()
	registry.set(kw(0, 100, "a"), newTestEntry())
	registry.set(kw(0, 100, "b"), newTestEntry())
	registry.set(kw(100, 200, "a"), newTestEntry())

	kws := registry.keyedWindowsOf(window.TimeInterval{Start: 0, End: 100})
	assert.Len(t, kws, 2)
	assert.Len(t, registry.all(), 3)
}

func TestEntryStampBookkeeping(t *testing.T) {
	e := newTestEntry()
	e.observe(50)
	e.observe(10)
	e.observe(30)
	assert.Equal(t, int64(10), e.minStamp)
	assert.Equal(t, int64(50), e.maxStamp)

	other := newTestEntry()
	other.observe(5)
	other.observe(70)
	e.absorb(other)
	assert.Equal(t, int64(5), e.minStamp)
	assert.Equal(t, int64(70), e.maxStamp)
}
