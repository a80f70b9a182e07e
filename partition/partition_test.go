package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPartitionerDeterministic(t *testing.T) {
	p := NewHashPartitioner[string]()
	for _, key := range []string{"a", "b", "hello", ""} {
		assert.Equal(t, p.Partition(key, 8), p.Partition(key, 8))
	}
}

func TestHashPartitionerInRange(t *testing.T) {
	p := NewHashPartitioner[int]()
	for key := 0; key < 1000; key++ {
		index := p.Partition(key, 7)
		assert.GreaterOrEqual(t, index, 0)
		assert.Less(t, index, 7)
	}
}

func TestHashPartitionerSinglePartition(t *testing.T) {
	p := NewHashPartitioner[string]()
	assert.Equal(t, 0, p.Partition("anything", 1))
	assert.Equal(t, 0, p.Partition("anything", 0))
}

func TestHashPartitionerSpreads(t *testing.T) {
	p := NewHashPartitioner[int]()
	hit := map[int]int{}
	for key := 0; key < 1000; key++ {
		hit[p.Partition(key, 4)]++
	}
	//all partitions get a reasonable share of the keys
	assert.Len(t, hit, 4)
	for index, count := range hit {
		assert.Greater(t, count, 100, "partition %d starved", index)
	}
}

func TestHashPartitionerWithCustomBytes(t *testing.T) {
	p := NewHashPartitionerWith(func(key uint64) []byte {
		return []byte{byte(key), byte(key >> 8), byte(key >> 16), byte(key >> 24)}
	})
	assert.Equal(t, p.Partition(42, 8), p.Partition(42, 8))
}
