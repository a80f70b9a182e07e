package partition

import (
	"fmt"

	"github.com/twmb/murmur3"
)

// Partitioner routes keys to partitions on repartition boundaries.
// The same key must always land on the same partition.
type Partitioner[K comparable] interface {
	Partition(key K, partitions int) int
}

type hashPartitioner[K comparable] struct {
	keyBytes func(K) []byte
}

// NewHashPartitioner returns the default murmur3-based partitioner.
// Keys are hashed over their fmt representation, which is stable for
// the comparable key types the engine accepts.
func NewHashPartitioner[K comparable]() Partitioner[K] {
	return &hashPartitioner[K]{
		keyBytes: func(key K) []byte {
			return []byte(fmt.Sprintf("%v", key))
		},
	}
}

// NewHashPartitionerWith hashes keys over a caller-supplied byte
// representation.
func NewHashPartitionerWith[K comparable](keyBytes func(K) []byte) Partitioner[K] {
	return &hashPartitioner[K]{keyBytes: keyBytes}
}

func (p *hashPartitioner[K]) Partition(key K, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	return int(murmur3.Sum32(p.keyBytes(key)) % uint32(partitions))
}
