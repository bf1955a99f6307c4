package fold

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// bloomFalsePositiveRate matches the estimate sst.diskSSTWriter uses for
// its per-SST key filter.
const bloomFalsePositiveRate = 0.01

// Bloom is an optional negative-existence filter over (decoded) bucket
// names, built the same way sst.diskSSTWriter accumulates a
// bloom.BloomFilter over keys as it writes them. A Driver with one
// attached records every bucket it discovers during a FoldBuckets run, so
// a caller who only wants to know "has this bucket ever been written"
// can ask BucketMightExist and skip the directory walk entirely on a
// definite no.
type Bloom struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewBloom returns an empty Bloom sized for approximately n expected
// entries.
func NewBloom(n uint) *Bloom {
	return &Bloom{filter: bloom.NewWithEstimates(n, bloomFalsePositiveRate)}
}

// Add records that encoded (a bucket name, as FoldBuckets passes it) has
// been written.
func (b *Bloom) Add(encoded []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.Add(encoded)
}

// MaybeContains reports whether encoded might have been written. A false
// result is a hard guarantee of absence; a true result requires the
// caller to fall back to an actual directory/file probe.
func (b *Bloom) MaybeContains(encoded []byte) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter.Test(encoded)
}

// WithBloom attaches b to d so subsequent FoldBuckets calls populate it as
// buckets are discovered. It does not change what FoldBuckets itself
// walks or emits; it only gives BucketMightExist something to consult.
func (d *Driver) WithBloom(b *Bloom) *Driver {
	d.bloom = b
	return d
}

// recordBucket feeds a bloom filter, when one is attached, as buckets are
// discovered during a fold.
func (d *Driver) recordBucket(bucket []byte) {
	if d.bloom == nil {
		return
	}
	d.bloom.Add(bucket)
}
