package hazard

import (
	"sync/atomic"

	"github.com/ludaludaed/hazardptr/internal/intrusive"
)

// retiredSet is the per-thread hashed set of retired objects (spec §3 E3,
// §4.4), keyed by the address each object was retired under.
type retiredSet struct {
	set *intrusive.HashSet[Base]
}

func newRetiredSet(bucketCount int) *retiredSet {
	buckets := make([]atomic.Pointer[Base], bucketCount)
	traits := intrusive.SetTraits[Base]{
		Next: func(b *Base) *atomic.Pointer[Base] { return &b.next },
		Key:  func(b *Base) uintptr { return b.key },
	}
	return &retiredSet{set: intrusive.NewHashSet(buckets, traits)}
}

func (rs *retiredSet) insert(b *Base) {
	rs.set.Insert(b)
}

func (rs *retiredSet) find(key uintptr) *Base {
	return rs.set.Find(key)
}

func (rs *retiredSet) size() uint64 {
	return uint64(rs.set.Size())
}

func (rs *retiredSet) merge(other *retiredSet) {
	rs.set.Merge(other.set)
}

// scanAndReclaim implements the "walk the retired set" half of spec §4.5
// scan(): entries left marked protected by the caller are unmarked and
// kept; everything else is unlinked and reclaimed. Gathering keys before
// erasing avoids mutating bucket chains while Range is walking them.
func (rs *retiredSet) scanAndReclaim() (reclaimed uint64) {
	var dead []uintptr
	rs.set.Range(func(b *Base) bool {
		if b.protected.Load() {
			b.protected.Store(false)
		} else {
			dead = append(dead, b.key)
		}
		return true
	})

	for _, key := range dead {
		b := rs.set.Erase(key)
		if b == nil {
			continue
		}
		b.retired.Store(false)
		if b.reclaim != nil {
			b.reclaim()
		}
		reclaimed++
	}
	return reclaimed
}
