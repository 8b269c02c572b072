package intrusive

import "sync/atomic"

// SetTraits tells a HashSet how to reach a node's chain link and key. The
// power-of-two-sized bucket storage is not part of the traits: the owner
// passes it to NewHashSet (spec §4.4: "the set does NOT allocate: buckets
// are supplied by the owner"). Next must address a field distinct from any ListTraits field on
// the same node if a node is ever linked into both kinds of container.
type SetTraits[T any] struct {
	Next func(n *T) *atomic.Pointer[T]
	Key  func(n *T) uintptr
}

// HashSet is an intrusive hashed set keyed by an address-shaped key,
// indexed with a power-of-two bitmask (spec §4.4, E3). It performs no
// allocation of its own: the bucket slice is supplied by the caller and
// must have a power-of-two length.
type HashSet[T any] struct {
	buckets []atomic.Pointer[T]
	mask    uint64
	traits  SetTraits[T]
	size    atomic.Int64
}

// NewHashSet wraps buckets (len(buckets) must be a power of two) as an
// empty hashed set.
func NewHashSet[T any](buckets []atomic.Pointer[T], traits SetTraits[T]) *HashSet[T] {
	n := len(buckets)
	if n == 0 || n&(n-1) != 0 {
		panic("intrusive: HashSet bucket count must be a power of two")
	}
	if traits.Next == nil || traits.Key == nil {
		panic("intrusive: SetTraits.Next and Key are required")
	}
	return &HashSet[T]{buckets: buckets, mask: uint64(n - 1), traits: traits}
}

func mix(x uint64) uint64 {
	// splitmix64 finalizer; spreads low-order-zero pointer bits (object
	// addresses are at least word-aligned) across the whole word before
	// masking down to the bucket count.
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

func (s *HashSet[T]) bucketIndex(key uintptr) uint64 {
	return mix(uint64(key)) & s.mask
}

// Insert links n into the set. The caller must guarantee n is not already
// present under the same key (spec §3 E3: "objects with the same key are
// not permitted"); HashSet does not itself detect the violation, since
// detecting it would require walking the full chain on every insert.
func (s *HashSet[T]) Insert(n *T) {
	idx := s.bucketIndex(s.traits.Key(n))
	for {
		head := s.buckets[idx].Load()
		s.traits.Next(n).Store(head)
		if s.buckets[idx].CompareAndSwap(head, n) {
			s.size.Add(1)
			return
		}
	}
}

// Find returns the entry stored under key, or nil.
func (s *HashSet[T]) Find(key uintptr) *T {
	idx := s.bucketIndex(key)
	for n := s.buckets[idx].Load(); n != nil; n = s.traits.Next(n).Load() {
		if s.traits.Key(n) == key {
			return n
		}
	}
	return nil
}

// Contains reports whether key is present.
func (s *HashSet[T]) Contains(key uintptr) bool {
	return s.Find(key) != nil
}

// Erase unlinks the entry stored under key, returning it (or nil if absent).
// Erase is not safe to call concurrently with another Erase or Insert on
// the same bucket; retired sets are owner-exclusive (spec §5), so this is
// never required to race with itself.
func (s *HashSet[T]) Erase(key uintptr) *T {
	idx := s.bucketIndex(key)
	var prev *T
	for n := s.buckets[idx].Load(); n != nil; n = s.traits.Next(n).Load() {
		if s.traits.Key(n) == key {
			next := s.traits.Next(n).Load()
			if prev == nil {
				s.buckets[idx].Store(next)
			} else {
				s.traits.Next(prev).Store(next)
			}
			s.size.Add(-1)
			return n
		}
		prev = n
	}
	return nil
}

// Range calls f for every entry in the set; stops early if f returns false.
func (s *HashSet[T]) Range(f func(n *T) bool) {
	for i := range s.buckets {
		for n := s.buckets[i].Load(); n != nil; n = s.traits.Next(n).Load() {
			if !f(n) {
				return
			}
		}
	}
}

// Size returns the best-effort live count (spec §3 E3 notes this is not
// tracked automatically under an auto-unlink hook; here it is a plain
// counter maintained by Insert/Erase/Merge).
func (s *HashSet[T]) Size() int64 {
	return s.size.Load()
}

// Merge drains every entry of other into s, re-hashing each one against s's
// own bucket array (spec §4.4). other is empty after Merge returns.
func (s *HashSet[T]) Merge(other *HashSet[T]) {
	for i := range other.buckets {
		for {
			n := other.buckets[i].Load()
			if n == nil {
				break
			}
			next := other.traits.Next(n).Load()
			if !other.buckets[i].CompareAndSwap(n, next) {
				continue
			}
			other.size.Add(-1)
			s.Insert(n)
		}
	}
}
