package refptr

// MarkedShared is the marked shared pointer spec.md §4.8 describes: a
// Shared carrying one extra "logical delete" mark bit, used by lock-free
// containers (e.g. a skiplist's "node is being deleted" mark) that need the
// mark and the control-block identity to travel together as one value.
//
// spec.md's C++ source packs the mark into the control-block pointer's low
// address bit. This translation does not: a packed tagged word is a plain
// uintptr, invisible to Go's garbage collector, so a MarkedShared
// that is the sole reference to its control block (exactly the lock-free
// CAS-slot use case spec.md §4.8 describes) would keep that control block
// alive through a field the GC cannot see as a pointer -- the block could be
// collected out from under a still-live strong/weak count. cb is therefore
// a real, GC-visible *controlBlock[T] field, with the mark stored beside it
// as a plain bool instead of packed into its bits; this is the same
// "box it instead of tagging the pointer" choice example/skiplist's nodeRef
// already makes for the identical reason (see skiplist.go's nodeRef doc).
type MarkedShared[T any] struct {
	value  *T
	cb     *controlBlock[T]
	marked bool
}

// Mark wraps s with the given mark bit, taking a new strong reference
// (spec.md §4.7 inc_ref) since the marked pointer is an independent holder.
func Mark[T any](s Shared[T], mark bool) MarkedShared[T] {
	if s.cb != nil {
		s.cb.incRef()
	}
	return MarkedShared[T]{value: s.value, cb: s.cb, marked: mark}
}

// IsNil reports whether m holds no control block.
func (m MarkedShared[T]) IsNil() bool { return m.cb == nil }

// IsMarked reports the mark bit (spec.md §4.8 is_marked).
func (m MarkedShared[T]) IsMarked() bool { return m.marked }

// Marked returns a copy of m with the mark bit set (spec.md §4.8 mark).
func (m MarkedShared[T]) Marked() MarkedShared[T] {
	m.marked = true
	return m
}

// Unmarked returns a copy of m with the mark bit cleared (spec.md §4.8
// unmark).
func (m MarkedShared[T]) Unmarked() MarkedShared[T] {
	m.marked = false
	return m
}

// Get returns the pointed-to value, or nil if m is empty.
func (m MarkedShared[T]) Get() *T { return m.value }

// Equal compares the value pointer, control block, and mark together, so
// two references to the same control block with different marks compare
// unequal (spec.md §4.8).
func (m MarkedShared[T]) Equal(other MarkedShared[T]) bool {
	return m.value == other.value && m.cb == other.cb && m.marked == other.marked
}

// ToShared returns a new unmarked strong reference to m's control block,
// taking an additional strong reference.
func (m MarkedShared[T]) ToShared() Shared[T] {
	if m.cb != nil {
		m.cb.incRef()
	}
	return Shared[T]{value: m.value, cb: m.cb}
}

// Release drops the strong reference m holds.
func (m MarkedShared[T]) Release(w *Worker) {
	if m.cb != nil {
		m.cb.decRef(w)
	}
}
