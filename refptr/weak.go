package refptr

// Weak is a non-owning reference that can be upgraded to a Shared as long
// as a strong reference survives (spec.md §4.8). The zero Weak[T] is the
// empty weak pointer.
type Weak[T any] struct {
	cb *controlBlock[T]
}

// IsNil reports whether w holds no control block.
func (w Weak[T]) IsNil() bool { return w.cb == nil }

// Upgrade attempts to produce a new strong reference (spec.md §4.8
// "construction from weak: uses inc_ref_if_not_zero; on failure the strong
// is empty").
func (w Weak[T]) Upgrade() (Shared[T], bool) {
	if w.cb == nil {
		return Shared[T]{}, false
	}
	if !w.cb.incRefIfNotZero() {
		return Shared[T]{}, false
	}
	return Shared[T]{value: w.cb.value, cb: w.cb}, true
}

// Clone returns a new weak reference to the same control block.
func (w Weak[T]) Clone() Weak[T] {
	if w.cb != nil {
		w.cb.incWeak()
	}
	return w
}

// Release drops this weak reference, retiring the control block into the
// control-block hazard domain if it was the last one (spec.md §4.7
// dec_weak).
func (w Weak[T]) Release(worker *Worker) {
	if w.cb != nil {
		w.cb.decWeak(worker)
	}
}
