package refptr

import "unsafe"

// Shared is a strong reference-counted pointer (spec.md §4.8, C8): a
// value pointer paired with the control block that owns its lifetime. The
// zero Shared[T] is the empty/null strong pointer.
type Shared[T any] struct {
	value *T
	cb    *controlBlock[T]
}

// inlineBlock is the storage make_shared allocates: the control block and
// the value live in one allocation (spec.md §4.8 make_shared: "inlines a
// suitably-aligned storage for T").
type inlineBlock[T any] struct {
	cb  controlBlock[T]
	val T
}

// MakeShared allocates value in-place with its control block (spec.md §4.8
// make_shared). Its delete_value resets the inline storage, dropping any
// references T holds so the GC can collect them as soon as the block's
// storage itself becomes unreachable; its delete_self is a no-op since the
// block and the value share one Go allocation.
func MakeShared[T any](value T) Shared[T] {
	ib := &inlineBlock[T]{val: value}
	ib.cb.value = &ib.val
	ib.cb.refCount.Store(1)
	ib.cb.weakCount.Store(1)
	ib.cb.deleteValue = func(v *T) { var zero T; *v = zero }
	ib.cb.Base.Bind(unsafe.Pointer(&ib.cb))
	return Shared[T]{value: ib.cb.value, cb: &ib.cb}
}

// NewShared constructs a Shared from an already-allocated value and an
// out-of-place control block (spec.md §4.8 "construction from T* with
// optional deleter"). deleter may be nil, in which case dropping the last
// strong reference does nothing to value beyond what NewShared itself
// allocated.
func NewShared[T any](value *T, deleter func(*T)) Shared[T] {
	if deleter == nil {
		deleter = func(*T) {}
	}
	cb := newControlBlock(value, deleter, nil)
	return Shared[T]{value: value, cb: cb}
}

// IsNil reports whether s holds no control block.
func (s Shared[T]) IsNil() bool { return s.cb == nil }

// Get returns the pointed-to value, or nil for an empty Shared.
func (s Shared[T]) Get() *T {
	if s.cb == nil {
		return nil
	}
	return s.value
}

// Clone returns a new strong reference to the same control block (spec.md
// §4.7 inc_ref, called by the holder of an existing reference).
func (s Shared[T]) Clone() Shared[T] {
	if s.cb != nil {
		s.cb.incRef()
	}
	return s
}

// Release drops this strong reference, running w's reentrant-safe destroy
// path if it was the last one (spec.md §4.7 dec_ref).
func (s Shared[T]) Release(w *Worker) {
	if s.cb != nil {
		s.cb.decRef(w)
	}
}

// Downgrade returns a new Weak referring to the same control block
// (spec.md §4.7 inc_weak).
func (s Shared[T]) Downgrade() Weak[T] {
	if s.cb == nil {
		return Weak[T]{}
	}
	s.cb.incWeak()
	return Weak[T]{cb: s.cb}
}
