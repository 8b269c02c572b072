package refptr

import (
	"sync/atomic"
	"unsafe"

	"github.com/ludaludaed/hazardptr/hazard"
)

// controlBlock is the hazard-aware control block spec.md §4.7 (C7)
// describes: a strong count, a weak count, and the two deleters a Shared's
// construction path bound at creation time. Embedding hazard.Base makes
// controlBlock[T] a hazard.Object, so dec_weak can retire it into a
// dedicated control-block domain exactly like any other hazard object.
type controlBlock[T any] struct {
	hazard.Base

	refCount  atomic.Int64
	weakCount atomic.Int64

	value       *T
	deleteValue func(*T)
	deleteSelf  func()
}

func newControlBlock[T any](value *T, deleteValue func(*T), deleteSelf func()) *controlBlock[T] {
	cb := &controlBlock[T]{value: value, deleteValue: deleteValue, deleteSelf: deleteSelf}
	cb.refCount.Store(1)
	cb.weakCount.Store(1)
	cb.Base.Bind(unsafe.Pointer(cb))
	return cb
}

// incRef is spec.md §4.7 inc_ref: relaxed fetch-add. Safe without a
// preceding load because the caller always already holds a reference (see
// the ordering table's note on why this increment cannot race the final
// decrement).
func (cb *controlBlock[T]) incRef() { cb.refCount.Add(1) }

func (cb *controlBlock[T]) incWeak() { cb.weakCount.Add(1) }

// incRefIfNotZero is spec.md §4.7 inc_ref_if_not_zero: a CAS loop that
// refuses to resurrect a control block whose strong count already reached
// zero.
func (cb *controlBlock[T]) incRefIfNotZero() bool {
	for {
		n := cb.refCount.Load()
		if n <= 0 {
			return false
		}
		if cb.refCount.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// decRef is spec.md §4.7 dec_ref. Reaching zero enters the reentrant-safe
// destroy path via w's defer-list instead of destroying inline.
func (cb *controlBlock[T]) decRef(w *Worker) {
	if cb.refCount.Add(-1) == 0 {
		w.deferDestroy(cb)
	}
}

// decWeak is spec.md §4.7 dec_weak: reaching zero retires the block itself
// into the control-block hazard domain (§4.9) instead of freeing it inline,
// since a concurrent AtomicShared.Load may still hold a hazard on it.
func (cb *controlBlock[T]) decWeak(w *Worker) {
	if cb.weakCount.Add(-1) == 0 {
		self := cb
		_ = w.local.Retire(&self.Base, func() {
			if self.deleteSelf != nil {
				self.deleteSelf()
			}
		})
	}
}

// drainStep runs the value destructor and the implicit dec_weak this
// control block's own strong-zero reference holds (spec.md §4.7 step 3's
// "destroys its value, calls dec_weak on it").
func (cb *controlBlock[T]) drainStep(w *Worker) {
	if cb.deleteValue != nil {
		cb.deleteValue(cb.value)
	}
	cb.decWeak(w)
}
