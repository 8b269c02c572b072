package refptr

import (
	"sync/atomic"
	"unsafe"

	"github.com/ludaludaed/hazardptr/hazard"
)

// ControlBlockPolicy is spec.md §4.9's "minimal record counts suffice
// because only one hazard pointer is used at a time per thread per load".
var ControlBlockPolicy = hazard.Policy{NumRecords: 4, ScanThreshold: 64}

// NewControlBlockDomain constructs a hazard.Domain sized for AtomicShared's
// single-hazard-per-load access pattern. Every AtomicShared[T] that two
// Workers might race on must share one such domain, the same way two
// threads racing on one std::atomic<shared_ptr> share one implementation's
// hazard domain.
func NewControlBlockDomain() *hazard.Domain {
	return hazard.NewDomain(ControlBlockPolicy)
}

// AtomicShared exposes load/store/exchange/compare_exchange on a strong
// pointer's underlying control block (spec.md §4.9, C9). The zero
// AtomicShared[T] holds an empty (nil) Shared.
//
// raw is a real atomic.Pointer[controlBlock[T]], not an atomic.Uintptr: it
// is the only reference to a transferred-in control block between a Store
// and the next Load, so it must be a GC-visible pointer field, or the Go
// garbage collector could reclaim the control block out from under a still
// thread-safe strong/weak count -- the same reachability hazard a
// tagged-pointer MarkedShared would have (see refptr/marked.go and
// DESIGN.md's "Deviation" section), avoided here by not packing any tag bit
// into it.
type AtomicShared[T any] struct {
	raw atomic.Pointer[controlBlock[T]]
}

// NewAtomicShared constructs an AtomicShared seeded with init, taking
// ownership of init's strong reference.
func NewAtomicShared[T any](init Shared[T]) *AtomicShared[T] {
	as := &AtomicShared[T]{}
	if init.cb != nil {
		as.raw.Store(init.cb)
	}
	return as
}

// Load is spec.md §4.9 load: acquire a hazard pointer in the control-block
// domain, protect the control-block pointer, inc_ref_if_not_zero the one it
// observed, retrying the whole sequence if that race is lost.
func (as *AtomicShared[T]) Load(w *Worker) (Shared[T], error) {
	for {
		hp, err := w.local.NewHazardPointer()
		if err != nil {
			return Shared[T]{}, err
		}

		cb, err := as.protect(hp)
		if err != nil {
			hp.Close(w.local)
			return Shared[T]{}, err
		}
		if cb == nil {
			hp.Close(w.local)
			return Shared[T]{}, nil
		}

		ok := cb.incRefIfNotZero()
		hp.Close(w.local)
		if ok {
			return Shared[T]{value: cb.value, cb: cb}, nil
		}
		// cb's strong count hit zero between protect and inc_ref_if_not_zero;
		// the atomic word itself may also have moved on, so restart fresh.
	}
}

// protect is hazard.HazardPointer.Protect's load-publish-reload loop
// (spec.md §4.6), applied to as.raw directly since it is a real
// atomic.Pointer[controlBlock[T]] rather than the atomic.Uintptr the
// hazard package's own Protect takes.
func (as *AtomicShared[T]) protect(hp *hazard.HazardPointer) (*controlBlock[T], error) {
	for {
		cb := as.raw.Load()
		if cb == nil {
			if err := hp.Clear(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		if err := hp.ResetProtection(uintptr(unsafe.Pointer(cb))); err != nil {
			return nil, err
		}
		if as.raw.Load() == cb {
			return cb, nil
		}
	}
}

// Store swaps in s's control block, transferring s's strong reference into
// the atomic, and releases the previously-held strong reference through
// w's normal dec_ref path (spec.md §4.9 store).
func (as *AtomicShared[T]) Store(w *Worker, s Shared[T]) {
	old := as.swap(s)
	if old != nil {
		old.decRef(w)
	}
}

// Exchange is Store, returning the previously-held value as a Shared the
// caller now owns (spec.md §4.9 exchange).
func (as *AtomicShared[T]) Exchange(w *Worker, s Shared[T]) Shared[T] {
	old := as.swap(s)
	if old == nil {
		return Shared[T]{}
	}
	return Shared[T]{value: old.value, cb: old}
}

func (as *AtomicShared[T]) swap(s Shared[T]) *controlBlock[T] {
	return as.raw.Swap(s.cb)
}

// CompareExchangeStrong is spec.md §4.9 compare_exchange: on success,
// desired's strong reference transfers into the atomic and the atomic's own
// reference to the replaced value is released (the caller's expected keeps
// its reference and must still release it); on failure, the reference
// expected held is released and *expected is refreshed to the current
// value with its own freshly incremented strong reference, matching the
// loser's usual "caller already holds a reference to the value it read"
// convention.
func (as *AtomicShared[T]) CompareExchangeStrong(w *Worker, expected *Shared[T], desired Shared[T]) bool {
	if as.raw.CompareAndSwap(expected.cb, desired.cb) {
		if expected.cb != nil {
			expected.cb.decRef(w)
		}
		return true
	}

	cur, err := as.Load(w)
	if err == nil {
		if expected.cb != nil {
			expected.cb.decRef(w)
		}
		*expected = cur
	}
	return false
}

// CompareExchangeWeak is spec.md §4.9's weak variant. Go's
// sync/atomic.CompareAndSwap, like every Go CAS primitive, never fails
// spuriously, so there is no distinct weak form to implement; this is an
// alias kept so callers can write the spec's two names against one
// implementation.
func (as *AtomicShared[T]) CompareExchangeWeak(w *Worker, expected *Shared[T], desired Shared[T]) bool {
	return as.CompareExchangeStrong(w, expected, desired)
}
