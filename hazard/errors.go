package hazard

import "errors"

// Sentinel errors surfaced by Domain/Local/HazardPointer (spec §7:
// record-pool exhaustion and empty-handle invocation are the two kinds that
// propagate to the caller rather than being checked as debug-only contract
// violations). Allocation failure (a new thread block, a control block) has
// no sentinel here: Go's `new`/composite-literal allocation does not return
// a recoverable error on out-of-memory, it panics, the same uninstrumented
// behavior nitro's own `mm.Malloc` leaves to jemalloc with no Go-level error
// return either.
var (
	// ErrRecordExhausted is returned by NewHazardPointer when a thread's
	// fixed-size record pool has no free slot and the global overflow list
	// is also empty.
	ErrRecordExhausted = errors.New("hazard: no free hazard record available")
	// ErrDoubleRetire names a second retire of an object without an
	// intervening reclaim. Release builds do not check for it; in a
	// hazarddebug build (debug_assert.go) RetireWithKey's debugAssert panics
	// on the second retire before this error can be returned.
	ErrDoubleRetire = errors.New("hazard: object retired twice")
	// ErrEmptyHandle is returned by HazardPointer operations performed on a
	// handle that has already been closed.
	ErrEmptyHandle = errors.New("hazard: hazard pointer handle is empty")
)
