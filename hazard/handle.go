package hazard

import "sync/atomic"

// HazardPointer is the user-facing RAII holder of one hazard record (spec
// §4.6, C6). Construct one with Local.NewHazardPointer and Close it when
// done (Clear only withdraws the published hazard; it does not release the
// record). A zero-value HazardPointer is not usable -- every method except
// Close, which is then a no-op, returns ErrEmptyHandle.
type HazardPointer struct {
	rec *record
}

// Protect repeatedly snapshots src, publishes the snapshot, and re-checks
// src until the two agree, returning the stable address (spec §4.6
// "protect(src) -> P").
func (h *HazardPointer) Protect(src *atomic.Uintptr) (uintptr, error) {
	return h.ProtectFunc(src, identity)
}

// ProtectFunc is Protect, publishing f(p) instead of p -- used to protect a
// tagged/marked pointer's untagged address while still re-checking the
// tagged source word (spec §4.6 "optional transformation").
func (h *HazardPointer) ProtectFunc(src *atomic.Uintptr, f func(uintptr) uintptr) (uintptr, error) {
	if h.rec == nil {
		return 0, ErrEmptyHandle
	}
	for {
		p := src.Load()
		h.rec.reset(f(p))
		seqCstFence()
		if src.Load() == p {
			return p, nil
		}
	}
}

// TryProtect publishes p, fences, and re-reads src once: if src still
// reads p the protection is stable and TryProtect returns true; otherwise
// the publish is cleared and TryProtect returns false (spec §4.6
// "try_protect(p, src) -> bool").
func (h *HazardPointer) TryProtect(p uintptr, src *atomic.Uintptr) (bool, error) {
	if h.rec == nil {
		return false, ErrEmptyHandle
	}
	h.rec.reset(p)
	seqCstFence()
	if src.Load() == p {
		return true, nil
	}
	h.rec.reset(0)
	return false, nil
}

// ResetProtection unconditionally publishes p (spec §4.6
// "reset_protection(p)"). Unlike TryProtect it never clears on mismatch:
// callers use it once they already know p is safe to advertise (e.g. they
// just got it back from a successful TryProtect elsewhere).
func (h *HazardPointer) ResetProtection(p uintptr) error {
	if h.rec == nil {
		return ErrEmptyHandle
	}
	h.rec.reset(p)
	seqCstFence()
	return nil
}

// Clear publishes nothing (spec §4.6 "reset_protection()").
func (h *HazardPointer) Clear() error {
	if h.rec == nil {
		return ErrEmptyHandle
	}
	h.rec.reset(0)
	return nil
}

// Close clears the published hazard and releases the record back to its
// home pool's free list, routed local-vs-global by spec §4.2's identity
// rule. caller must be the Local of the goroutine actually invoking Close,
// not necessarily the Local that acquired h: a handle may legitimately be
// handed off to another goroutine and closed there, and routing decides
// local-vs-global by comparing the record's home pool against the CALLING
// pool's identity (spec §4.2, testable property 4) -- passing the
// acquirer's Local instead would make every close look same-thread even
// when it isn't, corrupting the non-atomic local free list with a
// concurrent push from a foreign goroutine. Close is idempotent.
func (h *HazardPointer) Close(caller *Local) {
	if h.rec == nil {
		return
	}
	h.rec.release(caller.block.pool)
	h.rec = nil
}

func identity(p uintptr) uintptr { return p }
