package hazard

import (
	"sync/atomic"
	"unsafe"
)

// Object is implemented by every retirable hazard object (spec §3 E1) by
// embedding Base. The interface's single method is unexported, so (as with
// container/heap's Interface trick) the only way to satisfy it from another
// package is to embed hazard.Base -- base() can't be implemented by hand,
// which keeps callers from wiring up the retired-set hook themselves.
type Object interface {
	base() *Base
}

// Base is the intrusive hazard-object hook (spec §3 E1): a reclaim closure
// bound at retire time, a protected flag scan flips transiently, the key an
// object was retired under, and the retired-set chain link. A value type
// embeds Base and calls Bind once, at construction, with its own address.
type Base struct {
	next      atomic.Pointer[Base]
	key       uintptr
	reclaim   func()
	protected atomic.Bool
	retired   atomic.Bool
}

func (b *Base) base() *Base { return b }

// Bind records the natural retire key for this object: its own address.
// Call it once, right after allocating the embedding struct, e.g.
//
//	n := &myNode{}
//	n.Base.Bind(unsafe.Pointer(n))
func (b *Base) Bind(self unsafe.Pointer) {
	b.key = uintptr(self)
}

// IsRetired reports whether this object is currently retired (i.e. has been
// Retire'd but not yet reclaimed). Double-retiring an object whose IsRetired
// is already true is a contract violation (spec §3 E3).
func (b *Base) IsRetired() bool {
	return b.retired.Load()
}
