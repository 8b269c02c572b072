package hazard

// Local is a goroutine's attached handle into a Domain (spec §3 E4's
// "acquired" thread block, viewed from the attaching thread's side). It is
// the Go substitute for the spec's implicit "current thread": obtain one
// via Domain.Pin, keep it for as long as the goroutine keeps touching the
// domain, and call Unpin when done (spec §4.1 attach/detach).
type Local struct {
	domain *Domain
	block  *threadBlock
}

// Unpin runs help-scan (spec §4.5: "the on-detach callback is help_scan")
// and then clears the block's acquired bit, leaving it linked in the
// registry for reuse (spec §4.1 detach).
func (l *Local) Unpin() {
	l.domain.helpScan(l.block)
	l.domain.registry.detach(l.block)
}

// NewHazardPointer acquires one hazard record from this thread's pool
// (spec §4.2 C2 local path), returning ErrRecordExhausted if the pool and
// the global overflow list are both empty.
func (l *Local) NewHazardPointer() (*HazardPointer, error) {
	r, ok := l.block.pool.acquire()
	if !ok {
		return nil, ErrRecordExhausted
	}
	return &HazardPointer{rec: r}, nil
}

// Release closes h as l: l must be the Local of the goroutine actually
// releasing h, which need not be the Local that acquired it (spec §4.2's
// local-vs-global routing is keyed on the releasing identity, not the
// acquiring one). Equivalent to h.Close(l); provided so a goroutine that
// only holds its own Local, not the handle's acquirer, has an entry point
// that reads the right way around.
func (l *Local) Release(h *HazardPointer) {
	h.Close(l)
}

// Retire declares obj logically dead under its own bound address (spec
// §4.5 retire(), default key). reclaim is invoked at most once, when a
// later scan determines no hazard record protects obj's key.
func (l *Local) Retire(obj Object, reclaim func()) error {
	return l.RetireWithKey(obj, obj.base().key, reclaim)
}

// RetireWithKey is Retire with an explicit key, for non-intrusive hazard
// wrappers that must retire under a key other than their own address
// (spec §4.5, §9: "needed for non-intrusive hazard wrappers").
func (l *Local) RetireWithKey(obj Object, key uintptr, reclaim func()) error {
	b := obj.base()
	debugAssert(!b.retired.Load(), "object retired twice")
	if debugEnabled && b.retired.Load() {
		return ErrDoubleRetire
	}

	b.key = key
	b.reclaim = reclaim
	b.retired.Store(true)

	l.block.retired.insert(b)
	l.block.numRetired.Add(1)
	l.domain.totalRetired.Add(1)

	if l.block.retired.size() >= uint64(l.block.scanThreshold) {
		l.domain.scan(l.block)
	}
	return nil
}

// Domain returns the domain this Local is pinned against.
func (l *Local) Domain() *Domain { return l.domain }
