// Package hazard implements the hazard-pointer reclamation domain (spec
// §4.1-§4.6, components C1-C6): a thread-local registry of per-thread
// record pools and retired sets, the scan/help-scan protocol that
// determines when a retired object is safe to reclaim, and the
// HazardPointer handle consumers publish a protected address through.
package hazard

import (
	"sync/atomic"

	"github.com/ludaludaed/hazardptr/internal/hplog"
)

// Policy is the fixed {num_records_per_thread, num_retires_per_thread,
// scan_threshold} triple spec §4.5 describes. NumRetiresPerThread is not
// separately enforced here: a thread's retired set grows until
// ScanThreshold, matching the spec's own observation that the two numbers
// coincide in practice.
type Policy struct {
	NumRecords    int
	ScanThreshold int
}

// DefaultPolicy is spec §4.5's {8, 64, 64}.
var DefaultPolicy = Policy{NumRecords: 8, ScanThreshold: 64}

// Domain orchestrates C1-C4: retire, scan, help-scan, attach, detach (spec
// §4.5, C5). Hazards in one domain never protect retires in another (spec
// GLOSSARY "Domain").
type Domain struct {
	registry *registry
	policy   Policy
	log      hplog.Logger

	totalRetired   atomic.Uint64
	totalReclaimed atomic.Uint64
}

// NewDomain constructs a domain with the given policy. A zero Policy is
// replaced with DefaultPolicy field-by-field so callers can override just
// one knob, e.g. Policy{ScanThreshold: 1}.
func NewDomain(policy Policy) *Domain {
	if policy.NumRecords <= 0 {
		policy.NumRecords = DefaultPolicy.NumRecords
	}
	if policy.ScanThreshold <= 0 {
		policy.ScanThreshold = DefaultPolicy.ScanThreshold
	}
	return &Domain{
		registry: newRegistry(),
		policy:   policy,
		log:      hplog.Nop(),
	}
}

// SetLogger installs l for scan/reclaim/allocation diagnostics. The
// default is a no-op logger; logging is always optional.
func (d *Domain) SetLogger(l hplog.Logger) {
	if l == nil {
		l = hplog.Nop()
	}
	d.log = l
}

// Pin attaches the calling goroutine to the domain (spec §4.1 attach /
// §4.5 "thin wrapper over registry operations"), returning a handle the
// goroutine should hold for as long as it keeps touching this domain --
// Go has no supported goroutine-local storage, so Local stands in for the
// spec's implicit "current thread" (see DESIGN.md "Open Questions").
func (d *Domain) Pin() *Local {
	b := d.registry.attach(d.policy)
	return &Local{domain: d, block: b}
}

// WithLocal pins a Local for the duration of f and unpins it afterward,
// for short-lived goroutines that don't want to manage the handle
// themselves.
func (d *Domain) WithLocal(f func(l *Local)) {
	l := d.Pin()
	defer l.Unpin()
	f(l)
}

// NumRetired returns the domain-wide lifetime retire count (spec §4.5
// "num_of_retired").
func (d *Domain) NumRetired() uint64 { return d.totalRetired.Load() }

// NumReclaimed returns the domain-wide lifetime reclaim count (spec §4.5
// "num_of_reclaimed"). At domain teardown (i.e. once every Local has been
// Unpinned and no retire is pending) this equals NumRetired (spec §8
// invariant 2).
func (d *Domain) NumReclaimed() uint64 { return d.totalReclaimed.Load() }

// scan is the heart of the algorithm (spec §4.5): fence, mark every
// hazard-protected entry of self's own retired set, then reclaim the rest.
func (d *Domain) scan(self *threadBlock) {
	seqCstFence()

	d.registry.forEach(func(b *threadBlock) bool {
		b.pool.forEachRecord(func(r *record) {
			addr := r.get()
			if addr == 0 {
				return
			}
			if e := self.retired.find(addr); e != nil {
				e.protected.Store(true)
			}
		})
		return true
	})

	reclaimed := self.retired.scanAndReclaim()
	if reclaimed > 0 {
		self.numReclaimed.Add(reclaimed)
		d.totalReclaimed.Add(reclaimed)
		d.log.Debugw("hazard domain scan reclaimed objects",
			"reclaimed", reclaimed,
			"thread_retired", self.numRetired.Load(),
			"thread_reclaimed", self.numReclaimed.Load(),
		)
	}
}

// helpScan merges every dormant block's retired set into self's own, then
// scans (spec §4.5: called on thread detach so a departing thread's
// retired objects are not left undecided forever).
func (d *Domain) helpScan(self *threadBlock) {
	d.registry.forEach(func(b *threadBlock) bool {
		if b == self {
			return true
		}
		if b.acquired.CompareAndSwap(false, true) {
			self.retired.merge(b.retired)
			b.acquired.Store(false)
		}
		return true
	})
	d.scan(self)
}
