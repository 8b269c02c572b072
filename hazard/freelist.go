package hazard

import "sync/atomic"

// recordPool is a thread block's fixed-size array of hazard records plus
// the two free-list paths spec §4.2 (C2) describes: a single-threaded local
// path for the owning thread's own acquire/release traffic, and a
// lock-free global overflow path for records released by a thread other
// than their owner.
type recordPool struct {
	records []record
	local   *record            // owner-thread-only, no atomics needed
	global  atomic.Pointer[record]
}

func newRecordPool(n int) *recordPool {
	rp := &recordPool{records: make([]record, n)}
	var head *record
	for i := range rp.records {
		r := &rp.records[i]
		r.owner = rp
		r.next.Store(head)
		head = r
	}
	rp.local = head
	return rp
}

// acquire pops a record from the local free list, falling back to draining
// the global overflow list (spec §4.2: "pop from the local path
// preferentially, falling back to draining the global path on empty").
func (rp *recordPool) acquire() (*record, bool) {
	if r := rp.local; r != nil {
		rp.local = r.next.Load()
		r.next.Store(nil)
		return r, true
	}
	for {
		head := rp.global.Load()
		if head == nil {
			return nil, false
		}
		next := head.next.Load()
		if rp.global.CompareAndSwap(head, next) {
			head.next.Store(nil)
			return head, true
		}
	}
}

// release routes r back to a free list by identity: the local list of its
// home pool if the caller IS that home pool (self), otherwise the home
// pool's global overflow list (spec §4.2, testable property 4). The
// published hazard is always cleared first.
func (r *record) release(self *recordPool) {
	r.value.Store(0)
	if r.owner == self {
		r.owner.pushLocal(r)
		return
	}
	r.owner.pushGlobal(r)
}

func (rp *recordPool) pushLocal(r *record) {
	r.next.Store(rp.local)
	rp.local = r
}

func (rp *recordPool) pushGlobal(r *record) {
	for {
		head := rp.global.Load()
		r.next.Store(head)
		if rp.global.CompareAndSwap(head, r) {
			return
		}
	}
}

// forEachRecord visits every record in the pool, acquired or not -- used by
// scan, which reads hazard addresses regardless of free-list membership
// (an acquired record always holds either 0 or a live hazard; a free
// record always reads 0).
func (rp *recordPool) forEachRecord(f func(r *record)) {
	for i := range rp.records {
		f(&rp.records[i])
	}
}
