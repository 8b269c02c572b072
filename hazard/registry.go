package hazard

import (
	"sync/atomic"

	"github.com/ludaludaed/hazardptr/internal/intrusive"
)

// registry is the lock-free thread-block registry (spec §3 E5, §4.1): a
// singly-linked, append-only list of thread blocks with a per-block
// acquire/release bit. Reacquiring an orphaned block before allocating a
// new one bounds the registry's size by the high-water mark of concurrently
// attached threads, not the total number of attach calls over the
// program's lifetime.
type registry struct {
	list *intrusive.List[threadBlock]
}

func newRegistry() *registry {
	return &registry{
		list: intrusive.NewList(intrusive.ListTraits[threadBlock]{
			Next: func(b *threadBlock) *atomic.Pointer[threadBlock] { return &b.next },
		}),
	}
}

// attach either reacquires an orphaned block (CAS acquired false->true,
// walking from head) or allocates and publishes a new one (spec §4.1).
func (r *registry) attach(policy Policy) *threadBlock {
	var found *threadBlock
	r.list.Range(func(b *threadBlock) bool {
		if b.acquired.CompareAndSwap(false, true) {
			found = b
			return false
		}
		return true
	})
	if found != nil {
		return found
	}

	nb := newThreadBlock(policy)
	nb.acquired.Store(true)
	r.list.PushFront(nb)
	return nb
}

// detach clears the acquired bit; the block stays linked forever (spec
// §4.1: "block stays linked forever").
func (r *registry) detach(b *threadBlock) {
	b.acquired.Store(false)
}

// forEach visits every linked block regardless of its acquired state (spec
// §4.5 step 2: "ignoring acquired state -- dormant blocks may still hold
// previously-published hazards that matter"), with the snapshot guarantee
// of intrusive.List.Range.
func (r *registry) forEach(f func(b *threadBlock) bool) {
	r.list.Range(f)
}
