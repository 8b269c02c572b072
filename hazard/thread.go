package hazard

import "sync/atomic"

// threadBlock is the per-thread aggregate spec §3 E4 describes: a record
// pool, a retired set, the scan threshold, lifetime counters, and the
// registry's acquired/next hooks. It is allocated lazily on first use by a
// thread and never freed while linked into the registry.
type threadBlock struct {
	pool          *recordPool
	retired       *retiredSet
	scanThreshold int

	numRetired   atomic.Uint64
	numReclaimed atomic.Uint64

	acquired atomic.Bool
	next     atomic.Pointer[threadBlock]
}

func newThreadBlock(policy Policy) *threadBlock {
	return &threadBlock{
		pool:          newRecordPool(policy.NumRecords),
		retired:       newRetiredSet(retiredSetBuckets),
		scanThreshold: policy.ScanThreshold,
	}
}

// retiredSetBuckets is the bucket count backing every thread's retired set.
// Power-of-two per spec §4.4; sized well above DefaultPolicy.ScanThreshold so a
// freshly-scanned set rarely collides.
const retiredSetBuckets = 256
