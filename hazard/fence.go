package hazard

import "sync/atomic"

// fenceWord is a dummy location used purely to express the load-bearing
// seq-cst fence spec §4.3/§4.5/§9 requires between "publish a hazard" and
// "re-read the source pointer", and at the top of scan. Go's sync/atomic
// operations are themselves specified as sequentially consistent (the Go
// memory model treats every atomic access as a total order), so the actual
// ordering guarantee here comes from the Load/Store calls on the hazard
// record and the source pointer, not from this RMW. seqCstFence is kept as
// a named, separately-callable step anyway: it documents exactly where the
// spec's fence belongs, and gives a single place to swap in a stronger
// primitive (e.g. runtime-internal StoreFence/LoadFence) if one is ever
// exposed.
var fenceWord atomic.Uint64

func seqCstFence() {
	fenceWord.Add(1)
}
