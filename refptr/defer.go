package refptr

import "github.com/ludaludaed/hazardptr/hazard"

// deferred is implemented by every generic controlBlock[T] so Worker's
// defer-list can hold control blocks of different T without a type
// parameter of its own.
type deferred interface {
	drainStep(w *Worker)
}

// Worker is the refptr package's stand-in for the spec.md §4.7 "thread": it
// carries the reentrant-destruction defer-list and in_progress flag spec.md
// §4.7 describes, plus a hazard.Local pinned against the control-block
// domain so Shared/Weak/AtomicShared operations can retire and protect
// control blocks (see DESIGN.md "Open Questions" for why this replaces
// implicit thread-local state). A goroutine that touches refptr types
// should hold exactly one Worker and Close it when done, the same way it
// would hold one hazard.Local.
type Worker struct {
	local *hazard.Local

	deferList  []deferred
	inProgress bool
}

// NewWorker pins a Worker against domain, which should be a control-block
// domain shared by every Worker operating on the same AtomicShared
// instances (spec.md §4.9: "a separate hazard domain dedicated to control
// blocks").
func NewWorker(domain *hazard.Domain) *Worker {
	return &Worker{local: domain.Pin()}
}

// Close unpins the underlying hazard.Local. The defer-list is always empty
// here in correct usage: a Worker only ever holds entries transiently,
// inside deferDestroy's own drain loop.
func (w *Worker) Close() { w.local.Unpin() }

// deferDestroy implements spec.md §4.7's reentrancy guard: a zero-ref
// control block is always pushed; only the first (non-reentrant) caller
// drains the list, so a destructor that itself drops the last reference to
// another control block on the same thread is tail-processed by the outer
// drain instead of recursing.
func (w *Worker) deferDestroy(d deferred) {
	w.deferList = append(w.deferList, d)
	if w.inProgress {
		return
	}
	w.inProgress = true
	for len(w.deferList) > 0 {
		n := len(w.deferList) - 1
		next := w.deferList[n]
		w.deferList = w.deferList[:n]
		next.drainStep(w)
	}
	w.inProgress = false
}
