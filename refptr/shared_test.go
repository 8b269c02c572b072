package refptr

import (
	"testing"

	"github.com/ludaludaed/hazardptr/hazard"
	"github.com/stretchr/testify/require"
)

// newTestWorker uses a ScanThreshold of 1 so every retire triggers an
// immediate scan, making reclaim assertions deterministic instead of
// depending on hazard.DefaultPolicy's batching threshold of 64.
func newTestWorker() (*Worker, *hazard.Domain) {
	d := hazard.NewDomain(hazard.Policy{NumRecords: hazard.DefaultPolicy.NumRecords, ScanThreshold: 1})
	return NewWorker(d), d
}

func TestMakeSharedReleaseRunsDeleteValue(t *testing.T) {
	w, d := newTestWorker()
	defer w.Close()

	s := MakeShared(42)
	require.Equal(t, 42, *s.Get())

	s.Release(w)
	require.Equal(t, 0, *s.Get(), "MakeShared's delete_value must reset the inline value")
	require.Equal(t, uint64(1), d.NumReclaimed(), "dropping the last strong ref must retire+reclaim the control block")
}

func TestSharedCloneKeepsValueAliveUntilBothReleased(t *testing.T) {
	w, d := newTestWorker()
	defer w.Close()

	s1 := MakeShared("hello")
	s2 := s1.Clone()

	s1.Release(w)
	require.Equal(t, uint64(0), d.NumReclaimed(), "one of two strong refs released must not reclaim")

	s2.Release(w)
	require.Equal(t, uint64(1), d.NumReclaimed())
}

func TestNewSharedRunsCustomDeleter(t *testing.T) {
	w, _ := newTestWorker()
	defer w.Close()

	val := 7
	var deleted bool
	s := NewShared(&val, func(v *int) { deleted = true })

	s.Release(w)
	require.True(t, deleted)
}

// chainNode's deleter (bound per-instance below) releases the next node in
// the chain, so destroying one value recursively drops the next strong
// reference -- exactly the reentrancy spec.md §4.7 guards against.
type chainNode struct {
	next Shared[chainNode]
}

// Scenario 6 (spec §8): a deep chain of Shared[T] whose T's destruction
// drops the next Shared in the chain must not overflow the goroutine stack
// when the head is released (spec.md §4.7's reentrant defer-list).
func TestReleaseChainDoesNotRecurse(t *testing.T) {
	w, d := newTestWorker()
	defer w.Close()

	const depth = 10000
	var head Shared[chainNode]
	for i := 0; i < depth; i++ {
		n := &chainNode{next: head}
		head = NewShared(n, func(v *chainNode) { v.next.Release(w) })
	}

	head.Release(w)
	require.Equal(t, uint64(depth), d.NumReclaimed())
}
