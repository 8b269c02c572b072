package hazard

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type retiredNode struct {
	Base
	val int
}

func newRetiredNode(val int) *retiredNode {
	n := &retiredNode{val: val}
	n.Base.Bind(unsafe.Pointer(n))
	return n
}

func TestRetiredSetInsertFind(t *testing.T) {
	rs := newRetiredSet(16)
	n := newRetiredNode(1)
	rs.insert(&n.Base)

	require.Equal(t, &n.Base, rs.find(n.key))
	require.EqualValues(t, 1, rs.size())
}

func TestRetiredSetScanAndReclaimSkipsProtected(t *testing.T) {
	rs := newRetiredSet(16)
	a := newRetiredNode(1)
	b := newRetiredNode(2)

	var reclaimedA, reclaimedB bool
	a.reclaim = func() { reclaimedA = true }
	b.reclaim = func() { reclaimedB = true }

	rs.insert(&a.Base)
	rs.insert(&b.Base)
	a.protected.Store(true)

	n := rs.scanAndReclaim()

	require.EqualValues(t, 1, n)
	require.False(t, reclaimedA)
	require.True(t, reclaimedB)
	require.False(t, a.protected.Load(), "protected flag must be cleared for the next scan")
	require.EqualValues(t, 1, rs.size())
}

func TestRetiredSetMerge(t *testing.T) {
	dst := newRetiredSet(16)
	src := newRetiredSet(16)

	a := newRetiredNode(1)
	b := newRetiredNode(2)
	dst.insert(&a.Base)
	src.insert(&b.Base)

	dst.merge(src)

	require.EqualValues(t, 2, dst.size())
	require.EqualValues(t, 0, src.size())
	require.NotNil(t, dst.find(b.key))
}
