package refptr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeakUpgradeSucceedsWhileStrongAlive(t *testing.T) {
	w, _ := newTestWorker()
	defer w.Close()

	s := MakeShared(1)
	wk := s.Downgrade()

	up, ok := wk.Upgrade()
	require.True(t, ok)
	require.Equal(t, 1, *up.Get())

	up.Release(w)
	s.Release(w)
	wk.Release(w)
}

// Scenario 5 (spec §8): once the last strong reference is gone, Upgrade
// must fail even though the weak reference (and thus the control block) is
// still alive.
func TestWeakUpgradeFailsAfterLastStrongDrops(t *testing.T) {
	w, d := newTestWorker()
	defer w.Close()

	s := MakeShared(2)
	wk := s.Downgrade()

	s.Release(w)
	require.Equal(t, uint64(0), d.NumReclaimed(), "weak reference must keep the control block alive")

	_, ok := wk.Upgrade()
	require.False(t, ok)

	wk.Release(w)
	require.Equal(t, uint64(1), d.NumReclaimed(), "last weak release must retire the control block")
}

func TestWeakCoherenceInvariant(t *testing.T) {
	w, _ := newTestWorker()
	defer w.Close()

	s := MakeShared(3)
	require.EqualValues(t, 1, s.cb.refCount.Load())
	require.EqualValues(t, 1, s.cb.weakCount.Load())

	wk1 := s.Downgrade()
	wk2 := wk1.Clone()
	// weak_count >= 1 + [ref_count > 0]: one strong alive plus two explicit
	// weaks plus the implicit weak the strong count itself holds.
	require.GreaterOrEqual(t, s.cb.weakCount.Load(), int64(1)+boolToInt64(s.cb.refCount.Load() > 0))

	wk1.Release(w)
	wk2.Release(w)
	s.Release(w)
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
