package refptr

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestAtomicSharedStoreLoadRoundTrip(t *testing.T) {
	domain := NewControlBlockDomain()
	w := NewWorker(domain)
	defer w.Close()

	as := NewAtomicShared(MakeShared(1))

	loaded, err := as.Load(w)
	require.NoError(t, err)
	require.Equal(t, 1, *loaded.Get())
	loaded.Release(w)

	as.Store(w, MakeShared(2))
	loaded, err = as.Load(w)
	require.NoError(t, err)
	require.Equal(t, 2, *loaded.Get())
	loaded.Release(w)
}

func TestAtomicSharedExchangeReturnsPrevious(t *testing.T) {
	domain := NewControlBlockDomain()
	w := NewWorker(domain)
	defer w.Close()

	as := NewAtomicShared(MakeShared(10))
	old := as.Exchange(w, MakeShared(20))
	require.Equal(t, 10, *old.Get())
	old.Release(w)

	cur, err := as.Load(w)
	require.NoError(t, err)
	require.Equal(t, 20, *cur.Get())
	cur.Release(w)
}

func TestAtomicSharedCompareExchangeStrong(t *testing.T) {
	domain := NewControlBlockDomain()
	w := NewWorker(domain)
	defer w.Close()

	as := NewAtomicShared(MakeShared(5))

	expected, err := as.Load(w)
	require.NoError(t, err)

	ok := as.CompareExchangeStrong(w, &expected, MakeShared(6))
	require.True(t, ok)
	// CompareExchangeStrong's internal decRef released the atomic's own
	// hidden reference to the old value; expected's own Load-acquired
	// reference is still the caller's to release.
	expected.Release(w)

	stale, err := as.Load(w)
	require.NoError(t, err)

	// Move the atomic on without going through stale, so stale's snapshot is
	// now out of date.
	as.Store(w, MakeShared(7))

	ok = as.CompareExchangeStrong(w, &stale, MakeShared(8))
	require.False(t, ok, "stale expected must fail once the word has moved on")
	require.Equal(t, 7, *stale.Get(), "failed CAS must refresh expected to the current value")
	stale.Release(w)

	cur, err := as.Load(w)
	require.NoError(t, err)
	require.Equal(t, 7, *cur.Get())
	cur.Release(w)
}

// Scenario 4 (spec §8): concurrent Load calls racing a Store must each see
// either the old or new value, never a torn or freed one, and every strong
// reference they take must be released back to zero at quiescence.
func TestAtomicSharedConcurrentLoadDuringStore(t *testing.T) {
	domain := NewControlBlockDomain()
	storeWorker := NewWorker(domain)
	defer storeWorker.Close()

	as := NewAtomicShared(MakeShared(0))

	var g errgroup.Group
	const readers = 8
	const iterations = 200
	for i := 0; i < readers; i++ {
		g.Go(func() error {
			w := NewWorker(domain)
			defer w.Close()
			for j := 0; j < iterations; j++ {
				v, err := as.Load(w)
				if err != nil {
					return err
				}
				got := *v.Get()
				if got != 0 && got != 1 {
					v.Release(w)
					return errFromValue(got)
				}
				v.Release(w)
			}
			return nil
		})
	}

	for i := 0; i < iterations; i++ {
		as.Store(storeWorker, MakeShared(i%2))
	}
	require.NoError(t, g.Wait())
}

func errFromValue(v int) error {
	return &unexpectedValueError{v}
}

type unexpectedValueError struct{ v int }

func (e *unexpectedValueError) Error() string { return "unexpected atomic shared value" }
