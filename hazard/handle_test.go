package hazard

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHazardPointerProtectStableRead(t *testing.T) {
	d := NewDomain(DefaultPolicy)
	l := d.Pin()
	defer l.Unpin()

	var src atomic.Uintptr
	src.Store(0xabc)

	h, err := l.NewHazardPointer()
	require.NoError(t, err)
	defer h.Close(l)

	p, err := h.Protect(&src)
	require.NoError(t, err)
	require.EqualValues(t, 0xabc, p)

	rec := h.rec
	require.EqualValues(t, 0xabc, rec.get())
}

func TestHazardPointerTryProtect(t *testing.T) {
	d := NewDomain(DefaultPolicy)
	l := d.Pin()
	defer l.Unpin()

	var src atomic.Uintptr
	src.Store(0x1)

	h, err := l.NewHazardPointer()
	require.NoError(t, err)
	defer h.Close(l)

	ok, err := h.TryProtect(0x1, &src)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0x1, h.rec.get())

	src.Store(0x2)
	ok, err = h.TryProtect(0x1, &src)
	require.NoError(t, err)
	require.False(t, ok, "src moved on; stale protection must fail")
	require.True(t, h.rec.empty())
}

func TestHazardPointerClearPublishesNothing(t *testing.T) {
	d := NewDomain(DefaultPolicy)
	l := d.Pin()
	defer l.Unpin()

	var src atomic.Uintptr
	src.Store(0x7)

	h, err := l.NewHazardPointer()
	require.NoError(t, err)
	defer h.Close(l)

	_, err = h.Protect(&src)
	require.NoError(t, err)
	require.False(t, h.rec.empty())

	require.NoError(t, h.Clear())
	require.True(t, h.rec.empty(), "Clear must publish nothing, leaving the record unprotecting any address")
}

func TestHazardPointerCloseReleasesRecord(t *testing.T) {
	d := NewDomain(DefaultPolicy)
	l := d.Pin()
	defer l.Unpin()

	h, err := l.NewHazardPointer()
	require.NoError(t, err)
	rec := h.rec

	h.Close(l)
	require.Nil(t, h.rec)

	// Close must be idempotent.
	h.Close(l)

	h2, err := l.NewHazardPointer()
	require.NoError(t, err)
	defer h2.Close(l)
	require.Same(t, rec, h2.rec, "released record must be reusable")
}

func TestHazardPointerCloseFromAnotherGoroutineRoutesGlobal(t *testing.T) {
	// NumRecords: 1 so owner's local free list is already empty right after
	// the single record is acquired, making "it never got pushed back onto
	// owner's local list" directly observable.
	d := NewDomain(Policy{NumRecords: 1, ScanThreshold: 64})
	owner := d.Pin()
	defer owner.Unpin()
	other := d.Pin()
	defer other.Unpin()

	h, err := owner.NewHazardPointer()
	require.NoError(t, err)
	rec := h.rec
	require.Nil(t, owner.block.pool.local)

	done := make(chan struct{})
	go func() {
		defer close(done)
		other.Release(h)
	}()
	<-done

	require.Nil(t, owner.block.pool.local, "record closed by a foreign Local must not land on the acquirer's local free list")
	require.Same(t, rec, owner.block.pool.global.Load(), "record closed by a foreign Local must land on the acquirer's own pool's global overflow list")
}

func TestHazardPointerEmptyHandleErrors(t *testing.T) {
	var h HazardPointer
	var src atomic.Uintptr

	_, err := h.Protect(&src)
	require.ErrorIs(t, err, ErrEmptyHandle)

	_, err = h.TryProtect(1, &src)
	require.ErrorIs(t, err, ErrEmptyHandle)

	require.ErrorIs(t, h.ResetProtection(1), ErrEmptyHandle)
	require.ErrorIs(t, h.Clear(), ErrEmptyHandle)
}
