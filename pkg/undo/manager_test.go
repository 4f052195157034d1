package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegisterCommitRoundTrip exercises a request that commits with no
// undo ever written: it stays UNLISTED and returns straight to FREE.
func TestRegisterCommitRoundTrip(t *testing.T) {
	m := newTestManager(8, 8, nil)

	req, err := m.Register(100, 5)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, 1, m.utilization)
	assert.Equal(t, StateUnlisted, m.stateOf(req.slot))

	m.Unregister(req)
	assert.Equal(t, 0, m.utilization)
	assert.Equal(t, InvalidFxid, m.OldestFxid())
}

// TestFinalizeBackgroundPromotionUnderHeadroom checks that a finalized
// request with headroom under the soft limit gets listed in byFxid and
// bySize, not byRetryTime.
func TestFinalizeBackgroundPromotionUnderHeadroom(t *testing.T) {
	m := newTestManager(8, 6, nil)

	req, err := m.Register(1, 1)
	require.NoError(t, err)
	require.NoError(t, m.Finalize(req, 1000, 10, 20, InvalidUndoLocation, InvalidUndoLocation))

	ok := m.PerformInBackground(req, false)
	assert.True(t, ok)
	assert.Equal(t, StateListed, m.stateOf(req.slot))
	assert.NotEqual(t, nilIdx, m.slots[req.slot].fxidNode)
	assert.NotEqual(t, nilIdx, m.slots[req.slot].sizeNode)
	assert.Equal(t, nilIdx, m.slots[req.slot].retryNode)
}

// TestSoftLimitEnforcement checks that PerformInBackground refuses once
// utilization exceeds the soft limit, unless force overrides it.
func TestSoftLimitEnforcement(t *testing.T) {
	m := newTestManager(8, 2, nil)

	// Bring utilization to 3 with registered, still-UNLISTED requests; the
	// last one is finalized and used as the target.
	var reqs []*Request
	for i := 0; i < 3; i++ {
		r, err := m.Register(uint64(i+1), 1)
		require.NoError(t, err)
		reqs = append(reqs, r)
	}

	target := reqs[len(reqs)-1]
	require.NoError(t, m.Finalize(target, 10, 1, 2, InvalidUndoLocation, InvalidUndoLocation))

	assert.False(t, m.PerformInBackground(target, false))
	assert.Equal(t, StateUnlisted, m.stateOf(target.slot))

	assert.True(t, m.PerformInBackground(target, true))
	assert.Equal(t, StateListed, m.stateOf(target.slot))
}

// TestPerformInBackgroundNoUndoFreesImmediately exercises the
// "both start locations invalid" fast path in PerformInBackground.
func TestPerformInBackgroundNoUndoFreesImmediately(t *testing.T) {
	m := newTestManager(4, 4, nil)

	req, err := m.Register(1, 1)
	require.NoError(t, err)
	// Finalize is not even required: a transaction that wrote no undo
	// never reaches Finalize, so size stays 0 and both ranges stay
	// invalid, matching the "no undo written" precondition.

	ok := m.PerformInBackground(req, false)
	assert.True(t, ok)
	assert.Equal(t, 0, m.utilization)
}

func TestRegisterCapacityExhausted(t *testing.T) {
	m := newTestManager(2, 2, nil)

	_, err := m.Register(1, 1)
	require.NoError(t, err)
	_, err = m.Register(2, 1)
	require.NoError(t, err)

	_, err = m.Register(3, 1)
	assert.ErrorIs(t, err, ErrCapacityExhausted)
}

func TestFinalizeRejectsInvalidPayload(t *testing.T) {
	m := newTestManager(2, 2, nil)
	req, err := m.Register(1, 1)
	require.NoError(t, err)

	// size == 0
	assert.Error(t, m.Finalize(req, 0, 1, 2, InvalidUndoLocation, InvalidUndoLocation))
	// mismatched logged range validity
	assert.Error(t, m.Finalize(req, 10, 1, InvalidUndoLocation, InvalidUndoLocation, InvalidUndoLocation))
	// neither range valid
	assert.Error(t, m.Finalize(req, 10, InvalidUndoLocation, InvalidUndoLocation, InvalidUndoLocation, InvalidUndoLocation))

	require.NoError(t, m.Finalize(req, 10, 1, 2, InvalidUndoLocation, InvalidUndoLocation))
	// already finalized
	assert.Error(t, m.Finalize(req, 10, 1, 2, InvalidUndoLocation, InvalidUndoLocation))
}

func TestSuspendPrepared(t *testing.T) {
	m := newTestManager(4, 4, nil)
	req, err := m.Register(42, 7)
	require.NoError(t, err)
	require.NoError(t, m.Finalize(req, 50, 1, 2, InvalidUndoLocation, InvalidUndoLocation))
	require.True(t, m.PerformInBackground(req, false))

	got, err := m.SuspendPrepared(42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Fxid)
	assert.Equal(t, StateUnlisted, m.stateOf(got.slot))

	_, err = m.SuspendPrepared(42)
	assert.Error(t, err)
}

func TestOldestFxidTracksMinimumAcrossLifecycle(t *testing.T) {
	m := newTestManager(4, 4, nil)
	r1, _ := m.Register(50, 1)
	_, _ = m.Register(70, 1)
	assert.Equal(t, uint64(50), m.OldestFxid())

	r0, _ := m.Register(10, 1)
	assert.Equal(t, uint64(10), m.OldestFxid())

	m.Unregister(r0)
	assert.Equal(t, uint64(50), m.OldestFxid())

	m.Unregister(r1)
	assert.Equal(t, uint64(70), m.OldestFxid())
}
