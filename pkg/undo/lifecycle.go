package undo

import "fmt"

// Register reserves a FREE slot for a new transaction and returns it as an
// UNLISTED request. It returns ErrCapacityExhausted — not a
// fatal error — when the arena is full; the caller is expected to process
// undo in the foreground instead.
func (m *Manager) Register(fxid uint64, dbid uint32) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.allocSlot()
	if err != nil {
		if m.metrics != nil {
			m.metrics.observeCapacityExhausted()
		}
		return nil, err
	}

	m.slots[idx].Request = Request{
		Fxid:          fxid,
		DBID:          dbid,
		Size:          0,
		StartLogged:   InvalidUndoLocation,
		EndLogged:     InvalidUndoLocation,
		StartUnlogged: InvalidUndoLocation,
		EndUnlogged:   InvalidUndoLocation,
		slot:          int32(idx),
	}

	if m.oldestFxidValid {
		if fxid < m.oldestFxid {
			m.oldestFxid = fxid
		}
	} else if m.utilization == 1 {
		// The only non-FREE request is trivially the oldest. Otherwise an
		// invalidated cache stays invalid until OldestFxid rescans.
		m.oldestFxid = fxid
		m.oldestFxidValid = true
	}

	if m.metrics != nil {
		m.metrics.observeRegister(m.utilization)
	}
	return &m.slots[idx].Request, nil
}

// Finalize sets a request's persistent undo payload. req must
// be UNLISTED and not already finalized; UNLISTED records are
// caller-private, so no lock is taken. It returns an error (rather than
// panicking) because, unlike Unregister/PerformInBackground/Reschedule,
// Finalize is never called from a commit/abort unwind path — a transaction
// finalizes its own request before deciding to commit or abort.
func (m *Manager) Finalize(req *Request, size uint32, startLogged, endLogged, startUnlogged, endUnlogged UndoLocation) error {
	idx := req.slot
	if m.stateOf(idx) != StateUnlisted {
		return fmt.Errorf("undo: Finalize requires an UNLISTED request")
	}
	if req.Size != 0 {
		return fmt.Errorf("undo: request is already finalized")
	}
	if size == 0 {
		return fmt.Errorf("undo: finalize requires size > 0")
	}
	if startLogged.Valid() != endLogged.Valid() {
		return fmt.Errorf("undo: logged-undo range must be both valid or both invalid")
	}
	if startUnlogged.Valid() != endUnlogged.Valid() {
		return fmt.Errorf("undo: unlogged-undo range must be both valid or both invalid")
	}
	if !startLogged.Valid() && !startUnlogged.Valid() {
		return fmt.Errorf("undo: finalize requires at least one of logged/unlogged to be valid")
	}

	req.Size = size
	req.StartLogged, req.EndLogged = startLogged, endLogged
	req.StartUnlogged, req.EndUnlogged = startUnlogged, endUnlogged
	return nil
}

// unregisterLocked is Unregister's body, callable from other operations
// that already hold mu (PerformInBackground's no-undo-written fast path).
func (m *Manager) unregisterLocked(idx int32) {
	fxid := m.slots[idx].Fxid
	m.removeFromAllIndexes(idx)
	m.freeSlot(idx)
	if m.oldestFxidValid && fxid == m.oldestFxid {
		m.oldestFxidValid = false
	}
	if m.metrics != nil {
		m.metrics.observeUnregister(m.utilization)
	}
}

// Unregister returns req to FREE, removing it from any index it currently
// occupies. It must never fail: it is called from both
// commit and post-abort paths that cannot unwind safely.
func (m *Manager) Unregister(req *Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unregisterLocked(req.slot)
}

// PerformInBackground attempts to hand req off to the background workers
//. If the transaction wrote no undo at all, the request is
// simply freed and true is returned — there is nothing for a worker to do.
// Otherwise, unless force is set, admission is refused once utilization
// exceeds the soft limit, so the committer processes undo in the
// foreground instead. Like Unregister, this must never fail.
func (m *Manager) PerformInBackground(req *Request, force bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := req.slot
	if !m.slots[idx].HasUndo() {
		m.unregisterLocked(idx)
		return true
	}

	if !force && m.utilization > m.softLimit {
		if m.metrics != nil {
			m.metrics.observeBackgroundRefused()
		}
		return false
	}

	m.insertFxid(idx)
	m.insertSize(idx)
	if m.metrics != nil {
		m.metrics.observeBackgroundAdmitted()
	}
	return true
}

// Reschedule marks req as having failed a background undo attempt and
// lists it in byRetryTime for a future worker to retry, per the backoff
// schedule in retry.go. req must be UNLISTED. Like Unregister,
// this must never fail on the hot path.
func (m *Manager) Reschedule(req *Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := req.slot
	alreadyFailed := m.slots[idx].hasFailed()
	delay := m.retryPolicy.delayFor(alreadyFailed)
	m.slots[idx].RetryTime = m.clock.Now().Add(delay)
	m.insertRetryTime(idx)
	if m.metrics != nil {
		m.metrics.observeReschedule()
	}
}

// SuspendPrepared locates the LISTED request for a prepared transaction
// and takes it out of scheduler consideration, returning it as
// an UNLISTED request the recovery path now owns. It requires the request
// exist, be finalized, and have never failed since restart — which, since
// restored requests are never found in byRetryTime (they come back through
// Restore with RetryTime cleared, and only failed requests are ever
// retry-listed), is automatically true of anything SuspendPrepared can
// find at all.
func (m *Manager) SuspendPrepared(fxid uint64) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.findByFxid(fxid)
	if !ok {
		return nil, fmt.Errorf("undo: no listed request for fxid %d", fxid)
	}
	if !m.slots[idx].Finalized() {
		return nil, fmt.Errorf("undo: request for fxid %d is not finalized", fxid)
	}

	m.removeFxid(idx)
	m.removeSize(idx)
	return &m.slots[idx].Request, nil
}

// findByFxid walks byFxid directly by key, rather than through a
// synthetic request, since byFxid's comparator is a pure ascending fxid
// order.
func (m *Manager) findByFxid(fxid uint64) (int32, bool) {
	cur := m.byFxidRoot
	for cur != nilIdx {
		n := &m.nodes[cur]
		rf := m.slots[n.reqIdx].Fxid
		switch {
		case fxid < rf:
			cur = n.left
		case fxid > rf:
			cur = n.right
		default:
			return n.reqIdx, true
		}
	}
	return nilIdx, false
}

// OldestFxid returns the minimum fxid over all non-FREE requests, or
// InvalidFxid if the manager is empty. The result is cached
// and only rescanned when the cache has been invalidated by a prior
// operation that could have changed the minimum.
func (m *Manager) OldestFxid() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.oldestFxidValid {
		return m.oldestFxid
	}

	var min uint64
	found := false
	for i := range m.slots {
		if m.slots[i].Fxid == InvalidFxid {
			continue
		}
		if !found || m.slots[i].Fxid < min {
			min = m.slots[i].Fxid
			found = true
		}
	}
	if !found {
		return InvalidFxid
	}
	m.oldestFxid = min
	m.oldestFxidValid = true
	return min
}
