package undo

import "time"

// Next produces an UNLISTED request for a worker to process, or reports ok
// = false if none is eligible right now. dbid, when non-nil,
// restricts the result to that database; minimumRuntimeReached tells Next
// whether the caller wants to exit promptly (true) or is willing to pay
// for the exhaustive affinity scan fallback (false) when the three-probe
// rotation turns up nothing but a database mismatch.
//
// Next atomically removes its winner from whatever index(es) held it, so
// two concurrent callers can never receive the same request.
func (m *Manager) Next(dbid *uint32, minimumRuntimeReached bool) (*Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	sawDbMismatch := false

	var winner int32 = nilIdx
	for probe := 0; probe < int(numSources); probe++ {
		src := m.cursor
		m.cursor = m.cursor.next()

		node, ok := m.avlMin(m.rootOf(src))
		if !ok {
			continue
		}
		reqIdx := m.nodes[node].reqIdx

		if src == sourceRetryTime && m.slots[reqIdx].RetryTime.After(now) {
			continue
		}
		if dbid != nil && m.slots[reqIdx].DBID != *dbid {
			sawDbMismatch = true
			continue
		}
		winner = node
		break
	}

	if winner == nilIdx && sawDbMismatch && !minimumRuntimeReached && dbid != nil {
		if node, ok := m.affinityScan(*dbid, now); ok {
			winner = node
		}
	}

	if winner == nilIdx {
		if m.metrics != nil {
			m.metrics.observeNextMiss()
		}
		return nil, false
	}

	reqIdx := m.nodes[winner].reqIdx
	m.removeFromAllIndexes(reqIdx)
	if m.metrics != nil {
		m.metrics.observeNextHit()
	}
	return &m.slots[reqIdx].Request, true
}

func (m *Manager) rootOf(src indexSource) int32 {
	switch src {
	case sourceFxid:
		return m.byFxidRoot
	case sourceSize:
		return m.bySizeRoot
	case sourceRetryTime:
		return m.byRetryRoot
	default:
		errInvariantViolation("corrupted scheduler cursor")
		return nilIdx
	}
}

// affinityScan walks all three indexes simultaneously, interleaving one
// step per index in rotation, and returns the first request matching dbid
//. It never returns a byRetryTime entry whose retry time
// hasn't arrived yet — that gate is universal to Next, not just the
// three-probe rotation. Unbounded by default; see Config.AffinityScanLimit.
func (m *Manager) affinityScan(dbid uint32, now time.Time) (int32, bool) {
	var cursors [int(numSources)]int32
	var active [int(numSources)]bool
	for i := 0; i < int(numSources); i++ {
		node, ok := m.avlMin(m.rootOf(indexSource(i)))
		cursors[i] = node
		active[i] = ok
	}

	steps := 0
	for active[0] || active[1] || active[2] {
		for i := 0; i < int(numSources); i++ {
			if !active[i] {
				continue
			}
			node := cursors[i]
			reqIdx := m.nodes[node].reqIdx

			eligible := true
			if indexSource(i) == sourceRetryTime && m.slots[reqIdx].RetryTime.After(now) {
				eligible = false
			}
			if eligible && m.slots[reqIdx].DBID == dbid {
				return node, true
			}

			next := m.avlSuccessor(node)
			if next == nilIdx {
				active[i] = false
			} else {
				cursors[i] = next
			}

			steps++
			if m.affinityScanLimit > 0 && steps >= m.affinityScanLimit {
				return nilIdx, false
			}
		}
	}
	return nilIdx, false
}
