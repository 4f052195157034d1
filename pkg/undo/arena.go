package undo

// requestSlot is one element of the fixed request arena. It embeds the
// public Request plus the bookkeeping the manager needs to find a
// request's current index-node(s) without a tree search, and the
// free-list link used while the slot is FREE.
type requestSlot struct {
	Request

	fxidNode  int32
	sizeNode  int32
	retryNode int32

	nextFree int32
}

// LifecycleState is one of FREE, UNLISTED or LISTED. It is
// derived from arena state rather than stored redundantly, so it can never
// drift out of sync with index membership.
type LifecycleState uint8

const (
	StateFree LifecycleState = iota
	StateUnlisted
	StateListed
)

func (s LifecycleState) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateUnlisted:
		return "UNLISTED"
	case StateListed:
		return "LISTED"
	default:
		return "UNKNOWN"
	}
}

// stateOf derives the lifecycle state of the slot at reqIdx from arena and
// index membership rather than a stored field.
func (m *Manager) stateOf(reqIdx int32) LifecycleState {
	s := &m.slots[reqIdx]
	if s.Fxid == InvalidFxid {
		return StateFree
	}
	if s.fxidNode == nilIdx && s.retryNode == nilIdx {
		return StateUnlisted
	}
	return StateListed
}

// allocSlot pops a FREE slot off the arena free-list, or reports
// ErrCapacityExhausted if none remain.
func (m *Manager) allocSlot() (int32, error) {
	if m.freeHead == nilIdx {
		return nilIdx, ErrCapacityExhausted
	}
	idx := m.freeHead
	m.freeHead = m.slots[idx].nextFree
	m.utilization++
	return idx, nil
}

// freeSlot resets the slot at reqIdx to FREE and returns it to the arena
// free-list.
func (m *Manager) freeSlot(reqIdx int32) {
	slot := int32(reqIdx)
	m.slots[reqIdx] = requestSlot{
		Request:  Request{Fxid: InvalidFxid, slot: slot},
		fxidNode: nilIdx, sizeNode: nilIdx, retryNode: nilIdx,
		nextFree: m.freeHead,
	}
	m.freeHead = reqIdx
	m.utilization--
}
