package undo

import (
	"encoding/binary"
	"fmt"
)

// RecordWidth is the fixed size in bytes of one persistent-subset record:
// fxid(8) dbid(4) size(4) startLogged(8) endLogged(8) startUnlogged(8)
// endUnlogged(8).
const RecordWidth = 8 + 4 + 4 + 8 + 8 + 8 + 8

// ErrRestoreNotEmpty is returned by Restore when called on a manager that
// already holds requests.
var ErrRestoreNotEmpty = fmt.Errorf("undo: Restore requires an empty manager")

// Serialize emits the persistent subset of every LISTED request, across
// both the {byFxid,bySize} population and the byRetryTime population, as
// fixed-width records concatenated in iteration order.
// RetryTime is intentionally dropped: retry history is something a
// restart should forget, not preserve.
func (m *Manager) Serialize() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.countNodes(m.byFxidRoot) + m.countNodes(m.byRetryRoot)
	buf := make([]byte, 0, n*RecordWidth)

	buf = m.appendIndex(buf, m.byFxidRoot)
	buf = m.appendIndex(buf, m.byRetryRoot)
	return buf
}

func (m *Manager) appendIndex(buf []byte, root int32) []byte {
	node, ok := m.avlMin(root)
	if !ok {
		return buf
	}
	for node != nilIdx {
		r := &m.slots[m.nodes[node].reqIdx].Request
		buf = appendRecord(buf, r)
		node = m.avlSuccessor(node)
	}
	return buf
}

func appendRecord(buf []byte, r *Request) []byte {
	var rec [RecordWidth]byte
	binary.NativeEndian.PutUint64(rec[0:8], r.Fxid)
	binary.NativeEndian.PutUint32(rec[8:12], r.DBID)
	binary.NativeEndian.PutUint32(rec[12:16], r.Size)
	binary.NativeEndian.PutUint64(rec[16:24], uint64(r.StartLogged))
	binary.NativeEndian.PutUint64(rec[24:32], uint64(r.EndLogged))
	binary.NativeEndian.PutUint64(rec[32:40], uint64(r.StartUnlogged))
	binary.NativeEndian.PutUint64(rec[40:48], uint64(r.EndUnlogged))
	return append(buf, rec[:]...)
}

func decodeRecord(rec []byte) (fxid uint64, dbid, size uint32, startLogged, endLogged, startUnlogged, endUnlogged UndoLocation) {
	fxid = binary.NativeEndian.Uint64(rec[0:8])
	dbid = binary.NativeEndian.Uint32(rec[8:12])
	size = binary.NativeEndian.Uint32(rec[12:16])
	startLogged = UndoLocation(binary.NativeEndian.Uint64(rec[16:24]))
	endLogged = UndoLocation(binary.NativeEndian.Uint64(rec[24:32]))
	startUnlogged = UndoLocation(binary.NativeEndian.Uint64(rec[32:40]))
	endUnlogged = UndoLocation(binary.NativeEndian.Uint64(rec[40:48]))
	return
}

// Restore reinserts every record in data as a LISTED request with
// RetryTime cleared to NEVER-RETRIED, placing each into {byFxid, bySize}
// and never byRetryTime. It requires an empty manager and rejects a blob
// whose length is not a whole multiple of RecordWidth, or that encodes
// more records than Capacity.
func (m *Manager) Restore(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.utilization != 0 {
		return ErrRestoreNotEmpty
	}
	if len(data)%RecordWidth != 0 {
		return ErrRestoreCorrupt
	}
	n := len(data) / RecordWidth
	if n > m.capacity {
		return ErrRestoreCorrupt
	}

	for i := 0; i < n; i++ {
		rec := data[i*RecordWidth : (i+1)*RecordWidth]
		fxid, dbid, size, startLogged, endLogged, startUnlogged, endUnlogged := decodeRecord(rec)

		idx, err := m.allocSlot()
		if err != nil {
			// Structurally unreachable: n <= capacity and the manager was
			// empty, so capacity-idx FREE slots were available.
			errInvariantViolation("restore ran out of arena slots within capacity bound")
		}
		m.slots[idx].Request = Request{
			Fxid:          fxid,
			DBID:          dbid,
			Size:          size,
			StartLogged:   startLogged,
			EndLogged:     endLogged,
			StartUnlogged: startUnlogged,
			EndUnlogged:   endUnlogged,
			slot:          int32(idx),
		}
		m.insertFxid(idx)
		m.insertSize(idx)
	}

	m.oldestFxidValid = false
	return nil
}
