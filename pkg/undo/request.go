package undo

import (
	"math"
	"time"
)

// InvalidFxid is the sentinel value meaning "no transaction" / "FREE slot".
const InvalidFxid uint64 = 0

// UndoLocation identifies a position within an undo log. InvalidUndoLocation
// is the BOTH-INVALID sentinel: a range is either fully valid (start and
// end both set) or fully invalid.
type UndoLocation uint64

// InvalidUndoLocation is the sentinel for "this range was never written".
const InvalidUndoLocation UndoLocation = math.MaxUint64

// Valid reports whether the location is a real position, not the sentinel.
func (l UndoLocation) Valid() bool { return l != InvalidUndoLocation }

// Request is the unit of work tracked by the manager. The fields up to
// EndUnlogged are the persistent subset: exactly these fields
// are written by Serialize and restored by Restore. RetryTime is the
// in-memory-only extra; it is never serialized.
//
// RetryTime's zero value (time.Time{}) is the NEVER-RETRIED sentinel:
// "this request has not yet failed a background attempt". A non-zero
// RetryTime means the request is waiting out a backoff delay.
type Request struct {
	Fxid uint64
	DBID uint32
	Size uint32

	StartLogged UndoLocation
	EndLogged   UndoLocation

	StartUnlogged UndoLocation
	EndUnlogged   UndoLocation

	RetryTime time.Time

	// slot is this request's fixed index into the manager's arena. It is
	// assigned once when the arena is built and never changes; it is how
	// the manager turns a *Request handle back into an arena slot without
	// a side-table lookup, even though callers see a regular pointer.
	slot int32
}

// Finalized reports whether the request carries a completed undo-size and
// location payload: size>0 and at least one range valid.
func (r *Request) Finalized() bool {
	return r.Size > 0 && (r.StartLogged.Valid() || r.StartUnlogged.Valid())
}

// HasUndo reports whether the transaction wrote any undo at all. A request
// with no undo of either kind never needs background processing.
func (r *Request) HasUndo() bool {
	return r.StartLogged.Valid() || r.StartUnlogged.Valid()
}

// hasFailed reports whether the request has ever missed a background undo
// attempt and is therefore retry-gated rather than priority-gated.
func (r *Request) hasFailed() bool {
	return !r.RetryTime.IsZero()
}
