package undo

import "errors"

// ErrCapacityExhausted is returned by Register when the request arena has
// no FREE slot left. It is not an error to the embedding: the caller is
// expected to fall back to processing undo in the foreground.
var ErrCapacityExhausted = errors.New("undo: request arena exhausted")

// ErrRestoreCorrupt is returned by Restore when the supplied blob's length
// is not a whole multiple of the persistent record width, or encodes more
// records than the manager's capacity. It aborts startup; it is never
// returned by any other operation.
var ErrRestoreCorrupt = errors.New("undo: corrupt serialized state")

// errInvariantViolation panics rather than returning: a duplicate-key
// insert, a corrupted scheduler cursor, or a reschedule that cannot
// obtain an index node is a programming bug in the manager or its
// caller, never a condition a correct commit/abort path can observe.
// Returning it as a value would imply a caller could legitimately handle
// it.
func errInvariantViolation(why string) {
	panic("undo: invariant violation: " + why)
}
