package undo

import (
	"sync"
	"time"
)

// fakeClock is a controllable Clock for tests that exercise retry backoff
// and retry-time gating without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(capacity, softLimit int, clock Clock) *Manager {
	if clock == nil {
		clock = newFakeClock(time.Unix(1_700_000_000, 0))
	}
	return New(Config{
		Capacity:  capacity,
		SoftLimit: softLimit,
		Lock:      &sync.Mutex{},
		Clock:     clock,
	})
}

// finalizeSimple finalizes req with a single logged-undo range, the
// shortest path most tests need to reach a Finalized() request.
func finalizeSimple(t interface{ Fatalf(string, ...any) }, m *Manager, req *Request, size uint32) {
	if err := m.Finalize(req, size, 1, 2, InvalidUndoLocation, InvalidUndoLocation); err != nil {
		t.Fatalf("finalize: %v", err)
	}
}
