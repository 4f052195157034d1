package undo

import "sync"

// indexSource names one of the three ordered indexes, and doubles as the
// scheduler's rotation cursor.
type indexSource uint8

const (
	sourceFxid indexSource = iota
	sourceSize
	sourceRetryTime
	numSources
)

func (s indexSource) next() indexSource {
	return (s + 1) % numSources
}

// Manager is the undo request manager: a fixed-capacity arena of requests,
// three ordered indexes over them, and the scheduler/retry logic that
// decides which request a worker should see next.
//
// A Manager must be constructed with New; the zero value is
// not usable. All exported methods are safe for concurrent use: each locks
// the embedding-supplied mu for its duration, except where a method's doc
// comment says otherwise (UNLISTED request contents are caller-private).
type Manager struct {
	mu          sync.Locker
	clock       Clock
	retryPolicy RetryPolicy

	capacity  int
	softLimit int

	// affinityScanLimit bounds the interleaved walk in the affinity scan
	// (scheduler.go). Zero means unbounded.
	affinityScanLimit int

	slots    []requestSlot
	freeHead int32

	nodes        []avlNode
	nodeFreeHead int32

	byFxidRoot  int32
	bySizeRoot  int32
	byRetryRoot int32

	utilization int
	cursor      indexSource

	oldestFxid      uint64
	oldestFxidValid bool

	metrics *Metrics
}

// Config are the manager's init-time knobs.
type Config struct {
	// Capacity is the hard upper bound on simultaneous non-FREE requests.
	Capacity int
	// SoftLimit is the utilization above which PerformInBackground(force=false)
	// refuses. Must be <= Capacity.
	SoftLimit int
	// Lock is the mutual-exclusion primitive the manager serializes every
	// state-touching operation through. The manager never constructs its
	// own lock, so it can be a plain *sync.Mutex in private memory or a
	// cross-process primitive supplied by the embedding.
	Lock sync.Locker
	// Clock is the monotonic timestamp source. Defaults to
	// SystemClock if nil.
	Clock Clock
	// RetryPolicy overrides the default 10s/30s backoff schedule. Zero
	// value uses DefaultRetryPolicy.
	RetryPolicy RetryPolicy
	// AffinityScanLimit bounds the affinity scan's interleaved walk.
	// Zero (the default) means unbounded.
	AffinityScanLimit int
	// Metrics, if non-nil, receives instrumentation for Register,
	// Unregister, PerformInBackground, Reschedule and Next (ambient stack;
	// see metrics.go). Optional.
	Metrics *Metrics
}

// EstimateSize returns the number of bytes the manager's two arenas would
// occupy for the given capacity: one requestSlot per request plus two
// avlNodes per request. In Go, New
// allocates this memory itself (there is no raw memory region for the
// embedding to carve out), so EstimateSize exists for embeddings that want
// to account for it ahead of time (e.g. sizing a shared-memory segment in
// a C caller linked against this package via cgo), not as a prerequisite
// to calling New.
func EstimateSize(capacity int) uintptr {
	var slot requestSlot
	var node avlNode
	return uintptr(capacity)*sizeOf(slot) + uintptr(2*capacity)*sizeOf(node)
}

// New allocates both arenas and builds a manager with the given
// configuration. It panics if
// cfg.Lock is nil, cfg.Capacity <= 0, or cfg.SoftLimit is out of
// [0, Capacity] — these are caller programming errors at construction
// time, not runtime conditions.
func New(cfg Config) *Manager {
	if cfg.Lock == nil {
		panic("undo: Config.Lock must not be nil")
	}
	if cfg.Capacity <= 0 {
		panic("undo: Config.Capacity must be positive")
	}
	if cfg.SoftLimit < 0 || cfg.SoftLimit > cfg.Capacity {
		panic("undo: Config.SoftLimit must be within [0, Capacity]")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	policy := cfg.RetryPolicy
	if policy == (RetryPolicy{}) {
		policy = DefaultRetryPolicy
	}

	m := &Manager{
		mu:                cfg.Lock,
		clock:             clock,
		retryPolicy:       policy,
		capacity:          cfg.Capacity,
		softLimit:         cfg.SoftLimit,
		affinityScanLimit: cfg.AffinityScanLimit,
		metrics:           cfg.Metrics,
		byFxidRoot:        nilIdx,
		bySizeRoot:        nilIdx,
		byRetryRoot:       nilIdx,
	}

	m.slots = make([]requestSlot, cfg.Capacity)
	m.freeHead = nilIdx
	for i := cfg.Capacity - 1; i >= 0; i-- {
		m.slots[i] = requestSlot{
			Request:  Request{Fxid: InvalidFxid, slot: int32(i)},
			fxidNode: nilIdx, sizeNode: nilIdx, retryNode: nilIdx,
			nextFree: m.freeHead,
		}
		m.freeHead = int32(i)
	}

	nodeCount := 2 * cfg.Capacity
	m.nodes = make([]avlNode, nodeCount)
	m.nodeFreeHead = nilIdx
	for i := nodeCount - 1; i >= 0; i-- {
		m.nodes[i] = avlNode{reqIdx: nilIdx, left: nilIdx, right: nilIdx, parent: nilIdx, nextFree: m.nodeFreeHead}
		m.nodeFreeHead = int32(i)
	}

	return m
}

// Capacity returns the hard upper bound on simultaneous non-FREE requests.
func (m *Manager) Capacity() int { return m.capacity }

// SoftLimit returns the current soft-limit threshold.
func (m *Manager) SoftLimit() int { return m.softLimit }

// Stats is a point-in-time snapshot of manager occupancy, useful for
// metrics collection and tests.
type Stats struct {
	Capacity    int
	Utilization int
	Listed      int
}

// Stats returns a snapshot of the manager's current occupancy.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	listed := m.countNodes(m.byFxidRoot) + m.countNodes(m.byRetryRoot)
	return Stats{Capacity: m.capacity, Utilization: m.utilization, Listed: listed}
}

func (m *Manager) countNodes(root int32) int {
	idx, ok := m.avlMin(root)
	if !ok {
		return 0
	}
	n := 0
	for idx != nilIdx {
		n++
		idx = m.avlSuccessor(idx)
	}
	return n
}
