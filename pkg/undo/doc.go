/*
Package undo implements an in-memory manager for background undo requests
emitted by a transactional storage engine.

Every transaction that writes durable undo data registers a request with
the manager. If the transaction commits, the request is discarded. If it
aborts, or the process crashes before it resolves, the request carries the
information a background worker needs to apply the undo actions later.

# Architecture

The manager holds a fixed-size arena of request records, sized once at
New and never grown. A request moves through three states:

	┌────────┐  Register   ┌──────────┐  PerformInBackground  ┌────────┐
	│  FREE   │───────────▶│ UNLISTED │──────────or Reschedule──▶│ LISTED │
	└────────┘◀───────────└──────────┘◀──────────Next───────────└────────┘
	             Unregister

A LISTED request lives in exactly one of two index groups: {byFxid,
bySize} if it has never failed, or {byRetryTime} alone if a previous
background attempt failed and it is waiting out a backoff delay. The three
orderings are kept as hand-rolled intrusive AVL trees over a second
pre-allocated arena of index nodes (see avltree.go) rather than a
general-purpose container, because the manager must not allocate memory
after New returns — every node a request could ever occupy (at
most two, since it is never in more than two indexes at once) is reserved
up front.

# Scheduling

Next implements a three-way round robin across byFxid (oldest transaction
first), bySize (largest transaction first) and byRetryTime (earliest
due-for-retry first), so that none of the three competing priorities can
starve the others. See scheduler.go for the full algorithm, including the
affinity scan fallback used when a caller has a database preference and
the rotation's natural winner belongs to a different database.

# Concurrency

Every operation that touches shared state takes the embedding-supplied
Locker for the duration of one call; critical sections are short enough
that a coarse, manager-wide lock is the right tradeoff over per-index
locking. UNLISTED request contents are exempt from the lock — ownership
passes to whichever worker or transaction holds the *Request between
Next/Register and the matching Unregister/Reschedule/PerformInBackground
call.

Unregister, PerformInBackground and Reschedule are called from transaction
commit and abort paths, where returning an error has nowhere safe to go.
They are designed to never fail under correct use; see errors.go for the
one class of failure that is possible and always indicates a caller bug
rather than a runtime condition.
*/
package undo
