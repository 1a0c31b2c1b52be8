package dlist

import (
	"sync"
	"sync/atomic"
)

// node is one element in the list: a value, its neighbors, a reference
// count, a tombstone flag, and the per-node reader/writer lock that
// structural edits acquire in list order (prev, current, next). Sentinels
// (HEAD/TAIL) are nodes with sentinel set and no value.
//
// This is the teacher's (dijkstracula/go-ilock) per-node locking idiom
// generalized from a single intention-lock state word into the plain
// sync.RWMutex a structural edit needs: exclusive for insert/erase,
// shared for dereference and stepping.
type node[T any] struct {
	value T

	mu sync.RWMutex
	// prev/next are only ever mutated while mu is held exclusively on
	// this node (see list.go's insert/erase protocols); reads elsewhere
	// hold mu for shared access.
	prev, next *node[T]

	refs       atomic.Int32
	tombstoned atomic.Bool
	sentinel   bool

	// reclaimed is purgatory's own bookkeeping, distinct from tombstoned:
	// tombstoned says "this node has been logically erased from the
	// list"; reclaimed says "purgatory has already marked this push
	// entry as a survivor to free this round (or a prior one)". A node
	// reaches purgatory already tombstoned (eraseNode sets it before the
	// refcount can hit zero), so round() cannot reuse tombstoned to tell
	// a genuinely new entry apart from a duplicate push of an
	// already-handled node — it needs its own flag.
	reclaimed atomic.Bool

	// owner is the list that will receive this node in its purgatory once
	// refs reaches zero. Sentinels never get pushed regardless of owner,
	// which is set for every node (including sentinels) so purgatory.push
	// always has somewhere to enqueue a non-sentinel release.
	owner *List[T]
}

func newNode[T any](owner *List[T], v T) *node[T] {
	return &node[T]{value: v, owner: owner}
}

// capture stores n into *slot and increments n's reference count. The
// caller must already hold whatever lock makes overwriting *slot safe;
// capture does not release whatever *slot pointed to previously — that is
// the caller's job, via release, once it has decided the old occupant's
// back-reference is indeed going away.
func capture[T any](slot **node[T], n *node[T]) {
	*slot = n
	n.refs.Add(1)
}

// release drops one reference to n. Once refs reaches zero, n is handed
// to its owner's purgatory for deferred reclamation — unless n is a
// sentinel, which must never be freed (see SPEC_FULL.md §9, "End()
// refcount").
func release[T any](n *node[T]) {
	if n.refs.Add(-1) == 0 && !n.sentinel {
		n.owner.purgatory.push(n)
	}
}
