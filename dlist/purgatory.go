package dlist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/dijkstracula/colist/gate"
)

// defaultCleanerPeriod mirrors spec.md §4.3 step 6's "order of 100ms".
const defaultCleanerPeriod = 100 * time.Millisecond

// parallelFreeThreshold and maxParallelFreeWorkers bound the bulk free
// path: any round whose survivor chain is longer than
// parallelFreeThreshold (in practice mostly the rounds that drain a very
// deep backlog on Close) frees survivors across a bounded worker pool
// instead of one at a time.
const (
	parallelFreeThreshold  = 256
	maxParallelFreeWorkers = 16
)

// purgeEntry is one intrusive Treiber-stack frame referencing a single
// doomed node.
type purgeEntry[T any] struct {
	node *node[T]
	next *purgeEntry[T]
}

// purgatory is the deferred-reclamation subsystem described in
// SPEC_FULL.md §4.3. A single cleaner goroutine drains it using a
// two-pass, gate-gated grace-period protocol: nodes whose refs are
// observed at zero get claimed in pass one, and are only freed once a
// second exclusive gate acquisition has happened after that, guaranteeing
// every goroutine that started before the first acquisition has finished
// touching the node.
type purgatory[T any] struct {
	head atomic.Pointer[purgeEntry[T]]

	gate   gate.Gate
	log    zerolog.Logger
	period time.Duration

	shuttingDown atomic.Bool
	done         chan struct{}
	wg           sync.WaitGroup

	freed  atomic.Int64
	pushed atomic.Int64
}

func newPurgatory[T any](g gate.Gate, period time.Duration, log zerolog.Logger) *purgatory[T] {
	if period <= 0 {
		period = defaultCleanerPeriod
	}
	return &purgatory[T]{
		gate:   g,
		log:    log,
		period: period,
		done:   make(chan struct{}),
	}
}

// push enqueues n for reclamation once its refs reached zero. Standard
// Treiber push: allocate a frame, CAS it onto the stack head.
func (p *purgatory[T]) push(n *node[T]) {
	e := &purgeEntry[T]{node: n}
	for {
		h := p.head.Load()
		e.next = h
		if p.head.CompareAndSwap(h, e) {
			p.pushed.Add(1)
			return
		}
	}
}

// start launches the cleaner goroutine.
func (p *purgatory[T]) start() {
	p.wg.Add(1)
	go p.run()
}

// run loops until shutdown has been requested and the stack is empty.
func (p *purgatory[T]) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		p.round()
		if p.shuttingDown.Load() && p.head.Load() == nil {
			return
		}
		select {
		case <-ticker.C:
		case <-p.done:
			// Shutdown requested: stop waiting for the ticker and run
			// rounds back to back until the check above finds the stack
			// empty, since freeing one node can push its neighbors.
		}
	}
}

// shutdown requests the cleaner stop once purgatory has fully drained,
// then blocks until it has.
func (p *purgatory[T]) shutdown() {
	p.shuttingDown.Store(true)
	close(p.done)
	p.wg.Wait()
}

// round runs one pass of the two-pass cleaner algorithm described in
// SPEC_FULL.md §4.3 / spec.md §4.3.
func (p *purgatory[T]) round() {
	p.gate.Lock()
	s := p.head.Load()
	p.gate.Unlock()
	if s == nil {
		return
	}

	// Pass 1 — mark. Walk from S (the snapshot boundary) down to the
	// stack's permanent bottom. Revived nodes (refs > 0 again) and
	// duplicate entries for a node already claimed by an earlier entry
	// in this same walk are dropped from the chain we're about to
	// detach; everything else is marked reclaimed and kept. This uses
	// reclaimed, not tombstoned: a node erased through eraseNode is
	// already tombstoned before it ever reaches purgatory, so reusing
	// tombstoned here would mark every real erasure a "duplicate" and
	// drop it without ever freeing its neighbors' references.
	var survivorsHead, survivorsTail *purgeEntry[T]
	for cur := s; cur != nil; {
		next := cur.next
		n := cur.node
		switch {
		case n.refs.Load() > 0:
			// A mutator re-acquired a reference; let the node live.
		case n.reclaimed.Load():
			// Already claimed by an earlier entry for the same node.
		default:
			n.reclaimed.Store(true)
			if survivorsHead == nil {
				survivorsHead = cur
			} else {
				survivorsTail.next = cur
			}
			survivorsTail = cur
		}
		cur = next
	}
	if survivorsTail != nil {
		survivorsTail.next = nil
	}

	// Detach S..bottom from the stack. Everything above S (pushed while
	// pass 1 ran) stays where it is; we only cut the link that points
	// into S.
	p.gate.Lock()
	p.detachBelow(s)
	newHead := p.head.Load()
	p.gate.Unlock()

	// Pass 2 — sweep the segment above S: drop entries whose node was
	// already claimed by pass 1 through a different entry (a node that
	// got pushed twice in quick succession), keep the rest as next
	// round's stack.
	filteredHead, filteredTail := filterReclaimed(newHead)
	p.spliceAbove(newHead, filteredHead, filteredTail)

	// Free. Every survivor's back-pointers get released (which may push
	// further purge entries for prev/next), then the node itself is
	// dropped. A backlog past parallelFreeThreshold (only realistically
	// seen on Close of a list with a very deep purgatory) frees across a
	// bounded worker pool instead of walking the chain serially.
	var freedThisRound int64
	if survivorsCount(survivorsHead) > parallelFreeThreshold {
		freedThisRound = p.freeConcurrently(survivorsHead)
	} else {
		for cur := survivorsHead; cur != nil; cur = cur.next {
			freeOne(cur.node)
			freedThisRound++
		}
	}
	if freedThisRound > 0 {
		p.freed.Add(freedThisRound)
		p.log.Debug().Int64("count", freedThisRound).Msg("purgatory: freed nodes")
	}
}

func survivorsCount[T any](chain *purgeEntry[T]) int {
	n := 0
	for cur := chain; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// freeOne releases a single survivor's back-pointers and drops them.
func freeOne[T any](n *node[T]) {
	release(n.prev)
	release(n.next)
	n.prev = nil
	n.next = nil
}

// freeConcurrently frees a large survivor chain across a bounded worker
// pool, guarded by a weighted semaphore capped at maxParallelFreeWorkers.
// round takes this path for any chain longer than parallelFreeThreshold,
// whether or not shutdown has been requested; shorter chains take the
// serial path above.
func (p *purgatory[T]) freeConcurrently(chain *purgeEntry[T]) int64 {
	sem := semaphore.NewWeighted(maxParallelFreeWorkers)
	ctx := context.Background()

	var wg sync.WaitGroup
	var freed int64
	for cur := chain; cur != nil; cur = cur.next {
		n := cur.node
		_ = sem.Acquire(ctx, 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			freeOne(n)
			atomic.AddInt64(&freed, 1)
		}()
	}
	wg.Wait()
	return freed
}

// detachBelow cuts the stack so that s and everything below it is no
// longer reachable from head. Entries above s (pushed concurrently with
// pass 1) are left exactly where they are; only the pointer that used to
// lead into s is rewritten.
func (p *purgatory[T]) detachBelow(s *purgeEntry[T]) {
	for {
		head := p.head.Load()
		if head == s {
			if p.head.CompareAndSwap(s, nil) {
				return
			}
			continue
		}
		boundary := head
		for boundary.next != s {
			boundary = boundary.next
		}
		boundary.next = nil
		return
	}
}

// spliceAbove replaces the chain starting at oldHead (the unfiltered
// segment pushed during pass 1) with the filtered chain
// [filteredHead..filteredTail], without disturbing anything pushed above
// oldHead since it was read.
func (p *purgatory[T]) spliceAbove(oldHead, filteredHead, _ *purgeEntry[T]) {
	for {
		head := p.head.Load()
		if head == oldHead {
			if p.head.CompareAndSwap(oldHead, filteredHead) {
				return
			}
			continue
		}
		boundary := head
		for boundary.next != oldHead {
			boundary = boundary.next
		}
		boundary.next = filteredHead
		return
	}
}

// filterReclaimed walks chain and returns a new chain with every entry
// whose node has already been claimed by another entry removed.
func filterReclaimed[T any](chain *purgeEntry[T]) (head, tail *purgeEntry[T]) {
	for cur := chain; cur != nil; {
		next := cur.next
		if !cur.node.reclaimed.Load() {
			if head == nil {
				head = cur
			} else {
				tail.next = cur
			}
			tail = cur
		}
		cur = next
	}
	if tail != nil {
		tail.next = nil
	}
	return head, tail
}
