package dlist

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dijkstracula/colist/gate"
)

// newStandalonePurgatory builds an un-started purgatory against a List
// that never runs its own cleaner goroutine, so a test can call round()
// directly without racing a background cleaner also calling it.
func newStandalonePurgatory(t *testing.T) (*purgatory[int], *List[int]) {
	t.Helper()
	l := &List[int]{gate: gate.New()}
	p := newPurgatory[int](l.gate, time.Millisecond, zerolog.Nop())
	l.purgatory = p
	return p, l
}

// newDoomedNode builds a node standing in for one that went through the
// real erase path: freeOne unconditionally releases a survivor's prev and
// next, exactly as it would for a node eraseNode actually unlinked, so a
// node pushed straight to purgatory needs non-nil (if otherwise
// inert) neighbors rather than the zero value's nil prev/next.
func newDoomedNode(l *List[int], v int) *node[int] {
	n := newNode(l, v)
	n.prev = &node[int]{owner: l, sentinel: true}
	n.next = &node[int]{owner: l, sentinel: true}
	return n
}

func TestPurgatoryPushThenRoundFrees(t *testing.T) {
	p, l := newStandalonePurgatory(t)

	n := newDoomedNode(l, 99)
	p.push(n)
	assert.Equal(t, int64(1), p.pushed.Load())

	p.round()
	assert.Equal(t, int64(1), p.freed.Load())
	assert.True(t, n.reclaimed.Load())
	assert.Nil(t, p.head.Load())
}

func TestPurgatoryRevivedNodeSurvivesRound(t *testing.T) {
	p, l := newStandalonePurgatory(t)

	n := newNode(l, 1)
	p.push(n)

	// Simulate a racing reviver: it re-acquired a reference after push but
	// before the cleaner's round observed it.
	n.refs.Add(1)

	p.round()
	assert.Equal(t, int64(0), p.freed.Load())
	assert.False(t, n.reclaimed.Load())
}

// TestPurgatoryTombstonedNodeIsFreed regression-tests the real eraseNode
// path, where a node is always already tombstoned by the time it reaches
// purgatory: round() must still treat it as a fresh entry and free it,
// not mistake the pre-existing tombstone for a duplicate push.
func TestPurgatoryTombstonedNodeIsFreed(t *testing.T) {
	p, l := newStandalonePurgatory(t)

	n := newDoomedNode(l, 1)
	n.tombstoned.Store(true)
	p.push(n)

	p.round()
	assert.Equal(t, int64(1), p.freed.Load())
	assert.True(t, n.reclaimed.Load())
}

func TestPurgatoryPushAfterDrainFreedNextRound(t *testing.T) {
	p, l := newStandalonePurgatory(t)

	a := newDoomedNode(l, 1)
	b := newDoomedNode(l, 2)
	p.push(a)
	p.push(b)

	p.round()
	assert.Equal(t, int64(2), p.freed.Load())

	// A fresh push after the stack drained must still be reachable by the
	// next round.
	c := newDoomedNode(l, 3)
	p.push(c)
	p.round()
	assert.Equal(t, int64(3), p.freed.Load())
}

func TestPurgatoryParallelFreePath(t *testing.T) {
	p, l := newStandalonePurgatory(t)

	const n = parallelFreeThreshold + 10
	for i := 0; i < n; i++ {
		p.push(newDoomedNode(l, i))
	}
	assert.Equal(t, int64(n), p.pushed.Load())

	p.round()
	assert.Equal(t, int64(n), p.freed.Load())
	assert.Nil(t, p.head.Load())
}

func TestPurgatoryShutdownDrains(t *testing.T) {
	l := New[int](WithCleanerPeriod(time.Millisecond))

	n := newDoomedNode(l, 1)
	l.purgatory.push(n)

	assert.NoError(t, l.Close())
	assert.Equal(t, l.purgatory.pushed.Load(), l.purgatory.freed.Load())
}
