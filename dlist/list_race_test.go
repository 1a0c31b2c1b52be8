package dlist

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

// TestConcurrentPushBack_Race exercises spec.md §8's ten-goroutine
// concurrent push_back scenario: every value submitted must appear
// exactly once, in some order, once all goroutines finish.
func TestConcurrentPushBack_Race(t *testing.T) {
	const goroutines = 10
	const perGoroutine = 50

	l := New[int]()
	defer l.Close()

	var g errgroup.Group
	for gr := 0; gr < goroutines; gr++ {
		gr := gr
		g.Go(func() error {
			for i := 0; i < perGoroutine; i++ {
				l.PushBack(gr*perGoroutine + i)
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())

	assert.Equal(t, goroutines*perGoroutine, l.Size())

	got := drainValues(l)
	sort.Ints(got)
	want := make([]int, goroutines*perGoroutine)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)

	assert.NoError(t, l.Close())
	assert.Equal(t, l.purgatory.pushed.Load(), l.purgatory.freed.Load())
}

// TestConcurrentPushPop_Race exercises spec.md §8's hundred-goroutine
// mixed push/pop scenario: half the goroutines push, half pop, and the
// list's bookkeeping (Size, and no panics/deadlocks) must stay consistent
// throughout.
func TestConcurrentPushPop_Race(t *testing.T) {
	const pushers = 50
	const poppers = 50
	const perPusher = 20

	l := New[int]()
	defer l.Close()

	// Seed enough elements that poppers racing ahead of pushers still have
	// something to find most of the time; PopFront/PopBack tolerate an
	// empty list by returning ErrOutOfRange.
	for i := 0; i < poppers*2; i++ {
		l.PushBack(-1)
	}

	var g errgroup.Group
	for i := 0; i < pushers; i++ {
		g.Go(func() error {
			for j := 0; j < perPusher; j++ {
				l.PushBack(j)
			}
			return nil
		})
	}
	for i := 0; i < poppers; i++ {
		g.Go(func() error {
			for j := 0; j < perPusher/2; j++ {
				_, _ = l.PopFront()
				_, _ = l.PopBack()
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())

	// Whatever remains must still be traversable front-to-back without
	// panicking and must match the size counter exactly.
	assert.Equal(t, l.Size(), len(drainValues(l)))

	assert.NoError(t, l.Close())
	assert.Equal(t, l.purgatory.pushed.Load(), l.purgatory.freed.Load())
}

// TestIteratorStabilityUnderConcurrentErase_Race holds an iterator on a
// node while other goroutines race to erase everything around (and
// including) it, then checks the held iterator's value is still readable
// and that Next eventually reaches End() in finite steps.
func TestIteratorStabilityUnderConcurrentErase_Race(t *testing.T) {
	const n = 200
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	l := NewFrom(values)
	defer l.Close()

	mid := l.Begin()
	for i := 0; i < n/2; i++ {
		mid.Next()
	}
	defer mid.Close()
	midVal, ok := mid.Value()
	assert.True(t, ok)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for {
				it := l.Begin()
				if it.node.sentinel {
					it.Close()
					return nil
				}
				_, _, err := l.eraseNode(&it)
				it.Close()
				if err != nil {
					return nil
				}
			}
		})
	}
	assert.NoError(t, g.Wait())

	assert.True(t, l.Empty())

	v, ok := mid.Value()
	assert.True(t, ok)
	assert.Equal(t, midVal, v)

	steps := 0
	for !mid.node.sentinel && steps < n+1 {
		mid.Next()
		steps++
	}
	assert.True(t, mid.node.sentinel, "Next should converge to End() in finite steps")

	// mid has walked off every real node by now, so nothing but the
	// (never-pushed) tail sentinel still holds a reference; the purgatory
	// must be able to drain the entire erased backlog.
	assert.NoError(t, l.Close())
	assert.Equal(t, l.purgatory.pushed.Load(), l.purgatory.freed.Load())
}

// TestClose_DrainsPurgatory constructs, mutates, and closes a list,
// asserting the purgatory cleaner has freed every tombstoned node by the
// time Close returns.
func TestClose_DrainsPurgatory(t *testing.T) {
	l := NewFrom([]int{1, 2, 3, 4, 5}, WithCleanerPeriod(5*time.Millisecond))

	for {
		it := l.Begin()
		if it.node.sentinel {
			it.Close()
			break
		}
		_, err := l.Erase(&it)
		it.Close()
		assert.NoError(t, err)
	}

	assert.NoError(t, l.Close())
	assert.Equal(t, l.purgatory.pushed.Load(), l.purgatory.freed.Load())
}
