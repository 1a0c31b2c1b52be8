package gate

import (
	"sync"
	"sync/atomic"
)

// packed layout of Blocking.state:
//
//	|63                      32|31                       0|
//	\         writers         / \         readers        /
//
// Both halves are plain holder counts rather than a single writer flag,
// the same way the teacher's ilock.Mutex counts holders of S and X
// separately. RLock and Lock first wait under mtx until the packed state
// is compatible with what they want, and only then register themselves.
const (
	readersMask = (1 << 32) - 1
	writersOff  = 32
)

func extractReaders(state uint64) uint64 { return state & readersMask }
func extractWriters(state uint64) uint64 { return state >> writersOff }

func setReaders(state uint64, v uint64) uint64 {
	return (state &^ readersMask) | v
}

func setWriters(state uint64, v uint64) uint64 {
	return (state & readersMask) | (v << writersOff)
}

func compatibleWithShared(state uint64) bool    { return extractWriters(state) == 0 }
func compatibleWithExclusive(state uint64) bool { return state == 0 }

// Blocking is a reader-preferring shared mutex: readers coexist with any
// number of other readers and only block while a writer actually holds the
// gate exclusively; a writer blocks until no readers and no other writer
// remain. It is adapted from the teacher's (dijkstracula/go-ilock) packed
// atomic state word plus condvar parking idiom, narrowed from four lock
// states (IS/IX/S/X) down to the two this gate needs (shared/exclusive).
type Blocking struct {
	mtx   sync.Mutex
	cond  *sync.Cond
	state uint64
}

// NewBlocking returns a ready-to-use Blocking gate.
func NewBlocking() *Blocking {
	b := &Blocking{}
	b.cond = sync.NewCond(&b.mtx)
	return b
}

func (b *Blocking) registerShared() bool {
	for {
		state := atomic.LoadUint64(&b.state)
		next := setReaders(state, extractReaders(state)+1)
		if atomic.CompareAndSwapUint64(&b.state, state, next) {
			return compatibleWithShared(state)
		}
	}
}

func (b *Blocking) unregisterShared() (remaining uint64) {
	for {
		state := atomic.LoadUint64(&b.state)
		remaining = extractReaders(state) - 1
		next := setReaders(state, remaining)
		if atomic.CompareAndSwapUint64(&b.state, state, next) {
			return remaining
		}
	}
}

func (b *Blocking) registerExclusive() bool {
	for {
		state := atomic.LoadUint64(&b.state)
		next := setWriters(state, extractWriters(state)+1)
		if atomic.CompareAndSwapUint64(&b.state, state, next) {
			return compatibleWithExclusive(state)
		}
	}
}

func (b *Blocking) unregisterExclusive() (remaining uint64) {
	for {
		state := atomic.LoadUint64(&b.state)
		remaining = extractWriters(state) - 1
		next := setWriters(state, remaining)
		if atomic.CompareAndSwapUint64(&b.state, state, next) {
			return remaining
		}
	}
}

// RLock acquires the gate in shared mode, blocking only while a writer
// currently holds it exclusively.
func (b *Blocking) RLock() {
	b.mtx.Lock()
	for !compatibleWithShared(atomic.LoadUint64(&b.state)) {
		b.cond.Wait()
	}
	b.registerShared()
	b.mtx.Unlock()
}

// RUnlock releases one shared hold, waking parked waiters once the last
// reader has drained.
func (b *Blocking) RUnlock() {
	if b.unregisterShared() == 0 {
		// Broadcast under mtx so a waiter that has just seen the old
		// state cannot miss this wake-up before it parks.
		b.mtx.Lock()
		b.cond.Broadcast()
		b.mtx.Unlock()
	}
}

// Lock acquires the gate exclusively, blocking until every reader and any
// other writer has released.
func (b *Blocking) Lock() {
	b.mtx.Lock()
	for !compatibleWithExclusive(atomic.LoadUint64(&b.state)) {
		b.cond.Wait()
	}
	b.registerExclusive()
	b.mtx.Unlock()
}

// Unlock releases the exclusive hold.
func (b *Blocking) Unlock() {
	if b.unregisterExclusive() == 0 {
		b.mtx.Lock()
		b.cond.Broadcast()
		b.mtx.Unlock()
	}
}
