package gate

import (
	"sync/atomic"

	"github.com/dijkstracula/colist/internal/backoff"
)

// writeBit occupies bit 31 of the packed word; bits 0..30 hold the live
// reader count. This is the exact layout and CAS discipline of
// _examples/original_source's rw_spin_lock.hpp, translated from C++
// std::atomic<uint32_t> compare_exchange_strong into Go's
// sync/atomic.CompareAndSwapUint32, and combined with the teacher
// (dijkstracula/go-ilock)'s backoff constants, which that package defined
// but never wired into a spin loop.
const writeBit uint32 = 1 << 31

// Spinning is a busy-waiting reader/writer gate: RLock/Lock never park a
// goroutine on a channel or condition variable, they retry a CAS in a loop
// with escalating backoff. This suits the purgatory cleaner's short
// critical sections (snapshot-head, detach-segment) better than Blocking,
// which pays goroutine parking overhead for windows that are typically a
// handful of instructions long.
type Spinning struct {
	value atomic.Uint32
}

// NewSpinning returns a ready-to-use Spinning gate.
func NewSpinning() *Spinning {
	return &Spinning{}
}

// RLock spins until no writer holds the gate, then registers as a
// reader.
func (s *Spinning) RLock() {
	var b backoff.Backoff
	for {
		old := s.value.Load()
		next := old + 1
		if old&writeBit == 0 && s.value.CompareAndSwap(old, next) {
			return
		}
		b.Spin()
	}
}

// RUnlock releases one reader hold.
func (s *Spinning) RUnlock() {
	for {
		old := s.value.Load()
		if s.value.CompareAndSwap(old, old-1) {
			return
		}
	}
}

// Lock spins until the word is entirely zero — no readers, no other
// writer — then claims writeBit in that same CAS. The claim must see a
// zero reader count, not just a clear bit: claiming the bit first and
// draining readers after would let a writer interleave between an outer
// RLock and a nested one taken while the outer hold is still live, and
// that nested RLock can never succeed once the bit is set, deadlocking
// against the writer's own wait for the outer reader to drain.
func (s *Spinning) Lock() {
	var b backoff.Backoff
	for {
		if s.value.CompareAndSwap(0, writeBit) {
			return
		}
		b.Spin()
	}
}

// Unlock clears the write bit, making the gate available to the next
// reader or writer.
func (s *Spinning) Unlock() {
	s.value.Store(0)
}
