// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package gate implements the process-wide reader/writer coordination
// primitive that a colist List uses to separate ordinary mutator activity
// (insert, erase, iteration) from the purgatory cleaner's reclamation
// sweeps.
//
// A gate has exactly two states, unlike the four-state intention lock this
// package's locking idiom is descended from: Shared, taken by mutator
// goroutines that only need to coexist with other mutators, and Exclusive,
// taken by the cleaner for the brief windows in which it snapshots or
// detaches the purgatory stack. Acquiring Exclusive establishes that every
// goroutine that started a Shared hold before the acquisition has released
// it, which is the grace-period property the cleaner depends on.
//
// Two implementations are provided. Blocking parks waiting goroutines on a
// condition variable and suits long critical sections. Spinning never
// parks on a condition variable; it retries a CAS, yielding once and then
// sleeping for escalating intervals, and suits the short critical
// sections the cleaner actually takes.
package gate

// Gate is the reader/writer coordination primitive described in package
// doc. Implementations must support nested acquisition only to the extent
// that release matches the most recent acquire; a Gate is not reentrant.
type Gate interface {
	RLock()
	RUnlock()
	Lock()
	Unlock()
}

// New returns the default Gate implementation: Blocking. Most lists should
// use this unless profiling shows gate contention dominated by goroutine
// parking overhead, in which case NewSpinning is the better fit for short
// critical sections.
func New() Gate {
	return NewBlocking()
}
