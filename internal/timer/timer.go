// Package timer implements the 60Hz countdown timers of the virtual machine.
//
// A Unit stores its state as a count-up counter: a counter value c in
// [0, Terminal] represents the timer value Terminal-c. The periodic task
// increments the counter until it reaches Terminal and holds there. Adding
// more than the saturating range pushes the counter past Terminal, which
// stops the periodic task for good.
//
// The engine and the periodic task share the counter without a lock. Set is
// a single store; a tick that raced with it loses its compare-and-swap and
// is dropped, so a read right after Set observes the written value or, if a
// later tick already landed, one less. Reads may observe a value in flight.
package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Terminal is the counter value at which the timer reads zero.
const Terminal = 255

// DefaultInterval is the decrement period of a 60Hz timer.
const DefaultInterval = 16667 * time.Microsecond

// Unit is a countdown timer decremented by its own goroutine.
type Unit struct {
	counter  atomic.Uint32
	interval time.Duration

	startOnce sync.Once
	done      chan struct{}
}

// New creates a timer reading zero. It does not tick until Start is called.
func New(interval time.Duration) *Unit {
	if interval <= 0 {
		interval = DefaultInterval
	}
	u := &Unit{
		interval: interval,
		done:     make(chan struct{}),
	}
	u.counter.Store(Terminal)
	return u
}

// Start launches the periodic task. Calling Start more than once has no effect.
func (u *Unit) Start() {
	u.startOnce.Do(func() {
		go u.run()
	})
}

func (u *Unit) run() {
	defer close(u.done)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for range ticker.C {
		if !u.tick() {
			return
		}
	}
}

// tick performs one decrement and reports whether the task keeps running.
func (u *Unit) tick() bool {
	c := u.counter.Load()
	if c < Terminal {
		u.counter.CompareAndSwap(c, c+1)
		return true
	}
	return c <= Terminal
}

// Set re-arms the timer to count down from value.
func (u *Unit) Set(value uint8) {
	u.counter.Store(uint32(Terminal - int(value)))
}

// Value returns the current timer value.
func (u *Unit) Value() uint8 {
	c := u.counter.Load()
	if c >= Terminal {
		return 0
	}
	return uint8(Terminal - c)
}

// Active reports whether the timer is still counting down.
func (u *Unit) Active() bool {
	return u.Value() > 0
}

// Shutdown drives the counter past its terminal value, stopping the
// periodic task permanently.
func (u *Unit) Shutdown() {
	u.counter.Add(Terminal + 1)
}

// Stopped reports whether the counter has been driven past its terminal value.
func (u *Unit) Stopped() bool {
	return u.counter.Load() > Terminal
}

// Done is closed once the periodic task has exited.
func (u *Unit) Done() <-chan struct{} {
	return u.done
}
