package negotiate

import (
	"sync"
	"time"
)

// Scheduler defers a registry's Init until the registration phase is
// expected to be over, giving every bundle a chance to register first.
// Defer must not run fn synchronously.
type Scheduler interface {
	Defer(fn func())
}

// DefaultSettleDelay is the delay a TimerScheduler with no Delay waits.
const DefaultSettleDelay = 250 * time.Millisecond

// TimerScheduler runs deferred callbacks on a timer goroutine after Delay.
// The timer does not wait for the caller, so Delay must cover the whole
// loading phase: sources registered after it fires miss negotiation. Prefer
// Slot.Ready or a ManualScheduler when the end of loading is known.
type TimerScheduler struct {
	// Delay defaults to DefaultSettleDelay.
	Delay time.Duration
}

// Defer implements Scheduler.
func (s TimerScheduler) Defer(fn func()) {
	d := s.Delay
	if d <= 0 {
		d = DefaultSettleDelay
	}
	time.AfterFunc(d, fn)
}

// ManualScheduler queues callbacks until Flush is called. Use it when the
// embedding application knows when its loading phase ends, and in tests.
// The zero value is ready to use.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

// Defer implements Scheduler.
func (s *ManualScheduler) Defer(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, fn)
}

// Pending returns the number of queued callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Flush runs queued callbacks in FIFO order, including any queued while
// flushing, and returns how many ran.
func (s *ManualScheduler) Flush() int {
	n := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return n
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		fn()
		n++
	}
}
