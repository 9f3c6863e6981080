package exam

import (
	"errors"
	"sync"
	"time"
)

// ErrTimerStarted is returned when Start is called twice on one timer.
var ErrTimerStarted = errors.New("timer already started")

// DeadlineTimer drives a session's countdown. It ticks once per interval,
// emitting strictly decreasing remaining seconds from durationSeconds-1
// down to 0, then invokes onExpire exactly once and stops permanently.
//
// Cancel guarantees onExpire will never fire afterwards: it blocks until
// any in-flight callback returns, so a manual submit that cancels the
// timer first can never race with an expiry-triggered submit. Callbacks
// must not call back into the timer.
type DeadlineTimer struct {
	interval time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewDeadlineTimer returns a timer ticking once per second.
func NewDeadlineTimer() *DeadlineTimer {
	return &DeadlineTimer{interval: time.Second}
}

// NewDeadlineTimerInterval returns a timer with a custom tick interval.
// Used by tests to run countdowns quickly.
func NewDeadlineTimerInterval(interval time.Duration) *DeadlineTimer {
	return &DeadlineTimer{interval: interval}
}

// Start begins the countdown in a background goroutine. Starting a timer
// twice is a caller error.
func (t *DeadlineTimer) Start(durationSeconds int, onTick func(remainingSeconds int), onExpire func()) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrTimerStarted
	}
	t.started = true
	t.mu.Unlock()

	go t.run(durationSeconds, onTick, onExpire)
	return nil
}

// Cancel stops the countdown. After Cancel returns, neither onTick nor
// onExpire will be invoked again for this timer instance.
func (t *DeadlineTimer) Cancel() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *DeadlineTimer) run(durationSeconds int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	remaining := durationSeconds - 1

	for range ticker.C {
		// The lock is held across the callback so Cancel cannot return
		// while a tick or expiry is still in flight.
		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}

		if remaining < 0 {
			t.stopped = true
			if onExpire != nil {
				onExpire()
			}
			t.mu.Unlock()
			return
		}

		if onTick != nil {
			onTick(remaining)
		}
		remaining--
		t.mu.Unlock()
	}
}
