// Package clock abstracts wall-clock time and cancellable scheduled tasks.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	Stop() bool
}

// Real is the system clock.
type Real struct{}

// Now returns the local wall-clock time.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on a runtime timer.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Task is a single re-armable scheduled callback. Arming replaces any pending
// callback; a callback that lost the race with Arm or Cancel never runs.
type Task struct {
	clock Clock

	mu    sync.Mutex
	timer Timer
	gen   uint64
	armed bool
}

// NewTask returns an idle task driven by c.
func NewTask(c Clock) *Task {
	return &Task{clock: c}
}

// Arm cancels any pending callback and schedules fn after d.
func (t *Task) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
	gen := t.gen
	t.armed = true
	t.timer = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if gen != t.gen || !t.armed {
			t.mu.Unlock()
			return
		}
		t.armed = false
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback, if any.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
}

// Armed reports whether a callback is pending.
func (t *Task) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

func (t *Task) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.armed = false
}
