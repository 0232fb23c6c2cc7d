package clock

import (
	"testing"
	"time"
)

func TestTaskFiresOnce(t *testing.T) {
	c := NewFake(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	task := NewTask(c)
	fired := 0
	task.Arm(10*time.Second, func() { fired++ })
	if !task.Armed() {
		t.Fatalf("expected task to be armed")
	}
	c.Advance(9 * time.Second)
	if fired != 0 {
		t.Fatalf("fired early")
	}
	c.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("expected one call, got %d", fired)
	}
	if task.Armed() {
		t.Fatalf("expected task to be idle after firing")
	}
	c.Advance(time.Minute)
	if fired != 1 {
		t.Fatalf("expected no further calls, got %d", fired)
	}
}

func TestTaskRearmReplacesPending(t *testing.T) {
	c := NewFake(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	task := NewTask(c)
	var calls []string
	task.Arm(10*time.Second, func() { calls = append(calls, "first") })
	c.Advance(5 * time.Second)
	task.Arm(10*time.Second, func() { calls = append(calls, "second") })
	c.Advance(6 * time.Second)
	if len(calls) != 0 {
		t.Fatalf("first callback should have been replaced, got %v", calls)
	}
	c.Advance(4 * time.Second)
	if len(calls) != 1 || calls[0] != "second" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestTaskCancel(t *testing.T) {
	c := NewFake(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	task := NewTask(c)
	fired := false
	task.Arm(time.Second, func() { fired = true })
	task.Cancel()
	c.Advance(time.Hour)
	if fired {
		t.Fatalf("cancelled task fired")
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.Pending())
	}
}
