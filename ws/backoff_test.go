package ws

import (
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2}
	for attempt, want := range map[int]time.Duration{
		1: 100 * time.Millisecond,
		2: 200 * time.Millisecond,
		3: 400 * time.Millisecond,
		4: 800 * time.Millisecond,
		5: time.Second,
		9: time.Second,
	} {
		if got := b.Delay(attempt); got != want {
			t.Errorf("attempt %d: got %v want %v", attempt, got, want)
		}
	}
	if b.Exhausted(100) {
		t.Errorf("zero MaxRetries should retry forever")
	}
	b.MaxRetries = 3
	if b.Exhausted(3) || !b.Exhausted(4) {
		t.Errorf("MaxRetries 3 should allow exactly three attempts")
	}
	if d := (Backoff{}).Delay(1); d != DefaultBackoff.Initial {
		t.Errorf("zero Backoff should start at the default, got %v", d)
	}
}

func TestBackoffDelayWithoutMax(t *testing.T) {
	b := Backoff{Initial: time.Second, Multiplier: 2}
	for _, attempt := range []int{1, 7, 60, 1000} {
		d := b.Delay(attempt)
		if d <= 0 || d > DefaultBackoff.Max {
			t.Errorf("attempt %d: got %v, want within (0, %v]", attempt, d, DefaultBackoff.Max)
		}
	}
	if d := b.Delay(60); d != DefaultBackoff.Max {
		t.Errorf("late attempts should wait the default maximum, got %v", d)
	}
	if d := (Backoff{Initial: time.Hour, Max: time.Minute}).Delay(1); d != time.Minute {
		t.Errorf("an initial wait above Max should be capped, got %v", d)
	}
}
