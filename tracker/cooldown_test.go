package tracker

import (
	"sync"
	"testing"
	"time"
)

func TestCooldownWindow(t *testing.T) {
	c := NewCooldown(120 * time.Second)
	base := time.Unix(1000, 0)

	if !c.ShouldAct(1, base) {
		t.Fatal("unknown subject should be actionable")
	}
	c.Record(1, base)

	if c.ShouldAct(1, base.Add(119*time.Second)) {
		t.Error("subject actionable inside window")
	}
	if !c.ShouldAct(1, base.Add(120*time.Second)) {
		t.Error("subject not actionable at window boundary")
	}
	if !c.ShouldAct(1, base.Add(10*time.Minute)) {
		t.Error("subject not actionable after window")
	}
	// Other subjects are unaffected.
	if !c.ShouldAct(2, base) {
		t.Error("unrelated subject throttled")
	}
	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1 recorded subject", got)
	}
}

func TestCooldownRecordRefreshes(t *testing.T) {
	c := NewCooldown(120 * time.Second)
	base := time.Unix(1000, 0)
	c.Record(1, base)
	c.Record(1, base.Add(100*time.Second))
	if c.ShouldAct(1, base.Add(130*time.Second)) {
		t.Error("refreshed entry should restart the window")
	}
	if !c.ShouldAct(1, base.Add(221*time.Second)) {
		t.Error("entry should be actionable after refreshed window")
	}
}

func TestCooldownAcquireSingleWinner(t *testing.T) {
	c := NewCooldown(120 * time.Second)
	now := time.Unix(1000, 0)

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Acquire(7, now) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("winners = %d, want exactly 1 per window", won)
	}
}

func TestCooldownAcquireAfterWindow(t *testing.T) {
	c := NewCooldown(120 * time.Second)
	base := time.Unix(1000, 0)
	if !c.Acquire(3, base) {
		t.Fatal("first acquire should win")
	}
	if c.Acquire(3, base.Add(60*time.Second)) {
		t.Error("acquire inside window should lose")
	}
	if !c.Acquire(3, base.Add(120*time.Second)) {
		t.Error("acquire at window boundary should win again")
	}
}
