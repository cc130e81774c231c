package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)

func TestEveryFiresOncePerInterval(t *testing.T) {
	c := NewManual(epoch)
	s := NewScheduler(c)
	count := 0
	s.Every("tick", time.Second, func(time.Time) { count++ })

	c.Advance(999 * time.Millisecond)
	if n := s.FireDue(); n != 0 {
		t.Fatalf("expected nothing due before one interval, fired %d", n)
	}
	c.Advance(time.Millisecond)
	if n := s.FireDue(); n != 1 {
		t.Fatalf("expected one firing at one interval, fired %d", n)
	}
	c.Advance(10 * time.Second)
	s.FireDue()
	if count != 11 {
		t.Fatalf("expected missed periods to replay, count=%d", count)
	}
}

func TestCancelDropsArmedTick(t *testing.T) {
	c := NewManual(epoch)
	s := NewScheduler(c)
	fired := false
	task := s.Every("call-tick", time.Second, func(time.Time) { fired = true })

	armed := s.Armed()
	if len(armed) != 1 {
		t.Fatalf("expected one armed tick, got %d", len(armed))
	}
	task.Cancel()
	c.Advance(2 * time.Second)
	if s.Fire(armed[0]) {
		t.Fatalf("stale tick reported as fired")
	}
	if fired {
		t.Fatalf("task body ran after cancel")
	}
	if task.Active() {
		t.Fatalf("task still active after cancel")
	}
	if s.Len() != 0 {
		t.Fatalf("cancelled task leaked, live=%v", s.Names())
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := NewScheduler(NewManual(epoch))
	task := s.Every("idle-check", time.Minute, func(time.Time) {})
	task.Cancel()
	task.Cancel()
	var nilTask *Task
	nilTask.Cancel()
	if nilTask.Active() {
		t.Fatalf("nil task reported active")
	}
}

func TestFireRearmsWithNewSequence(t *testing.T) {
	c := NewManual(epoch)
	s := NewScheduler(c)
	count := 0
	s.Every("tick", time.Second, func(time.Time) { count++ })

	first := s.Armed()[0]
	c.Advance(time.Second)
	if !s.Fire(first) {
		t.Fatalf("expected first tick to fire")
	}
	if s.Fire(first) {
		t.Fatalf("replaying a consumed tick must be ignored")
	}
	next := s.Armed()
	if len(next) != 1 || next[0].Seq == first.Seq {
		t.Fatalf("expected re-armed tick with new sequence, got %+v", next)
	}
	if !next[0].Due.Equal(first.Due.Add(time.Second)) {
		t.Fatalf("expected next due one interval later, got %v", next[0].Due)
	}
	if count != 1 {
		t.Fatalf("count=%d", count)
	}
}

func TestTaskCancellingItselfIsNotRearmed(t *testing.T) {
	c := NewManual(epoch)
	s := NewScheduler(c)
	var task *Task
	runs := 0
	task = s.Every("once", time.Second, func(time.Time) {
		runs++
		task.Cancel()
	})
	c.Advance(5 * time.Second)
	s.FireDue()
	if runs != 1 {
		t.Fatalf("expected single run, got %d", runs)
	}
	if len(s.Armed()) != 0 {
		t.Fatalf("cancelled task should not be armed")
	}
}

func TestRepeatedStartStopDoesNotLeak(t *testing.T) {
	s := NewScheduler(NewManual(epoch))
	for i := 0; i < 100; i++ {
		task := s.Every("call-tick", time.Second, func(time.Time) {})
		task.Cancel()
	}
	if s.Len() != 0 {
		t.Fatalf("expected no live tasks, got %d", s.Len())
	}
}

func TestFireDueReplaysWithPeriodTimes(t *testing.T) {
	c := NewManual(epoch)
	s := NewScheduler(c)
	var seen []time.Time
	s.Every("ingest", 30*time.Second, func(now time.Time) { seen = append(seen, now) })

	c.Advance(95 * time.Second)
	if n := s.FireDue(); n != 3 {
		t.Fatalf("fired %d, want 3", n)
	}
	for i, got := range seen {
		want := epoch.Add(time.Duration(i+1) * 30 * time.Second)
		if !got.Equal(want) {
			t.Fatalf("run %d saw %v, want %v", i, got, want)
		}
	}
}
