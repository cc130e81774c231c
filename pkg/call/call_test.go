package call

import (
	"errors"
	"testing"
	"time"

	"tableflip.dev/desk/pkg/clock"
	"tableflip.dev/desk/pkg/debtor"
	"tableflip.dev/desk/pkg/history"
	"tableflip.dev/desk/pkg/queue"
)

var epoch = time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	clock *clock.Manual
	sched *clock.Scheduler
	queue *queue.Manager
	log   *history.Log
	ctrl  *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := clock.NewManual(epoch)
	s := clock.NewScheduler(c)
	q := queue.New(
		&debtor.Debtor{ID: "A", Name: "Alpha", Phone: "+7 (900) 000-00-01", Outstanding: debtor.Rubles(12500)},
		&debtor.Debtor{ID: "B", Name: "Beta", Phone: "+7 (900) 000-00-02", Outstanding: debtor.Rubles(5600)},
	)
	l := history.New()
	return &fixture{clock: c, sched: s, queue: q, log: l, ctrl: New(q, l, s)}
}

// wait advances the clock one second at a time, firing ticks as a live loop
// would.
func (f *fixture) wait(d time.Duration) {
	for step := time.Duration(0); step < d; step += time.Second {
		f.clock.Advance(time.Second)
		f.sched.FireDue()
	}
}

func TestStartCallRequiresSelection(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ctrl.StartCall(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if f.ctrl.State() != Idle {
		t.Fatalf("state = %s", f.ctrl.State())
	}
	if f.sched.Len() != 0 {
		t.Fatalf("no tick should be scheduled")
	}
}

func TestPromiseToPayScenario(t *testing.T) {
	f := newFixture(t)
	f.queue.Select("A")
	if _, err := f.ctrl.StartCall(); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if !f.ctrl.Snapshot().Recording {
		t.Fatalf("entering a call should switch recording on")
	}
	f.wait(45 * time.Second)
	if got := f.ctrl.Snapshot().Timer(); got != "00:45" {
		t.Fatalf("display timer = %s", got)
	}
	f.ctrl.SetResultCode(debtor.PromiseToPay)
	rec, err := f.ctrl.EndCall()
	if err != nil {
		t.Fatalf("EndCall: %v", err)
	}

	entries := f.log.ForDebtor("A")
	if len(entries) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(entries))
	}
	if entries[0].ID != rec.ID || rec.Duration != 45 || rec.Result != debtor.PromiseToPay {
		t.Fatalf("unexpected interaction %+v", rec)
	}
	if !rec.At.Equal(epoch) {
		t.Fatalf("interaction should carry the call start, got %v", rec.At)
	}
	a, _ := f.queue.Get("A")
	if a.Attempts != 1 {
		t.Fatalf("attempts = %d", a.Attempts)
	}
	if a.Outstanding != debtor.Rubles(12500)-queue.PromiseDecrement {
		t.Fatalf("outstanding = %s", a.Outstanding)
	}
	if f.queue.SelectedID() != "A" {
		t.Fatalf("ending a call must not advance, selected %q", f.queue.SelectedID())
	}
	snap := f.ctrl.Snapshot()
	if snap.State != Idle || snap.Recording || snap.Result != debtor.NoAnswer || snap.Note != "" {
		t.Fatalf("session not reset: %+v", snap)
	}
}

func TestDurationUsesWallClockNotTicks(t *testing.T) {
	for _, k := range []int{0, 1, 7, 59, 61, 600} {
		f := newFixture(t)
		f.queue.Select("B")
		f.ctrl.StartCall()
		// Jump the clock without firing ticks: every tick is "missed".
		f.clock.Advance(time.Duration(k)*time.Second + 400*time.Millisecond)
		rec, err := f.ctrl.EndCall()
		if err != nil {
			t.Fatalf("EndCall: %v", err)
		}
		if rec.Duration != k {
			t.Fatalf("k=%d: duration = %d", k, rec.Duration)
		}
		if f.log.Len() != 1 {
			t.Fatalf("k=%d: expected exactly one interaction, got %d", k, f.log.Len())
		}
	}
}

func TestNoTickAfterEndCall(t *testing.T) {
	f := newFixture(t)
	f.queue.Select("A")
	f.ctrl.StartCall()
	armed := f.sched.Armed()
	if len(armed) != 1 {
		t.Fatalf("expected one armed tick, got %d", len(armed))
	}
	f.clock.Advance(3 * time.Second)
	f.ctrl.EndCall()

	if f.sched.Fire(armed[0]) {
		t.Fatalf("stale call tick fired after EndCall")
	}
	if f.ctrl.Snapshot().Elapsed != 0 {
		t.Fatalf("stale tick mutated the display timer")
	}
	if f.sched.Len() != 0 {
		t.Fatalf("tick leaked: %v", f.sched.Names())
	}
}

func TestRepeatedCallsDoNotLeakTicks(t *testing.T) {
	f := newFixture(t)
	f.queue.Select("A")
	for i := 0; i < 20; i++ {
		if err := f.ctrl.Toggle(); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		f.wait(2 * time.Second)
		if err := f.ctrl.Toggle(); err != nil {
			t.Fatalf("end %d: %v", i, err)
		}
	}
	if f.sched.Len() != 0 {
		t.Fatalf("live tasks after cycles: %v", f.sched.Names())
	}
	if f.log.Len() != 20 {
		t.Fatalf("interactions = %d", f.log.Len())
	}
}

func TestCallStaysBoundToCapturedDebtor(t *testing.T) {
	f := newFixture(t)
	f.queue.Select("A")
	f.ctrl.StartCall()
	f.queue.Advance()
	f.ctrl.SelectionChanged()
	if f.ctrl.State() != Active {
		t.Fatalf("selection change must not end the call")
	}
	f.wait(10 * time.Second)
	rec, err := f.ctrl.EndCall()
	if err != nil {
		t.Fatalf("EndCall: %v", err)
	}
	if rec.DebtorID != "A" {
		t.Fatalf("interaction went to %q, want A", rec.DebtorID)
	}
	b, _ := f.queue.Get("B")
	a, _ := f.queue.Get("A")
	if a.Attempts != 1 || b.Attempts != 0 {
		t.Fatalf("attempt counted on wrong debtor: A=%d B=%d", a.Attempts, b.Attempts)
	}
}

func TestEndCallWhileIdle(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ctrl.EndCall(); !errors.Is(err, ErrNoCall) {
		t.Fatalf("expected ErrNoCall, got %v", err)
	}
}

func TestSaveWithoutCall(t *testing.T) {
	tests := []struct {
		result       debtor.ResultCode
		wantAttempts int
		wantOut      debtor.Money
	}{
		{debtor.NoAnswer, 0, debtor.Rubles(12500)},
		{debtor.Decline, 0, debtor.Rubles(12500)},
		{debtor.PromiseToPay, 1, debtor.Rubles(11500)},
	}
	for _, tt := range tests {
		t.Run(string(tt.result), func(t *testing.T) {
			f := newFixture(t)
			f.queue.Select("A")
			f.ctrl.SetResultCode(tt.result)
			f.ctrl.SetNote("left a message")
			rec, err := f.ctrl.SaveWithoutCall()
			if err != nil {
				t.Fatalf("SaveWithoutCall: %v", err)
			}
			if rec.Duration != 0 || rec.Note != "left a message" || rec.Result != tt.result {
				t.Fatalf("unexpected record %+v", rec)
			}
			a, _ := f.queue.Get("A")
			if a.Attempts != tt.wantAttempts || a.Outstanding != tt.wantOut {
				t.Fatalf("debtor = attempts %d outstanding %s", a.Attempts, a.Outstanding)
			}
			if snap := f.ctrl.Snapshot(); snap.Note != "" {
				t.Fatalf("note not cleared: %q", snap.Note)
			}
		})
	}
}

func TestSaveWithoutCallRefusedWhileActive(t *testing.T) {
	f := newFixture(t)
	f.queue.Select("A")
	f.ctrl.StartCall()
	if _, err := f.ctrl.SaveWithoutCall(); !errors.Is(err, ErrCallActive) {
		t.Fatalf("expected ErrCallActive, got %v", err)
	}
	if f.log.Len() != 0 {
		t.Fatalf("nothing should be logged")
	}
}

func TestSaveWithoutSelection(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ctrl.SaveWithoutCall(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestSaveEndsLiveCall(t *testing.T) {
	f := newFixture(t)
	f.queue.Select("B")
	f.ctrl.StartCall()
	f.wait(12 * time.Second)
	rec, err := f.ctrl.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if f.ctrl.State() != Idle || rec.Duration != 12 {
		t.Fatalf("Save while active should end the call, got state %s duration %d", f.ctrl.State(), rec.Duration)
	}
	rec, err = f.ctrl.Save()
	if err != nil || rec.Duration != 0 {
		t.Fatalf("Save while idle should save without call: %+v %v", rec, err)
	}
	if f.log.Len() != 2 {
		t.Fatalf("interactions = %d", f.log.Len())
	}
}

func TestRecordingToggleIsIndependent(t *testing.T) {
	f := newFixture(t)
	f.queue.Select("A")
	if !f.ctrl.ToggleRecording() {
		t.Fatalf("toggle while idle should turn recording on")
	}
	f.ctrl.StartCall()
	if f.ctrl.ToggleRecording() {
		t.Fatalf("toggle during call should turn recording off")
	}
	if f.ctrl.State() != Active {
		t.Fatalf("recording toggle must not affect the call")
	}
	f.ctrl.EndCall()
	if f.ctrl.Snapshot().Recording {
		t.Fatalf("ending the call switches recording off")
	}
}

func TestAnalyticsResultRoundTrips(t *testing.T) {
	f := newFixture(t)
	f.queue.Select("A")
	f.ctrl.SetResultCode(debtor.PartialPayment)
	rec, _ := f.ctrl.SaveWithoutCall()
	if rec.Result != debtor.PartialPayment {
		t.Fatalf("result = %s", rec.Result)
	}
}

func TestFormatTimer(t *testing.T) {
	for in, want := range map[int]string{0: "00:00", 45: "00:45", 61: "01:01", 3600: "60:00", -4: "00:00"} {
		if got := FormatTimer(in); got != want {
			t.Fatalf("FormatTimer(%d) = %s, want %s", in, got, want)
		}
	}
}
