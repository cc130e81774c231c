package history

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"tableflip.dev/desk/pkg/debtor"
)

type recordingSink struct {
	got []debtor.Interaction
	err error
}

func (r *recordingSink) AppendInteraction(i debtor.Interaction) error {
	r.got = append(r.got, i)
	return r.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("int-%d", n)
	}
}

func TestAppendAssignsUniqueIDs(t *testing.T) {
	l := New()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		rec, err := l.Append(debtor.Interaction{DebtorID: "d1", Result: debtor.NoAnswer})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if rec.ID == "" || seen[rec.ID] {
			t.Fatalf("duplicate or empty id %q", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestForDebtorMostRecentFirst(t *testing.T) {
	l := New(WithIDs(sequentialIDs()))
	base := time.Date(2025, time.November, 5, 14, 0, 0, 0, time.UTC)
	l.Append(debtor.Interaction{DebtorID: "d1", At: base, Note: "first"})
	l.Append(debtor.Interaction{DebtorID: "d2", At: base.Add(time.Minute), Note: "other"})
	l.Append(debtor.Interaction{DebtorID: "d1", At: base.Add(2 * time.Minute), Note: "second"})

	got := l.ForDebtor("d1")
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Note != "second" || got[1].Note != "first" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(l.ForDebtor("nobody")) != 0 {
		t.Fatalf("expected empty history for unknown debtor")
	}
	all := l.All()
	if all[0].ID != "int-3" || all[2].ID != "int-1" {
		t.Fatalf("All() order = %v", all)
	}
}

func TestAppendForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	l := New(WithSink(sink))
	l.Load(debtor.Interaction{ID: "seed", DebtorID: "d1"})
	rec, _ := l.Append(debtor.Interaction{DebtorID: "d1", Duration: -3})
	if len(sink.got) != 1 || sink.got[0].ID != rec.ID {
		t.Fatalf("sink got %+v", sink.got)
	}
	if rec.Duration != 0 {
		t.Fatalf("negative duration should clamp, got %d", rec.Duration)
	}
	if l.Len() != 2 {
		t.Fatalf("len = %d", l.Len())
	}
}

func TestSinkFailureStillLogs(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	l := New(WithSink(sink))
	if _, err := l.Append(debtor.Interaction{DebtorID: "d1"}); err == nil {
		t.Fatalf("expected sink error to surface")
	}
	if l.Len() != 1 {
		t.Fatalf("record should be kept despite sink failure")
	}
}
