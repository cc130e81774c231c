package store

import (
	"context"
	"testing"
	"time"

	"tableflip.dev/desk/pkg/debtor"
)

func waitFor(t *testing.T, ch <-chan Event, want EventType) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				t.Fatalf("watch channel closed")
			}
			if evt.Type == want || evt.Type == EventInvalidated {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}

func TestPersistenceWatchEmitsSessionChanges(t *testing.T) {
	p, _ := load(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	if err := p.WriteSession([]byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ch, EventSessionChanged)

	if err := p.EraseSession(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ch, EventSessionChanged)
}

func TestPersistenceWatchEmitsInteractionChanges(t *testing.T) {
	p, _ := load(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	rec := debtor.Interaction{ID: "x1", DebtorID: "d1", Channel: debtor.ChannelPhone, At: time.Now(), Result: debtor.NoAnswer}
	if err := p.AppendInteraction(rec); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ch, EventInteractionsChanged)
}

func TestWatchClosesOnCancel(t *testing.T) {
	p, _ := load(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel not closed after cancel")
		}
	}
}

func TestClassify(t *testing.T) {
	p := &persistence{basePath: "/var/desk"}
	tests := []struct {
		path string
		want EventType
		ok   bool
	}{
		{path: "/var/desk/collection_user", want: EventSessionChanged, ok: true},
		{path: "/var/desk/interaction/abc", want: EventInteractionsChanged, ok: true},
		{path: "/var/desk/debtor/d1", want: EventDebtorsChanged, ok: true},
		{path: "/var/desk/desk.log"},
		{path: "/var/desk/.tmp/123"},
		{path: "/var/desk"},
	}
	for _, tt := range tests {
		got, ok := p.classify(tt.path)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("%s: got (%s, %v)", tt.path, got, ok)
		}
	}
}
