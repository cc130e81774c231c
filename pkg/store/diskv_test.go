package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tableflip.dev/desk/pkg/debtor"
)

type testConfig struct {
	path string
}

func (t testConfig) BasePath() string {
	return t.path
}

func load(t *testing.T) (Persistence, string) {
	t.Helper()
	base := t.TempDir()
	p, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load persistence: %v", err)
	}
	return p, base
}

func TestSessionSlot(t *testing.T) {
	p, base := load(t)

	got, err := p.ReadSession()
	if err != nil || got != nil {
		t.Fatalf("empty store read = %q, %v", got, err)
	}
	if err := p.EraseSession(); err != nil {
		t.Fatalf("erasing an absent session should be a no-op: %v", err)
	}

	record := []byte(`{"user":{"name":"Ivanov I.I.","role":"operator"},"lastActivity":1731229200000}`)
	if err := p.WriteSession(record); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, SessionKey)); err != nil {
		t.Fatalf("session file not at base path: %v", err)
	}
	got, err = p.ReadSession()
	if err != nil || string(got) != string(record) {
		t.Fatalf("read = %q, %v", got, err)
	}

	// A second process sees and overwrites the same slot.
	other, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatal(err)
	}
	if err := other.EraseSession(); err != nil {
		t.Fatal(err)
	}
	if got, _ := p.ReadSession(); got != nil {
		t.Fatalf("erase by another process not visible: %q", got)
	}
}

func TestInteractionsRoundTrip(t *testing.T) {
	p, _ := load(t)
	at := time.Date(2025, time.November, 5, 14, 20, 0, 0, time.UTC)
	records := []debtor.Interaction{
		{ID: "b1c2-later", DebtorID: "d2", Channel: debtor.ChannelPhone, At: at.Add(time.Hour), Duration: 45, Result: debtor.PromiseToPay},
		{ID: "a0b1-earlier", DebtorID: "d1", Channel: debtor.ChannelSMS, At: at, Result: debtor.NoAnswer, Note: "left voicemail"},
	}
	for _, r := range records {
		if err := p.AppendInteraction(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := p.AppendInteraction(debtor.Interaction{}); err == nil {
		t.Fatalf("expected error for an interaction without id")
	}
	got := p.Interactions(context.Background())
	if len(got) != 2 {
		t.Fatalf("got %d interactions", len(got))
	}
	if got[0].ID != "a0b1-earlier" || got[1].ID != "b1c2-later" {
		t.Fatalf("order = %s, %s", got[0].ID, got[1].ID)
	}
	if got[1].Duration != 45 || got[1].Result != debtor.PromiseToPay || !got[1].At.Equal(at.Add(time.Hour)) {
		t.Fatalf("decoded %+v", got[1])
	}
}

func TestDebtorsSkipGarbage(t *testing.T) {
	p, base := load(t)
	d := &debtor.Debtor{ID: "d1", Name: "Ivanov", Outstanding: debtor.Rubles(12500.5), DaysPastDue: 45}
	if err := p.SaveDebtor(d); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, debtorPrefix, "broken"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := p.Debtors(context.Background())
	if len(got) != 1 || got[0].ID != "d1" || got[0].Outstanding != d.Outstanding {
		t.Fatalf("debtors = %+v", got)
	}
}

func TestDebtorsInArrivalOrder(t *testing.T) {
	p, _ := load(t)
	for _, d := range []*debtor.Debtor{
		{ID: "d1762765230000", Seq: 4},
		{ID: "d2", Seq: 2},
		{ID: "d1", Seq: 1},
		{ID: "d3", Seq: 3},
	} {
		if err := p.SaveDebtor(d); err != nil {
			t.Fatal(err)
		}
	}
	got := p.Debtors(context.Background())
	want := []string{"d1", "d2", "d3", "d1762765230000"}
	if len(got) != len(want) {
		t.Fatalf("debtors = %+v", got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestKeyTransform(t *testing.T) {
	tests := []string{SessionKey, "interaction-5f1c-4a2b", "debtor-d1"}
	for _, key := range tests {
		if got := pathToKeyTransform(keyToPathTransform(key)); got != key {
			t.Fatalf("round trip %q -> %q", key, got)
		}
	}
	if pk := keyToPathTransform(SessionKey); len(pk.Path) != 0 {
		t.Fatalf("session key should live at the base path, got %v", pk.Path)
	}
}
