package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"tableflip.dev/desk/pkg/debtor"
	"tableflip.dev/desk/pkg/store"
)

// MemoryPersistence keeps the desk's state in process. It backs desks run
// without a store directory and tests.
type MemoryPersistence struct {
	mu           sync.Mutex
	session      []byte
	interactions []debtor.Interaction
	debtors      map[string]*debtor.Debtor
	writes       int
}

var _ store.Persistence = (*MemoryPersistence)(nil)

// NewMemoryPersistence returns an empty in-memory store.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{debtors: make(map[string]*debtor.Debtor)}
}

func (m *MemoryPersistence) ReadSession() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	return append([]byte(nil), m.session...), nil
}

func (m *MemoryPersistence) WriteSession(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.session = append([]byte(nil), data...)
	return nil
}

func (m *MemoryPersistence) EraseSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// SessionWrites counts session writes.
func (m *MemoryPersistence) SessionWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemoryPersistence) AppendInteraction(i debtor.Interaction) error {
	if i.ID == "" {
		return errors.New("app: interaction id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, i)
	return nil
}

func (m *MemoryPersistence) Interactions(context.Context) []debtor.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]debtor.Interaction(nil), m.interactions...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].At.Before(out[b].At) })
	return out
}

func (m *MemoryPersistence) SaveDebtor(d *debtor.Debtor) error {
	if d == nil || d.ID == "" {
		return errors.New("app: debtor id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debtors[d.ID] = d.Clone()
	return nil
}

func (m *MemoryPersistence) Debtors(context.Context) []*debtor.Debtor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*debtor.Debtor, 0, len(m.debtors))
	for _, d := range m.debtors {
		out = append(out, d.Clone())
	}
	debtor.SortBySeq(out)
	return out
}

// Watch returns a channel that closes with ctx; nothing else shares an
// in-memory store.
func (m *MemoryPersistence) Watch(ctx context.Context) (<-chan store.Event, error) {
	ch := make(chan store.Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
