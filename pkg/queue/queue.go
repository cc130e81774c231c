// Package queue holds the operator's ordered collection of debtors and the
// current selection within it.
package queue

import (
	"errors"
	"fmt"
	"time"

	"tableflip.dev/desk/pkg/debtor"
)

// PromiseDecrement is taken off the outstanding amount for every
// promise-to-pay outcome.
const PromiseDecrement = debtor.Money(1000 * 100)

// ErrNotFound is returned when an operation names a debtor that is not queued.
var ErrNotFound = errors.New("queue: debtor not found")

// Manager is the ordered debtor collection plus the current selection.
// Debtors are only ever appended; selection never reorders anything.
type Manager struct {
	items    []*debtor.Debtor
	index    map[string]int
	selected string
	lastSeq  int64
}

// New returns a manager seeded with debtors in the given order.
func New(seed ...*debtor.Debtor) *Manager {
	m := &Manager{index: make(map[string]int)}
	for _, d := range seed {
		m.Append(d)
	}
	return m
}

// Len returns the size of the unfiltered collection.
func (m *Manager) Len() int {
	return len(m.items)
}

// Get returns a copy of the debtor with id.
func (m *Manager) Get(id string) (*debtor.Debtor, bool) {
	i, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return m.items[i].Clone(), true
}

// List projects the collection through filters, keeping collection order.
func (m *Manager) List(filters ...Filter) []*debtor.Debtor {
	match := All(filters...)
	out := make([]*debtor.Debtor, 0, len(m.items))
	for _, d := range m.items {
		if match(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// Selected returns the current selection, if any.
func (m *Manager) Selected() (*debtor.Debtor, bool) {
	if m.selected == "" {
		return nil, false
	}
	return m.Get(m.selected)
}

// SelectedID returns the id of the current selection or "".
func (m *Manager) SelectedID() string {
	return m.selected
}

// Select makes id the current selection. An unknown id clears the selection.
func (m *Manager) Select(id string) (*debtor.Debtor, bool) {
	if _, ok := m.index[id]; !ok {
		m.selected = ""
		return nil, false
	}
	m.selected = id
	return m.Get(id)
}

// Advance moves the selection to the debtor after the current one in the
// full collection order, wrapping to the first. Filters are not consulted.
func (m *Manager) Advance() (*debtor.Debtor, bool) {
	if len(m.items) == 0 {
		m.selected = ""
		return nil, false
	}
	next := 0
	if i, ok := m.index[m.selected]; ok {
		next = (i + 1) % len(m.items)
	}
	m.selected = m.items[next].ID
	return m.items[next].Clone(), true
}

// Append adds d to the tail. The selection is left alone. A debtor whose id
// is already queued is rejected. The queued copy keeps d's Seq when it is
// past the current tail and is otherwise given the next one.
func (m *Manager) Append(d *debtor.Debtor) error {
	if d == nil || d.ID == "" {
		return errors.New("queue: debtor id required")
	}
	if _, ok := m.index[d.ID]; ok {
		return fmt.Errorf("queue: debtor %s already queued", d.ID)
	}
	cp := d.Clone()
	if cp.Seq <= m.lastSeq {
		cp.Seq = m.lastSeq + 1
	}
	m.lastSeq = cp.Seq
	m.index[d.ID] = len(m.items)
	m.items = append(m.items, cp)
	return nil
}

// RecordAttempt counts a contact with id at now. A promise to pay also takes
// PromiseDecrement off the outstanding amount, never going below zero.
func (m *Manager) RecordAttempt(id string, outcome debtor.ResultCode, now time.Time) (*debtor.Debtor, error) {
	i, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	d := m.items[i]
	d.Attempts++
	when := now
	d.LastContact = &when
	if outcome == debtor.PromiseToPay {
		d.Outstanding -= PromiseDecrement
		if d.Outstanding < 0 {
			d.Outstanding = 0
		}
	}
	return d.Clone(), nil
}
