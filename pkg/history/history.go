// Package history is the append-only log of completed interactions.
package history

import (
	"github.com/google/uuid"

	"tableflip.dev/desk/pkg/debtor"
)

// Sink receives every appended interaction, for example to persist it.
type Sink interface {
	AppendInteraction(i debtor.Interaction) error
}

// Log keeps interactions in insertion order. Records are never changed or
// removed once appended.
type Log struct {
	records  []debtor.Interaction
	byDebtor map[string][]int
	sink     Sink
	newID    func() string
}

// Option configures a Log.
type Option func(*Log)

// WithSink forwards appended records to s.
func WithSink(s Sink) Option {
	return func(l *Log) { l.sink = s }
}

// WithIDs replaces the uuid generator, mostly for tests.
func WithIDs(next func() string) Option {
	return func(l *Log) { l.newID = next }
}

// New returns an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		byDebtor: make(map[string][]int),
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load seeds the log with already persisted records, keeping their ids.
// Seeded records are not sent to the sink.
func (l *Log) Load(records ...debtor.Interaction) {
	for _, r := range records {
		if r.ID == "" {
			r.ID = l.newID()
		}
		l.push(r)
	}
}

// Append assigns a fresh id to rec, stores it and returns the stored copy.
// The returned error only reports a sink failure; the record is logged
// either way.
func (l *Log) Append(rec debtor.Interaction) (debtor.Interaction, error) {
	rec.ID = l.newID()
	if rec.Duration < 0 {
		rec.Duration = 0
	}
	l.push(rec)
	if l.sink != nil {
		if err := l.sink.AppendInteraction(rec); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func (l *Log) push(rec debtor.Interaction) {
	l.byDebtor[rec.DebtorID] = append(l.byDebtor[rec.DebtorID], len(l.records))
	l.records = append(l.records, rec)
}

// ForDebtor returns the debtor's interactions, most recent first.
func (l *Log) ForDebtor(id string) []debtor.Interaction {
	idx := l.byDebtor[id]
	out := make([]debtor.Interaction, 0, len(idx))
	for i := len(idx) - 1; i >= 0; i-- {
		out = append(out, l.records[idx[i]])
	}
	return out
}

// All returns every interaction, most recent first.
func (l *Log) All() []debtor.Interaction {
	out := make([]debtor.Interaction, 0, len(l.records))
	for i := len(l.records) - 1; i >= 0; i-- {
		out = append(out, l.records[i])
	}
	return out
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}
