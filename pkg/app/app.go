// Package app wires the desk together. Desk is the single funnel both the
// console and the keyboard shortcuts go through, so a command behaves the
// same however it was issued.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tableflip.dev/desk/pkg/auth"
	"tableflip.dev/desk/pkg/call"
	"tableflip.dev/desk/pkg/clock"
	"tableflip.dev/desk/pkg/debtor"
	"tableflip.dev/desk/pkg/history"
	"tableflip.dev/desk/pkg/ingest"
	"tableflip.dev/desk/pkg/keys"
	"tableflip.dev/desk/pkg/logging"
	"tableflip.dev/desk/pkg/queue"
	"tableflip.dev/desk/pkg/session"
	"tableflip.dev/desk/pkg/store"
)

// ErrLoggedOut is returned by desk commands issued without a session.
var ErrLoggedOut = errors.New("app: not logged in")

// Config assembles a Desk. Zero values pick in-memory storage, the system
// clock, the demo directory and default timings.
type Config struct {
	Persistence store.Persistence
	Clock       clock.Clock
	Directory   *auth.Directory
	Policy      session.Policy
	// IngestInterval paces synthetic arrivals; negative disables them.
	IngestInterval time.Duration
	// Seed feeds the synthetic generator; zero derives one from the clock.
	Seed uint64
}

// Desk is the operator console's service layer. It is not safe for
// concurrent use; the console's event loop owns it.
type Desk struct {
	persistence store.Persistence
	sched       *clock.Scheduler
	directory   *auth.Directory
	queue       *queue.Manager
	history     *history.Log
	calls       *call.Controller
	guard       *session.Guard
	keys        *keys.Dispatcher
	generator   *ingest.Generator
	logger      *slog.Logger

	ingestInterval time.Duration
	ingestTask     *clock.Task

	preset queue.Preset
	search string
}

// New builds a desk and loads the queue and history from persistence,
// seeding both on first run. The persisted session is not restored until
// Restore is called.
func New(ctx context.Context, cfg Config) (*Desk, error) {
	logger := logging.FromContext(ctx)
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Directory == nil {
		cfg.Directory = auth.Demo()
	}
	if cfg.IngestInterval == 0 {
		cfg.IngestInterval = ingest.DefaultInterval
	}
	if cfg.Persistence == nil {
		cfg.Persistence = NewMemoryPersistence()
	}
	sched := clock.NewScheduler(cfg.Clock)
	if cfg.Seed == 0 {
		cfg.Seed = uint64(sched.Now().UnixNano())
	}

	d := &Desk{
		persistence:    cfg.Persistence,
		sched:          sched,
		directory:      cfg.Directory,
		generator:      ingest.NewGenerator(cfg.Seed),
		logger:         logger,
		ingestInterval: cfg.IngestInterval,
	}

	debtors := cfg.Persistence.Debtors(ctx)
	seeding := len(debtors) == 0
	if seeding {
		debtors = ingest.Seed()
	}
	d.queue = queue.New(debtors...)
	if seeding {
		for _, dd := range d.queue.List() {
			if err := cfg.Persistence.SaveDebtor(dd); err != nil {
				return nil, fmt.Errorf("app: seed debtors: %w", err)
			}
		}
	}

	records := cfg.Persistence.Interactions(ctx)
	if len(records) == 0 {
		records = ingest.SeedHistory()
		for _, r := range records {
			if err := cfg.Persistence.AppendInteraction(r); err != nil {
				return nil, fmt.Errorf("app: seed history: %w", err)
			}
		}
	}
	d.history = history.New(history.WithSink(cfg.Persistence))
	d.history.Load(records...)

	d.calls = call.New(&trackedQueue{Manager: d.queue, d: d}, d.history, sched, call.WithLogger(logger))
	d.guard = session.NewGuard(cfg.Persistence, sched,
		session.WithPolicy(cfg.Policy),
		session.WithLogger(logger),
	)
	d.guard.Subscribe(d.sessionChanged)
	d.keys = keys.NewDispatcher(d)

	if first := d.queue.List(); len(first) > 0 {
		d.queue.Select(first[0].ID)
	}
	return d, nil
}

// trackedQueue writes every counted attempt through to persistence.
type trackedQueue struct {
	*queue.Manager
	d *Desk
}

func (q *trackedQueue) RecordAttempt(id string, outcome debtor.ResultCode, now time.Time) (*debtor.Debtor, error) {
	updated, err := q.Manager.RecordAttempt(id, outcome, now)
	if err != nil {
		return nil, err
	}
	if err := q.d.persistence.SaveDebtor(updated); err != nil {
		q.d.logger.Warn("persist debtor", "debtor", id, "error", err)
	}
	return updated, nil
}

// sessionChanged starts the desk's background work on login and stops it on
// logout. A call still live when the session ends is closed and logged.
func (d *Desk) sessionChanged(st session.Status) {
	if st.State == session.Active {
		if !d.ingestTask.Active() && d.ingestInterval > 0 {
			d.ingestTask = d.sched.Every("ingest", d.ingestInterval, d.ingest)
		}
		return
	}
	d.ingestTask.Cancel()
	d.ingestTask = nil
	if d.calls.State() == call.Active {
		if _, err := d.calls.EndCall(); err != nil {
			d.logger.Warn("end call on logout", "error", err)
		}
	}
	d.calls.SelectionChanged()
}

func (d *Desk) ingest(now time.Time) {
	dd := d.generator.Next(now)
	if err := d.queue.Append(dd); err != nil {
		d.logger.Warn("ingest", "debtor", dd.ID, "error", err)
		return
	}
	dd, _ = d.queue.Get(dd.ID)
	if err := d.persistence.SaveDebtor(dd); err != nil {
		d.logger.Warn("persist debtor", "debtor", dd.ID, "error", err)
	}
	d.logger.Debug("debtor ingested", "debtor", dd.ID, "outstanding", dd.Outstanding.String())
}

// Close cancels the desk's repeating tasks.
func (d *Desk) Close() {
	d.ingestTask.Cancel()
	d.ingestTask = nil
	if d.calls.State() == call.Active {
		if _, err := d.calls.EndCall(); err != nil {
			d.logger.Warn("end call on close", "error", err)
		}
	}
}

// Now reads the desk clock.
func (d *Desk) Now() time.Time { return d.sched.Now() }

// Armed drains the ticks the host must schedule.
func (d *Desk) Armed() []clock.Tick { return d.sched.Armed() }

// Fire runs a tick the host scheduled earlier; stale ticks are ignored.
func (d *Desk) Fire(tick clock.Tick) bool { return d.sched.Fire(tick) }

// FireDue runs everything due on the desk clock. Hosts driving a manual
// clock use it instead of Armed and Fire.
func (d *Desk) FireDue() int { return d.sched.FireDue() }

// Tasks lists the live repeating tasks.
func (d *Desk) Tasks() []string { return d.sched.Names() }

// Session

// Restore picks up a persisted session.
func (d *Desk) Restore() session.Status { return d.guard.Restore() }

// Login authenticates and starts a session.
func (d *Desk) Login(username, password string) (session.Principal, error) {
	p, err := d.directory.Login(username, password)
	if err != nil {
		d.logger.Info("login rejected", "user", username)
		return session.Principal{}, err
	}
	if err := d.guard.Login(p); err != nil {
		return session.Principal{}, err
	}
	return p, nil
}

// Logout ends the session.
func (d *Desk) Logout() { d.guard.Logout() }

// Policy returns the idle-session timings in force.
func (d *Desk) Policy() session.Policy { return d.guard.Policy() }

// Session returns the guard status.
func (d *Desk) Session() session.Status { return d.guard.Status() }

// LoggedIn reports whether a session is active.
func (d *Desk) LoggedIn() bool { return d.guard.Status().State == session.Active }

// SubscribeSession registers fn for session transitions.
func (d *Desk) SubscribeSession(fn func(session.Status)) func() {
	return d.guard.Subscribe(fn)
}

// MarkActivity records operator presence.
func (d *Desk) MarkActivity(kind session.Activity) bool {
	return d.guard.MarkActivity(kind)
}

// StoreChanged reacts to a change made by this or another process.
func (d *Desk) StoreChanged(ev store.Event) {
	switch ev.Type {
	case store.EventSessionChanged, store.EventInvalidated:
		d.guard.Check()
	default:
		d.logger.Debug("store changed", "type", ev.Type.String())
	}
}

// Commands

func (d *Desk) requireSession() error {
	if !d.LoggedIn() {
		return ErrLoggedOut
	}
	return nil
}

// Key routes a shortcut key. Shortcuts are off while logged out or while
// inputFocused.
func (d *Desk) Key(key string, inputFocused bool) (keys.Command, bool, error) {
	return d.keys.Dispatch(key, keys.Focus{LoggedIn: d.LoggedIn(), InputFocused: inputFocused})
}

// Next advances the selection and resets the pending result and note.
func (d *Desk) Next() error {
	if err := d.requireSession(); err != nil {
		return err
	}
	d.queue.Advance()
	d.calls.SelectionChanged()
	return nil
}

// Select moves the selection to id; an unknown id clears it.
func (d *Desk) Select(id string) bool {
	if id == d.queue.SelectedID() {
		return id != ""
	}
	_, ok := d.queue.Select(id)
	d.calls.SelectionChanged()
	return ok
}

// ToggleCall starts or ends the call.
func (d *Desk) ToggleCall() error {
	if err := d.requireSession(); err != nil {
		return err
	}
	return d.calls.Toggle()
}

// Save ends a live call, or saves the pending result without one.
func (d *Desk) Save() error {
	_, err := d.SaveInteraction()
	return err
}

// SaveInteraction is Save returning the logged interaction.
func (d *Desk) SaveInteraction() (debtor.Interaction, error) {
	if err := d.requireSession(); err != nil {
		return debtor.Interaction{}, err
	}
	return d.calls.Save()
}

// SetResult sets the pending result code.
func (d *Desk) SetResult(code debtor.ResultCode) { d.calls.SetResultCode(code) }

// CycleResult moves the pending result to the next console code.
func (d *Desk) CycleResult() debtor.ResultCode {
	next := d.calls.Snapshot().Result.NextConsole()
	d.calls.SetResultCode(next)
	return next
}

// SetNote sets the pending note.
func (d *Desk) SetNote(note string) { d.calls.SetNote(note) }

// ToggleRecording flips the recording flag.
func (d *Desk) ToggleRecording() bool { return d.calls.ToggleRecording() }

// Call returns the call session snapshot.
func (d *Desk) Call() call.Snapshot { return d.calls.Snapshot() }

// Queue views

// SetSearch sets the search query of the visible list.
func (d *Desk) SetSearch(q string) { d.search = q }

// Search returns the current search query.
func (d *Desk) Search() string { return d.search }

// CycleFilter moves to the next filter preset.
func (d *Desk) CycleFilter() queue.Preset {
	d.preset = d.preset.Next()
	return d.preset
}

// SetFilter sets the filter preset.
func (d *Desk) SetFilter(p queue.Preset) { d.preset = p }

// Filter returns the active preset.
func (d *Desk) Filter() queue.Preset { return d.preset }

// Visible lists the debtors passing the preset and search.
func (d *Desk) Visible() []*debtor.Debtor {
	return d.queue.List(d.preset.Filter(), queue.Search(d.search))
}

// Total returns the size of the whole queue.
func (d *Desk) Total() int { return d.queue.Len() }

// Selected returns the selected debtor.
func (d *Desk) Selected() (*debtor.Debtor, bool) { return d.queue.Selected() }

// Debtor looks up a debtor by id.
func (d *Desk) Debtor(id string) (*debtor.Debtor, bool) { return d.queue.Get(id) }

// History returns the interactions for id, most recent first.
func (d *Desk) History(id string) []debtor.Interaction { return d.history.ForDebtor(id) }

// AllHistory returns every interaction, most recent first.
func (d *Desk) AllHistory() []debtor.Interaction { return d.history.All() }
