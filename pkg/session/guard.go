// Package session guards the authenticated operator session: it persists the
// principal with a throttled activity clock and evicts the session after a
// period of inactivity.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"tableflip.dev/desk/pkg/clock"
)

const (
	// DefaultIdleTimeout ends a session after this long without activity.
	DefaultIdleTimeout = 10 * time.Minute
	// DefaultThrottle is the minimum gap between activity writes.
	DefaultThrottle = 30 * time.Second
	// DefaultCheckInterval is how often the persisted clock is re-read.
	DefaultCheckInterval = 60 * time.Second
)

// Store is the persisted slot holding the session record. Read returns
// (nil, nil) when no record exists.
type Store interface {
	ReadSession() ([]byte, error)
	WriteSession(data []byte) error
	EraseSession() error
}

// Scheduler supplies time and the repeating idle check.
type Scheduler interface {
	Now() time.Time
	Every(name string, interval time.Duration, fn func(now time.Time)) *clock.Task
}

// Policy holds the guard's timing constants.
type Policy struct {
	IdleTimeout   time.Duration
	Throttle      time.Duration
	CheckInterval time.Duration
}

// DefaultPolicy returns the production timings.
func DefaultPolicy() Policy {
	return Policy{
		IdleTimeout:   DefaultIdleTimeout,
		Throttle:      DefaultThrottle,
		CheckInterval: DefaultCheckInterval,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.IdleTimeout <= 0 {
		p.IdleTimeout = d.IdleTimeout
	}
	if p.Throttle <= 0 {
		p.Throttle = d.Throttle
	}
	if p.CheckInterval <= 0 {
		p.CheckInterval = d.CheckInterval
	}
	return p
}

// State is the guard state.
type State int

const (
	LoggedOut State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "logged out"
}

// Reason explains the most recent transition.
type Reason string

const (
	ReasonLogin      Reason = "login"
	ReasonRestored   Reason = "restored"
	ReasonLogout     Reason = "logout"
	ReasonIdle       Reason = "idle timeout"
	ReasonElsewhere  Reason = "session ended elsewhere"
	ReasonUnreadable Reason = "unreadable session"
	ReasonNoSession  Reason = "no session"
)

// Status is what observers see.
type Status struct {
	State     State
	Principal Principal
	// LastActivity is the persisted instant that governs eviction.
	LastActivity time.Time
	// LastSeen is the most recent observed event, written or not.
	LastSeen time.Time
	Reason   Reason
}

// Guard is the idle-session state machine.
type Guard struct {
	store  Store
	sched  Scheduler
	policy Policy
	logger *slog.Logger

	state     State
	principal Principal
	lastWrite time.Time
	lastSeen  time.Time
	reason    Reason
	check     *clock.Task

	nextObserver int
	observers    map[int]func(Status)
}

// Option configures a Guard.
type Option func(*Guard)

// WithPolicy overrides the timings; zero fields keep their defaults.
func WithPolicy(p Policy) Option {
	return func(g *Guard) { g.policy = p.withDefaults() }
}

// WithLogger sets the transition logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGuard returns a logged-out guard. Call Restore to pick up a persisted
// session.
func NewGuard(store Store, sched Scheduler, opts ...Option) *Guard {
	g := &Guard{
		store:     store,
		sched:     sched,
		policy:    DefaultPolicy(),
		logger:    slog.New(slog.DiscardHandler),
		reason:    ReasonNoSession,
		observers: make(map[int]func(Status)),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Policy returns the effective timings.
func (g *Guard) Policy() Policy { return g.policy }

// Status returns the current status.
func (g *Guard) Status() Status {
	return Status{
		State:        g.state,
		Principal:    g.principal,
		LastActivity: g.lastWrite,
		LastSeen:     g.lastSeen,
		Reason:       g.reason,
	}
}

// Subscribe registers fn for every state transition and returns a function
// that removes it.
func (g *Guard) Subscribe(fn func(Status)) func() {
	g.nextObserver++
	id := g.nextObserver
	g.observers[id] = fn
	return func() { delete(g.observers, id) }
}

func (g *Guard) notify() {
	st := g.Status()
	for _, fn := range g.observers {
		fn(st)
	}
}

// Restore reads the persisted record at startup. A fresh record restores the
// session; a stale, unreadable or missing one leaves the guard logged out and
// removes whatever was stored.
func (g *Guard) Restore() Status {
	if g.state == Active {
		return g.Status()
	}
	rec, reason, ok := g.read()
	if !ok {
		g.reason = reason
		return g.Status()
	}
	now := g.sched.Now()
	if now.Sub(rec.At()) >= g.policy.IdleTimeout {
		g.logger.Info("persisted session expired", "user", rec.User.Name, "idle", now.Sub(rec.At()))
		g.erase()
		g.reason = ReasonIdle
		return g.Status()
	}
	g.activate(rec.User, rec.At(), ReasonRestored)
	return g.Status()
}

// read loads and decodes the record. ok is false when there is no usable
// record; unusable ones are erased.
func (g *Guard) read() (Record, Reason, bool) {
	data, err := g.store.ReadSession()
	if err != nil {
		g.logger.Warn("session read failed", "error", fmt.Errorf("%w: %v", ErrPersistenceRead, err))
		g.erase()
		return Record{}, ReasonUnreadable, false
	}
	if data == nil {
		return Record{}, ReasonNoSession, false
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		g.logger.Warn("discarding session record", "error", err)
		g.erase()
		return Record{}, ReasonUnreadable, false
	}
	return rec, "", true
}

// Login starts a session for p and persists it immediately.
func (g *Guard) Login(p Principal) error {
	if g.state == Active {
		g.deactivate(ReasonLogout)
	}
	now := g.sched.Now()
	if err := g.write(p, now); err != nil {
		return fmt.Errorf("session: persist login: %w", err)
	}
	g.activate(p, now, ReasonLogin)
	return nil
}

func (g *Guard) activate(p Principal, last time.Time, reason Reason) {
	g.state = Active
	g.principal = p
	g.lastWrite = last
	g.lastSeen = last
	g.reason = reason
	g.check.Cancel()
	g.check = g.sched.Every("idle-check", g.policy.CheckInterval, func(time.Time) { g.Check() })
	g.logger.Info("session active", "user", p.Name, "role", p.Role, "reason", reason)
	g.notify()
}

func (g *Guard) deactivate(reason Reason) {
	g.check.Cancel()
	g.check = nil
	user := g.principal.Name
	g.state = LoggedOut
	g.principal = Principal{}
	g.lastWrite = time.Time{}
	g.lastSeen = time.Time{}
	g.reason = reason
	g.logger.Info("session ended", "user", user, "reason", reason)
	g.notify()
}

func (g *Guard) write(p Principal, at time.Time) error {
	data, err := NewRecord(p, at).Encode()
	if err != nil {
		return err
	}
	return g.store.WriteSession(data)
}

func (g *Guard) erase() {
	if err := g.store.EraseSession(); err != nil {
		g.logger.Warn("session erase failed", "error", err)
	}
}

// Activity is a kind of user input that counts as presence.
type Activity string

const (
	PointerPress Activity = "pointer-press"
	PointerMove  Activity = "pointer-move"
	KeyPress     Activity = "key-press"
	Scroll       Activity = "scroll"
	Touch        Activity = "touch"
	Click        Activity = "click"
)

// MarkActivity records user presence. The store is only rewritten when at
// least one throttle interval passed since the last write; it reports
// whether a write happened.
func (g *Guard) MarkActivity(kind Activity) bool {
	if g.state != Active {
		return false
	}
	now := g.sched.Now()
	if now.After(g.lastSeen) {
		g.lastSeen = now
	}
	if now.Sub(g.lastWrite) < g.policy.Throttle {
		return false
	}
	if err := g.write(g.principal, now); err != nil {
		g.logger.Warn("activity write failed", "kind", kind, "error", err)
		return false
	}
	g.lastWrite = now
	g.logger.Debug("activity persisted", "kind", kind)
	return true
}

// Check re-reads the persisted record and ends the session when it is idle
// past the timeout, unreadable, or gone. It runs on the idle-check task and
// may also be called directly, for example when the store changes.
func (g *Guard) Check() Status {
	if g.state != Active {
		return g.Status()
	}
	rec, reason, ok := g.read()
	if !ok {
		if reason == ReasonNoSession {
			reason = ReasonElsewhere
		}
		g.deactivate(reason)
		return g.Status()
	}
	now := g.sched.Now()
	if now.Sub(rec.At()) >= g.policy.IdleTimeout {
		g.erase()
		g.deactivate(ReasonIdle)
		return g.Status()
	}
	if rec.At().After(g.lastWrite) {
		g.lastWrite = rec.At()
	}
	return g.Status()
}

// Logout ends the session and removes the persisted record regardless of
// its age.
func (g *Guard) Logout() {
	g.erase()
	if g.state == Active {
		g.deactivate(ReasonLogout)
	}
}
