// Package call implements the operator's call session: a two-state machine
// bound to one debtor that times the call and records its outcome.
package call

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tableflip.dev/desk/pkg/clock"
	"tableflip.dev/desk/pkg/debtor"
)

var (
	// ErrNoSelection is returned when an operation needs a selected debtor.
	ErrNoSelection = errors.New("call: no debtor selected")
	// ErrCallActive is returned by operations that are only valid while idle.
	ErrCallActive = errors.New("call: a call is in progress")
	// ErrNoCall is returned by EndCall while idle.
	ErrNoCall = errors.New("call: no call in progress")
)

// TickInterval is how often the display timer refreshes while a call is live.
const TickInterval = time.Second

// State is the call session state.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	default:
		return "idle"
	}
}

// Queue is the part of the queue manager the controller drives.
type Queue interface {
	Selected() (*debtor.Debtor, bool)
	RecordAttempt(id string, outcome debtor.ResultCode, now time.Time) (*debtor.Debtor, error)
}

// Log receives completed interactions.
type Log interface {
	Append(rec debtor.Interaction) (debtor.Interaction, error)
}

// Scheduler supplies time and the repeating display tick.
type Scheduler interface {
	Now() time.Time
	Every(name string, interval time.Duration, fn func(now time.Time)) *clock.Task
}

// Controller is the call session for the currently selected debtor.
type Controller struct {
	queue  Queue
	log    Log
	sched  Scheduler
	logger *slog.Logger

	state     State
	target    string
	start     time.Time
	elapsed   int
	recording bool
	result    debtor.ResultCode
	note      string
	tick      *clock.Task
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an idle controller.
func New(q Queue, l Log, s Scheduler, opts ...Option) *Controller {
	c := &Controller{
		queue:  q,
		log:    l,
		sched:  s,
		logger: slog.New(slog.DiscardHandler),
		result: debtor.DefaultResult,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// StartCall begins a call with the selected debtor. The debtor is captured
// now; later selection changes do not move the call.
func (c *Controller) StartCall() (*debtor.Debtor, error) {
	if c.state == Active {
		return nil, ErrCallActive
	}
	d, ok := c.queue.Selected()
	if !ok {
		return nil, ErrNoSelection
	}
	c.state = Active
	c.target = d.ID
	c.start = c.sched.Now()
	c.elapsed = 0
	c.recording = true
	c.tick = c.sched.Every("call-tick", TickInterval, c.onTick)
	c.logger.Info("call started", "debtor", d.ID, "phone", d.Phone)
	return d, nil
}

func (c *Controller) onTick(now time.Time) {
	if c.state != Active {
		return
	}
	c.elapsed = wholeSeconds(now.Sub(c.start))
}

// EndCall stops the call, logs one interaction for the captured debtor with
// the wall-clock duration and counts the attempt.
func (c *Controller) EndCall() (debtor.Interaction, error) {
	if c.state != Active {
		return debtor.Interaction{}, ErrNoCall
	}
	now := c.sched.Now()
	duration := wholeSeconds(now.Sub(c.start))

	c.tick.Cancel()
	c.tick = nil
	target, start := c.target, c.start
	result, note := c.result, c.note

	c.state = Idle
	c.target = ""
	c.start = time.Time{}
	c.elapsed = 0
	c.recording = false
	c.result = debtor.DefaultResult
	c.note = ""

	rec, err := c.log.Append(debtor.Interaction{
		DebtorID: target,
		Channel:  debtor.ChannelPhone,
		At:       start,
		Duration: duration,
		Result:   result,
		Note:     note,
	})
	if err != nil {
		c.logger.Warn("interaction sink failed", "debtor", target, "error", err)
	}
	if _, err := c.queue.RecordAttempt(target, result, now); err != nil {
		c.logger.Warn("record attempt failed", "debtor", target, "error", err)
		return rec, fmt.Errorf("end call: %w", err)
	}
	c.logger.Info("call ended", "debtor", target, "duration", duration, "result", result)
	return rec, nil
}

// Toggle starts a call when idle and ends it when active.
func (c *Controller) Toggle() error {
	if c.state == Active {
		_, err := c.EndCall()
		return err
	}
	_, err := c.StartCall()
	return err
}

// SaveWithoutCall logs an interaction for the selected debtor without a
// call. It is refused while a call is live because that call must be ended to
// get a duration. Only a promise to pay counts as an attempt.
func (c *Controller) SaveWithoutCall() (debtor.Interaction, error) {
	if c.state == Active {
		return debtor.Interaction{}, ErrCallActive
	}
	d, ok := c.queue.Selected()
	if !ok {
		return debtor.Interaction{}, ErrNoSelection
	}
	now := c.sched.Now()
	result, note := c.result, c.note
	c.note = ""

	rec, err := c.log.Append(debtor.Interaction{
		DebtorID: d.ID,
		Channel:  debtor.ChannelPhone,
		At:       now,
		Result:   result,
		Note:     note,
	})
	if err != nil {
		c.logger.Warn("interaction sink failed", "debtor", d.ID, "error", err)
	}
	if result == debtor.PromiseToPay {
		if _, err := c.queue.RecordAttempt(d.ID, result, now); err != nil {
			return rec, fmt.Errorf("save: %w", err)
		}
	}
	c.logger.Info("result saved", "debtor", d.ID, "result", result)
	return rec, nil
}

// Save is the operator's "save" command: it ends a live call, otherwise it
// saves without a call.
func (c *Controller) Save() (debtor.Interaction, error) {
	if c.state == Active {
		return c.EndCall()
	}
	return c.SaveWithoutCall()
}

// SetResultCode sets the pending result. Any code is accepted so analytics
// codes pass through unchanged.
func (c *Controller) SetResultCode(code debtor.ResultCode) {
	if code == "" {
		code = debtor.DefaultResult
	}
	c.result = code
}

// SetNote sets the pending note.
func (c *Controller) SetNote(text string) {
	c.note = text
}

// ToggleRecording flips the recording flag in either state.
func (c *Controller) ToggleRecording() bool {
	c.recording = !c.recording
	return c.recording
}

// SelectionChanged resets the pending result and note after the queue
// selection moved. A live call stays bound to its captured debtor.
func (c *Controller) SelectionChanged() {
	c.result = debtor.DefaultResult
	c.note = ""
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	State     State
	Target    string
	Start     time.Time
	Elapsed   int
	Recording bool
	Result    debtor.ResultCode
	Note      string
}

// Timer formats the elapsed display time as mm:ss.
func (s Snapshot) Timer() string {
	return FormatTimer(s.Elapsed)
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:     c.state,
		Target:    c.target,
		Start:     c.start,
		Elapsed:   c.elapsed,
		Recording: c.recording,
		Result:    c.result,
		Note:      c.note,
	}
}

// FormatTimer renders seconds as mm:ss; minutes keep counting past 59.
func FormatTimer(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
