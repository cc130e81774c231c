package clock

import (
	"sort"
	"time"
)

// Tick identifies one armed firing of a task. Hosts hand ticks back to
// Scheduler.Fire when they come due; a tick whose task was cancelled, or that
// was superseded by a later arming, is ignored.
type Tick struct {
	Task int
	Seq  uint64
	Name string
	Due  time.Time
}

// Task is the handle for a repeating job registered with a Scheduler.
type Task struct {
	id       int
	name     string
	interval time.Duration
	fn       func(now time.Time)
	seq      uint64
	due      time.Time
	s        *Scheduler
}

// Name returns the label the task was registered under.
func (t *Task) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Active reports whether the task can still fire.
func (t *Task) Active() bool {
	if t == nil || t.s == nil {
		return false
	}
	_, ok := t.s.tasks[t.id]
	return ok
}

// Cancel stops the task. Any tick already armed for it becomes a no-op.
// Cancelling twice, or cancelling a nil handle, does nothing.
func (t *Task) Cancel() {
	if t == nil || t.s == nil {
		return
	}
	delete(t.s.tasks, t.id)
	t.s = nil
}

// Scheduler owns the repeating tasks of one event loop. It is not safe for
// concurrent use: registration, cancellation and firing all happen on the
// loop that owns it.
type Scheduler struct {
	clock  Clock
	nextID int
	tasks  map[int]*Task
	armed  []Tick
}

// NewScheduler returns a scheduler reading time from c.
func NewScheduler(c Clock) *Scheduler {
	if c == nil {
		c = System{}
	}
	return &Scheduler{clock: c, tasks: make(map[int]*Task)}
}

// Now reads the scheduler's clock.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Every registers fn to run every interval, first one interval from now.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(now time.Time)) *Task {
	if interval <= 0 {
		interval = time.Second
	}
	s.nextID++
	t := &Task{
		id:       s.nextID,
		name:     name,
		interval: interval,
		fn:       fn,
		s:        s,
	}
	s.tasks[t.id] = t
	s.arm(t, s.clock.Now().Add(interval))
	return t
}

func (s *Scheduler) arm(t *Task, due time.Time) {
	t.seq++
	t.due = due
	s.armed = append(s.armed, Tick{Task: t.id, Seq: t.seq, Name: t.name, Due: due})
}

// Armed drains the ticks armed since the last call. The host schedules each
// one and passes it to Fire when it elapses.
func (s *Scheduler) Armed() []Tick {
	out := s.armed
	s.armed = nil
	return out
}

// Fire runs the task behind tick and arms its next firing. It returns false
// when the tick is stale.
func (s *Scheduler) Fire(tick Tick) bool {
	t, ok := s.tasks[tick.Task]
	if !ok || t.seq != tick.Seq {
		return false
	}
	now := s.clock.Now()
	t.fn(now)
	if !t.Active() {
		return true
	}
	next := tick.Due.Add(t.interval)
	if !next.After(now) {
		next = now.Add(t.interval)
	}
	s.arm(t, next)
	return true
}

// FireDue fires every live task whose due time has passed, earliest first,
// including repeated periods of the same task, and returns how many ran.
// It is the driver used when time is moved by hand.
func (s *Scheduler) FireDue() int {
	fired := 0
	for {
		now := s.clock.Now()
		var due []*Task
		for _, t := range s.tasks {
			if !t.due.After(now) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].due.Equal(due[j].due) {
				return due[i].id < due[j].id
			}
			return due[i].due.Before(due[j].due)
		})
		t := due[0]
		tick := Tick{Task: t.id, Seq: t.seq, Name: t.name, Due: t.due}
		s.fireAt(t, tick)
		fired++
	}
	s.armed = nil
	return fired
}

// fireAt runs t for a manual driver, advancing its due time by exactly one
// interval so missed periods are replayed in order. Each run sees the time
// its period was due.
func (s *Scheduler) fireAt(t *Task, tick Tick) {
	t.fn(tick.Due)
	if !t.Active() {
		return
	}
	s.arm(t, tick.Due.Add(t.interval))
}

// Len reports how many tasks are live.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Names lists live task names, sorted.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		names = append(names, t.name)
	}
	sort.Strings(names)
	return names
}
