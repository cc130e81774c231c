// Package tui is the operator console: a Bubble Tea program hosting the desk.
// Every key press, mouse event, timer tick and store notification is handled
// to completion by Update before the next one.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/desk/pkg/app"
	"tableflip.dev/desk/pkg/auth"
	"tableflip.dev/desk/pkg/call"
	"tableflip.dev/desk/pkg/clock"
	"tableflip.dev/desk/pkg/debtor"
	"tableflip.dev/desk/pkg/keys"
	"tableflip.dev/desk/pkg/session"
	"tableflip.dev/desk/pkg/store"
	"tableflip.dev/desk/pkg/tui/help"
	"tableflip.dev/desk/pkg/tui/theme"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeNote
	modeHelp
)

type loginField int

const (
	fieldUsername loginField = iota
	fieldPassword
)

type tickMsg struct{ tick clock.Tick }

type storeEventMsg struct{ ev store.Event }

type watchClosedMsg struct{}

// Model contains the console state.
type Model struct {
	desk   *app.Desk
	ctx    context.Context
	events <-chan store.Event
	theme  theme.Theme

	mode       mode
	loginField loginField
	username   textinput.Model
	password   textinput.Model
	search     textinput.Model
	note       textinput.Model
	help       *help.Model

	status    string
	statusErr bool
	loggedIn  bool

	termWidth  int
	termHeight int
}

// New creates a console for d. events may be nil when nothing watches the
// store.
func New(ctx context.Context, d *app.Desk, events <-chan store.Event) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	username := newInput("username", 64)
	password := newInput("password", 128)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	search := newInput("name or phone", 64)
	search.Prompt = "/"
	note := newInput("note for the next saved interaction", 256)
	note.Prompt = "note: "

	m := &Model{
		desk:       d,
		ctx:        ctx,
		events:     events,
		theme:      theme.Default(),
		username:   username,
		password:   password,
		search:     search,
		note:       note,
		help:       help.New(d.Policy().IdleTimeout),
		termWidth:  100,
		termHeight: 30,
	}
	m.loggedIn = d.LoggedIn()
	if m.loggedIn {
		m.setStatus("Welcome back, " + d.Session().Principal.Name)
	} else {
		m.username.Focus()
	}
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	return ti
}

// Init schedules the armed desk tasks and starts listening to the store.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.schedule(), m.waitForEvent(), textinput.Blink)
}

// Update handles one message and schedules any ticks the desk armed while
// handling it.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.syncSession()
	return m, tea.Batch(cmd, m.schedule())
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.help.SetSize(msg.Width-4, msg.Height-4)
		return nil
	case tickMsg:
		m.desk.Fire(msg.tick)
		return nil
	case storeEventMsg:
		m.desk.StoreChanged(msg.ev)
		return m.waitForEvent()
	case watchClosedMsg:
		return nil
	case tea.MouseClickMsg, tea.MouseReleaseMsg, tea.MouseMotionMsg:
		m.desk.MarkActivity(mouseActivity(msg))
		return nil
	case tea.MouseWheelMsg:
		m.desk.MarkActivity(mouseActivity(msg))
		if m.mode == modeHelp {
			return m.help.Update(msg)
		}
		return nil
	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		if !m.desk.LoggedIn() {
			return m.updateLogin(msg)
		}
		m.desk.MarkActivity(session.KeyPress)
		return m.updateDesk(msg)
	}
	return nil
}

// mouseActivity names the presence a mouse message shows. A button going
// down is a press; the release completes a click.
func mouseActivity(msg tea.Msg) session.Activity {
	switch msg.(type) {
	case tea.MouseClickMsg:
		return session.PointerPress
	case tea.MouseReleaseMsg:
		return session.Click
	case tea.MouseWheelMsg:
		return session.Scroll
	}
	return session.PointerMove
}

// schedule turns every armed tick into a timer command.
func (m *Model) schedule() tea.Cmd {
	armed := m.desk.Armed()
	if len(armed) == 0 {
		return nil
	}
	now := m.desk.Now()
	cmds := make([]tea.Cmd, 0, len(armed))
	for _, tick := range armed {
		delay := tick.Due.Sub(now)
		if delay < 0 {
			delay = 0
		}
		cmds = append(cmds, tea.Tick(delay, func(time.Time) tea.Msg {
			return tickMsg{tick: tick}
		}))
	}
	return tea.Batch(cmds...)
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watchClosedMsg{}
		}
		return storeEventMsg{ev: ev}
	}
}

// syncSession follows session transitions made outside a key handler, such
// as an idle eviction or a logout in another process.
func (m *Model) syncSession() {
	now := m.desk.LoggedIn()
	if now == m.loggedIn {
		return
	}
	m.loggedIn = now
	if now {
		return
	}
	m.mode = modeNormal
	m.search.Blur()
	m.note.Blur()
	m.password.Reset()
	m.loginField = fieldUsername
	m.username.Focus()
	m.password.Blur()
	if st := m.desk.Session(); st.Reason != session.ReasonLogout {
		m.setError("Session ended: " + string(st.Reason))
	} else {
		m.setStatus("Logged out")
	}
}

func (m *Model) updateLogin(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.focusLogin(1 - m.loginField)
		return textinput.Blink
	case "enter":
		if m.loginField == fieldUsername {
			m.focusLogin(fieldPassword)
			return textinput.Blink
		}
		p, err := m.desk.Login(m.username.Value(), m.password.Value())
		m.password.Reset()
		if err != nil {
			if errors.Is(err, auth.ErrAuthFailure) {
				m.setError("Invalid username or password")
			} else {
				m.setError(err.Error())
			}
			return nil
		}
		m.username.Reset()
		m.username.Blur()
		m.password.Blur()
		m.loggedIn = true
		m.setStatus(fmt.Sprintf("Logged in as %s (%s)", p.Name, p.Role))
		return nil
	}
	var cmd tea.Cmd
	if m.loginField == fieldUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

func (m *Model) focusLogin(f loginField) {
	m.loginField = f
	if f == fieldUsername {
		m.password.Blur()
		m.username.Focus()
		return
	}
	m.username.Blur()
	m.password.Focus()
}

func (m *Model) updateDesk(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	switch m.mode {
	case modeHelp:
		switch key {
		case "?", "esc", "q":
			m.mode = modeNormal
			return nil
		}
		return m.help.Update(msg)
	case modeSearch:
		switch key {
		case "enter":
			m.mode = modeNormal
			m.search.Blur()
			m.keepSelectionVisible()
			return nil
		case "esc":
			m.mode = modeNormal
			m.search.Reset()
			m.search.Blur()
			m.desk.SetSearch("")
			return nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.desk.SetSearch(m.search.Value())
		return cmd
	case modeNote:
		switch key {
		case "enter":
			m.desk.SetNote(m.note.Value())
			m.mode = modeNormal
			m.note.Blur()
			m.setStatus("Note set")
			return nil
		case "esc":
			m.mode = modeNormal
			m.note.Blur()
			m.setStatus("Note unchanged")
			return nil
		}
		var cmd tea.Cmd
		m.note, cmd = m.note.Update(msg)
		return cmd
	}

	switch key {
	case "q":
		return tea.Quit
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "/":
		m.mode = modeSearch
		m.search.CursorEnd()
		return m.search.Focus()
	case "f":
		p := m.desk.CycleFilter()
		m.keepSelectionVisible()
		m.setStatus("Filter: " + p.Label())
	case "r":
		m.setStatus("Result: " + m.desk.CycleResult().Label())
	case "e":
		m.mode = modeNote
		m.note.SetValue(m.desk.Call().Note)
		m.note.CursorEnd()
		return m.note.Focus()
	case "R", "shift+r":
		if m.desk.ToggleRecording() {
			m.setStatus("Recording on")
		} else {
			m.setStatus("Recording off")
		}
	case "?":
		m.mode = modeHelp
	case "L", "shift+l":
		m.desk.Logout()
	default:
		m.dispatch(key)
	}
	return nil
}

// dispatch hands N, C and S to the desk's shortcut dispatcher.
func (m *Model) dispatch(key string) {
	cmd, handled, err := m.desk.Key(key, m.inputFocused())
	if !handled {
		return
	}
	if err != nil {
		m.setError(describe(err))
		return
	}
	switch cmd {
	case keys.Next:
		if d, ok := m.desk.Selected(); ok {
			m.setStatus("Next: " + d.Name)
		} else {
			m.setStatus("Queue is empty")
		}
	case keys.Call:
		snap := m.desk.Call()
		if snap.State == call.Active {
			d, _ := m.desk.Debtor(snap.Target)
			m.setStatus(fmt.Sprintf("Calling %s %s", d.Name, d.Phone))
			return
		}
		m.setStatus(lastSaved(m.desk, "Call ended"))
	case keys.Save:
		m.setStatus(lastSaved(m.desk, "Saved"))
	}
}

func lastSaved(d *app.Desk, prefix string) string {
	all := d.AllHistory()
	if len(all) == 0 {
		return prefix
	}
	rec := all[0]
	name := rec.DebtorID
	if dd, ok := d.Debtor(rec.DebtorID); ok {
		name = dd.Name
	}
	if rec.Duration > 0 {
		return fmt.Sprintf("%s: %s, %s, %s", prefix, name, call.FormatTimer(rec.Duration), rec.Result.Label())
	}
	return fmt.Sprintf("%s: %s, %s", prefix, name, rec.Result.Label())
}

func describe(err error) string {
	switch {
	case errors.Is(err, call.ErrNoSelection):
		return "Select a debtor first"
	case errors.Is(err, call.ErrCallActive):
		return "A call is in progress"
	case errors.Is(err, app.ErrLoggedOut):
		return "Log in first"
	}
	return err.Error()
}

func (m *Model) inputFocused() bool {
	return m.mode == modeSearch || m.mode == modeNote
}

// moveSelection steps through the visible list.
func (m *Model) moveSelection(delta int) {
	visible := m.desk.Visible()
	if len(visible) == 0 {
		return
	}
	idx := indexOf(visible, m.selectedID())
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(visible) - 1
	default:
		idx = min(max(idx+delta, 0), len(visible)-1)
	}
	m.desk.Select(visible[idx].ID)
}

// keepSelectionVisible moves the selection onto the visible list when the
// filter hid it.
func (m *Model) keepSelectionVisible() {
	visible := m.desk.Visible()
	if len(visible) == 0 || indexOf(visible, m.selectedID()) >= 0 {
		return
	}
	m.desk.Select(visible[0].ID)
}

func (m *Model) selectedID() string {
	if d, ok := m.desk.Selected(); ok {
		return d.ID
	}
	return ""
}

func indexOf(list []*debtor.Debtor, id string) int {
	for i, d := range list {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// Run starts the console and blocks until it exits.
func Run(ctx context.Context, d *app.Desk, events <-chan store.Event) error {
	p := tea.NewProgram(New(ctx, d, events),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
