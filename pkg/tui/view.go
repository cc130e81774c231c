package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/desk/pkg/call"
	"tableflip.dev/desk/pkg/debtor"
)

const historyRows = 5

// View renders the login form or the desk.
func (m *Model) View() string {
	if !m.desk.LoggedIn() {
		return m.viewLogin()
	}
	header := m.viewHeader()
	var body string
	if m.mode == modeHelp {
		body = m.help.View()
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.viewQueue(), " ", m.viewDetail())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.viewFooter())
}

func (m *Model) viewLogin() string {
	t := m.theme.Modal
	label := m.theme.Panel.Label
	lines := []string{
		t.Title.Render("Collection Desk · sign in"),
		"",
		label.Render("Username ") + m.username.View(),
		label.Render("Password ") + m.password.View(),
		"",
		m.theme.Footer.Help.Render("demo: admin/admin (manager) or iva/iva (operator)"),
	}
	if m.status != "" {
		lines = append(lines, "", m.statusLine())
	}
	box := t.Frame.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.termWidth, m.termHeight, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) viewHeader() string {
	t := m.theme.Header
	p := m.desk.Session().Principal
	parts := []string{
		t.Title.Render("Collection Desk"),
		t.User.Render(fmt.Sprintf("%s (%s)", p.Name, p.Role)),
		t.Meta.Render(fmt.Sprintf("queue %d", m.desk.Total())),
	}
	return strings.Join(parts, "  ·  ")
}

func (m *Model) queueWidth() int {
	return min(max(m.termWidth*2/5, 36), 56)
}

func (m *Model) viewQueue() string {
	width := m.queueWidth()
	inner := width - m.theme.Panel.Frame.GetHorizontalFrameSize()
	visible := m.desk.Visible()
	selected := m.selectedID()
	snap := m.desk.Call()

	const amountW, daysW = 14, 5
	nameW := max(inner-amountW-daysW-4, 8)

	lines := []string{m.theme.Panel.Title.Render("Queue")}
	for _, d := range visible {
		marker := "  "
		if snap.State == call.Active && snap.Target == d.ID {
			marker = "☎ "
		}
		name := padding.String(truncate.StringWithTail(d.Name, uint(nameW), "…"), uint(nameW))
		row := fmt.Sprintf("%s%s %*s %*s", marker, name, amountW, d.Outstanding.String(), daysW, fmt.Sprintf("%dd", d.DaysPastDue))
		if d.ID == selected {
			row = m.theme.Queue.Selected.Render(row)
		}
		lines = append(lines, row)
	}
	if len(visible) == 0 {
		lines = append(lines, m.theme.Queue.Muted.Render("no debtors match"))
	}
	lines = append(lines, "", m.theme.Queue.Muted.Render(m.queueSummary(len(visible))))
	return m.theme.Panel.Frame.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) queueSummary(visible int) string {
	s := fmt.Sprintf("%d of %d · filter: %s", visible, m.desk.Total(), m.desk.Filter().Label())
	if q := m.desk.Search(); q != "" {
		s += " · search: " + q
	}
	return s
}

func (m *Model) viewDetail() string {
	width := max(m.termWidth-m.queueWidth()-1, 30)
	inner := width - m.theme.Panel.Frame.GetHorizontalFrameSize()
	label := m.theme.Panel.Label
	field := func(name, value string) string {
		return label.Render(padding.String(name, 14)) + value
	}

	var lines []string
	d, ok := m.desk.Selected()
	if !ok {
		lines = append(lines, m.theme.Queue.Muted.Render("No debtor selected"))
	} else {
		lines = append(lines,
			m.theme.Panel.Title.Render(truncate.StringWithTail(d.Name, uint(inner), "…")),
			field("Phone", d.Phone),
			field("Outstanding", d.Outstanding.String()),
			field("Days overdue", fmt.Sprint(d.DaysPastDue)),
			field("Attempts", fmt.Sprint(d.Attempts)),
			field("Last contact", formatContact(d)),
		)
		if d.RiskSegment != "" {
			style, found := m.theme.Queue.Risk[string(d.RiskSegment)]
			if !found {
				style = m.theme.Panel.Body
			}
			lines = append(lines, field("Risk", style.Render(string(d.RiskSegment))))
		}
	}

	lines = append(lines, "", m.viewCall(inner))

	if ok {
		lines = append(lines, "", m.theme.Panel.Title.Render("History"))
		records := m.desk.History(d.ID)
		if len(records) == 0 {
			lines = append(lines, m.theme.Queue.Muted.Render("no interactions yet"))
		}
		for i, r := range records {
			if i == historyRows {
				lines = append(lines, m.theme.Queue.Muted.Render(fmt.Sprintf("… %d more", len(records)-historyRows)))
				break
			}
			lines = append(lines, truncate.StringWithTail(formatInteraction(r), uint(inner), "…"))
		}
	}
	return m.theme.Panel.Frame.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) viewCall(inner int) string {
	t := m.theme.Call
	snap := m.desk.Call()
	state := t.Idle.Render("idle")
	if snap.State == call.Active {
		state = t.Live.Render("● live") + " " + t.Timer.Render(snap.Timer())
		if snap.Target != m.selectedID() {
			if d, ok := m.desk.Debtor(snap.Target); ok {
				state += " with " + d.Name
			}
		}
	}
	rec := "off"
	if snap.Recording {
		rec = t.Recording.Render("● rec")
	}
	note := snap.Note
	if note == "" {
		note = m.theme.Queue.Muted.Render("(e to edit)")
	}
	label := m.theme.Panel.Label
	lines := []string{
		m.theme.Panel.Title.Render("Call"),
		label.Render("State         ") + state,
		label.Render("Recording     ") + rec,
		label.Render("Result        ") + snap.Result.Label(),
		label.Render("Note          ") + truncate.StringWithTail(note, uint(max(inner-14, 4)), "…"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewFooter() string {
	var lines []string
	switch m.mode {
	case modeSearch:
		lines = append(lines, m.theme.Footer.Prompt.Render(m.search.View()))
	case modeNote:
		lines = append(lines, m.theme.Footer.Prompt.Render(m.note.View()))
	}
	if m.status != "" {
		lines = append(lines, m.statusLine())
	}
	lines = append(lines, m.theme.Footer.Help.Render(m.hints()))
	return strings.Join(lines, "\n")
}

func (m *Model) hints() string {
	switch m.mode {
	case modeSearch:
		return "enter keep · esc clear"
	case modeNote:
		return "enter set note · esc cancel"
	case modeHelp:
		return "? or esc close help"
	}
	return "N next · C call · S save · r result · e note · R rec · j/k move · / search · f filter · ? help · L logout · q quit"
}

func (m *Model) statusLine() string {
	if m.statusErr {
		return m.theme.Footer.Error.Render(m.status)
	}
	return m.theme.Footer.Status.Render(m.status)
}

func formatContact(d *debtor.Debtor) string {
	if d.LastContact == nil {
		return "-"
	}
	return d.LastContact.Local().Format("2006-01-02 15:04")
}

func formatInteraction(r debtor.Interaction) string {
	s := fmt.Sprintf("%s  %-5s %s", r.At.Local().Format("2006-01-02 15:04"), r.Channel, r.Result.Label())
	if r.Duration > 0 {
		s += " " + call.FormatTimer(r.Duration)
	}
	if r.Note != "" {
		s += "  " + r.Note
	}
	return s
}
