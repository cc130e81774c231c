// Package printers renders desk records for the command line.
package printers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/desk/pkg/call"
	"tableflip.dev/desk/pkg/debtor"
	"tableflip.dev/desk/pkg/keys"
	"tableflip.dev/desk/pkg/session"
)

// PrettyPrint writes colored tables to Out.
type PrettyPrint struct {
	Out io.Writer
}

// New returns a printer on color.Output, which honours NO_COLOR and
// non-terminal stdout.
func New() *PrettyPrint {
	return &PrettyPrint{Out: color.Output}
}

var (
	bold    = color.New(color.Bold)
	heading = color.New(color.Bold, color.Underline)
	faint   = color.New(color.Faint)
	italic  = color.New(color.Faint, color.Italic)
	risk    = map[debtor.Risk]*color.Color{
		debtor.RiskLow:      color.New(color.FgGreen),
		debtor.RiskMedium:   color.New(color.FgYellow),
		debtor.RiskHigh:     color.New(color.FgRed),
		debtor.RiskCritical: color.New(color.FgHiRed, color.Bold),
	}
)

func (pp *PrettyPrint) println(a ...interface{}) {
	_, _ = fmt.Fprintln(pp.Out, a...)
}

// TitleWithCount prints a heading followed by a faint count.
func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	if count != 1 {
		noun += "s"
	}
	pp.println(heading.Sprint(title) + faint.Sprintf(" - %d %s", count, noun))
}

func (pp *PrettyPrint) none() {
	pp.println(italic.Sprint(" none"))
	pp.println()
}

// Queue prints debtors in queue order, marking selectedID.
func (pp *PrettyPrint) Queue(debtors []*debtor.Debtor, selectedID string) {
	pp.TitleWithCount("Queue", len(debtors), "debtor")
	if len(debtors) == 0 {
		pp.none()
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("", bold.Sprint("ID"), bold.Sprint("Name"), bold.Sprint("Phone"), bold.Sprint("Outstanding"), bold.Sprint("Overdue"), bold.Sprint("Attempts"), bold.Sprint("Risk"))
	for _, d := range debtors {
		marker := ""
		if d.ID == selectedID {
			marker = "→"
		}
		r := string(d.RiskSegment)
		if c, ok := risk[d.RiskSegment]; ok {
			r = c.Sprint(r)
		}
		tbl.AddRow(marker, d.ID, d.Name, d.Phone, d.Outstanding.String(), fmt.Sprintf("%dd", d.DaysPastDue), d.Attempts, r)
	}
	pp.println(tbl)
	pp.println()
}

// History prints interactions as given; names resolves debtor ids and may
// be nil.
func (pp *PrettyPrint) History(title string, records []debtor.Interaction, names func(string) string) {
	pp.TitleWithCount(title, len(records), "interaction")
	if len(records) == 0 {
		pp.none()
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.AddRow(bold.Sprint("When"), bold.Sprint("Debtor"), bold.Sprint("Channel"), bold.Sprint("Duration"), bold.Sprint("Result"), bold.Sprint("Note"))
	for _, r := range records {
		who := r.DebtorID
		if names != nil {
			who = names(r.DebtorID)
		}
		duration := ""
		if r.Duration > 0 {
			duration = call.FormatTimer(r.Duration)
		}
		tbl.AddRow(r.At.Local().Format("2006-01-02 15:04"), who, string(r.Channel), duration, r.Result.Label(), r.Note)
	}
	pp.println(tbl)
	pp.println()
}

// ReportLine is one row of a summary table.
type ReportLine struct {
	Label string
	Value string
}

// Summary prints a two-column summary under title.
func (pp *PrettyPrint) Summary(title string, lines []ReportLine) {
	pp.println(heading.Sprint(title))
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, l := range lines {
		tbl.AddRow(faint.Sprint(l.Label), l.Value)
	}
	pp.println(tbl)
	pp.println()
}

// Keys prints the console shortcuts.
func (pp *PrettyPrint) Keys(bindings []keys.Binding) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Key"), bold.Sprint("Command"), bold.Sprint("Meaning"))
	for _, b := range bindings {
		tbl.AddRow(b.Key, b.Command.String(), b.Help)
	}
	pp.println(heading.Sprint("\nShortcuts"))
	pp.println(tbl)
}

// Session prints the session status as of now.
func (pp *PrettyPrint) Session(st session.Status, idleTimeout time.Duration, now time.Time) {
	if st.State != session.Active {
		msg := "not logged in"
		if st.Reason != "" && st.Reason != session.ReasonNoSession {
			msg += " (" + string(st.Reason) + ")"
		}
		pp.println(italic.Sprint(msg))
		return
	}
	idle := now.Sub(st.LastActivity).Truncate(time.Second)
	left := (idleTimeout - idle).Truncate(time.Second)
	pp.Summary("Session", []ReportLine{
		{Label: "User", Value: st.Principal.Name},
		{Label: "Role", Value: string(st.Principal.Role)},
		{Label: "Last activity", Value: st.LastActivity.Local().Format("2006-01-02 15:04:05")},
		{Label: "Expires in", Value: strings.TrimSpace(left.String())},
	})
}
