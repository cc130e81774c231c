package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/desk/pkg/app"
	"tableflip.dev/desk/pkg/call"
	"tableflip.dev/desk/pkg/commands/options"
	"tableflip.dev/desk/pkg/printers"
	"tableflip.dev/desk/pkg/timeutil"
)

func addReport(topLevel *cobra.Command) {
	wo := &options.WindowOptions{}
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise interactions logged within a time window",
		Long: `Report counts contacts, calls, talk time and results logged within the
time window, and lists the debtors contacted.

Examples:
  desk report
  desk report --window 3d
  desk report --window today`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			_, e, err := openDesk(cmd.Context(), false)
			if err != nil {
				return oo.HandleError(err)
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return oo.HandleError(err)
			}
			window, err := wo.Resolve(e.desk.Now())
			if err != nil {
				return oo.HandleError(err)
			}

			result := e.desk.Report(window.Since, window.Until)
			if oo.JSON {
				return oo.Print(result)
			}
			renderReport(printers.New(), result, window)
			return nil
		},
	}

	options.AddWindowArg(cmd, wo, timeutil.DefaultWindow)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func renderReport(pp *printers.PrettyPrint, result app.ReportResult, window timeutil.Window) {
	since := "beginning"
	if !window.Since.IsZero() {
		since = result.Since.Local().Format("2006-01-02 15:04")
	}
	until := result.Until.Local().Format("2006-01-02 15:04")

	lines := []printers.ReportLine{
		{Label: "Window", Value: fmt.Sprintf("%s (%s → %s)", window.Label, since, until)},
		{Label: "Interactions", Value: fmt.Sprint(result.Total)},
		{Label: "Calls", Value: fmt.Sprint(result.Calls)},
		{Label: "Talk time", Value: call.FormatTimer(int(result.TalkTime.Seconds()))},
	}
	for _, rc := range result.Results {
		lines = append(lines, printers.ReportLine{Label: "  " + rc.Result.Label(), Value: fmt.Sprint(rc.Count)})
	}
	pp.Summary("Report", lines)

	if result.Total == 0 {
		return
	}
	debtors := make([]printers.ReportLine, 0, len(result.Debtors))
	for _, s := range result.Debtors {
		debtors = append(debtors, printers.ReportLine{
			Label: s.Name,
			Value: fmt.Sprintf("%d contacts, talk %s, last %s", s.Contacts, call.FormatTimer(int(s.TalkTime.Seconds())), s.Last.Result.Label()),
		})
	}
	pp.Summary("Debtors", debtors)
}
