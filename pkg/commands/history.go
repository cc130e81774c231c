package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/desk/pkg/commands/options"
	"tableflip.dev/desk/pkg/debtor"
	"tableflip.dev/desk/pkg/printers"
)

func addHistory(topLevel *cobra.Command) {
	wo := &options.WindowOptions{}
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "history [debtor-id]",
		Short: "Show logged interactions, most recent first",
		Example: `
desk history
desk history d1 --window all
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			title := "History"
			records := e.desk.AllHistory()
			if len(args) == 1 {
				d, ok := e.desk.Debtor(args[0])
				if !ok {
					return oo.HandleError(fmt.Errorf("unknown debtor %q", args[0]))
				}
				title = "History of " + d.Name
				records = e.desk.History(d.ID)
			}
			in := records[:0:0]
			for _, r := range records {
				if window.Contains(r.At) {
					in = append(in, r)
				}
			}
			if oo.JSON {
				return oo.Print(in)
			}
			printers.New().History(fmt.Sprintf("%s · %s", title, window.Label), in, debtorName(e.desk.Debtor))
			return nil
		},
	}

	options.AddWindowArg(cmd, wo, "all")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func debtorName(lookup func(string) (*debtor.Debtor, bool)) func(string) string {
	return func(id string) string {
		if d, ok := lookup(id); ok {
			return d.Name
		}
		return id
	}
}
