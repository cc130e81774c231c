package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/desk/pkg/commands/options"
	"tableflip.dev/desk/pkg/printers"
)

func addQueue(topLevel *cobra.Command) {
	qo := &options.QueueOptions{}
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the debtor queue",
		Example: `
desk queue
desk queue --filter overdue30
desk queue --search Петров --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			preset, err := qo.Preset()
			if err != nil {
				return oo.HandleError(err)
			}
			_, e, err := openDesk(cmd.Context(), false)
			if err != nil {
				return oo.HandleError(err)
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return oo.HandleError(err)
			}

			e.desk.SetFilter(preset)
			e.desk.SetSearch(qo.Search)
			visible := e.desk.Visible()
			if oo.JSON {
				return oo.Print(visible)
			}
			selected := ""
			if d, ok := e.desk.Selected(); ok {
				selected = d.ID
			}
			printers.New().Queue(visible, selected)
			return nil
		},
	}

	options.AddQueueArgs(cmd, qo)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
