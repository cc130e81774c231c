package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "desk",
		Short: base.Wrap80("Collections operator console: work the debtor queue, place calls and log interactions."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addLogin(topLevel)
	addLogout(topLevel)
	addWhoami(topLevel)
	addQueue(topLevel)
	addHistory(topLevel)
	addReport(topLevel)
	addKeys(topLevel)
	addVersion(topLevel)
}
