package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/desk/pkg/keys"
	"tableflip.dev/desk/pkg/printers"
)

func addKeys(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the console keyboard shortcuts",
		Example: `
desk keys
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			printers.New().Keys(keys.Bindings)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
