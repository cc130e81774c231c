package commands

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tableflip.dev/desk/pkg/tui"
)

func addUI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the operator console",
		Example: `
desk ui
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			fd := os.Stdout.Fd()
			if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
				return errors.New("the console needs a terminal")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctx, e, err := openDesk(ctx, true)
			if err != nil {
				return err
			}
			defer e.Close()

			e.desk.Restore()
			events, err := e.persistence.Watch(ctx)
			if err != nil {
				e.logger.Warn("store watch unavailable", "error", err)
				events = nil
			}
			return tui.Run(ctx, e.desk, events)
		},
	}

	topLevel.AddCommand(cmd)
}
