package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/desk/pkg/timeutil"
)

// WindowOptions bounds history and reports in time.
type WindowOptions struct {
	Window string
}

func AddWindowArg(cmd *cobra.Command, o *WindowOptions, def string) {
	cmd.Flags().StringVarP(&o.Window, "window", "w", def,
		"Time window to include, for example 3d, 1w2d, today or all.")
}

// Resolve returns the window ending at now.
func (o *WindowOptions) Resolve(now time.Time) (timeutil.Window, error) {
	return timeutil.Resolve(o.Window, now)
}
