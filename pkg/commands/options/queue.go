package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/desk/pkg/queue"
)

// QueueOptions narrows the queue listing.
type QueueOptions struct {
	Filter string
	Search string
}

func AddQueueArgs(cmd *cobra.Command, o *QueueOptions) {
	cmd.Flags().StringVarP(&o.Filter, "filter", "f", "all",
		"Filter preset: all, overdue30 or high.")
	cmd.Flags().StringVarP(&o.Search, "search", "s", "",
		"Only debtors whose name or phone contains the text.")
}

// Preset parses the filter flag.
func (o *QueueOptions) Preset() (queue.Preset, error) {
	return queue.ParsePreset(o.Filter)
}
