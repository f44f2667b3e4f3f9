package commands

import (
	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
)

func newRejectedCmd() *cobra.Command {
	var (
		limit   int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "rejected",
		Short: "List rejected messages",
		Long: `List rejection records, newest first. Every record keeps the raw
content of the message it rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := createContainer(CreateQuietLogger())
			if err != nil {
				return err
			}

			records, err := container.Store.ListRejected(limit)
			if err != nil {
				return err
			}

			if ui.GlobalFormatter.IsJSON() {
				type rejected struct {
					RejectedAt string `json:"rejected_at"`
					Mailbox    string `json:"mailbox"`
					ID         string `json:"id,omitempty"`
					Action     string `json:"action,omitempty"`
					Stage      string `json:"stage"`
					Reason     string `json:"reason"`
					Detail     string `json:"detail,omitempty"`
					Path       string `json:"path"`
				}
				out := make([]rejected, 0, len(records))
				for _, r := range records {
					out = append(out, rejected{
						RejectedAt: r.RejectedAt.UTC().Format("2006-01-02T15:04:05Z"),
						Mailbox:    r.Mailbox,
						ID:         r.ID,
						Action:     r.Action,
						Stage:      string(r.Stage),
						Reason:     r.Reason,
						Detail:     r.Detail,
						Path:       r.Path,
					})
				}
				return ui.GlobalFormatter.Output(out)
			}

			ui.PrintRejectedList(records)
			if verbose {
				for _, r := range records {
					ui.OutputLine("%s", ui.BoldStyle.Render(r.Path))
					if r.Detail != "" {
						ui.PrintKeyValue("Detail", r.Detail)
					}
					ui.OutputLine("%s", r.Raw)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records (0 for all)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the detail and raw content of each record")

	return cmd
}
