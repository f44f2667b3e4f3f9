package commands

import (
	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
)

func newArchiveCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List archived messages",
		Long:  "List processed messages kept in the archive, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := createContainer(CreateQuietLogger())
			if err != nil {
				return err
			}

			entries, err := container.Store.ListArchive(limit)
			if err != nil {
				return err
			}

			if ui.GlobalFormatter.IsJSON() {
				type archived struct {
					ID        string `json:"id"`
					Recipient string `json:"recipient"`
					Path      string `json:"path"`
					Size      int64  `json:"size"`
					Archived  string `json:"archived_at"`
				}
				out := make([]archived, 0, len(entries))
				for _, e := range entries {
					out = append(out, archived{
						ID:        e.Key,
						Recipient: e.Recipient,
						Path:      e.Path,
						Size:      e.Size,
						Archived:  e.ModTime.UTC().Format("2006-01-02T15:04:05Z"),
					})
				}
				return ui.GlobalFormatter.Output(out)
			}

			ui.PrintArchiveList(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")

	return cmd
}
