package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
)

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <from>",
		Short: "Resume a halted mailbox",
		Long: `Clear the halt marker written when processing the mailbox from <from>
failed repeatedly. The next poll recovers the staged message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := createContainer(CreateQuietLogger())
			if err != nil {
				return err
			}

			a := mailbox.Address{From: args[0], For: container.Identity}
			if err := a.Validate(); err != nil {
				return err
			}

			halted, err := container.Store.Halted(a)
			if err != nil {
				return err
			}
			if err := container.Store.Resume(cmd.Context(), a); err != nil {
				if errors.Is(err, mailbox.ErrNotHalted) {
					ui.Info("Mailbox %s is not halted", a.Name())
					return nil
				}
				return err
			}

			ui.Success("Mailbox %s resumed", a.Name())
			halted.WhenSome(func(rec mailbox.HaltRecord) {
				ui.PrintKeyValue("Halted at", ui.FormatTime(rec.HaltedAt))
				ui.PrintKeyValue("Reason", rec.Reason)
			})
			return nil
		},
	}
}
