// Package commands provides CLI command implementations for handoff.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
)

// Global flags
var (
	flagRoot   string
	flagAs     string
	flagFormat string
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handoff",
		Short: "Filesystem mailboxes for asynchronous agents",
		Long: `Handoff lets independent agents exchange work through a shared directory.

Each directed pair of agents owns one mailbox file. A poller claims pending
messages, validates them, dispatches the named action, archives the original
and answers with a reply in the reverse mailbox.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, err := ui.ParseFormat(flagFormat)
			if err != nil {
				return err
			}
			return ui.SetGlobalFormatter(format)
		},
	}

	cmd.PersistentFlags().StringVar(&flagRoot, "root", "", "Project root (defaults to $ASSISTANT_PROJECT_ROOT or discovery)")
	cmd.PersistentFlags().StringVar(&flagAs, "as", "", "Act as this identity instead of the configured one")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "pretty", "Output format (pretty, json)")
	RegisterLoggerFlags(cmd)

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newPeekCmd())
	cmd.AddCommand(newArchiveCmd())
	cmd.AddCommand(newRejectedCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
