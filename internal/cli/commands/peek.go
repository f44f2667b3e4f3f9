package commands

import (
	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
)

type pendingMessage struct {
	Mailbox string `json:"mailbox"`
	Content string `json:"content"`

	addr mailbox.Address
}

func newPeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peek [from]",
		Short: "Show pending messages without claiming them",
		Long: `Show the messages waiting in this agent's mailboxes. Nothing is claimed
or modified. With an argument only the mailbox from that sender is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPeek,
	}
}

func runPeek(cmd *cobra.Command, args []string) error {
	container, err := createContainer(CreateQuietLogger())
	if err != nil {
		return err
	}

	var addrs []mailbox.Address
	if len(args) == 1 {
		a := mailbox.Address{From: args[0], For: container.Identity}
		if err := a.Validate(); err != nil {
			return err
		}
		addrs = []mailbox.Address{a}
	} else {
		addrs, err = container.Store.Pending(container.Identity)
		if err != nil {
			return err
		}
	}

	var pending []pendingMessage
	for _, a := range addrs {
		raw, err := container.Store.Peek(a)
		if err != nil {
			return err
		}
		raw.WhenSome(func(data []byte) {
			pending = append(pending, pendingMessage{Mailbox: a.Name(), Content: string(data), addr: a})
		})
	}

	if ui.GlobalFormatter.IsJSON() {
		if pending == nil {
			pending = []pendingMessage{}
		}
		return ui.GlobalFormatter.Output(pending)
	}

	if len(pending) == 0 {
		ui.Info("No messages to process")
		return nil
	}
	ui.PrintSectionHeader(ui.MailIcon, "Pending", len(pending))
	for _, p := range pending {
		ui.PrintPending(p.addr, []byte(p.Content))
	}
	return nil
}
