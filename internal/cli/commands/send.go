package commands

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
)

type sendOptions struct {
	action      string
	assignments []string
	payloadFile string
	body        string
	bodyFile    string
	queue       bool
}

func newSendCmd() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send <to>",
		Short: "Send a message to another agent",
		Long: `Compose a message from this agent and place it in the recipient's mailbox.

The payload is built from --payload-file (a YAML mapping) and then --set
assignments, which win on conflicts. A mailbox holds one message at a time;
sending to a busy mailbox fails unless --queue is given.`,
		Example: `  # Ask jules to create a file
  handoff send jules --action add_file --set path=notes/todo.md --set contents="- ship it"

  # Send a note with a body read from a file
  handoff send jules --action message -f notes.md

  # Queue the message if the mailbox is still busy
  handoff send jules --action run_task --set task=lint --queue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runSend(ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.action, "action", "a", "message", "Action the recipient should perform")
	cmd.Flags().StringArrayVar(&opts.assignments, "set", nil, "Payload field as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.payloadFile, "payload-file", "", "Read the payload from a YAML file")
	cmd.Flags().StringVar(&opts.body, "body", "", "Free-text body")
	cmd.Flags().StringVarP(&opts.bodyFile, "file", "f", "", "Read the body from a file")
	cmd.Flags().BoolVar(&opts.queue, "queue", false, "Queue the message in the outbox when the mailbox is busy")
	cmd.MarkFlagsMutuallyExclusive("body", "file")

	return cmd
}

func runSend(ctx context.Context, to string, opts *sendOptions) error {
	payload := map[string]any{}
	if opts.payloadFile != "" {
		fromFile, err := readPayloadFile(opts.payloadFile)
		if err != nil {
			return err
		}
		maps.Copy(payload, fromFile)
	}
	assigned, err := parseAssignments(opts.assignments)
	if err != nil {
		return err
	}
	maps.Copy(payload, assigned)

	body := opts.body
	if opts.bodyFile != "" {
		data, err := os.ReadFile(opts.bodyFile)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		body = string(data)
	}

	container, err := createContainer(CreateQuietLogger())
	if err != nil {
		return err
	}

	msg, err := container.Compose(to, opts.action, payload, body)
	if err != nil {
		return err
	}
	a := mailbox.AddressOf(msg)

	queued := false
	if opts.queue {
		delivered, err := container.Store.DeliverOrSpool(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		queued = !delivered
	} else if err := container.Send(ctx, msg); err != nil {
		if errors.Is(err, mailbox.ErrMailboxBusy) {
			return fmt.Errorf("mailbox %s still holds an unprocessed message (use --queue to wait): %w", a.Name(), err)
		}
		return fmt.Errorf("failed to send message: %w", err)
	}

	if ui.GlobalFormatter.IsJSON() {
		return ui.GlobalFormatter.Output(map[string]any{
			"id":      msg.ID,
			"mailbox": a.Name(),
			"action":  msg.Action,
			"queued":  queued,
		})
	}

	if queued {
		ui.Info("Mailbox %s is busy; message %s queued", a.Name(), msg.ID)
		return nil
	}
	ui.Success("Message %s sent to %s", msg.ID, to)
	return nil
}
