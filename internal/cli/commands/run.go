package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
)

type runOptions struct {
	interval time.Duration
	once     bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process messages addressed to this agent",
		Long: `Poll every mailbox addressed to this agent, process pending messages
and send replies. Without --once the poller runs until interrupted.`,
		Example: `  # Run continuously with the configured interval
  handoff run

  # Process what is pending right now and exit
  handoff run --once

  # Poll every 2 seconds
  handoff run --interval 2s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoller(cmd.Context(), opts)
		},
	}

	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Pause between polls (defaults to poll.interval)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single poll and exit")
	cmd.Flags().BoolVar(&opts.once, "check-once", false, "Alias for --once")

	return cmd
}

func runPoller(ctx context.Context, opts *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := createContainer(CreateLogger())
	if err != nil {
		return err
	}
	if opts.interval > 0 {
		container.Config.Poll.Interval = opts.interval
	}

	p, err := container.NewPoller()
	if err != nil {
		return err
	}

	if opts.once {
		summary, err := p.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("poll failed: %w", err)
		}
		return ui.GlobalFormatter.Output(summary)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container.Logger.Info("Poller started", "interval", container.Config.Poll.Interval.String())
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	container.Logger.Info("Poller stopped")
	return nil
}
