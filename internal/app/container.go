// Package app wires the handoff components together for the CLI and the MCP server
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dvanosdol88/ai-assistants/internal/core/action"
	"github.com/dvanosdol88/ai-assistants/internal/core/config"
	"github.com/dvanosdol88/ai-assistants/internal/core/logger"
	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
	"github.com/dvanosdol88/ai-assistants/internal/core/message"
	"github.com/dvanosdol88/ai-assistants/internal/core/poller"
)

// Options adjusts how a container is built
type Options struct {
	// Identity overrides the identity from the configuration file
	Identity string
	Logger   logger.Logger
}

// Container holds all manager instances and their dependencies
type Container struct {
	// ProjectRoot is the directory holding .handoff/
	ProjectRoot string

	ConfigManager *config.Manager
	Config        *config.Config

	// Identity is the agent this process acts as
	Identity string
	Logger   logger.Logger

	Store    *mailbox.Manager
	Registry *action.Registry

	now func() time.Time
}

// NewContainer creates a container with all managers initialized in dependency order
func NewContainer(projectRoot string, opts Options) (*Container, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	c := &Container{
		ProjectRoot:   projectRoot,
		ConfigManager: config.NewManager(projectRoot),
		Logger:        log,
		now:           time.Now,
	}

	cfg, err := c.ConfigManager.Load()
	if err != nil {
		return nil, err
	}
	c.Config = cfg

	c.Identity = cfg.Identity
	if opts.Identity != "" {
		if err := mailbox.ValidateIdentifier(opts.Identity); err != nil {
			return nil, fmt.Errorf("invalid identity override: %w", err)
		}
		c.Identity = opts.Identity
	}

	c.Store = mailbox.NewManager(
		c.ConfigManager.SharedDir(cfg),
		mailbox.WithLogger(log),
		mailbox.WithLockTimeout(cfg.LockTimeout),
		mailbox.WithSettleTime(cfg.Poll.SettleTime),
	)
	if err := c.Store.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize shared directory: %w", err)
	}

	c.Registry = action.NewRegistry(log)
	if err := c.Registry.RegisterBuiltins(action.BuiltinOptions{
		Workspace:      c.ConfigManager.WorkspaceDir(cfg),
		AllowOverwrite: cfg.Actions.AddFile.AllowOverwrite,
	}); err != nil {
		return nil, fmt.Errorf("failed to register actions: %w", err)
	}

	return c, nil
}

// NewContainerWithoutInit creates a container without loading the configuration.
// This is useful for commands that don't require an initialized project (e.g., init, version).
func NewContainerWithoutInit(projectRoot string) *Container {
	return &Container{
		ProjectRoot:   projectRoot,
		ConfigManager: config.NewManager(projectRoot),
		Logger:        logger.Nop(),
		now:           time.Now,
	}
}

// NewPoller creates a poller for the container's identity
func (c *Container) NewPoller() (*poller.Poller, error) {
	cfg := c.Config
	return poller.New(c.Store, c.Registry, poller.Options{
		Identity: c.Identity,
		Interval: cfg.Poll.Interval,
		Retry: poller.RetryPolicy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		},
		DisableReplies: !cfg.Reply.IsEnabled(),
		Logger:         c.Logger,
	})
}

// Compose builds a message from the container's identity to recipient,
// stamped with the current time. The payload is normalized to the types it
// decodes to, so the recipient sees exactly what was sent.
func (c *Container) Compose(recipient, act string, payload map[string]any, body string) (message.Message, error) {
	if err := mailbox.ValidateIdentifier(recipient); err != nil {
		return message.Message{}, err
	}
	if act == "" {
		return message.Message{}, fmt.Errorf("action is required")
	}
	payload = message.NormalizePayload(payload)
	if payload == nil {
		payload = map[string]any{}
	}

	return message.Message{
		ID:      message.NewID(c.now()),
		From:    c.Identity,
		For:     recipient,
		Action:  act,
		Payload: payload,
		Body:    body,
	}, nil
}

// Send delivers msg into its mailbox slot. mailbox.ErrMailboxBusy is
// returned when the recipient has not consumed the previous message.
func (c *Container) Send(ctx context.Context, msg message.Message) error {
	if err := c.Store.Deliver(ctx, msg); err != nil {
		return err
	}
	c.Logger.Info("Message sent", "mailbox", mailbox.AddressOf(msg).Name(), "id", msg.ID, "action", msg.Action)
	return nil
}
