package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
)

// sentMessage is the result of handoff_send
type sentMessage struct {
	ID      string `json:"id"`
	Mailbox string `json:"mailbox"`
	Action  string `json:"action"`
	Queued  bool   `json:"queued"`
}

// pendingMessage is one entry of handoff_peek
type pendingMessage struct {
	Mailbox string `json:"mailbox"`
	Content string `json:"content"`
}

// archivedMessage is one entry of handoff_archive_list
type archivedMessage struct {
	ID         string    `json:"id"`
	Recipient  string    `json:"recipient"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ArchivedAt time.Time `json:"archived_at"`
}

// rejectedMessage is one entry of handoff_rejected_list
type rejectedMessage struct {
	RejectedAt time.Time `json:"rejected_at"`
	Mailbox    string    `json:"mailbox"`
	ID         string    `json:"id,omitempty"`
	Action     string    `json:"action,omitempty"`
	Stage      string    `json:"stage"`
	Reason     string    `json:"reason"`
	Detail     string    `json:"detail,omitempty"`
	Raw        string    `json:"raw"`
}

func (s *Server) handleSend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SendParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}
	if params.To == "" {
		return nil, InvalidParameterError("to", "an agent identity")
	}
	if params.Action == "" {
		return nil, InvalidParameterError("action", "an action name")
	}

	msg, err := s.container.Compose(params.To, params.Action, params.Payload, params.Body)
	if err != nil {
		return nil, err
	}
	a := mailbox.AddressOf(msg)

	queued := false
	if params.Queue {
		delivered, err := s.container.Store.DeliverOrSpool(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("failed to send message: %w", err)
		}
		queued = !delivered
	} else if err := s.container.Send(ctx, msg); err != nil {
		if errors.Is(err, mailbox.ErrMailboxBusy) {
			return nil, MailboxBusyError(a.Name(), err)
		}
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return createEnhancedResult("handoff_send", sentMessage{
		ID:      msg.ID,
		Mailbox: a.Name(),
		Action:  msg.Action,
		Queued:  queued,
	}, s.metadata())
}

func (s *Server) handlePeek(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params PeekParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}

	store := s.container.Store
	var addrs []mailbox.Address
	if params.From != "" {
		a := mailbox.Address{From: params.From, For: s.container.Identity}
		if err := a.Validate(); err != nil {
			return nil, InvalidParameterError("from", "an agent identity")
		}
		addrs = []mailbox.Address{a}
	} else {
		var err error
		if addrs, err = store.Pending(s.container.Identity); err != nil {
			return nil, err
		}
	}

	pending := []pendingMessage{}
	for _, a := range addrs {
		raw, err := store.Peek(a)
		if err != nil {
			return nil, err
		}
		raw.WhenSome(func(data []byte) {
			pending = append(pending, pendingMessage{Mailbox: a.Name(), Content: string(data)})
		})
	}

	return createEnhancedResult("handoff_peek", pending, s.metadata())
}

func (s *Server) handleRunOnce(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.poller.RunOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("poll failed: %w", err)
	}
	return createEnhancedResult("handoff_run_once", summary, s.metadata())
}

func (s *Server) handleArchiveList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ListParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}

	entries, err := s.container.Store.ListArchive(params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]archivedMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, archivedMessage{
			ID:         e.Key,
			Recipient:  e.Recipient,
			Path:       e.Path,
			Size:       e.Size,
			ArchivedAt: e.ModTime.UTC(),
		})
	}
	return createEnhancedResult("handoff_archive_list", out, s.metadata())
}

func (s *Server) handleRejectedList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ListParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}

	records, err := s.container.Store.ListRejected(params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]rejectedMessage, 0, len(records))
	for _, r := range records {
		out = append(out, rejectedMessage{
			RejectedAt: r.RejectedAt.UTC(),
			Mailbox:    r.Mailbox,
			ID:         r.ID,
			Action:     r.Action,
			Stage:      string(r.Stage),
			Reason:     r.Reason,
			Detail:     r.Detail,
			Raw:        r.Raw,
		})
	}
	return createEnhancedResult("handoff_rejected_list", out, s.metadata())
}

