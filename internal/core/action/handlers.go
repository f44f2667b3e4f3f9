package action

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/dvanosdol88/ai-assistants/internal/core/logger"
	"github.com/dvanosdol88/ai-assistants/internal/filemanager"
)

// AddFile creates payload.path with payload.contents inside the workspace.
type AddFile struct {
	workspace      string
	allowOverwrite bool
	logger         logger.Logger
}

// NewAddFile creates the add_file handler rooted at workspace
func NewAddFile(workspace string, allowOverwrite bool, log logger.Logger) *AddFile {
	return &AddFile{workspace: workspace, allowOverwrite: allowOverwrite, logger: log}
}

// Kind implements Handler
func (h *AddFile) Kind() Kind { return KindAddFile }

// Fields implements Handler
func (h *AddFile) Fields() []Field {
	return []Field{
		{Name: "path", Type: FieldString, Required: true},
		{Name: "contents", Type: FieldString, Required: true},
		{Name: "overwrite", Type: FieldBool},
	}
}

// Execute implements Handler
func (h *AddFile) Execute(ctx context.Context, req Request) Result {
	rel, _ := req.Payload["path"].(string)
	contents, _ := req.Payload["contents"].(string)
	overwrite, _ := req.Payload["overwrite"].(bool)

	target, err := h.resolve(rel)
	if err != nil {
		return fn.Err[Outcome](err)
	}

	data := []byte(contents)
	if overwrite && h.allowOverwrite {
		err = filemanager.WriteFileAtomic(target, data, 0o644)
	} else {
		err = filemanager.CreateExclusive(target, data, 0o644)
	}

	switch {
	case errors.Is(err, filemanager.ErrExists):
		return Failed(CodePathConflict, "%s already exists", rel)
	case err != nil:
		return fn.Err[Outcome](&Error{Code: CodeIO, Reason: "failed to write " + rel, Err: err})
	}

	h.logger.Info("File created", "path", rel, "bytes", len(data))
	return fn.Ok(Outcome{
		Status:  "success",
		Message: "File created: " + rel,
		Details: map[string]any{"path": filepath.ToSlash(rel)},
	})
}

// resolve maps a payload path onto the workspace, refusing anything that
// would land outside it.
func (h *AddFile) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", &Error{Code: CodePathOutsideWorkspace, Reason: "path must be relative: " + rel}
	}

	root, err := filepath.Abs(h.workspace)
	if err != nil {
		return "", &Error{Code: CodeIO, Reason: "cannot resolve workspace", Err: err}
	}

	target := filepath.Join(root, filepath.FromSlash(rel))
	within, err := filepath.Rel(root, target)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) || within == "." {
		return "", &Error{Code: CodePathOutsideWorkspace, Reason: "path escapes the workspace: " + rel}
	}

	return target, nil
}

// RunTask acknowledges receipt of a task without executing it.
type RunTask struct {
	logger logger.Logger
	now    func() time.Time
}

// NewRunTask creates the run_task handler
func NewRunTask(log logger.Logger) *RunTask {
	return &RunTask{logger: log, now: time.Now}
}

// Kind implements Handler
func (h *RunTask) Kind() Kind { return KindRunTask }

// Fields implements Handler
func (h *RunTask) Fields() []Field {
	return []Field{{Name: "task", Type: FieldString}}
}

// Execute implements Handler
func (h *RunTask) Execute(ctx context.Context, req Request) Result {
	task, _ := req.Payload["task"].(string)
	if task == "" {
		task = "No task specified"
	}

	h.logger.Info("Task acknowledged", "task", task, "from", req.From)
	return fn.Ok(Outcome{
		Status:  "acknowledged",
		Message: "Task received: " + task,
		Details: map[string]any{"timestamp": h.now().UTC().Format(time.RFC3339)},
	})
}

// Message handles pure communication.
type Message struct {
	logger logger.Logger
}

// NewMessage creates the message handler
func NewMessage(log logger.Logger) *Message {
	return &Message{logger: log}
}

// Kind implements Handler
func (h *Message) Kind() Kind { return KindMessage }

// Fields implements Handler
func (h *Message) Fields() []Field {
	return []Field{{Name: "content", Type: FieldString}}
}

// Execute implements Handler
func (h *Message) Execute(ctx context.Context, req Request) Result {
	content, _ := req.Payload["content"].(string)
	if content == "" {
		content = req.Body
	}

	h.logger.Info("Message received", "from", req.From, "characters", len(content))
	return Ok("received", "Message acknowledged: %d characters", len(content))
}

// Reply records the answer to an earlier action. Replies are never answered.
type Reply struct {
	logger logger.Logger
}

// NewReply creates the handler used for "<action>_response" messages
func NewReply(log logger.Logger) *Reply {
	return &Reply{logger: log}
}

// Kind implements Handler
func (h *Reply) Kind() Kind { return KindReply }

// Fields implements Handler
func (h *Reply) Fields() []Field {
	return nil
}

// Execute implements Handler
func (h *Reply) Execute(ctx context.Context, req Request) Result {
	status, _ := req.Payload["status"].(string)
	text, _ := req.Payload["message"].(string)

	h.logger.Info("Reply received", "action", req.Action, "from", req.From, "status", status, "message", text)
	return Ok("received", "Reply to %s recorded", strings.TrimSuffix(req.Action, "_response"))
}

// compile-time interface checks
var (
	_ Handler = (*AddFile)(nil)
	_ Handler = (*RunTask)(nil)
	_ Handler = (*Message)(nil)
	_ Handler = (*Reply)(nil)
)
