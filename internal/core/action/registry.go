package action

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/dvanosdol88/ai-assistants/internal/core/logger"
	"github.com/dvanosdol88/ai-assistants/internal/core/message"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Registry is the action table. It is safe for concurrent use; handlers
// are normally registered once at startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   logger.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   log,
	}
}

// Register adds a handler under name. Unless name is itself a reply action,
// "<name>_response" is registered too so that replies to it are accepted.
func (r *Registry) Register(name string, h Handler) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid action name %q", name)
	}
	if h == nil {
		return fmt.Errorf("nil handler for action %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.handlers[name]; ok && existing.Kind() != KindReply {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, name)
	}
	r.handlers[name] = h

	reply := message.ReplyAction(name)
	if h.Kind() != KindReply {
		if _, ok := r.handlers[reply]; !ok {
			r.handlers[reply] = NewReply(r.logger)
		}
	}

	r.logger.Debug("Registered action", "action", name, "kind", h.Kind())
	return nil
}

// Lookup returns the handler registered under name
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	return h, ok
}

// Names returns every registered action name in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler registered under req.Action. Unknown actions
// fail with CodeUnknownAction.
func (r *Registry) Dispatch(ctx context.Context, req Request) Result {
	h, ok := r.Lookup(req.Action)
	if !ok {
		return Failed(CodeUnknownAction, "no handler registered for %q", req.Action)
	}

	r.logger.Debug("Dispatching action", "action", req.Action, "kind", h.Kind(), "from", req.From)
	return h.Execute(ctx, req)
}

// BuiltinOptions configures the handlers registered by RegisterBuiltins
type BuiltinOptions struct {
	// Workspace is the root directory add_file writes into
	Workspace string
	// AllowOverwrite permits add_file to honour payload.overwrite
	AllowOverwrite bool
}

// RegisterBuiltins registers add_file, run_task and message.
func (r *Registry) RegisterBuiltins(opts BuiltinOptions) error {
	builtins := []struct {
		name    string
		handler Handler
	}{
		{string(KindAddFile), NewAddFile(opts.Workspace, opts.AllowOverwrite, r.logger)},
		{string(KindRunTask), NewRunTask(r.logger)},
		{string(KindMessage), NewMessage(r.logger)},
	}

	for _, b := range builtins {
		if err := r.Register(b.name, b.handler); err != nil {
			return err
		}
	}
	return nil
}
