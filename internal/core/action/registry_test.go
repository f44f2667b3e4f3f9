package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct{}

func (echoHandler) Kind() Kind      { return KindCustom }
func (echoHandler) Fields() []Field { return []Field{{Name: "text", Type: FieldString, Required: true}} }
func (echoHandler) Execute(_ context.Context, req Request) Result {
	return Ok("echoed", "%s", req.Payload["text"])
}

func newBuiltinRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry(nil)
	require.NoError(t, r.RegisterBuiltins(BuiltinOptions{Workspace: t.TempDir()}))
	return r
}

func TestRegistry_Builtins(t *testing.T) {
	r := newBuiltinRegistry(t)

	assert.Equal(t, []string{
		"add_file", "add_file_response",
		"message", "message_response",
		"run_task", "run_task_response",
	}, r.Names())

	h, ok := r.Lookup("run_task_response")
	require.True(t, ok)
	assert.Equal(t, KindReply, h.Kind())
}

func TestRegistry_RegisterCustom(t *testing.T) {
	r := newBuiltinRegistry(t)
	require.NoError(t, r.Register("echo", echoHandler{}))

	outcome, err := r.Dispatch(context.Background(), Request{
		Action:  "echo",
		Payload: map[string]any{"text": "hello"},
	}).Unpack()
	require.NoError(t, err)
	assert.Equal(t, "echoed", outcome.Status)
	assert.Equal(t, "hello", outcome.Message)

	_, ok := r.Lookup("echo_response")
	assert.True(t, ok)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := newBuiltinRegistry(t)

	err := r.Register("add_file", echoHandler{})
	assert.ErrorIs(t, err, ErrDuplicateAction)

	assert.Error(t, r.Register("", echoHandler{}))
	assert.Error(t, r.Register("Bad Name", echoHandler{}))
	assert.Error(t, r.Register("nil_handler", nil))
}

func TestRegistry_ReplyCanBeOverridden(t *testing.T) {
	r := newBuiltinRegistry(t)

	// A collaborator may take over the auto-registered reply action
	require.NoError(t, r.Register("message_response", echoHandler{}))

	h, ok := r.Lookup("message_response")
	require.True(t, ok)
	assert.Equal(t, KindCustom, h.Kind())
}

func TestRegistry_DispatchUnknown(t *testing.T) {
	r := newBuiltinRegistry(t)

	_, err := r.Dispatch(context.Background(), Request{Action: "deploy"}).Unpack()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAction)

	var actionErr *Error
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, "UnknownAction", actionErr.ReasonCode())
}

func TestField_Matches(t *testing.T) {
	tests := []struct {
		field Field
		value any
		want  bool
	}{
		{Field{Type: FieldString}, "x", true},
		{Field{Type: FieldString}, 1, false},
		{Field{Type: FieldBool}, true, true},
		{Field{Type: FieldBool}, "true", false},
		{Field{Type: FieldInt}, 3, true},
		{Field{Type: FieldInt}, 3.5, false},
		{Field{Type: FieldMap}, map[string]any{}, true},
		{Field{Type: FieldList}, []any{"a"}, true},
		{Field{Type: FieldList}, "a", false},
		{Field{Type: FieldAny}, nil, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.field.Matches(tt.value), "%s %#v", tt.field.Type, tt.value)
	}
}
