package message

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const scenarioA = `---
id: 2025-07-01T14:32:10Z
from: cc
for: jules
action: add_file
payload:
  path: out.txt
  contents: hi
---
`

func TestDecode_Scenario(t *testing.T) {
	msg, err := Decode([]byte(scenarioA))
	require.NoError(t, err)

	assert.Equal(t, "2025-07-01T14:32:10Z", msg.ID)
	assert.Equal(t, "cc", msg.From)
	assert.Equal(t, "jules", msg.For)
	assert.Equal(t, "add_file", msg.Action)
	assert.Equal(t, map[string]any{"path": "out.txt", "contents": "hi"}, msg.Payload)
	assert.Empty(t, msg.Body)

	ts, err := msg.Time()
	require.NoError(t, err)
	assert.Equal(t, 2025, ts.Year())
}

func TestDecode_BodyAndUnknownKeys(t *testing.T) {
	raw := "---\r\nid: '2025-07-01T14:32:10Z'\r\nfrom: cc\r\nfor: jules\r\naction: message\r\npriority: high\r\n---\r\n\r\nline one\r\nline two\r\n"

	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "line one\r\nline two\r\n", msg.Body, "body is kept verbatim")
	assert.Empty(t, msg.Payload)
	assert.NotNil(t, msg.Payload)
}

func TestDecode_NestedPayload(t *testing.T) {
	raw := `---
id: 2025-07-01T14:32:10Z
from: cc
for: jules
action: run_task
payload:
  task: build
  options:
    targets: [linux, darwin]
    retries: 3
    verbose: true
---
`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)

	options, ok := msg.Payload["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"linux", "darwin"}, options["targets"])
	assert.Equal(t, 3, options["retries"])
	assert.Equal(t, true, options["verbose"])
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  error
		field string
	}{
		{
			name: "no header",
			raw:  "just some text\n",
			kind: ErrMalformedHeader,
		},
		{
			name: "unterminated header",
			raw:  "---\nid: 2025-07-01T14:32:10Z\nfrom: cc\n",
			kind: ErrMalformedHeader,
		},
		{
			name: "header is a sequence",
			raw:  "---\n- id\n- from\n---\n",
			kind: ErrMalformedHeader,
		},
		{
			name: "header is invalid yaml",
			raw:  "---\nid: [unclosed\n---\n",
			kind: ErrMalformedHeader,
		},
		{
			name: "empty header",
			raw:  "---\n---\nbody\n",
			kind: ErrMalformedHeader,
		},
		{
			name:  "payload is a scalar",
			raw:   "---\nid: 2025-07-01T14:32:10Z\nfrom: cc\nfor: jules\naction: message\npayload: hello\n---\n",
			kind:  ErrMalformedHeader,
			field: "payload",
		},
		{
			name:  "missing id",
			raw:   "---\nfrom: cc\nfor: jules\naction: message\n---\n",
			kind:  ErrMissingField,
			field: "id",
		},
		{
			name:  "missing from",
			raw:   "---\nid: 2025-07-01T14:32:10Z\nfor: jules\naction: message\n---\n",
			kind:  ErrMissingField,
			field: "from",
		},
		{
			name:  "empty for",
			raw:   "---\nid: 2025-07-01T14:32:10Z\nfrom: cc\nfor: \"\"\naction: message\n---\n",
			kind:  ErrMissingField,
			field: "for",
		},
		{
			name:  "null action",
			raw:   "---\nid: 2025-07-01T14:32:10Z\nfrom: cc\nfor: jules\naction: ~\n---\n",
			kind:  ErrMissingField,
			field: "action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.field, decodeErr.Field)
		})
	}
}

func TestDecodeError_ReasonCode(t *testing.T) {
	_, err := Decode([]byte("---\nid: 2025-07-01T14:32:10Z\nfor: jules\naction: message\n---\n"))

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "MissingField(from)", decodeErr.ReasonCode())
}

func TestEncode_Layout(t *testing.T) {
	data, err := Encode(Message{
		ID:      "2025-07-01T14:32:10Z",
		From:    "jules",
		For:     "cc",
		Action:  "add_file_response",
		Payload: map[string]any{"status": "success"},
		Body:    "Response to add_file",
	})
	require.NoError(t, err)

	want := "---\n" +
		"id: \"2025-07-01T14:32:10Z\"\n" +
		"from: jules\n" +
		"for: cc\n" +
		"action: add_file_response\n" +
		"payload:\n" +
		"    status: success\n" +
		"---\n" +
		"\n" +
		"Response to add_file"
	assert.Equal(t, want, string(data))
}

func TestEncode_Incomplete(t *testing.T) {
	_, err := Encode(Message{ID: "2025-07-01T14:32:10Z", For: "cc", Action: "message"})
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestRoundTrip_MultilineBody(t *testing.T) {
	msg := Message{
		ID:     "2025-07-01T14:32:10.123456789Z",
		From:   "cc",
		For:    "jules",
		Action: "message",
		Payload: map[string]any{
			"content": "first line\nsecond line\n",
			"meta":    map[string]any{"tags": []any{"a", "b"}, "count": 2},
		},
		Body: "\n---\nlooks like a fence but is body text\n\n",
	}

	data, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestDecode_LineEndings(t *testing.T) {
	for name, eol := range map[string]string{"lf": "\n", "crlf": "\r\n", "cr": "\r"} {
		t.Run(name, func(t *testing.T) {
			raw := strings.Join([]string{
				"---", "id: 2025-07-01T14:32:10Z", "from: cc", "for: jules", "action: message",
				"payload:", "  content: hi", "---", "", "",
			}, eol) + "body\r\nmixed\nendings"

			msg, err := Decode([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, "jules", msg.For)
			assert.Equal(t, map[string]any{"content": "hi"}, msg.Payload)
			assert.Equal(t, "body\r\nmixed\nendings", msg.Body)
		})
	}
}

func TestRoundTrip_CarriageReturnBody(t *testing.T) {
	for _, body := range []string{"line1\r\nline2\r\n", "\r\nleading", "\rlone", "\n\nblank first"} {
		msg := Message{
			ID:      "2025-07-01T14:32:10Z",
			From:    "cc",
			For:     "jules",
			Action:  "message",
			Payload: map[string]any{},
			Body:    body,
		}

		data, err := Encode(msg)
		require.NoError(t, err)
		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, msg, decoded, "%q", body)
	}
}

func TestRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		msg := genMessage().Draw(rt, "msg")

		data, err := Encode(msg)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}

		decoded, err := Decode(data)
		if err != nil {
			rt.Fatalf("decode: %v\n%s", err, data)
		}

		if !assert.ObjectsAreEqual(msg, decoded) {
			rt.Fatalf("round trip mismatch:\nwant %#v\ngot  %#v\nwire:\n%s", msg, decoded, data)
		}
	})
}

var (
	identGen = rapid.StringMatching(`[a-z][a-z0-9_-]{0,11}`)
	keyGen   = rapid.StringMatching(`k[a-z]{0,7}`)
	textGen  = rapid.StringMatching(`[A-Za-z0-9 _.,:#'"-]{0,24}`)
	eolGen   = rapid.SampledFrom([]string{"\n", "\r\n", "\r"})
)

func genScalar() *rapid.Generator[any] {
	return rapid.OneOf(
		rapid.Map(textGen, func(s string) any { return s }),
		rapid.Map(rapid.IntRange(-1_000_000, 1_000_000), func(i int) any { return i }),
		rapid.Map(rapid.Bool(), func(b bool) any { return b }),
	)
}

func genValue(depth int) *rapid.Generator[any] {
	if depth <= 0 {
		return genScalar()
	}
	return rapid.OneOf(
		genScalar(),
		rapid.Map(rapid.SliceOfN(genScalar(), 1, 4), func(v []any) any { return v }),
		rapid.Map(genMapping(depth-1), func(m map[string]any) any { return m }),
	)
}

func genMapping(depth int) *rapid.Generator[map[string]any] {
	return rapid.MapOfN(keyGen, genValue(depth), 1, 4)
}

func genMessage() *rapid.Generator[Message] {
	return rapid.Custom(func(t *rapid.T) Message {
		sec := rapid.Int64Range(0, 4_000_000_000).Draw(t, "sec")
		payload := map[string]any{}
		if rapid.Bool().Draw(t, "hasPayload") {
			payload = genMapping(2).Draw(t, "payload")
		}
		lines := rapid.SliceOfN(textGen, 0, 5).Draw(t, "body")
		body := ""
		for i, line := range lines {
			if i > 0 {
				body += eolGen.Draw(t, "eol")
			}
			body += line
		}
		return Message{
			ID:      fmt.Sprintf("%d", sec),
			From:    identGen.Draw(t, "from"),
			For:     identGen.Draw(t, "for"),
			Action:  identGen.Draw(t, "action"),
			Payload: payload,
			Body:    body,
		}
	})
}
