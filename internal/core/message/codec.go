package message

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// coreFields are required header keys, checked in this order.
var coreFields = []string{"id", "from", "for", "action"}

// Decode parses raw mailbox content. Unknown header keys are ignored.
// Header lines may end in LF, CRLF or CR; the body is returned verbatim.
// Failures are always *DecodeError.
func Decode(raw []byte) (Message, error) {
	end, next := nextLine(raw, 0)
	if string(raw[:end]) != fence || next == end {
		return Message{}, malformed("", "header block is absent", nil)
	}

	header, body, ok := splitHeader(raw, next)
	if !ok {
		return Message{}, malformed("", "header block is not terminated", nil)
	}
	header = normalizeNewlines(header)

	var root yaml.Node
	if err := yaml.Unmarshal(header, &root); err != nil {
		return Message{}, malformed("", "header is not valid YAML", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 ||
		resolve(root.Content[0]).Kind != yaml.MappingNode {
		return Message{}, malformed("", "header is not a mapping", nil)
	}

	fields := make(map[string]*yaml.Node)
	mapping := resolve(root.Content[0])
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		fields[mapping.Content[i].Value] = resolve(mapping.Content[i+1])
	}

	values := make(map[string]string, len(coreFields))
	for _, name := range coreFields {
		node, ok := fields[name]
		if !ok || isNull(node) {
			return Message{}, missing(name)
		}
		if node.Kind != yaml.ScalarNode {
			return Message{}, malformed(name, "field must be a scalar", nil)
		}
		if node.Value == "" {
			return Message{}, missing(name)
		}
		values[name] = node.Value
	}

	payload := make(map[string]any)
	if node, ok := fields["payload"]; ok && !isNull(node) {
		if node.Kind != yaml.MappingNode {
			return Message{}, malformed("payload", "payload must be a mapping", nil)
		}
		if err := node.Decode(&payload); err != nil {
			return Message{}, malformed("payload", "payload cannot be decoded", err)
		}
	}

	// One blank line separates the header from the body
	body = trimLineEnding(body)

	return Message{
		ID:      values["id"],
		From:    values["from"],
		For:     values["for"],
		Action:  values["action"],
		Payload: payload,
		Body:    string(body),
	}, nil
}

// Encode renders m in the mailbox wire format. Keys are written in the
// order id, from, for, action, payload.
func Encode(m Message) ([]byte, error) {
	core := [][2]string{
		{"id", m.ID}, {"from", m.From}, {"for", m.For}, {"action", m.Action},
	}

	header := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range core {
		if kv[1] == "" {
			return nil, fmt.Errorf("%w: %s", ErrIncomplete, kv[0])
		}
		if err := appendPair(header, kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	payload := m.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	if err := appendPair(header, "payload", payload); err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(data)
	buf.WriteString(fence + "\n")
	if m.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(m.Body)
	}
	return buf.Bytes(), nil
}

func appendPair(mapping *yaml.Node, key string, value any) error {
	var k, v yaml.Node
	if err := k.Encode(key); err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key, err)
	}
	if err := v.Encode(value); err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	mapping.Content = append(mapping.Content, &k, &v)
	return nil
}

// splitHeader finds the closing fence line at or after start and returns
// the header bytes before it and everything after its line ending.
func splitHeader(doc []byte, start int) (header, body []byte, ok bool) {
	pos := start
	for pos < len(doc) {
		end, next := nextLine(doc, pos)
		if string(bytes.TrimRight(doc[pos:end], " \t")) == fence {
			return doc[start:pos], doc[next:], true
		}
		pos = next
	}
	return nil, nil, false
}

// nextLine returns the end of the line starting at pos and the start of the
// following line. LF, CRLF and a lone CR all end a line.
func nextLine(doc []byte, pos int) (end, next int) {
	for i := pos; i < len(doc); i++ {
		switch doc[i] {
		case '\n':
			return i, i + 1
		case '\r':
			if i+1 < len(doc) && doc[i+1] == '\n' {
				return i, i + 2
			}
			return i, i + 1
		}
	}
	return len(doc), len(doc)
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}

// trimLineEnding drops one leading LF, CRLF or CR
func trimLineEnding(b []byte) []byte {
	switch {
	case bytes.HasPrefix(b, []byte("\r\n")):
		return b[2:]
	case len(b) > 0 && (b[0] == '\n' || b[0] == '\r'):
		return b[1:]
	}
	return b
}

func normalizeNewlines(data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
}
