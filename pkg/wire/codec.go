package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/germanamz/agentwire/pkg/convo/content"
	"github.com/germanamz/agentwire/pkg/convo/message"
	"github.com/germanamz/agentwire/pkg/convo/role"
	"github.com/germanamz/agentwire/pkg/convo/usage"
)

// UnassignedMessageID is the sentinel sent for messages the caller has not
// assigned an identifier to.
const UnassignedMessageID = "unassigned"

// wireMessage is the JSON envelope for one message. Content is a bare
// string when the message is a single plain text block, otherwise an array
// of typed blocks.
type wireMessage struct {
	Role      string            `json:"role"`
	Content   json.RawMessage   `json:"content"`
	MessageID string            `json:"message_id"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	ToolCalls []toolCallPayload `json:"tool_calls,omitempty"`
	Usage     *usagePayload     `json:"usage,omitempty"`
}

type toolCallPayload struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type usagePayload struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// --- block envelopes ---

type textBlock struct {
	Type        string           `json:"type"`
	Text        string           `json:"text"`
	Annotations []map[string]any `json:"annotations,omitempty"`
}

type toolCallBlock struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type toolResultBlock struct {
	Type       string `json:"type"`
	ToolCallID string `json:"tool_call_id"`
	Output     any    `json:"output"`
	Status     string `json:"status"`
	IsError    bool   `json:"is_error"`
}

// blockProbe is used on decode to pick the concrete block type.
type blockProbe struct {
	Type        string           `json:"type"`
	Text        string           `json:"text"`
	Annotations []map[string]any `json:"annotations"`
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Args        json.RawMessage  `json:"args"`
	ToolCallID  string           `json:"tool_call_id"`
	Output      any              `json:"output"`
	Status      string           `json:"status"`
	IsError     bool             `json:"is_error"`
}

// EncodeMessage serializes a message into its wire form. A message whose
// content is exactly one text block with no annotations serializes to a
// bare string; everything else serializes as a block array with empty and
// absent fields stripped.
func EncodeMessage(m message.Message) (json.RawMessage, error) {
	wm := wireMessage{
		Role:      m.Role.String(),
		MessageID: m.ID,
	}

	if wm.MessageID == "" {
		wm.MessageID = UnassignedMessageID
	}

	if !m.CreatedAt.IsZero() {
		t := m.CreatedAt
		wm.CreatedAt = &t
	}

	if len(m.Metadata) > 0 {
		wm.Metadata = m.Metadata
	}

	if m.Usage != nil {
		wm.Usage = &usagePayload{
			InputTokens:  m.Usage.InputTokens,
			OutputTokens: m.Usage.OutputTokens,
		}
	}

	for _, tc := range m.ToolCalls() {
		wm.ToolCalls = append(wm.ToolCalls, toolCallPayload{
			ID:   tc.ID,
			Name: tc.Name,
			Args: tc.Args,
		})
	}

	body, err := encodeContent(m.Blocks)
	if err != nil {
		return nil, err
	}
	wm.Content = body

	return json.Marshal(wm)
}

func encodeContent(blocks []content.Block) (json.RawMessage, error) {
	if t, ok := singleText(blocks); ok {
		return json.Marshal(t.Text)
	}

	encoded := make([]json.RawMessage, 0, len(blocks))
	for _, b := range blocks {
		raw, err := encodeBlock(b)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, raw)
	}

	return json.Marshal(encoded)
}

// singleText reports whether blocks is exactly one plain text block with no
// auxiliary fields, which is the bare-string serialization case.
func singleText(blocks []content.Block) (content.Text, bool) {
	if len(blocks) != 1 {
		return content.Text{}, false
	}

	t, ok := blocks[0].(content.Text)
	if !ok || len(t.Annotations) > 0 {
		return content.Text{}, false
	}

	return t, true
}

func encodeBlock(b content.Block) (json.RawMessage, error) {
	switch v := b.(type) {
	case content.Text:
		return json.Marshal(textBlock{Type: "text", Text: v.Text, Annotations: v.Annotations})
	case content.ToolCall:
		args := v.Args
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		return json.Marshal(toolCallBlock{Type: "tool_call", ID: v.ID, Name: v.Name, Args: args})
	case content.ToolResult:
		return json.Marshal(toolResultBlock{
			Type:       "tool_result",
			ToolCallID: v.CallID,
			Output:     v.Output,
			Status:     v.Status,
			IsError:    v.IsError,
		})
	case content.Unknown:
		return v.Raw, nil
	default:
		return nil, fmt.Errorf("wire: unsupported block kind %q", b.BlockKind())
	}
}

// DecodeMessage parses a wire message back into a message.Message. Content
// may be a bare string or a block array; blocks of unknown type are kept
// verbatim. Top-level tool_calls entries that do not already appear as
// content blocks are appended as tool call blocks.
func DecodeMessage(raw json.RawMessage) (message.Message, error) {
	var wm wireMessage
	if err := json.Unmarshal(raw, &wm); err != nil {
		return message.Message{}, fmt.Errorf("wire: decode message: %w", err)
	}

	m := message.Message{
		Role:     role.Role(wm.Role),
		Metadata: wm.Metadata,
	}

	if wm.MessageID != "" && wm.MessageID != UnassignedMessageID {
		m.ID = wm.MessageID
	}

	if wm.CreatedAt != nil {
		m.CreatedAt = *wm.CreatedAt
	}

	if wm.Usage != nil {
		m.Usage = &usage.TokenCount{
			InputTokens:  wm.Usage.InputTokens,
			OutputTokens: wm.Usage.OutputTokens,
		}
	}

	blocks, err := decodeContent(wm.Content)
	if err != nil {
		return message.Message{}, err
	}
	m.Blocks = blocks

	seen := make(map[string]struct{})
	for _, tc := range m.ToolCalls() {
		seen[tc.ID] = struct{}{}
	}
	for _, tc := range wm.ToolCalls {
		if _, dup := seen[tc.ID]; dup {
			continue
		}
		m.Blocks = append(m.Blocks, content.ToolCall{ID: tc.ID, Name: tc.Name, Args: tc.Args})
	}

	return m, nil
}

func decodeContent(raw json.RawMessage) ([]content.Block, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []content.Block{content.Text{Text: text}}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("wire: decode content: %w", err)
	}

	blocks := make([]content.Block, 0, len(elems))
	for _, e := range elems {
		blocks = append(blocks, decodeBlock(e))
	}

	return blocks, nil
}

func decodeBlock(raw json.RawMessage) content.Block {
	var probe blockProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return content.Unknown{Raw: raw}
	}

	switch probe.Type {
	case "text":
		return content.Text{Text: probe.Text, Annotations: probe.Annotations}
	case "tool_call":
		return content.ToolCall{ID: probe.ID, Name: probe.Name, Args: probe.Args}
	case "tool_result":
		return content.ToolResult{
			CallID:  probe.ToolCallID,
			Output:  probe.Output,
			Status:  probe.Status,
			IsError: probe.IsError,
		}
	default:
		return content.Unknown{Raw: raw}
	}
}

// EncodeMessages serializes a slice of messages for a run request body.
func EncodeMessages(msgs []message.Message) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(msgs))

	for _, m := range msgs {
		raw, err := EncodeMessage(m)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}

	return out, nil
}
