// Package message defines the Message type exchanged with the agent
// service: a role, an ordered sequence of content blocks, and optional
// identity, timestamp, metadata, and usage counters.
package message

import (
	"strings"
	"time"

	"github.com/germanamz/agentwire/pkg/convo/content"
	"github.com/germanamz/agentwire/pkg/convo/role"
	"github.com/germanamz/agentwire/pkg/convo/usage"
)

// Message is a single conversational message. Messages are treated as
// immutable once built; callers construct a new message rather than
// mutating one that has been handed off.
type Message struct {
	Role      role.Role
	Blocks    []content.Block
	ID        string
	CreatedAt time.Time
	Metadata  map[string]any
	Usage     *usage.TokenCount
}

// New creates a message with the given role and content blocks.
func New(r role.Role, blocks ...content.Block) Message {
	return Message{
		Role:   r,
		Blocks: blocks,
	}
}

// NewText creates a message with a single text block.
func NewText(r role.Role, text string) Message {
	return New(r, content.Text{Text: text})
}

// TextContent concatenates all text blocks in the message.
func (m Message) TextContent() string {
	var sb strings.Builder

	for _, b := range m.Blocks {
		if t, ok := b.(content.Text); ok {
			sb.WriteString(t.Text)
		}
	}

	return sb.String()
}

// ToolCalls returns all tool call blocks in the message, in order.
func (m Message) ToolCalls() []content.ToolCall {
	var calls []content.ToolCall

	for _, b := range m.Blocks {
		if tc, ok := b.(content.ToolCall); ok {
			calls = append(calls, tc)
		}
	}

	return calls
}

// ToolResults returns all tool result blocks in the message, in order.
func (m Message) ToolResults() []content.ToolResult {
	var results []content.ToolResult

	for _, b := range m.Blocks {
		if tr, ok := b.(content.ToolResult); ok {
			results = append(results, tr)
		}
	}

	return results
}

// SetMeta sets a metadata key, allocating the map on first use.
func (m *Message) SetMeta(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// GetMeta returns the metadata value for key and whether it was present.
func (m Message) GetMeta(key string) (any, bool) {
	v, ok := m.Metadata[key]
	return v, ok
}
