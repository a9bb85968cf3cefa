// Package content defines the tagged content blocks carried inside agent
// messages: plain text, remote tool calls, tool results, and unknown blocks
// preserved verbatim.
package content

import "encoding/json"

// Block statuses reported on tool results.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Block is one piece of content within a message.
// External packages can implement this interface to add custom block types.
type Block interface {
	BlockKind() string
}

// Text is a plain text content block with optional annotations.
type Text struct {
	Text        string
	Annotations []map[string]any
}

func (t Text) BlockKind() string { return "text" }

// ToolCall is the remote agent's request to invoke a locally registered
// tool. Args holds the raw JSON arguments to avoid an intermediate decode.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

func (tc ToolCall) BlockKind() string { return "tool_call" }

// ToolResult holds the outcome of one tool invocation, correlated to the
// originating call by CallID. Output is the handler's return value (or an
// error payload when IsError is set).
type ToolResult struct {
	CallID  string
	Output  any
	Status  string
	IsError bool
}

func (tr ToolResult) BlockKind() string { return "tool_result" }

// Unknown is a block of an unrecognized type, preserved verbatim so it
// survives a decode/encode round trip untouched.
type Unknown struct {
	Raw json.RawMessage
}

func (u Unknown) BlockKind() string { return "unknown" }
