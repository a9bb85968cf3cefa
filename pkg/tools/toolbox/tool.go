package toolbox

import (
	"context"
	"encoding/json"
)

// Handler executes a tool with the given JSON arguments. The return value
// becomes the tool result's output; an error produces a failed result.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is an executable tool registered with the client: a unique name, an
// owning node label, a description, a JSON Schema for its parameters, and
// an async handler.
type Tool struct {
	Name        string
	Node        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}
