// Package toolbox holds the client's tool registry: a name-to-handler
// table with manifest generation and tool call detection and execution.
package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/germanamz/agentwire/pkg/convo/content"
	"github.com/germanamz/agentwire/pkg/convo/message"
	"github.com/germanamz/agentwire/pkg/convo/role"
	"github.com/germanamz/agentwire/pkg/wire"
)

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// ToolBox orchestrates a collection of tools. Registration happens once at
// configuration time; the registry lives for the client's lifetime.
type ToolBox struct {
	tools map[string]Tool
}

// New creates an empty ToolBox.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds one or more tools. A tool registered under an existing
// name replaces the earlier registration.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		tb.tools[t.Name] = t
	}
}

// Get returns a tool by name and whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Merge registers all tools from another ToolBox into this one. Same-name
// tools are replaced.
func (tb *ToolBox) Merge(other *ToolBox) {
	for _, t := range other.tools {
		tb.tools[t.Name] = t
	}
}

// Tools returns all registered tools, sorted by name for deterministic
// order.
func (tb *ToolBox) Tools() []Tool {
	names := make([]string, 0, len(tb.tools))
	for name := range tb.tools {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, tb.tools[name])
	}

	return out
}

// Manifest returns a service-compatible descriptor for every registered
// tool. Tools without a description get "Execute <name>"; tools without a
// schema get an empty object schema.
func (tb *ToolBox) Manifest() []wire.ToolDescriptor {
	tools := tb.Tools()

	out := make([]wire.ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		desc := t.Description
		if desc == "" {
			desc = "Execute " + t.Name
		}

		schema := t.InputSchema
		if len(schema) == 0 {
			schema = emptyObjectSchema
		}

		out = append(out, wire.ToolDescriptor{
			Name:        t.Name,
			Description: desc,
			Parameters:  schema,
		})
	}

	return out
}

// HasToolCalls reports whether any message's content contains a tool call
// block.
func HasToolCalls(msgs []message.Message) bool {
	for _, m := range msgs {
		if len(m.ToolCalls()) > 0 {
			return true
		}
	}
	return false
}

// ExecuteToolCalls runs every tool call found across msgs, strictly one
// after another in arrival order, and returns exactly one tool result
// message per call, correlated by call id. Handler failures and
// unregistered names become failed results; this method never returns an
// error.
func (tb *ToolBox) ExecuteToolCalls(ctx context.Context, msgs []message.Message) []message.Message {
	var calls []content.ToolCall
	for _, m := range msgs {
		calls = append(calls, m.ToolCalls()...)
	}

	if len(calls) == 0 {
		return nil
	}

	results := make([]message.Message, 0, len(calls))
	for _, tc := range calls {
		results = append(results, message.New(role.Tool, tb.call(ctx, tc)))
	}

	return results
}

// call executes a single tool call, converting every failure mode into a
// failed tool result.
func (tb *ToolBox) call(ctx context.Context, tc content.ToolCall) content.ToolResult {
	t, ok := tb.tools[tc.Name]
	if !ok {
		return content.ToolResult{
			CallID:  tc.ID,
			Output:  map[string]any{"error": fmt.Sprintf("Tool '%s' not found", tc.Name)},
			Status:  content.StatusFailed,
			IsError: true,
		}
	}

	out, err := t.Handler(ctx, tc.Args)
	if err != nil {
		return content.ToolResult{
			CallID:  tc.ID,
			Output:  map[string]any{"error": err.Error()},
			Status:  content.StatusFailed,
			IsError: true,
		}
	}

	return content.ToolResult{
		CallID: tc.ID,
		Output: out,
		Status: content.StatusCompleted,
	}
}
