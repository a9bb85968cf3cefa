// Package wire defines the JSON wire format spoken with the agent service:
// the message codec, the streaming event envelope, and request bodies for
// streaming and single-shot runs.
package wire

import "encoding/json"

// Granularity controls how much of each event the service streams back.
type Granularity string

const (
	GranularityFull    Granularity = "full"
	GranularityPartial Granularity = "partial"
	GranularityLow     Granularity = "low"
)

// DefaultRecursionLimit is the run request default when the caller does not
// set one.
const DefaultRecursionLimit = 25

// RunRequest is the outbound body for a streaming or single-shot exchange.
type RunRequest struct {
	Messages            []json.RawMessage `json:"messages"`
	InitialState        json.RawMessage   `json:"initial_state,omitempty"`
	Config              map[string]any    `json:"config,omitempty"`
	RecursionLimit      int               `json:"recursion_limit,omitempty"`
	ResponseGranularity Granularity       `json:"response_granularity,omitempty"`
	Tools               []ToolDescriptor  `json:"tools,omitempty"`
}

// ToolDescriptor declares one locally registered tool to the service.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
