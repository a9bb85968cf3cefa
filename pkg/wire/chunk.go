package wire

import (
	"encoding/json"
	"fmt"

	"github.com/germanamz/agentwire/pkg/convo/message"
)

// EventKind classifies a streamed event.
type EventKind string

const (
	EventMessage EventKind = "message"
	EventUpdates EventKind = "updates"
	EventState   EventKind = "state"
	EventError   EventKind = "error"
	EventOther   EventKind = "other"
)

// StreamChunk is one decoded server event. Chunks are ephemeral: they are
// produced per parsed frame and not retained past the consumer's handling.
type StreamChunk struct {
	Event    string
	Message  *message.Message
	State    json.RawMessage
	Data     json.RawMessage
	ThreadID string
	RunID    string
	Metadata map[string]any
}

// chunkEnvelope is the raw JSON shape of a streamed event.
type chunkEnvelope struct {
	Event    string          `json:"event"`
	Message  json.RawMessage `json:"message"`
	State    json.RawMessage `json:"state"`
	Data     json.RawMessage `json:"data"`
	ThreadID string          `json:"thread_id"`
	RunID    string          `json:"run_id"`
	Metadata map[string]any  `json:"metadata"`
}

// Kind returns the chunk's event kind, normalizing unrecognized
// discriminators to EventOther.
func (c StreamChunk) Kind() EventKind {
	switch EventKind(c.Event) {
	case EventMessage, EventUpdates, EventState, EventError:
		return EventKind(c.Event)
	}
	return EventOther
}

// DecodeChunk parses one frame into a StreamChunk, including any embedded
// message.
func DecodeChunk(frame json.RawMessage) (StreamChunk, error) {
	var env chunkEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return StreamChunk{}, fmt.Errorf("wire: decode chunk: %w", err)
	}

	c := StreamChunk{
		Event:    env.Event,
		State:    env.State,
		Data:     env.Data,
		ThreadID: env.ThreadID,
		RunID:    env.RunID,
		Metadata: env.Metadata,
	}

	if len(env.Message) > 0 && string(env.Message) != "null" {
		m, err := DecodeMessage(env.Message)
		if err != nil {
			return StreamChunk{}, err
		}
		c.Message = &m
	}

	return c, nil
}
