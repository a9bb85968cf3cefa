package client

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/germanamz/agentwire/pkg/convo/message"
	"github.com/germanamz/agentwire/pkg/wire"
)

// PingResponse is the service health reply.
type PingResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}

// GraphInfo describes the agent graph deployed behind the service.
type GraphInfo struct {
	GraphID  string         `json:"graph_id"`
	Name     string         `json:"name"`
	Nodes    []string       `json:"nodes"`
	Metadata map[string]any `json:"metadata"`
}

// Thread is a server-side conversation container.
type Thread struct {
	ThreadID  string         `json:"thread_id"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

// Ping checks service health.
func (c *Client) Ping(ctx context.Context) (PingResponse, error) {
	var out PingResponse
	err := c.GetJSON(ctx, "/ping", &out)
	return out, err
}

// Graph fetches metadata for the deployed agent graph.
func (c *Client) Graph(ctx context.Context) (GraphInfo, error) {
	var out GraphInfo
	err := c.GetJSON(ctx, "/graph", &out)
	return out, err
}

// CreateThread creates a new thread with optional metadata.
func (c *Client) CreateThread(ctx context.Context, metadata map[string]any) (Thread, error) {
	payload := map[string]any{}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}

	var out Thread
	err := c.PostJSON(ctx, "/threads", payload, &out)
	return out, err
}

// GetThread fetches a thread by id.
func (c *Client) GetThread(ctx context.Context, threadID string) (Thread, error) {
	var out Thread
	err := c.GetJSON(ctx, "/threads/"+url.PathEscape(threadID), &out)
	return out, err
}

// DeleteThread removes a thread by id.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.Delete(ctx, "/threads/"+url.PathEscape(threadID))
}

// ThreadMessages fetches a thread's message history in order.
func (c *Client) ThreadMessages(ctx context.Context, threadID string) ([]message.Message, error) {
	var raw struct {
		Messages []json.RawMessage `json:"messages"`
	}
	if err := c.GetJSON(ctx, "/threads/"+url.PathEscape(threadID)+"/messages", &raw); err != nil {
		return nil, err
	}

	msgs := make([]message.Message, 0, len(raw.Messages))
	for _, r := range raw.Messages {
		m, err := wire.DecodeMessage(r)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	return msgs, nil
}

// AppendThreadMessages appends messages to a thread's history.
func (c *Client) AppendThreadMessages(ctx context.Context, threadID string, msgs []message.Message) error {
	encoded, err := wire.EncodeMessages(msgs)
	if err != nil {
		return err
	}

	payload := map[string]any{"messages": encoded}

	return c.PostJSON(ctx, "/threads/"+url.PathEscape(threadID)+"/messages", payload, nil)
}

// GetMemory fetches the raw value stored under key, or nil when unset.
func (c *Client) GetMemory(ctx context.Context, key string) (json.RawMessage, error) {
	var out struct {
		Value json.RawMessage `json:"value"`
	}
	if err := c.GetJSON(ctx, "/memory/"+url.PathEscape(key), &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// PutMemory stores value under key.
func (c *Client) PutMemory(ctx context.Context, key string, value json.RawMessage) error {
	payload := map[string]any{"value": value}
	return c.PutJSON(ctx, "/memory/"+url.PathEscape(key), payload)
}

// DeleteMemory removes the value stored under key.
func (c *Client) DeleteMemory(ctx context.Context, key string) error {
	return c.Delete(ctx, "/memory/"+url.PathEscape(key))
}
