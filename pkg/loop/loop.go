// Package loop drives the bounded request/response loop against the agent
// service: it alternates streaming exchanges with local tool execution
// until the service stops requesting tools or the recursion limit is hit.
package loop

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/germanamz/agentwire/pkg/client"
	"github.com/germanamz/agentwire/pkg/convo/message"
	"github.com/germanamz/agentwire/pkg/convo/usage"
	"github.com/germanamz/agentwire/pkg/stream"
	"github.com/germanamz/agentwire/pkg/tools/toolbox"
	"github.com/germanamz/agentwire/pkg/wire"
)

// State is a phase of the loop's finite state machine.
type State int

const (
	StateIterating State = iota
	StateExecutingTools
	StateDone
	StateLimitReached
)

func (s State) String() string {
	switch s {
	case StateIterating:
		return "iterating"
	case StateExecutingTools:
		return "executing_tools"
	case StateDone:
		return "done"
	case StateLimitReached:
		return "limit_reached"
	}
	return "unknown"
}

// Default endpoint paths for run exchanges.
const (
	DefaultStreamPath = "/runs/stream"
	DefaultWaitPath   = "/runs/wait"
)

// Options configures the loop.
type Options struct {
	// RecursionLimit caps the number of exchange-plus-tool-execution
	// iterations. Zero or negative means the wire default of 25.
	RecursionLimit int

	// Granularity selects how much of each event the service streams back.
	Granularity wire.Granularity

	// InitialState is an opaque agent-state snapshot sent with the first
	// exchange only.
	InitialState json.RawMessage

	// Config is an opaque configuration mapping sent with every exchange.
	Config map[string]any

	// StreamPath and WaitPath override the default run endpoints.
	StreamPath string
	WaitPath   string
}

// Result is the terminal output of one loop call.
type Result struct {
	Iterations   int
	LimitReached bool
	History      []message.Message
	Final        []message.Message
	Usage        usage.TokenCount
}

// ChunkHandler receives every streamed chunk live. Returning stream.Stop
// ends the current exchange early; any other error aborts the whole call.
type ChunkHandler func(wire.StreamChunk) error

// Controller orchestrates repeated stream sessions and tool execution.
// Iterations never overlap: the loop is single-flight per call, and a
// transport failure aborts the call immediately with no retry. Each call
// owns its own iteration state, so a Controller may serve concurrent calls.
type Controller struct {
	Client  *client.Client
	Tools   *toolbox.ToolBox
	Options Options
}

// New creates a Controller. tools may be nil, in which case replies that
// request tools terminate the loop as a normal completion.
func New(c *client.Client, tools *toolbox.ToolBox, opts Options) *Controller {
	return &Controller{
		Client:  c,
		Tools:   tools,
		Options: opts,
	}
}

// exchangeFunc runs one request/response exchange and returns the messages
// the service produced.
type exchangeFunc func(ctx context.Context, msgs []message.Message, first bool) ([]message.Message, error)

// Run executes the loop with streaming exchanges, forwarding every chunk
// to onChunk unchanged as it arrives. A nil onChunk discards chunks.
func (ct *Controller) Run(ctx context.Context, msgs []message.Message, onChunk ChunkHandler) (Result, error) {
	if onChunk == nil {
		onChunk = func(wire.StreamChunk) error { return nil }
	}

	return ct.run(ctx, msgs, func(ctx context.Context, current []message.Message, first bool) ([]message.Message, error) {
		return ct.streamExchange(ctx, current, first, onChunk)
	})
}

// RunOnce executes the loop with single-shot (non-streaming) exchanges.
func (ct *Controller) RunOnce(ctx context.Context, msgs []message.Message) (Result, error) {
	return ct.run(ctx, msgs, ct.waitExchange)
}

// run is the finite state machine shared by Run and RunOnce.
func (ct *Controller) run(ctx context.Context, msgs []message.Message, exchange exchangeFunc) (Result, error) {
	limit := ct.Options.RecursionLimit
	if limit <= 0 {
		limit = wire.DefaultRecursionLimit
	}

	var (
		state     = StateIterating
		iteration = 1
		current   = msgs
		produced  []message.Message
		history   = append([]message.Message(nil), msgs...)
		tracker   usage.Tracker
		res       Result
	)

	for {
		switch state {
		case StateIterating:
			var err error
			produced, err = exchange(ctx, current, res.Iterations == 0)
			if err != nil {
				return Result{}, err
			}

			res.Iterations++
			history = append(history, produced...)

			for _, m := range produced {
				if m.Usage != nil {
					tracker.Add(*m.Usage)
				}
			}

			if ct.Tools != nil && toolbox.HasToolCalls(produced) {
				state = StateExecutingTools
			} else {
				state = StateDone
			}

		case StateExecutingTools:
			results := ct.Tools.ExecuteToolCalls(ctx, produced)
			history = append(history, results...)
			current = results

			iteration++
			if iteration <= limit {
				state = StateIterating
			} else {
				state = StateLimitReached
			}

		case StateDone:
			res.History = history
			res.Final = produced
			res.Usage = tracker.Total()
			return res, nil

		case StateLimitReached:
			res.LimitReached = true
			res.History = history
			res.Final = current
			res.Usage = tracker.Total()
			return res, nil
		}
	}
}

// streamExchange runs one streaming exchange under the client's per-call
// timeout budget.
func (ct *Controller) streamExchange(ctx context.Context, msgs []message.Message, first bool, onChunk ChunkHandler) ([]message.Message, error) {
	body, err := ct.buildRequest(msgs, first)
	if err != nil {
		return nil, err
	}

	ictx, cancel := ct.iterationContext(ctx)
	defer cancel()

	path := ct.Options.StreamPath
	if path == "" {
		path = DefaultStreamPath
	}

	sess, err := stream.Open(ictx, ct.Client, path, body)
	if err != nil {
		return nil, ct.convertTimeout(err)
	}

	if err := sess.Each(func(c wire.StreamChunk) error { return onChunk(c) }); err != nil {
		return nil, ct.convertTimeout(err)
	}

	return sess.Messages(), nil
}

// waitExchange runs one single-shot exchange under the client's per-call
// timeout budget.
func (ct *Controller) waitExchange(ctx context.Context, msgs []message.Message, first bool) ([]message.Message, error) {
	body, err := ct.buildRequest(msgs, first)
	if err != nil {
		return nil, err
	}

	ictx, cancel := ct.iterationContext(ctx)
	defer cancel()

	path := ct.Options.WaitPath
	if path == "" {
		path = DefaultWaitPath
	}

	var resp struct {
		Messages []json.RawMessage `json:"messages"`
	}
	if err := ct.Client.PostJSON(ictx, path, body, &resp); err != nil {
		return nil, ct.convertTimeout(err)
	}

	out := make([]message.Message, 0, len(resp.Messages))
	for _, raw := range resp.Messages {
		m, err := wire.DecodeMessage(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, nil
}

func (ct *Controller) buildRequest(msgs []message.Message, first bool) (wire.RunRequest, error) {
	encoded, err := wire.EncodeMessages(msgs)
	if err != nil {
		return wire.RunRequest{}, err
	}

	limit := ct.Options.RecursionLimit
	if limit <= 0 {
		limit = wire.DefaultRecursionLimit
	}

	req := wire.RunRequest{
		Messages:            encoded,
		Config:              ct.Options.Config,
		RecursionLimit:      limit,
		ResponseGranularity: ct.Options.Granularity,
	}

	if first {
		req.InitialState = ct.Options.InitialState
	}

	if ct.Tools != nil {
		req.Tools = ct.Tools.Manifest()
	}

	return req, nil
}

// iterationContext derives this iteration's abort signal from the client's
// per-call timeout. A zero timeout means no derived deadline.
func (ct *Controller) iterationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ct.Client.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, ct.Client.Timeout)
}

// convertTimeout maps a fired iteration deadline to a TimeoutError naming
// the configured duration. Other errors pass through.
func (ct *Controller) convertTimeout(err error) error {
	if ct.Client.Timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
		return &client.TimeoutError{After: ct.Client.Timeout}
	}
	return err
}
