package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/germanamz/agentwire/pkg/convo/content"
	"github.com/germanamz/agentwire/pkg/convo/message"
	"github.com/germanamz/agentwire/pkg/convo/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(_ context.Context, args json.RawMessage) (any, error) {
	return string(args), nil
}

func newEchoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "Echoes input",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler:     echoHandler,
	}
}

func callMessage(calls ...content.ToolCall) message.Message {
	blocks := make([]content.Block, 0, len(calls))
	for _, c := range calls {
		blocks = append(blocks, c)
	}
	return message.New(role.Assistant, blocks...)
}

func TestNew(t *testing.T) {
	tb := New()
	assert.NotNil(t, tb)
	assert.Empty(t, tb.Tools())
}

func TestRegisterAndGet(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("echo"))

	got, ok := tb.Get("echo")
	assert.True(t, ok)
	assert.Equal(t, "echo", got.Name)
}

func TestRegisterReplace(t *testing.T) {
	tb := New()
	tb.Register(Tool{Name: "tool", Description: "original", Handler: echoHandler})
	tb.Register(Tool{Name: "tool", Description: "replaced", Handler: echoHandler})

	got, ok := tb.Get("tool")
	require.True(t, ok)
	assert.Equal(t, "replaced", got.Description)
	assert.Len(t, tb.Tools(), 1)
}

func TestToolsSorted(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("zeta"), newEchoTool("alpha"), newEchoTool("mid"))

	tools := tb.Tools()
	require.Len(t, tools, 3)
	assert.Equal(t, "alpha", tools[0].Name)
	assert.Equal(t, "mid", tools[1].Name)
	assert.Equal(t, "zeta", tools[2].Name)
}

func TestMerge(t *testing.T) {
	a := New()
	a.Register(newEchoTool("one"))

	b := New()
	b.Register(newEchoTool("two"))

	a.Merge(b)
	assert.Len(t, a.Tools(), 2)
}

func TestManifestDefaults(t *testing.T) {
	tb := New()
	tb.Register(Tool{Name: "bare", Handler: echoHandler})

	manifest := tb.Manifest()
	require.Len(t, manifest, 1)
	assert.Equal(t, "bare", manifest[0].Name)
	assert.Equal(t, "Execute bare", manifest[0].Description)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(manifest[0].Parameters))
}

func TestManifestIdempotence(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("a"), Tool{Name: "b", Handler: echoHandler})

	first := tb.Manifest()
	second := tb.Manifest()
	assert.Equal(t, first, second)
}

func TestHasToolCalls(t *testing.T) {
	msgs := []message.Message{
		message.NewText(role.Assistant, "thinking"),
		callMessage(content.ToolCall{ID: "c1", Name: "echo"}),
	}

	assert.True(t, HasToolCalls(msgs))
	assert.False(t, HasToolCalls(msgs[:1]))
	assert.False(t, HasToolCalls(nil))
}

func TestExecuteToolCallsNoCallsShortCircuit(t *testing.T) {
	invoked := false
	tb := New()
	tb.Register(Tool{
		Name: "never",
		Handler: func(_ context.Context, _ json.RawMessage) (any, error) {
			invoked = true
			return nil, nil
		},
	})

	results := tb.ExecuteToolCalls(context.Background(), []message.Message{
		message.NewText(role.Assistant, "no calls here"),
	})

	assert.Empty(t, results)
	assert.False(t, invoked)
}

func TestExecuteToolCallsSuccess(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("echo"))

	results := tb.ExecuteToolCalls(context.Background(), []message.Message{
		callMessage(content.ToolCall{ID: "c1", Name: "echo", Args: json.RawMessage(`{"msg":"hi"}`)}),
	})

	require.Len(t, results, 1)
	assert.Equal(t, role.Tool, results[0].Role)

	trs := results[0].ToolResults()
	require.Len(t, trs, 1)
	assert.Equal(t, "c1", trs[0].CallID)
	assert.Equal(t, content.StatusCompleted, trs[0].Status)
	assert.False(t, trs[0].IsError)
	assert.Equal(t, `{"msg":"hi"}`, trs[0].Output)
}

func TestExecuteToolCallsHandlerError(t *testing.T) {
	tb := New()
	tb.Register(Tool{
		Name: "boom",
		Handler: func(_ context.Context, _ json.RawMessage) (any, error) {
			return nil, errors.New("disk full")
		},
	})

	results := tb.ExecuteToolCalls(context.Background(), []message.Message{
		callMessage(content.ToolCall{ID: "c1", Name: "boom"}),
	})

	require.Len(t, results, 1)
	tr := results[0].ToolResults()[0]
	assert.Equal(t, content.StatusFailed, tr.Status)
	assert.True(t, tr.IsError)
	assert.Equal(t, map[string]any{"error": "disk full"}, tr.Output)
}

func TestExecuteToolCallsUnregistered(t *testing.T) {
	tb := New()

	results := tb.ExecuteToolCalls(context.Background(), []message.Message{
		callMessage(content.ToolCall{ID: "c1", Name: "ghost"}),
	})

	require.Len(t, results, 1)
	tr := results[0].ToolResults()[0]
	assert.Equal(t, "c1", tr.CallID)
	assert.True(t, tr.IsError)
	assert.Equal(t, map[string]any{"error": "Tool 'ghost' not found"}, tr.Output)
}

func TestExecuteToolCallsMixedRegistration(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("known"))

	// Four calls across two messages, two naming unregistered tools.
	results := tb.ExecuteToolCalls(context.Background(), []message.Message{
		callMessage(
			content.ToolCall{ID: "c1", Name: "known", Args: json.RawMessage(`{}`)},
			content.ToolCall{ID: "c2", Name: "missing"},
		),
		callMessage(
			content.ToolCall{ID: "c3", Name: "also_missing"},
			content.ToolCall{ID: "c4", Name: "known", Args: json.RawMessage(`{}`)},
		),
	})

	require.Len(t, results, 4)

	errs := 0
	for i, want := range []string{"c1", "c2", "c3", "c4"} {
		tr := results[i].ToolResults()[0]
		assert.Equal(t, want, tr.CallID, "arrival order preserved")
		if tr.IsError {
			errs++
		}
	}
	assert.Equal(t, 2, errs)
}
