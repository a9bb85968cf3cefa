package loop_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/germanamz/agentwire/pkg/convo/message"
	"github.com/germanamz/agentwire/pkg/convo/role"
	"github.com/germanamz/agentwire/pkg/loop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string

	tag := func(name string) loop.Middleware {
		return func(next loop.Runner) loop.Runner {
			return loop.RunnerFunc(func(ctx context.Context, msgs []message.Message, onChunk loop.ChunkHandler) (loop.Result, error) {
				order = append(order, name)
				return next.Run(ctx, msgs, onChunk)
			})
		}
	}

	base := loop.RunnerFunc(func(_ context.Context, _ []message.Message, _ loop.ChunkHandler) (loop.Result, error) {
		order = append(order, "base")
		return loop.Result{Iterations: 1}, nil
	})

	res, err := loop.Apply(base, tag("outer"), tag("inner")).Run(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, []string{"outer", "inner", "base"}, order)
}

func TestTimeoutMiddleware(t *testing.T) {
	base := loop.RunnerFunc(func(ctx context.Context, _ []message.Message, _ loop.ChunkHandler) (loop.Result, error) {
		select {
		case <-ctx.Done():
			return loop.Result{}, ctx.Err()
		case <-time.After(2 * time.Second):
			return loop.Result{Iterations: 1}, nil
		}
	})

	_, err := loop.Apply(base, loop.Timeout(20*time.Millisecond)).Run(context.Background(), nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	base := loop.RunnerFunc(func(_ context.Context, _ []message.Message, _ loop.ChunkHandler) (loop.Result, error) {
		return loop.Result{Iterations: 2, LimitReached: true}, nil
	})

	res, err := loop.Apply(base, loop.Logging(logger)).Run(
		context.Background(),
		[]message.Message{message.NewText(role.User, "hi")},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Iterations)

	out := buf.String()
	assert.Contains(t, out, "call finished")
	assert.Contains(t, out, "iterations=2")
	assert.Contains(t, out, "limit_reached=true")
}

func TestLoggingMiddlewareError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	boom := errors.New("boom")
	base := loop.RunnerFunc(func(_ context.Context, _ []message.Message, _ loop.ChunkHandler) (loop.Result, error) {
		return loop.Result{}, boom
	})

	_, err := loop.Apply(base, loop.Logging(logger)).Run(context.Background(), nil, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "call failed")
}
