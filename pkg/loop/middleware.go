package loop

import (
	"context"
	"log/slog"
	"time"

	"github.com/germanamz/agentwire/pkg/convo/message"
)

// Runner is anything that can execute a loop call. Controller implements
// it; middleware wraps it.
type Runner interface {
	Run(ctx context.Context, msgs []message.Message, onChunk ChunkHandler) (Result, error)
}

// Middleware wraps a Runner, returning a new Runner with added behaviour.
type Middleware func(next Runner) Runner

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, msgs []message.Message, onChunk ChunkHandler) (Result, error)

func (f RunnerFunc) Run(ctx context.Context, msgs []message.Message, onChunk ChunkHandler) (Result, error) {
	return f(ctx, msgs, onChunk)
}

// Chain composes multiple middleware into one. The first middleware in the
// list is the outermost (runs first).
func Chain(mws ...Middleware) Middleware {
	return func(next Runner) Runner {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Apply wraps a runner with the given middleware. The first middleware in
// the list is the outermost (runs first).
func Apply(r Runner, mws ...Middleware) Runner {
	return Chain(mws...)(r)
}

// Timeout returns a Middleware that bounds the whole call with a deadline.
func Timeout(d time.Duration) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, msgs []message.Message, onChunk ChunkHandler) (Result, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.Run(ctx, msgs, onChunk)
		})
	}
}

// Logging returns a Middleware that logs each call's outcome: iterations
// run, whether the limit was hit, duration, and any error.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, msgs []message.Message, onChunk ChunkHandler) (Result, error) {
			start := time.Now()
			res, err := next.Run(ctx, msgs, onChunk)

			if err != nil {
				logger.Error("loop: call failed",
					"err", err,
					"duration", time.Since(start),
				)
				return res, err
			}

			logger.Info("loop: call finished",
				"iterations", res.Iterations,
				"limit_reached", res.LimitReached,
				"duration", time.Since(start),
			)

			return res, err
		})
	}
}
