// Command agentwire sends a prompt through a remote agent service and
// prints the streamed reply, executing any tools the service requests via
// configured MCP servers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/germanamz/agentwire/pkg/config"
	"github.com/germanamz/agentwire/pkg/convo/content"
	"github.com/germanamz/agentwire/pkg/convo/message"
	"github.com/germanamz/agentwire/pkg/convo/role"
	"github.com/germanamz/agentwire/pkg/loop"
	"github.com/germanamz/agentwire/pkg/tools/mcpclient"
	"github.com/germanamz/agentwire/pkg/tools/toolbox"
	"github.com/germanamz/agentwire/pkg/wire"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "agentwire:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("agentwire", flag.ExitOnError)
	configPath := fs.String("config", "agentwire.yaml", "path to configuration file")
	envFile := fs.String("env", ".env", "path to .env file (ignored when missing)")
	once := fs.Bool("once", false, "use the single-shot endpoint instead of streaming")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: agentwire [flags] <prompt>")
	}
	prompt := fs.Arg(0)

	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tb := toolbox.New()
	for _, m := range cfg.MCPServers {
		mc, err := connectMCP(ctx, m)
		if err != nil {
			return fmt.Errorf("mcp server %q: %w", m.Name, err)
		}
		defer func() { _ = mc.Close() }()

		tools, err := mc.ListTools(ctx)
		if err != nil {
			return fmt.Errorf("mcp server %q: %w", m.Name, err)
		}
		tb.Register(tools...)
	}

	ctrl := loop.New(cfg.Client(), tb, cfg.LoopOptions())

	var res loop.Result
	if *once {
		res, err = ctrl.RunOnce(ctx, []message.Message{message.NewText(role.User, prompt)})
	} else {
		res, err = ctrl.Run(ctx, []message.Message{message.NewText(role.User, prompt)}, printChunk)
		fmt.Println()
	}
	if err != nil {
		return err
	}

	if *once {
		for _, m := range res.Final {
			fmt.Println(m.TextContent())
		}
	}

	if res.LimitReached {
		fmt.Fprintf(os.Stderr, "agentwire: recursion limit reached after %d iterations\n", res.Iterations)
	}

	return nil
}

func connectMCP(ctx context.Context, m config.MCPConfig) (*mcpclient.MCPClient, error) {
	if m.URL != "" {
		return mcpclient.NewSSE(ctx, m.Name, m.URL)
	}
	return mcpclient.New(ctx, m.Name, m.Command, m.Args...)
}

// printChunk writes streamed text live and surfaces error events.
func printChunk(c wire.StreamChunk) error {
	switch c.Kind() {
	case wire.EventMessage:
		if c.Message == nil {
			return nil
		}
		for _, b := range c.Message.Blocks {
			if t, ok := b.(content.Text); ok {
				fmt.Print(t.Text)
			}
		}
	case wire.EventError:
		fmt.Fprintf(os.Stderr, "\nagentwire: server error: %s\n", string(c.Data))
	}
	return nil
}
