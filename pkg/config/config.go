// Package config loads client configuration from YAML. Environment
// variables referenced as ${VAR} or $VAR are expanded before parsing, so
// API keys can live in the environment (e.g. loaded from a .env file)
// rather than committed in the config.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/germanamz/agentwire/pkg/client"
	"github.com/germanamz/agentwire/pkg/loop"
	"github.com/germanamz/agentwire/pkg/wire"
	"gopkg.in/yaml.v3"
)

// Config is the top-level client configuration.
type Config struct {
	BaseURL        string            `yaml:"base_url"`
	APIKey         string            `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	AuthHeader     string            `yaml:"auth_header"`
	AuthScheme     string            `yaml:"auth_scheme"`
	Headers        map[string]string `yaml:"headers"`
	Timeout        string            `yaml:"timeout"` // Per-call budget as a duration string (e.g. "2m", "30s").
	RecursionLimit int               `yaml:"recursion_limit"`
	Granularity    string            `yaml:"response_granularity"`
	MCPServers     []MCPConfig       `yaml:"mcp_servers"`
}

// MCPConfig describes an MCP server whose tools are imported at startup.
type MCPConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"` // SSE endpoint; mutually exclusive with Command.
}

// Load reads a YAML file and returns a Config with environment variables
// expanded.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required")
	}

	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("config: timeout %q: %w", c.Timeout, err)
		}
	}

	switch wire.Granularity(c.Granularity) {
	case "", wire.GranularityFull, wire.GranularityPartial, wire.GranularityLow:
	default:
		return fmt.Errorf("config: unknown response_granularity %q", c.Granularity)
	}

	if c.RecursionLimit < 0 {
		return fmt.Errorf("config: recursion_limit must not be negative")
	}

	names := make(map[string]struct{}, len(c.MCPServers))
	for _, m := range c.MCPServers {
		if m.Name == "" {
			return fmt.Errorf("config: mcp server name is required")
		}
		if m.Command == "" && m.URL == "" {
			return fmt.Errorf("config: mcp server %q: command or url is required", m.Name)
		}
		if m.Command != "" && m.URL != "" {
			return fmt.Errorf("config: mcp server %q: command and url are mutually exclusive", m.Name)
		}
		if _, dup := names[m.Name]; dup {
			return fmt.Errorf("config: duplicate mcp server name %q", m.Name)
		}
		names[m.Name] = struct{}{}
	}

	return nil
}

// Client builds a client.Client from the configuration.
func (c Config) Client() *client.Client {
	cl := client.New(c.BaseURL, client.Auth{
		Key:    c.APIKey,
		Header: c.AuthHeader,
		Scheme: c.AuthScheme,
	}, nil)
	cl.Headers = c.Headers

	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			cl.Timeout = d
		}
	}

	return cl
}

// LoopOptions builds loop.Options from the configuration.
func (c Config) LoopOptions() loop.Options {
	return loop.Options{
		RecursionLimit: c.RecursionLimit,
		Granularity:    wire.Granularity(c.Granularity),
	}
}
