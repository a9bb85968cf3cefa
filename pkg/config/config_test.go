package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/germanamz/agentwire/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "agentwire.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("AGENTWIRE_TEST_KEY", "sk-secret")

	path := writeConfig(t, `
base_url: https://agents.example.com
api_key: ${AGENTWIRE_TEST_KEY}
timeout: 45s
recursion_limit: 10
response_granularity: partial
headers:
  X-Team: core
mcp_servers:
  - name: files
    command: mcp-files
    args: ["--root", "/tmp"]
  - name: search
    url: https://mcp.example.com/sse
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://agents.example.com", cfg.BaseURL)
	assert.Equal(t, "sk-secret", cfg.APIKey)
	assert.Equal(t, 10, cfg.RecursionLimit)
	assert.Equal(t, "partial", cfg.Granularity)
	assert.Equal(t, "core", cfg.Headers["X-Team"])

	require.Len(t, cfg.MCPServers, 2)
	assert.Equal(t, []string{"--root", "/tmp"}, cfg.MCPServers[0].Args)
	assert.Equal(t, "https://mcp.example.com/sse", cfg.MCPServers[1].URL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := config.Load(writeConfig(t, "base_url: [broken"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{
			name:    "missing base url",
			cfg:     config.Config{},
			wantErr: "base_url",
		},
		{
			name:    "bad timeout",
			cfg:     config.Config{BaseURL: "https://x", Timeout: "soon"},
			wantErr: "timeout",
		},
		{
			name:    "bad granularity",
			cfg:     config.Config{BaseURL: "https://x", Granularity: "verbose"},
			wantErr: "response_granularity",
		},
		{
			name:    "negative limit",
			cfg:     config.Config{BaseURL: "https://x", RecursionLimit: -1},
			wantErr: "recursion_limit",
		},
		{
			name: "mcp missing name",
			cfg: config.Config{BaseURL: "https://x", MCPServers: []config.MCPConfig{
				{Command: "mcp-files"},
			}},
			wantErr: "name is required",
		},
		{
			name: "mcp missing transport",
			cfg: config.Config{BaseURL: "https://x", MCPServers: []config.MCPConfig{
				{Name: "files"},
			}},
			wantErr: "command or url",
		},
		{
			name: "mcp both transports",
			cfg: config.Config{BaseURL: "https://x", MCPServers: []config.MCPConfig{
				{Name: "files", Command: "mcp-files", URL: "https://x/sse"},
			}},
			wantErr: "mutually exclusive",
		},
		{
			name: "mcp duplicate name",
			cfg: config.Config{BaseURL: "https://x", MCPServers: []config.MCPConfig{
				{Name: "files", Command: "a"},
				{Name: "files", Command: "b"},
			}},
			wantErr: "duplicate",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateOK(t *testing.T) {
	cfg := config.Config{BaseURL: "https://x", Timeout: "2m", Granularity: "full"}
	assert.NoError(t, cfg.Validate())
}

func TestClientFromConfig(t *testing.T) {
	cfg := config.Config{
		BaseURL:    "https://agents.example.com",
		APIKey:     "sk-1",
		AuthHeader: "X-Api-Key",
		AuthScheme: "Token",
		Timeout:    "90s",
		Headers:    map[string]string{"X-Team": "core"},
	}

	cl := cfg.Client()
	assert.Equal(t, "https://agents.example.com", cl.BaseURL)
	assert.Equal(t, "sk-1", cl.Auth.Key)
	assert.Equal(t, "X-Api-Key", cl.Auth.Header)
	assert.Equal(t, "Token", cl.Auth.Scheme)
	assert.Equal(t, 90*time.Second, cl.Timeout)
	assert.Equal(t, "core", cl.Headers["X-Team"])
}

func TestLoopOptionsFromConfig(t *testing.T) {
	cfg := config.Config{RecursionLimit: 5, Granularity: "low"}

	opts := cfg.LoopOptions()
	assert.Equal(t, 5, opts.RecursionLimit)
	assert.Equal(t, "low", string(opts.Granularity))
}
