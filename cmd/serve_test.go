package cmd

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMetricsConfig(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		args     []string
		expected MetricsConfig
	}{
		{
			name:     "defaults",
			expected: MetricsConfig{Enabled: true, Addr: ":9090"},
		},
		{
			name:     "env disables metrics",
			env:      map[string]string{"METRICS_ENABLED": "false"},
			expected: MetricsConfig{Enabled: false, Addr: ":9090"},
		},
		{
			name:     "env sets address",
			env:      map[string]string{"METRICS_ADDR": ":9191"},
			expected: MetricsConfig{Enabled: true, Addr: ":9191"},
		},
		{
			name:     "flags win over env",
			env:      map[string]string{"METRICS_ENABLED": "false", "METRICS_ADDR": ":9191"},
			args:     []string{"--metrics-enabled=true", "--metrics-addr=:9292"},
			expected: MetricsConfig{Enabled: true, Addr: ":9292"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("METRICS_ENABLED", "")
			t.Setenv("METRICS_ADDR", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cmd := newServeCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg := MetricsConfig{}
			cfg.Enabled, _ = cmd.Flags().GetBool("metrics-enabled")
			cfg.Addr, _ = cmd.Flags().GetString("metrics-addr")
			resolveMetricsConfig(cmd, &cfg)

			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe("carrier-pigeon", ":0", MetricsConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type")
}

func TestRootCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "lab", "create", "ask", "version", "generate-docs"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestServeCmdFlags(t *testing.T) {
	cmd := newServeCmd()
	for _, name := range []string{"transport", "http-addr", "metrics-enabled", "metrics-addr"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %q", name)
	}

	transport, err := cmd.Flags().GetString("transport")
	require.NoError(t, err)
	assert.Equal(t, "stdio", transport)
}


func TestNewMCPServer_RecoversToolPanic(t *testing.T) {
	s := newMCPServer()
	s.AddTool(mcp.NewTool("medical_broken"), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("nil page")
	})

	response := s.HandleMessage(t.Context(), []byte(`{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "tools/call",
		"params": {"name": "medical_broken"}
	}`))

	errorResponse, ok := response.(mcp.JSONRPCError)
	require.True(t, ok)
	assert.Equal(t, mcp.INTERNAL_ERROR, errorResponse.Error.Code)
	assert.Contains(t, errorResponse.Error.Message, "panic recovered in medical_broken tool handler")
}
