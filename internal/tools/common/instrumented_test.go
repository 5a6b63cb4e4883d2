package common

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/medpages/internal/config"
	"github.com/teemow/medpages/internal/instrumentation"
	"github.com/teemow/medpages/internal/server"
)

type staticCredentials struct{}

func (staticCredentials) Credentials() (config.Credential, error) {
	return config.Credential{Token: "tok", DatabaseID: "db"}, nil
}

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), &config.Config{
		APIBaseURL:     "https://api.example.com/v1",
		HTTPTimeout:    time.Second,
		MaxRetries:     1,
		TokenBudget:    100,
		MaxSearchPages: 1,
		FlowDir:        "./langflow",
		FlowFile:       "loadmedicine.json",
	}, staticCredentials{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newServerContext(t)

	called := false
	wrapped := InstrumentedToolHandler("test_tool", "title", sc, func(ctx context.Context, req mcp.CallToolRequest) Result {
		called = true
		return Success("done")
	})

	result, err := wrapped(context.Background(), callRequest(map[string]any{"title": "x"}))
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_FailureIsNotAGoError(t *testing.T) {
	sc := newServerContext(t)

	wrapped := InstrumentedToolHandler("test_tool", "title", sc, func(ctx context.Context, req mcp.CallToolRequest) Result {
		return Failure("transport", "Error: Unable to fetch page timeout")
	})

	result, err := wrapped(context.Background(), callRequest(nil))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: Unable to fetch page timeout", result.Content[0].(mcp.TextContent).Text)
}

func TestInstrumentedToolHandler_WithMetricsAndAudit(t *testing.T) {
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	var buf bytes.Buffer
	sc := newServerContext(t)
	sc.SetMetrics(provider.Metrics())
	sc.SetAuditLogger(instrumentation.NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	wrapped := InstrumentedToolHandler("medical_lab_page", "title", sc, func(ctx context.Context, req mcp.CallToolRequest) Result {
		return Failure("no_match", "No such page exists.")
	})

	_, err = wrapped(ctx, callRequest(map[string]any{"title": "Jane Doe"}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=tool_failed")
	assert.Contains(t, out, "tool=medical_lab_page")
	assert.Contains(t, out, "kind=no_match")
	assert.NotContains(t, out, "Jane Doe")
}
