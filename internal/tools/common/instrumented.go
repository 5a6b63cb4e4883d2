package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/medpages/internal/instrumentation"
	"github.com/teemow/medpages/internal/server"
)

// ResultHandler runs a tool operation and reports its outcome as a Result.
type ResultHandler func(ctx context.Context, request mcp.CallToolRequest) Result

// InstrumentedToolHandler adapts a ResultHandler to an MCP tool handler.
// It starts a tool span, records tool invocation metrics and writes an
// audit record. inputArg names the argument logged (hashed unless
// configured otherwise) as the invocation's input.
//
// The returned handler never returns a Go error; failures are reported as
// MCP error results.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", "title", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	inputArg string,
	sc *server.ServerContext,
	handler ResultHandler,
) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		// Get metrics and audit logger (may be nil if not configured)
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithInput(GetStringArg(request.GetArguments(), inputArg))

		result := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if result.Failed() {
			status = instrumentation.StatusError
			invocation.Complete(false, result.Kind, result.Text)
			// Only the kind goes on the span; the text can echo page content.
			instrumentation.SetSpanError(span, errors.New(result.Kind))
		} else {
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		if metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, duration)
		}
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result.ToolResult(), nil
	}
}
