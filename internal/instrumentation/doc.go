// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the medpages MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Upstream API Metrics:
//   - medical_api_operations_total: Counter by service, operation, status
//   - medical_api_operation_duration_seconds: Histogram, retries included
//   - medical_api_retries_total: Counter of retried attempts
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter by tool name and status
//   - mcp_tool_duration_seconds: Histogram of tool execution durations
//
// Lab Page Metrics:
//   - lab_page_aggregated_tokens: Histogram of result sizes by outcome
//   - lab_page_aggregated_pages: Histogram of included page counts by outcome
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and for each
// upstream call (workspace.<operation>, flow.run_flow).
//
// # Configuration
//
// Instrumentation is configured from environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: medpages)
//   - AUDIT_LOGGING_INCLUDE_INPUTS: log raw page titles and questions (default: false)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordAPIOperation(ctx, instrumentation.ServiceWorkspace,
//		instrumentation.OperationSearch, 200, time.Since(start))
package instrumentation
