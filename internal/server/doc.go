// Package server provides the MCP server context, health checks and the
// HTTP servers for medpages.
//
// # Key Components
//
// ServerContext holds the runtime configuration, the credential source and
// the instrumentation recorders. API clients are created per bearer token
// and cached; credentials are read on every tool call so that a rotated
// MEDICAL_TOKEN takes effect without a restart.
//
// HTTPServer exposes the MCP server over streamable HTTP (/mcp) or SSE
// (/sse, /message) next to the health endpoints:
//   - /healthz: liveness
//   - /readyz: readiness, including a credentials check
//   - /healthz/detailed: uptime and feature state
//
// MetricsServer serves Prometheus metrics on a dedicated port.
package server
