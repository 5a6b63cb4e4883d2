// Package common provides shared utilities for MCP tool implementations:
// the Result type tool operations return, argument helpers, and the
// instrumented adapter that turns a Result into an MCP tool result.
package common
