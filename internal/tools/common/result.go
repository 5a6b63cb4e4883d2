package common

import "github.com/mark3labs/mcp-go/mcp"

// Result is what a tool operation produces. Text is shown to the agent
// as-is; Kind is empty on success and names the failure category otherwise.
type Result struct {
	Text string
	Kind string
}

// Success returns a successful Result.
func Success(text string) Result {
	return Result{Text: text}
}

// Failure returns a failed Result of the given kind.
func Failure(kind, text string) Result {
	return Result{Text: text, Kind: kind}
}

// Failed reports whether the operation failed.
func (r Result) Failed() bool {
	return r.Kind != ""
}

// ToolResult converts r to an MCP tool result.
func (r Result) ToolResult() *mcp.CallToolResult {
	if r.Failed() {
		return mcp.NewToolResultError(r.Text)
	}
	return mcp.NewToolResultText(r.Text)
}
