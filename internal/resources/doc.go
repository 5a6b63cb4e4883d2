// Package resources provides read-only MCP resources describing the
// toolkit: which tools it offers, which credentials it needs and whether
// they are present, and the flow definition the answer tool runs.
package resources
