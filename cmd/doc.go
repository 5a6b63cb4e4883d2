// Package cmd implements the command-line interface for medpages.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the medical toolkit
//   - lab: Fetch the lab pages matching a title
//   - create: Create a medicine page from a JSON content list
//   - ask: Answer a question with the configured flow
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
