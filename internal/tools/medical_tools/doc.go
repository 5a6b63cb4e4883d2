// Package medical_tools provides the MCP tools of the medical toolkit.
//
// Tools:
//   - medical_lab_page: finds pages by title and returns their text, stopping
//     once the aggregated text exceeds the token budget
//   - medical_medicine_page: creates a page from a list of content blocks
//   - medical_answer_question: forwards a question to the configured flow
//     (registered only when a flow server is configured)
//
// Every tool reads MEDICAL_TOKEN (and, for page creation, MEDICAL_DATABASE_ID)
// at call time. Failures are returned to the agent as text, never as Go errors.
package medical_tools
