// Package flow loads flow graph definitions exported from Langflow and runs
// them against a Langflow server.
//
// A flow file is the JSON export of a graph. Only its id and name are used
// locally; the graph itself is executed remotely by the server the file was
// exported from (or one it was imported into).
//
//	runner := flow.NewRunner("http://localhost:7860", flow.WithAPIKey(key))
//	answer, err := runner.AnswerViaFlow(ctx, "./langflow", "loadmedicine.json", question)
package flow
