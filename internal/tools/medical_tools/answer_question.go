package medical_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/medpages/internal/medical"
	"github.com/teemow/medpages/internal/tools/common"
)

const (
	answerQuestionToolName = "medical_answer_question"

	msgAnswerFailedFmt = "Error: Unable to answer question %v"
)

var errFlowNotConfigured = errors.New("flow server is not configured")

func (t *Toolkit) answerQuestionTool() mcpserver.ServerTool {
	tool := mcp.NewTool(answerQuestionToolName,
		mcp.WithDescription("Answer a medical question by running the configured flow"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	)

	return mcpserver.ServerTool{
		Tool: tool,
		Handler: common.InstrumentedToolHandler(answerQuestionToolName, "question", t.sc,
			func(ctx context.Context, request mcp.CallToolRequest) common.Result {
				return t.AnswerQuestion(ctx, common.GetStringArg(request.GetArguments(), "question"))
			}),
	}
}

// AnswerQuestion runs the configured flow with question as input.
func (t *Toolkit) AnswerQuestion(ctx context.Context, question string) common.Result {
	if strings.TrimSpace(question) == "" {
		return common.Failure(string(medical.KindInvalidInput), fmt.Sprintf(msgAnswerFailedFmt, "question is required"))
	}

	runner := t.sc.FlowRunner()
	if runner == nil {
		return common.Failure(kindInternal, fmt.Sprintf(msgAnswerFailedFmt, errFlowNotConfigured))
	}

	cfg := t.sc.Config()
	answer, err := runner.AnswerViaFlow(ctx, cfg.FlowDir, cfg.FlowFile, question)
	if err != nil {
		return common.Failure(string(medical.KindTransport), fmt.Sprintf(msgAnswerFailedFmt, err))
	}
	return common.Success(answer)
}
