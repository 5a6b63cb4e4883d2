package medical_tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/medpages/internal/instrumentation"
	"github.com/teemow/medpages/internal/logging"
	"github.com/teemow/medpages/internal/medical"
	"github.com/teemow/medpages/internal/tools/common"
)

const (
	labPageToolName = "medical_lab_page"

	msgNoSuchPage     = "No such page exists."
	msgPagesFetched   = "Pages fetched successfully:"
	msgFetchFailedFmt = "Error: Unable to fetch page %v"
)

func (t *Toolkit) labPageTool() mcpserver.ServerTool {
	tool := mcp.NewTool(labPageToolName,
		mcp.WithDescription("A tool for fetching medical lab pages. Returns the text of every page whose title contains the given title, "+
			"labelled 'page N', until the combined text exceeds the token budget."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("title of the medical lab page"),
		),
	)

	return mcpserver.ServerTool{
		Tool: tool,
		Handler: common.InstrumentedToolHandler(labPageToolName, "title", t.sc,
			func(ctx context.Context, request mcp.CallToolRequest) common.Result {
				title := common.GetStringArg(request.GetArguments(), "title")
				if strings.TrimSpace(title) == "" {
					return common.Failure(string(medical.KindInvalidInput), fmt.Sprintf(msgFetchFailedFmt, "title is required"))
				}
				return t.LabPage(ctx, title)
			}),
	}
}

// LabPage finds the pages whose title contains title and returns their
// content. Each page is appended as "\npage N:\n\n<content>"; once the
// accumulated text counts more tokens than the budget, no further pages are
// fetched. The page that crossed the budget stays in the result.
func (t *Toolkit) LabPage(ctx context.Context, title string) common.Result {
	logger := logging.WithTool(slog.Default(), labPageToolName)

	cred, err := t.sc.Credentials()
	if err != nil {
		return common.Failure(string(medical.KindInvalidInput), fmt.Sprintf(msgFetchFailedFmt, err))
	}
	client := t.sc.MedicalClient(cred.Token)
	budget := t.sc.Config().TokenBudget
	metrics := t.sc.Metrics()

	ids, err := client.FindPageIDs(ctx, title, medical.ObjectPage)
	if err != nil {
		logger.Warn("page search failed", logging.Err(err))
		return common.Failure(failureKind(err), fmt.Sprintf(msgFetchFailedFmt, err))
	}
	if len(ids) == 0 {
		if metrics != nil {
			metrics.RecordAggregation(ctx, instrumentation.OutcomeNoMatch, 0, 0)
		}
		return common.Success(msgNoSuchPage)
	}

	counter, err := t.sc.TokenCounter()
	if err != nil {
		return common.Failure(kindInternal, fmt.Sprintf(msgFetchFailedFmt, err))
	}

	ctx, span := instrumentation.StartSpan(ctx, labPageToolName+".aggregate",
		attribute.Int(instrumentation.SpanAttrPageCount, len(ids)))
	defer span.End()

	var sb strings.Builder
	outcome := instrumentation.OutcomeComplete
	pages, count := 0, 0
	for i, id := range ids {
		content, err := client.FetchPageContent(ctx, id)
		if err != nil {
			logger.Warn("page fetch failed", logging.PageID(id), logging.Err(err))
			return common.Failure(failureKind(err), fmt.Sprintf(msgFetchFailedFmt, err))
		}

		fmt.Fprintf(&sb, "\npage %d:\n\n%s", i+1, content)
		pages++
		count = counter.CountTokens(sb.String())
		if count > budget {
			if i < len(ids)-1 {
				outcome = instrumentation.OutcomeTruncated
			}
			instrumentation.AddSpanEvent(span, "budget_exceeded",
				attribute.Int(instrumentation.SpanAttrPageCount, pages),
				attribute.Int(instrumentation.SpanAttrTokens, count))
			break
		}
	}

	if metrics != nil {
		metrics.RecordAggregation(ctx, outcome, pages, count)
	}
	logger.Debug("lab pages aggregated",
		slog.Int("matches", len(ids)),
		slog.Int("pages", pages),
		slog.Int("tokens", count),
		slog.String("outcome", outcome))

	return common.Success(msgPagesFetched + sb.String())
}
