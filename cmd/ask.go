package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/medpages/internal/tools/common"
	"github.com/teemow/medpages/internal/tools/medical_tools"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question with the configured flow",
		Long: `Load the flow definition (MEDICAL_FLOW_DIR/MEDICAL_FLOW_FILE, default
./langflow/loadmedicine.json) and run it on the flow server at LANGFLOW_URL
with the question as chat input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return runTool(cmd, "ask", func(ctx context.Context, tk *medical_tools.Toolkit) common.Result {
				return tk.AnswerQuestion(ctx, question)
			})
		},
	}
}
