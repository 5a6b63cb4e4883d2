package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/medpages/internal/tools/common"
	"github.com/teemow/medpages/internal/tools/medical_tools"
)

func newLabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lab <title>",
		Short: "Fetch the lab pages whose title matches",
		Long: `Search the workspace for pages whose title contains the given text
(case-insensitive) and print their content, labelled "page N", until the
combined text exceeds the token budget (MEDICAL_TOKEN_BUDGET, default 6000).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return runTool(cmd, "lab", func(ctx context.Context, tk *medical_tools.Toolkit) common.Result {
				return tk.LabPage(ctx, title)
			})
		},
	}
}
