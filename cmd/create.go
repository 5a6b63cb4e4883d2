package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/medpages/internal/tools/common"
	"github.com/teemow/medpages/internal/tools/medical_tools"
)

func newCreateCmd() *cobra.Command {
	var (
		title       string
		tags        string
		contentFile string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a medicine page from a JSON content list",
		Long: `Create a page in the database named by MEDICAL_DATABASE_ID.

The content list is a JSON array read from --content (or stdin when it is "-"):

  [{"type": "heading_1", "content": "Amoxicillin"},
   {"type": "code", "content": "dose = 500", "language": "python"}]`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readContentList(cmd.InOrStdin(), contentFile)
			if err != nil {
				return err
			}
			req := medical_tools.MedicinePageRequest{
				ContentList: entries,
				Title:       title,
				Tags:        common.ParseCommaSeparatedList(tags),
			}
			return runTool(cmd, "create", func(ctx context.Context, tk *medical_tools.Toolkit) common.Result {
				return tk.MedicinePage(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title of the page to create")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated list of tags")
	cmd.Flags().StringVar(&contentFile, "content", "-", "Path to the JSON content list, or - for stdin")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func readContentList(stdin io.Reader, path string) ([]medical_tools.ContentEntry, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read content list: %w", err)
	}

	var entries []medical_tools.ContentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse content list: %w", err)
	}
	return entries, nil
}
