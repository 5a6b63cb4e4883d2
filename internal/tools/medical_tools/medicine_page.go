package medical_tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/medpages/internal/logging"
	"github.com/teemow/medpages/internal/medical"
	"github.com/teemow/medpages/internal/tools/common"
)

const (
	medicinePageToolName = "medical_medicine_page"

	msgPageCreatedFmt  = "Page created successfully. Page ID: %s"
	msgCreateFailedFmt = "Failed to create page. Status code: %s"
	msgCreateErrorFmt  = "Error: Unable to create page %v"
)

var contentListDescription = "Be very clear about the content_list format. Each entry is a medical block with the keys " +
	"type, content and language. Block types: [\"" + strings.Join(medical.BlockTypes, "\",\"") + "\"]. " +
	"Choose the type that fits the content; language names the coding language of code blocks. " +
	`Example: [{"type":"paragraph","content":"some text","language":""}]`

// ContentEntry is one block of a page to create. Content must be present
// but may be empty.
type ContentEntry struct {
	Type     string  `json:"type" validate:"required,blocktype"`
	Content  *string `json:"content" validate:"required"`
	Language string  `json:"language"`
}

// NewContentEntry returns an entry of the given block type.
func NewContentEntry(blockType, content string) ContentEntry {
	return ContentEntry{Type: blockType, Content: &content}
}

// MedicinePageRequest is the input of the medicine page tool. An empty
// content list creates a page without children.
type MedicinePageRequest struct {
	ContentList []ContentEntry `json:"content_list" validate:"dive"`
	Title       string         `json:"title" validate:"required"`
	Tags        []string       `json:"tags" validate:"dive,required"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("blocktype", func(fl validator.FieldLevel) bool {
		return medical.IsBlockType(fl.Field().String())
	})
	return v
}

// Validate checks the request's required fields and block types.
func (r *MedicinePageRequest) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// Blocks converts the content list to API blocks.
func (r *MedicinePageRequest) Blocks() []medical.Block {
	blocks := make([]medical.Block, 0, len(r.ContentList))
	for _, e := range r.ContentList {
		blocks = append(blocks, medical.Block{Type: e.Type, Content: *e.Content, Language: e.Language})
	}
	return blocks
}

func (t *Toolkit) medicinePageTool() mcpserver.ServerTool {
	tool := mcp.NewTool(medicinePageToolName,
		mcp.WithDescription("A tool for creating a page on medical."),
		mcp.WithArray("content_list",
			mcp.Required(),
			mcp.Description(contentListDescription),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":     map[string]any{"type": "string", "enum": medical.BlockTypes},
					"content":  map[string]any{"type": "string"},
					"language": map[string]any{"type": "string"},
				},
				"required": []string{"type", "content"},
			}),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the page to be created"),
		),
		mcp.WithArray("tags",
			mcp.Description("list of tags to be added to the page based on the content"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	return mcpserver.ServerTool{
		Tool: tool,
		Handler: common.InstrumentedToolHandler(medicinePageToolName, "title", t.sc,
			func(ctx context.Context, request mcp.CallToolRequest) common.Result {
				var req MedicinePageRequest
				if err := request.BindArguments(&req); err != nil {
					return common.Failure(string(medical.KindInvalidInput), fmt.Sprintf(msgCreateErrorFmt, err))
				}
				return t.MedicinePage(ctx, req)
			}),
	}
}

// MedicinePage creates a page in the configured database. A 200 response
// reports the new page id; any other status reports the raw response body.
func (t *Toolkit) MedicinePage(ctx context.Context, req MedicinePageRequest) common.Result {
	logger := logging.WithTool(slog.Default(), medicinePageToolName)

	if err := req.Validate(); err != nil {
		return common.Failure(string(medical.KindInvalidInput), fmt.Sprintf(msgCreateErrorFmt, err))
	}

	cred, err := t.sc.Credentials()
	if err == nil {
		err = cred.RequireDatabase()
	}
	if err != nil {
		return common.Failure(string(medical.KindInvalidInput), fmt.Sprintf(msgCreateErrorFmt, err))
	}

	resp, err := t.sc.MedicalClient(cred.Token).CreatePage(ctx, req.Blocks(), req.Title, cred.DatabaseID, req.Tags)
	if err != nil {
		logger.Warn("page creation failed", logging.Err(err))
		return common.Failure(failureKind(err), fmt.Sprintf(msgCreateErrorFmt, err))
	}
	if resp.PageID == "" {
		logger.Warn("page creation rejected", slog.Int(logging.KeyStatus, resp.StatusCode))
		return common.Failure(string(medical.KindRemoteRejection), fmt.Sprintf(msgCreateFailedFmt, resp.Body))
	}

	logger.Info("page created", logging.PageID(resp.PageID), slog.Int("blocks", len(req.ContentList)))
	return common.Success(fmt.Sprintf(msgPageCreatedFmt, resp.PageID))
}
