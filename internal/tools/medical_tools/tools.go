package medical_tools

import (
	"errors"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/medpages/internal/config"
	"github.com/teemow/medpages/internal/medical"
	"github.com/teemow/medpages/internal/server"
)

const (
	// ToolkitName is the toolkit's display name.
	ToolkitName = "Medical Toolkit"
	// ToolkitDescription is the toolkit's one-line description.
	ToolkitDescription = "Toolkit containing tools for performing medical operations"

	// kindInternal marks failures that come from neither the remote API nor
	// the caller's input.
	kindInternal = "internal"
)

// Toolkit bundles the medical tools and the credentials they need.
type Toolkit struct {
	sc *server.ServerContext
}

// NewToolkit creates a toolkit running against sc.
func NewToolkit(sc *server.ServerContext) *Toolkit {
	return &Toolkit{sc: sc}
}

// Name returns the toolkit name.
func (t *Toolkit) Name() string {
	return ToolkitName
}

// Description returns the toolkit description.
func (t *Toolkit) Description() string {
	return ToolkitDescription
}

// EnvKeys lists the configuration values the host must supply.
func (t *Toolkit) EnvKeys() []string {
	return []string{config.EnvToken, config.EnvDatabaseID}
}

// Tools returns the tool definitions with their handlers. The flow tool is
// included only when a flow server is configured.
func (t *Toolkit) Tools() []mcpserver.ServerTool {
	tools := []mcpserver.ServerTool{
		t.medicinePageTool(),
		t.labPageTool(),
	}
	if t.sc.Config().LangflowURL != "" {
		tools = append(tools, t.answerQuestionTool())
	}
	return tools
}

// Register adds every tool of the toolkit to s.
func (t *Toolkit) Register(s *mcpserver.MCPServer) {
	s.AddTools(t.Tools()...)
}

// RegisterMedicalTools registers the medical toolkit with the MCP server
func RegisterMedicalTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil {
		return errors.New("server context is required")
	}
	NewToolkit(sc).Register(s)
	return nil
}

// failureKind maps err to the kind reported with a failed Result.
func failureKind(err error) string {
	if kind := medical.KindOf(err); kind != "" {
		return string(kind)
	}
	return kindInternal
}
