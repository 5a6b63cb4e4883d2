package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/medpages/internal/config"
	"github.com/teemow/medpages/internal/flow"
	"github.com/teemow/medpages/internal/server"
	"github.com/teemow/medpages/internal/tools/medical_tools"
)

const (
	// ToolkitURI is the URI of the toolkit manifest resource.
	ToolkitURI = "medpages://toolkit"
	// FlowURI is the URI of the flow definition resource.
	FlowURI = "medpages://flow"
)

// ToolkitManifest describes the toolkit to a host.
type ToolkitManifest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tools       []string        `json:"tools"`
	EnvKeys     []string        `json:"env_keys"`
	Configured  map[string]bool `json:"configured"`
}

// FlowInfo describes the flow definition the answer tool runs.
type FlowInfo struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Path    string `json:"path"`
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"`
}

// RegisterToolkitResources registers the toolkit manifest and flow resources
func RegisterToolkitResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	toolkitResource := mcp.NewResource(
		ToolkitURI,
		"Medical Toolkit",
		mcp.WithResourceDescription("Tools offered by the medical toolkit and the credentials they need"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(toolkitResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, BuildManifest(medical_tools.NewToolkit(sc), sc))
	})

	flowResource := mcp.NewResource(
		FlowURI,
		"Answer Flow",
		mcp.WithResourceDescription("The flow definition used to answer medical questions"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(flowResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, DescribeFlow(sc))
	})

	return nil
}

// BuildManifest lists the toolkit's tools and reports which of its
// credentials are currently set. Secret values are never included.
func BuildManifest(tk *medical_tools.Toolkit, sc *server.ServerContext) ToolkitManifest {
	// The error only says what is missing, which Configured already shows.
	cred, _ := sc.Credentials()

	manifest := ToolkitManifest{
		Name:        tk.Name(),
		Description: tk.Description(),
		EnvKeys:     tk.EnvKeys(),
		Configured: map[string]bool{
			config.EnvToken:      cred.Token != "",
			config.EnvDatabaseID: cred.DatabaseID != "",
		},
	}
	for _, tool := range tk.Tools() {
		manifest.Tools = append(manifest.Tools, tool.Tool.Name)
	}
	return manifest
}

// DescribeFlow loads the configured flow definition. A load failure is
// reported in the result rather than as an error.
func DescribeFlow(sc *server.ServerContext) FlowInfo {
	cfg := sc.Config()
	info := FlowInfo{
		Path:    cfg.FlowPath(),
		Enabled: cfg.LangflowURL != "",
	}

	f, err := flow.LoadFlowFrom(cfg.FlowDir, cfg.FlowFile)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.ID = f.ID
	info.Name = f.Name
	return info
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
