package resources

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/medpages/internal/config"
	"github.com/teemow/medpages/internal/server"
	"github.com/teemow/medpages/internal/tools/medical_tools"
)

type staticCredentials config.Credential

func (c staticCredentials) Credentials() (config.Credential, error) {
	return config.Credential(c), nil
}

func newServerContext(t *testing.T, cred config.Credential, flowDir, langflowURL string) *server.ServerContext {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), &config.Config{
		APIBaseURL:     config.DefaultAPIBaseURL,
		HTTPTimeout:    time.Second,
		MaxRetries:     1,
		TokenBudget:    config.DefaultTokenBudget,
		MaxSearchPages: 1,
		FlowDir:        flowDir,
		FlowFile:       config.DefaultFlowFile,
		LangflowURL:    langflowURL,
	}, staticCredentials(cred))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestBuildManifest(t *testing.T) {
	sc := newServerContext(t, config.Credential{Token: "secret"}, t.TempDir(), "")

	manifest := BuildManifest(medical_tools.NewToolkit(sc), sc)
	assert.Equal(t, "Medical Toolkit", manifest.Name)
	assert.Equal(t, []string{"medical_medicine_page", "medical_lab_page"}, manifest.Tools)
	assert.Equal(t, []string{"MEDICAL_TOKEN", "MEDICAL_DATABASE_ID"}, manifest.EnvKeys)
	assert.Equal(t, map[string]bool{"MEDICAL_TOKEN": true, "MEDICAL_DATABASE_ID": false}, manifest.Configured)

	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestDescribeFlow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFlowFile),
		[]byte(`{"id": "loadmedicine", "name": "Load Medicine", "data": {}}`), 0o600))

	info := DescribeFlow(newServerContext(t, config.Credential{}, dir, "http://localhost:7860"))
	assert.Equal(t, FlowInfo{
		ID:      "loadmedicine",
		Name:    "Load Medicine",
		Path:    filepath.Join(dir, config.DefaultFlowFile),
		Enabled: true,
	}, info)

	missing := DescribeFlow(newServerContext(t, config.Credential{}, t.TempDir(), ""))
	assert.False(t, missing.Enabled)
	assert.NotEmpty(t, missing.Error)
}

func TestRegisterToolkitResources(t *testing.T) {
	sc := newServerContext(t, config.Credential{Token: "t", DatabaseID: "d"}, t.TempDir(), "")

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithResourceCapabilities(false, false))
	require.NoError(t, RegisterToolkitResources(s, sc))

	contents, err := jsonContents(ToolkitURI, BuildManifest(medical_tools.NewToolkit(sc), sc))
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, ToolkitURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, `"MEDICAL_DATABASE_ID": true`)
}
