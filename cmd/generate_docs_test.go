package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Medical Tools", getCategoryFromToolName("medical_lab_page"))
	assert.Equal(t, "Other", getCategoryFromToolName("ping"))
}

func TestToolsMarkdown(t *testing.T) {
	markdown, err := toolsMarkdown()
	require.NoError(t, err)

	assert.Contains(t, markdown, "# MCP Tools Reference")
	assert.Contains(t, markdown, "- [Medical Tools](#medical-tools)")
	assert.Contains(t, markdown, "### medical_lab_page")
	assert.Contains(t, markdown, "### medical_medicine_page")
	assert.Contains(t, markdown, "### medical_answer_question")
	assert.Contains(t, markdown, "- `title` (required): title of the medical lab page")
	assert.Contains(t, markdown, "- `tags` (optional): ")
}
