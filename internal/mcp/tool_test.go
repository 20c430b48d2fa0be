package mcp

import (
	"encoding/json"
	"testing"

	mcpsdk "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereign-agent/core/internal/tool"
)

func schemaFromJSON(t *testing.T, raw string) mcpsdk.ToolInputSchema {
	t.Helper()
	var schema mcpsdk.ToolInputSchema
	require.NoError(t, json.Unmarshal([]byte(raw), &schema))
	return schema
}

func TestSchemaToParamsMapsJSONTypesAndRequired(t *testing.T) {
	schema := schemaFromJSON(t, `{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "target path"},
			"limit": {"type": "integer", "description": "max results"},
			"recursive": {"type": "boolean", "description": "descend into subdirs"},
			"filters": {"type": "array", "description": "extra filters"}
		},
		"required": ["path"]
	}`)

	params := schemaToParams(schema)

	require.Contains(t, params, "path")
	assert.Equal(t, tool.ParamString, params["path"].Type)
	assert.True(t, params["path"].Required)

	require.Contains(t, params, "limit")
	assert.Equal(t, tool.ParamInteger, params["limit"].Type)
	assert.False(t, params["limit"].Required)

	require.Contains(t, params, "recursive")
	assert.Equal(t, tool.ParamBoolean, params["recursive"].Type)

	require.Contains(t, params, "filters")
	assert.Equal(t, tool.ParamString, params["filters"].Type, "non-scalar properties fall back to string")
}

func TestCoerceConvertsStringParamsByDeclaredType(t *testing.T) {
	assert.Equal(t, 5, coerce("5", tool.ParamInteger))
	assert.Equal(t, true, coerce("true", tool.ParamBoolean))
	assert.Equal(t, "hello", coerce("hello", tool.ParamString))

	// An unparsable value for a non-string type passes through verbatim
	// rather than silently becoming zero.
	assert.Equal(t, "not-a-number", coerce("not-a-number", tool.ParamInteger))
}

func TestFlattenContentJoinsTextBlocks(t *testing.T) {
	resp := &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			mcpsdk.TextContent{Type: "text", Text: "first"},
			mcpsdk.TextContent{Type: "text", Text: "second"},
		},
	}
	assert.Equal(t, "first\nsecond", flattenContent(resp))
}

func TestFlattenContentIgnoresNonTextBlocks(t *testing.T) {
	resp := &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			mcpsdk.ImageContent{Type: "image", Data: "aGVsbG8=", MIMEType: "image/png"},
		},
	}
	assert.Equal(t, "", flattenContent(resp))
}
