// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	mcpsdk "github.com/mark3labs/mcp-go/mcp"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/tool"
)

// wrapper adapts one MCP tool as a tool.Tool. ToolCallParser and the
// executor only ever see this type, never the underlying MCP client.
type wrapper struct {
	source *Source
	name   string
	desc   string
	params map[string]tool.Param
}

func (w *wrapper) Name() string        { return w.name }
func (w *wrapper) Description() string { return w.desc }

func (w *wrapper) Parameters() map[string]tool.Param {
	return w.params
}

// Execute coerces the string-typed params §6 hands every tool into the
// JSON-typed arguments map MCP's wire format expects, per the declared
// schema, then relays the call to the source's subprocess.
func (w *wrapper) Execute(ctx context.Context, params map[string]string) core.ToolResult {
	args := make(map[string]interface{}, len(params))
	for k, v := range params {
		args[k] = coerce(v, w.params[k].Type)
	}

	resp, err := w.source.call(ctx, w.name, args)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("mcp tool %s failed: %v", w.name, err)}
	}

	text := flattenContent(resp)
	if resp.IsError {
		return core.ToolResult{Error: text}
	}
	return core.ToolResult{Success: true, Output: text}
}

func coerce(v string, t tool.ParamType) interface{} {
	switch t {
	case tool.ParamInteger:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	case tool.ParamBoolean:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return v
}

func flattenContent(resp *mcpsdk.CallToolResult) string {
	var texts []string
	for _, c := range resp.Content {
		if tc, ok := c.(mcpsdk.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// schemaToParams translates a tool's JSON Schema input shape into the flat
// Param map the rest of the tool subsystem understands. Non-scalar
// properties (objects, arrays) are exposed as ParamString; the caller is
// expected to pass a JSON-encoded value for those.
func schemaToParams(schema mcpsdk.ToolInputSchema) map[string]tool.Param {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var decoded struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}

	required := make(map[string]bool, len(decoded.Required))
	for _, r := range decoded.Required {
		required[r] = true
	}

	params := make(map[string]tool.Param, len(decoded.Properties))
	for name, p := range decoded.Properties {
		params[name] = tool.Param{
			Type:        jsonTypeToParam(p.Type),
			Description: p.Description,
			Required:    required[name],
		}
	}
	return params
}

func jsonTypeToParam(t string) tool.ParamType {
	switch t {
	case "integer", "number":
		return tool.ParamInteger
	case "boolean":
		return tool.ParamBoolean
	default:
		return tool.ParamString
	}
}
