// Package toolcall implements the wire-format parser and renderer for tool
// invocations and tool results exchanged between the model and the executor.
package toolcall

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
)

var (
	toolSpanRe  = regexp.MustCompile(`(?s)<tool\s+name="([^"]+)"\s*>(.*?)</tool>`)
	paramSpanRe = regexp.MustCompile(`(?s)<param\s+name="([^"]+)"\s*>(.*?)</param>`)
)

// Parse extracts structured tool invocations from assistant text. Unrecognized
// tags are ignored; malformed spans simply produce no tool call. Two calls
// with identical (name, params) are preserved as distinct entries — dedup is
// the cache's responsibility, not the parser's.
func Parse(text string) []core.ToolCall {
	var calls []core.ToolCall
	for _, m := range toolSpanRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		body := m[2]
		if name == "" {
			continue
		}
		params := make(map[string]string)
		for _, pm := range paramSpanRe.FindAllStringSubmatch(body, -1) {
			key := strings.TrimSpace(pm[1])
			val := strings.TrimSpace(pm[2])
			if key == "" {
				continue
			}
			params[key] = val
		}
		calls = append(calls, core.ToolCall{Name: name, Params: params, Raw: m[0]})
	}
	return calls
}

// Render re-emits a ToolCall in wire format, for any caller that needs to
// reconstruct the original span.
func Render(c core.ToolCall) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<tool name=%q>\n", c.Name)
	for k, v := range c.Params {
		fmt.Fprintf(&b, "<param name=%q>%s</param>\n", k, v)
	}
	b.WriteString("</tool>")
	return b.String()
}

// RenderResult emits the <tool_result> span embedded in the next user-role
// message (§6).
func RenderResult(name string, result core.ToolResult) string {
	status := "success"
	if !result.Success {
		status = "error"
	}
	content := result.Output
	if !result.Success && result.Error != "" {
		content = result.Error
	}
	return fmt.Sprintf("<tool_result name=%q status=%q>\n<content>%s</content>\n</tool_result>", name, status, content)
}
