package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sovereign-agent/core/internal/tool"
)

// missingParams returns the required parameters of t that call omits or
// leaves blank, sorted for deterministic error text.
func missingParams(t tool.Tool, params map[string]string) []string {
	var missing []string
	for name, p := range t.Parameters() {
		if !p.Required {
			continue
		}
		if v, ok := params[name]; !ok || v == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// missingParamGuidance renders the validation-failure message, with
// tool-specific guidance for the two tools whose parameter shape is easy to
// get wrong.
func missingParamGuidance(toolName string, missing []string) string {
	msg := fmt.Sprintf("Missing required parameters: %s", strings.Join(missing, ", "))
	switch toolName {
	case "str_replace":
		msg += "\n\nFor str_replace, you MUST provide:\n- path: file to edit\n- old_str: exact text to find (copy from read_file output)\n- new_str: replacement text"
	case "write_file":
		msg += "\n\nFor write_file, you MUST provide:\n- path: file to create/overwrite\n- content: complete file contents"
	}
	return msg
}
