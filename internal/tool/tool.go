// Package tool defines the Tool contract every agent capability implements,
// and a name-keyed registry used by the prompt assembler and executor.
package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
)

// ParamType is the declared wire type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
)

// Param describes one parameter a tool accepts.
type Param struct {
	Type        ParamType
	Description string
	Required    bool
}

// Tool is the contract every registered capability implements (§6).
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]Param
	Execute(ctx context.Context, params map[string]string) core.ToolResult
}

// PromptFormat renders a tool's definition as the <tool_definition> block
// embedded in the system prompt's tool catalog.
func PromptFormat(t Tool) string {
	names := make([]string, 0, len(t.Parameters()))
	for name := range t.Parameters() {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "<tool_definition>\n  <name>%s</name>\n  <description>%s</description>\n  <parameters>\n", t.Name(), t.Description())
	for _, name := range names {
		p := t.Parameters()[name]
		req := "optional"
		if p.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "    - %s (%s): %s [%s]\n", name, p.Type, p.Description, req)
	}
	b.WriteString("  </parameters>\n</tool_definition>")
	return b.String()
}

// Registry is a name-keyed lookup of registered tools. It has no internal
// locking: Get and All are safe to call concurrently with each other, but
// Register is not safe to call concurrently with any other method.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t, keyed by t.Name(). Re-registering a name replaces it
// in place, preserving its original position in iteration order.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name, or (nil, false).
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns every registered tool in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// CatalogBlock renders the full tool catalog for embedding in the system
// prompt (§4.4).
func (r *Registry) CatalogBlock() string {
	parts := make([]string, 0, len(r.order))
	for _, t := range r.All() {
		parts = append(parts, PromptFormat(t))
	}
	return strings.Join(parts, "\n\n")
}
