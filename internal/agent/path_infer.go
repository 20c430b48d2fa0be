package agent

import (
	"regexp"

	"github.com/sovereign-agent/core/internal/core"
)

// filesystemTools is the set of tools whose "path" parameter is eligible for
// auto-fill when the model omits it.
var filesystemTools = map[string]bool{
	"list_directory": true,
	"read_file":      true,
	"code_search":    true,
}

var (
	uploadPathRe   = regexp.MustCompile(`/tmp/sovereign_[a-zA-Z0-9_]+`)
	tmpPathRe      = regexp.MustCompile(`/tmp/[a-zA-Z0-9_-]+`)
	explicitPathRe = regexp.MustCompile(`(?i)(?:files are at|project at|uploaded to|path is)[:\s]+([/\w_-]+)`)
)

// inferPathFromContext scans the last 10 history messages, most recent
// first, for a path a prior message mentioned: an upload-directory path, any
// /tmp path, or an explicit "path is ..." phrasing.
func inferPathFromContext(history []core.Message) string {
	n := len(history)
	start := n - 10
	if start < 0 {
		start = 0
	}
	for i := n - 1; i >= start; i-- {
		content := history[i].Content
		if m := uploadPathRe.FindString(content); m != "" {
			return m
		}
		if m := tmpPathRe.FindString(content); m != "" {
			return m
		}
		if m := explicitPathRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

// fillMissingPaths mutates calls in place, filling a missing "path" param
// on filesystem-style tools from inferred context.
func fillMissingPaths(calls []core.ToolCall, history []core.Message) {
	var inferred string
	var resolved bool
	for i := range calls {
		c := &calls[i]
		if !filesystemTools[c.Name] {
			continue
		}
		if _, ok := c.Params["path"]; ok {
			continue
		}
		if !resolved {
			inferred = inferPathFromContext(history)
			resolved = true
		}
		if inferred == "" {
			continue
		}
		if c.Params == nil {
			c.Params = map[string]string{}
		}
		c.Params["path"] = inferred
	}
}
