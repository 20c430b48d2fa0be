package toolcall

import (
	"sort"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
)

// CanonicalParams renders a call's parameters as a deterministic,
// lexicographically sorted "k=v" list, used both as the cache key material
// and as the loop-detector signature.
func CanonicalParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// Signature returns the "name:sortedParams" string used to detect repeated
// identical calls.
func Signature(c core.ToolCall) string {
	return c.Name + ":" + CanonicalParams(c.Params)
}
