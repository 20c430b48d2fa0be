// Package router implements the model Router: selects a model tier from
// request complexity signals and falls back across tiers by availability.
package router

import (
	"context"
	"strings"
	"sync"

	"github.com/sovereign-agent/core/internal/core"
)

// ModelConfig names the model backing one tier and its output-token cap.
type ModelConfig struct {
	Tier      core.ModelTier
	Name      string
	MaxTokens int
}

// DefaultModels is the built-in tier registry; callers may override via
// config (all models assume a 32K context window per spec §4.5 defaults).
var DefaultModels = map[core.ModelTier]ModelConfig{
	core.TierSmall:  {Tier: core.TierSmall, Name: "qwen2.5-coder:7b", MaxTokens: 8192},
	core.TierMedium: {Tier: core.TierMedium, Name: "qwen2.5-coder:14b", MaxTokens: 16384},
	core.TierLarge:  {Tier: core.TierLarge, Name: "qwen2.5-coder:32b", MaxTokens: 16384},
}

// fallbackOrder lists the tier search order for each preferred tier:
// preferred -> MEDIUM -> SMALL -> LARGE, per spec §4.2 step 2.
var fallbackOrder = map[core.ModelTier][]core.ModelTier{
	core.TierLarge:  {core.TierLarge, core.TierMedium, core.TierSmall},
	core.TierMedium: {core.TierMedium, core.TierSmall, core.TierLarge},
	core.TierSmall:  {core.TierSmall, core.TierMedium, core.TierLarge},
}

var highComplexity = []string{
	"architecture", "design system", "multi-file",
	"refactor entire", "migrate", "redesign",
	"complex algorithm", "optimize performance",
	"debug complex", "analyze entire",
}

var lowComplexity = []string{
	"explain", "format", "add comment", "fix typo",
	"rename variable", "simple edit", "documentation",
	"what does", "how does",
}

// preferredTier implements the spec's step-1 heuristic, independent of
// availability.
func preferredTier(request string, contextChars int) core.ModelTier {
	lower := strings.ToLower(request)

	for _, ind := range highComplexity {
		if strings.Contains(lower, ind) {
			return core.TierLarge
		}
	}
	for _, ind := range lowComplexity {
		if strings.Contains(lower, ind) {
			return core.TierSmall
		}
	}
	if contextChars > 1000 {
		return core.TierLarge
	}
	if len(strings.Fields(request)) > 100 {
		return core.TierLarge
	}

	fileMentions := strings.Count(lower, ".py") + strings.Count(lower, ".js") +
		strings.Count(lower, ".ts") + strings.Count(lower, ".java")
	switch {
	case fileMentions > 5:
		return core.TierLarge
	case fileMentions > 2:
		return core.TierMedium
	}

	toolIndicators := strings.Count(lower, "read") + strings.Count(lower, "write") +
		strings.Count(lower, "search") + strings.Count(lower, "execute")
	if toolIndicators > 3 {
		return core.TierMedium
	}

	return core.TierMedium
}

// AvailabilityProbe fetches the set of installed model names. Router calls
// it once and memoizes the result until Reset is called.
type AvailabilityProbe interface {
	Available(ctx context.Context) (map[string]bool, error)
}

// Router selects a model identifier from a request. It holds no LLM client;
// the turn loop re-creates its client when the selected model changes.
type Router struct {
	probe  AvailabilityProbe
	models map[core.ModelTier]ModelConfig

	mu           sync.Mutex
	cachedModels map[string]bool
	cacheLoaded  bool
}

// New constructs a Router with the default model registry and the given
// availability probe (which may be nil, in which case availability is
// assumed and the configured default is always returned).
func New(probe AvailabilityProbe) *Router {
	return &Router{probe: probe, models: DefaultModels}
}

// WithModels overrides the tier registry (e.g. from configuration).
func (r *Router) WithModels(models map[core.ModelTier]ModelConfig) *Router {
	r.models = models
	return r
}

func (r *Router) availability(ctx context.Context) map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cacheLoaded {
		return r.cachedModels
	}
	if r.probe == nil {
		r.cachedModels = nil
		r.cacheLoaded = true
		return nil
	}
	available, err := r.probe.Available(ctx)
	if err != nil {
		r.cachedModels = nil
	} else {
		r.cachedModels = available
	}
	r.cacheLoaded = true
	return r.cachedModels
}

// Reset clears the memoized availability probe result.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheLoaded = false
	r.cachedModels = nil
}

// Select returns the model identifier for request given contextChars of
// current context. If availability cannot be determined, the configured
// default for the preferred tier is returned and the LLM client is left to
// surface any resulting error.
func (r *Router) Select(ctx context.Context, request string, contextChars int) string {
	preferred := preferredTier(request, contextChars)
	available := r.availability(ctx)

	if available == nil {
		return r.models[preferred].Name
	}

	for _, tier := range fallbackOrder[preferred] {
		name := r.models[tier].Name
		if available[name] {
			return name
		}
	}
	return r.models[core.TierMedium].Name
}
