// Package cache implements OperationCache: a TTL+LRU keyed store of
// side-effect-free tool results, plus a per-iteration duplicate trace.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/toolcall"
)

// EligibleTools is the fixed allowlist of side-effect-free tools that may be
// cached: file reads, directory listings, code searches, read-only VCS
// queries. All other tools bypass the cache.
var EligibleTools = map[string]bool{
	"read_file":      true,
	"list_directory": true,
	"code_search":    true,
	"git_status":     true,
	"git_diff":       true,
	"git_log":        true,
}

// IsEligible reports whether tool is in the cache-eligible allowlist. The git
// tool is dispatched with an "operation" parameter rather than a distinct
// name per sub-command, so read-only git operations are recognized here by
// that parameter rather than by tool name alone.
func IsEligible(toolName string, params map[string]string) bool {
	if EligibleTools[toolName] {
		return true
	}
	if toolName == "git" {
		switch params["operation"] {
		case "status", "diff", "log":
			return true
		}
	}
	return false
}

type entry struct {
	op       core.CachedOperation
	lastUsed time.Time
}

// Cache is an OperationCache with TTL expiry and LRU eviction on overflow.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	maxSize  int
	entries  map[string]*entry
	iterSeen map[string]bool
	hits     int
	misses   int
}

// New constructs a Cache with the given TTL and maximum entry count
// (default capacity 1000 per the spec when maxSize<=0).
func New(ttl time.Duration, maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Cache{
		ttl:      ttl,
		maxSize:  maxSize,
		entries:  make(map[string]*entry),
		iterSeen: make(map[string]bool),
	}
}

func key(toolName string, params map[string]string) string {
	sum := md5.Sum([]byte(toolName + "||" + toolcall.CanonicalParams(params)))
	return toolName + ":" + hex.EncodeToString(sum[:])
}

// Get returns the stored result if present, unexpired, and the tool is
// eligible; otherwise (ToolResult{}, false).
func (c *Cache) Get(toolName string, params map[string]string) (core.ToolResult, bool) {
	if !IsEligible(toolName, params) {
		return core.ToolResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(toolName, params)
	e, ok := c.entries[k]
	if !ok {
		c.misses++
		return core.ToolResult{}, false
	}
	if c.ttl > 0 && time.Since(e.op.StoredAt) > c.ttl {
		delete(c.entries, k)
		c.misses++
		return core.ToolResult{}, false
	}
	e.op.HitCount++
	e.lastUsed = time.Now()
	c.hits++
	return e.op.Result, true
}

// Set stores result, but only if the tool is eligible and result.Success.
// On overflow, expired entries are evicted first; if still full, the
// oldest-timestamp entry is evicted.
func (c *Cache) Set(toolName string, params map[string]string, result core.ToolResult) {
	if !IsEligible(toolName, params) || !result.Success {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	k := key(toolName, params)
	now := time.Now()
	c.entries[k] = &entry{
		op: core.CachedOperation{
			Tool:      toolName,
			ParamHash: k,
			Result:    result,
			StoredAt:  now,
		},
		lastUsed: now,
	}
}

func (c *Cache) evictLocked() {
	if c.ttl > 0 {
		for k, e := range c.entries {
			if time.Since(e.op.StoredAt) > c.ttl {
				delete(c.entries, k)
			}
		}
		if len(c.entries) < c.maxSize {
			return
		}
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.op.StoredAt.Before(oldest) {
			oldestKey = k
			oldest = e.op.StoredAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// ResetIteration clears the per-iteration duplicate trace without discarding
// the cache itself.
func (c *Cache) ResetIteration() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.iterSeen = make(map[string]bool)
}

// SeenThisIteration reports whether (toolName, params) was already looked up
// in the current iteration, and records it as seen.
func (c *Cache) SeenThisIteration(toolName string, params map[string]string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(toolName, params)
	seen := c.iterSeen[k]
	c.iterSeen[k] = true
	return seen
}

// Clear empties the cache and resets statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.iterSeen = make(map[string]bool)
	c.hits = 0
	c.misses = 0
}

// InvalidatePath evicts cached entries affected by an external change under
// path. The cache key is a hash of (tool, params) with no reverse index from
// path to key, so invalidation is a full clear.
func (c *Cache) InvalidatePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = path
	c.entries = make(map[string]*entry)
}

// Stats reports cache observability counters (§4.7).
type Stats struct {
	Hits      int
	Misses    int
	UniqueOps int
	HitRate   float64
	Size      int
	MaxSize   int
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		UniqueOps: len(c.entries),
		HitRate:   rate,
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
	}
}
