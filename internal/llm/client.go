// Package llm implements LLMClient: a synchronous chat/generate interface
// over an Ollama-style HTTP/JSON backend, with retry/backoff and the
// pre-send message-list compaction discipline of §4.5.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sovereign-agent/core/internal/core"
)

// Options mirrors the Ollama request's "options" object.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	NumCtx      int     `json:"num_ctx"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  Options       `json:"options"`
}

type chatResponseMessage struct {
	Content string `json:"content"`
}

type chatResponse struct {
	Message   chatResponseMessage `json:"message"`
	Done      bool                `json:"done"`
	EvalCount int                 `json:"eval_count"`
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Config is the LLMClient's tunable configuration (§4.5 defaults).
type Config struct {
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	ContextWindow int           `yaml:"context_window"`
	MaxTokens     int           `yaml:"max_tokens"`
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:       10 * time.Minute,
		MaxRetries:    5,
		RetryDelay:    2 * time.Second,
		ContextWindow: 32768,
		MaxTokens:     16384,
	}
}

// Client is a synchronous chat/generate client over an Ollama-style backend.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New constructs a Client from cfg, filling unset fields from DefaultConfig.
func New(cfg Config, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.ContextWindow == 0 {
		cfg.ContextWindow = def.ContextWindow
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// ChatResult is the outcome of a Chat call.
type ChatResult struct {
	Content    string
	TokensUsed int
	Model      string
}

func toWire(msgs []core.Message) []wireMessage {
	out := make([]wireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = wireMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// Chat posts messages to the /api/chat endpoint and returns the full
// (non-streaming) response.
func (c *Client) Chat(ctx context.Context, messages []core.Message, temperature float64, maxTokens int) (ChatResult, error) {
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	messages = TruncateForSend(messages, c.cfg.ContextWindow, maxTokens)

	req := chatRequest{
		Model:    c.cfg.Model,
		Messages: toWire(messages),
		Stream:   false,
		Options:  Options{Temperature: temperature, NumPredict: maxTokens, NumCtx: c.cfg.ContextWindow},
	}

	var resp chatResponse
	if err := c.doJSON(ctx, "/api/chat", req, &resp); err != nil {
		return ChatResult{}, err
	}
	return ChatResult{Content: resp.Message.Content, TokensUsed: resp.EvalCount, Model: c.cfg.Model}, nil
}

// Generate posts a single prompt to /api/generate.
func (c *Client) Generate(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (ChatResult, error) {
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	req := generateRequest{
		Model:   c.cfg.Model,
		Prompt:  prompt,
		System:  system,
		Stream:  false,
		Options: Options{Temperature: temperature, NumPredict: maxTokens, NumCtx: c.cfg.ContextWindow},
	}
	var resp generateResponse
	if err := c.doJSON(ctx, "/api/generate", req, &resp); err != nil {
		return ChatResult{}, err
	}
	return ChatResult{Content: resp.Response, TokensUsed: resp.EvalCount, Model: c.cfg.Model}, nil
}

// ChatStream yields content fragments from /api/chat as they arrive,
// stopping at the first frame whose "done" flag is set. Parse errors in
// individual frames are skipped, not surfaced.
func (c *Client) ChatStream(ctx context.Context, messages []core.Message, temperature float64, maxTokens int) (<-chan string, error) {
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	messages = TruncateForSend(messages, c.cfg.ContextWindow, maxTokens)

	req := chatRequest{
		Model:    c.cfg.Model,
		Messages: toWire(messages),
		Stream:   true,
		Options:  Options{Temperature: temperature, NumPredict: maxTokens, NumCtx: c.cfg.ContextWindow},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, core.NewError(core.KindFatal, "encode chat stream request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, core.NewError(core.KindTransport, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewError(core.KindTransport, "stream request failed", err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer httpResp.Body.Close()
		scanner := bufio.NewScanner(httpResp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var frame chatResponse
			if err := json.Unmarshal([]byte(line), &frame); err != nil {
				continue
			}
			if frame.Message.Content != "" {
				select {
				case out <- frame.Message.Content:
				case <-ctx.Done():
					return
				}
			}
			if frame.Done {
				return
			}
		}
	}()
	return out, nil
}

// IsAvailable reports whether the backend responds to the tag-listing
// endpoint at all.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ModelExists fetches the tag list and matches the configured model exactly
// or by the prefix before the first colon.
func (c *Client) ModelExists(ctx context.Context) (bool, error) {
	tags, err := c.fetchTags(ctx)
	if err != nil {
		return false, err
	}
	want := c.cfg.Model
	wantPrefix := want
	if i := strings.IndexByte(want, ':'); i >= 0 {
		wantPrefix = want[:i]
	}
	for _, name := range tags {
		if name == want {
			return true, nil
		}
		prefix := name
		if i := strings.IndexByte(name, ':'); i >= 0 {
			prefix = name[:i]
		}
		if prefix == wantPrefix {
			return true, nil
		}
	}
	return false, nil
}

// AvailableModels fetches the backend's installed model tags as a set,
// for use as a router.AvailabilityProbe.
func (c *Client) AvailableModels(ctx context.Context) (map[string]bool, error) {
	tags, err := c.fetchTags(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(tags))
	for _, name := range tags {
		set[name] = true
	}
	return set, nil
}

func (c *Client) fetchTags(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, core.NewError(core.KindTransport, "build tags request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewError(core.KindTransport, "fetch tags", err)
	}
	defer resp.Body.Close()
	var tr tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, core.NewError(core.KindTransport, "decode tags response", err)
	}
	names := make([]string, len(tr.Models))
	for i, m := range tr.Models {
		names[i] = m.Name
	}
	return names, nil
}

// doJSON posts body as JSON to path and decodes the response into out,
// retrying transport/HTTP-error failures with exponential backoff capped at
// 60s. Parse errors and context cancellation propagate immediately.
func (c *Client) doJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return core.NewError(core.KindFatal, "encode request", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Min(
				float64(c.cfg.RetryDelay)*math.Pow(2, float64(attempt-1)),
				float64(60*time.Second),
			))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return core.NewError(core.KindFatal, "cancelled during retry backoff", ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return core.NewError(core.KindFatal, "build request", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return core.NewError(core.KindFatal, "cancelled", ctx.Err())
			}
			lastErr = core.NewError(core.KindTransport, "request failed", err)
			c.logger.Warn("llm transport error, will retry", "attempt", attempt, "error", err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = core.NewError(core.KindTransport, fmt.Sprintf("http status %d", resp.StatusCode), nil)
			c.logger.Warn("llm http error, will retry", "attempt", attempt, "status", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return core.NewError(core.KindContext, fmt.Sprintf("http status %d: %s", resp.StatusCode, string(data)), nil)
		}
		if readErr != nil {
			return core.NewError(core.KindTransport, "read response body", readErr)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return core.NewError(core.KindFatal, "decode response", err)
		}
		return nil
	}
	return lastErr
}
