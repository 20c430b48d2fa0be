// Package rag implements ContextRetriever and LearningStore (§4.15) over an
// embedded, non-persisted chromem-go vector database: a "codebase"
// collection for indexed source files and a "solutions" collection for
// successful-turn writebacks.
package rag

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/sovereign-agent/core/internal/agent"
)

const (
	codebaseCollection  = "codebase"
	solutionsCollection = "solutions"

	codeResultLimit     = 5
	solutionResultLimit = 3
)

// Store is an embedded vector store backing both code and solution
// retrieval. Retrieval, indexing and learning may run concurrently, since
// chromem-go's Collection methods serialize internally. ClearCodebaseIndex
// replaces the codebase collection without synchronization, so it is not
// safe to call concurrently with the other methods.
type Store struct {
	db          *chromem.DB
	embed       chromem.EmbeddingFunc
	codebase    *chromem.Collection
	solutions   *chromem.Collection
	codeEnabled bool
}

// Config selects the embedding backend. With OllamaModel set, embeddings are
// computed by the same Ollama server the chat client talks to; otherwise
// chromem-go's bundled default embedding function is used.
type Config struct {
	OllamaModel   string `yaml:"ollama_model"`
	OllamaBaseURL string `yaml:"ollama_base_url"`
}

// New opens an in-memory (non-persisted) Store. Each call starts from an
// empty database; indexing is expected to happen at process startup via
// IndexDirectory.
func New(cfg Config) (*Store, error) {
	embed := chromem.NewEmbeddingFuncDefault()
	if cfg.OllamaModel != "" {
		embed = chromem.NewEmbeddingFuncOllama(cfg.OllamaModel, cfg.OllamaBaseURL)
	}
	return NewWithEmbedder(embed)
}

// NewWithEmbedder opens a Store using a caller-supplied embedding function,
// bypassing Ollama/default embedding selection. Tests use this with a
// deterministic, network-free embedder.
func NewWithEmbedder(embed chromem.EmbeddingFunc) (*Store, error) {
	db := chromem.NewDB()
	codebase, err := db.CreateCollection(codebaseCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create codebase collection: %w", err)
	}
	solutions, err := db.CreateCollection(solutionsCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create solutions collection: %w", err)
	}

	return &Store{
		db:          db,
		embed:       embed,
		codebase:    codebase,
		solutions:   solutions,
		codeEnabled: true,
	}, nil
}

// Retrieve satisfies agent.ContextRetriever: it queries both collections and
// returns the top matches from each, mirroring the reference context
// manager's relevant_code / past_solutions split (patterns are folded into
// past_solutions here since the Go port carries one knowledge collection,
// not a separate pattern store).
func (s *Store) Retrieve(ctx context.Context, query string) (agent.RetrievedContext, error) {
	var out agent.RetrievedContext

	if s.codebase.Count() > 0 {
		results, err := s.codebase.Query(ctx, query, min(codeResultLimit, s.codebase.Count()), nil, nil)
		if err != nil {
			return out, fmt.Errorf("query codebase: %w", err)
		}
		for _, r := range results {
			path := r.Metadata["path"]
			if path == "" {
				path = r.ID
			}
			out.RelevantCode = append(out.RelevantCode, fmt.Sprintf("**%s:**\n```\n%s\n```", path, truncate(r.Content, 500)))
		}
	}

	if s.solutions.Count() > 0 {
		results, err := s.solutions.Query(ctx, query, min(solutionResultLimit, s.solutions.Count()), nil, nil)
		if err != nil {
			return out, fmt.Errorf("query solutions: %w", err)
		}
		for _, r := range results {
			title := r.Metadata["task"]
			if title == "" {
				title = "Solution"
			}
			out.PastSolutions = append(out.PastSolutions, fmt.Sprintf("%s: %s", title, truncate(r.Content, 300)))
		}
	}

	return out, nil
}

// LearnFromSuccess satisfies agent.LearningStore, writing a completed turn
// into the solutions collection for future retrieval.
func (s *Store) LearnFromSuccess(task, solution string, toolsUsed []string) {
	doc := chromem.Document{
		ID:      solutionID(task),
		Content: solution,
		Metadata: map[string]string{
			"task":       truncate(task, 100),
			"tools_used": strings.Join(toolsUsed, ","),
		},
	}
	// Best-effort: a failed write to the learning store must never fail the
	// turn that produced it, so the error is swallowed here. Callers that
	// need to observe failures should use AddSolution directly.
	_ = s.solutions.AddDocument(context.Background(), doc)
}

// AddSolution is LearnFromSuccess with an observable error, for callers
// (e.g. background ingestion) that want to know if the write failed.
func (s *Store) AddSolution(ctx context.Context, task, solution string, toolsUsed []string) error {
	return s.solutions.AddDocument(ctx, chromem.Document{
		ID:      solutionID(task),
		Content: solution,
		Metadata: map[string]string{
			"task":       truncate(task, 100),
			"tools_used": strings.Join(toolsUsed, ","),
		},
	})
}

func solutionID(task string) string {
	sum := md5.Sum([]byte(task))
	return fmt.Sprintf("solution-%x", sum)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
