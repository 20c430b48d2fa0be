package rag

import (
	"context"

	"github.com/sovereign-agent/core/internal/agent"
)

// NoOp satisfies both agent.ContextRetriever and agent.LearningStore while
// doing nothing, for configurations that disable retrieval entirely.
type NoOp struct{}

func (NoOp) Retrieve(ctx context.Context, query string) (agent.RetrievedContext, error) {
	return agent.RetrievedContext{}, nil
}

func (NoOp) LearnFromSuccess(task, solution string, toolsUsed []string) {}
