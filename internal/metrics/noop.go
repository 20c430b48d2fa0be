package metrics

import (
	"time"

	"github.com/sovereign-agent/core/internal/agent"
)

// NoOpRecorder satisfies agent.MetricsRecorder while recording nothing, for
// configurations that disable metrics entirely without needing every call
// site to guard against a nil *Recorder explicitly.
type NoOpRecorder struct{}

var _ agent.MetricsRecorder = NoOpRecorder{}

func (NoOpRecorder) RecordToolCall(name string, success bool, duration time.Duration)    {}
func (NoOpRecorder) RecordLLMCall(success bool, duration time.Duration, responseLen int) {}
func (NoOpRecorder) RecordIteration(hadTools, completedEarly, hitMax bool)               {}
func (NoOpRecorder) RecordTurnStarted()                                                  {}
func (NoOpRecorder) RecordTurnCompleted(duration time.Duration, iterations int)          {}
func (NoOpRecorder) RecordCacheResult(hit bool)                                          {}
func (NoOpRecorder) RecordRefusalOverride()                                              {}
func (NoOpRecorder) RecordLoopBreak()                                                    {}
func (NoOpRecorder) RecordRecoveryAction(kind string)                                    {}
func (NoOpRecorder) RecordParallelBatchSpeedup(speedup float64)                          {}
