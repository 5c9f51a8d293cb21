package executor

import (
	"sync"
	"time"

	"github.com/shophub-ai/assistant"
)

// Metrics tracks step execution counters across plans.
type Metrics struct {
	mu sync.Mutex

	stepsExecuted   int
	stepsSuccessful int
	stepsFailed     int
	totalDuration   time.Duration
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	StepsExecuted   int
	StepsSuccessful int
	StepsFailed     int
	TotalDuration   time.Duration
}

func (m *Metrics) record(result assistant.ToolResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepsExecuted++
	if result.Success {
		m.stepsSuccessful++
	} else {
		m.stepsFailed++
	}
	m.totalDuration += result.Duration
}

func (m *Metrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		StepsExecuted:   m.stepsExecuted,
		StepsSuccessful: m.stepsSuccessful,
		StepsFailed:     m.stepsFailed,
		TotalDuration:   m.totalDuration,
	}
}
