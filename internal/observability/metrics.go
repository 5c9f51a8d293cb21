package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request metrics
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_requests_total",
		Help: "Total number of chat requests processed",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_request_duration_seconds",
		Help:    "End to end chat request latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
	})

	degradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_degraded_responses_total",
		Help: "Total number of responses produced through a fallback path",
	})

	// Stage metrics
	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_stage_fallbacks_total",
		Help: "Total number of stage fallbacks by stage",
	}, []string{"stage"})

	// Tool metrics
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_tool_calls_total",
		Help: "Total number of tool calls by tool and status",
	}, []string{"tool", "status"})

	// UI metrics
	layoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_ui_layouts_total",
		Help: "Total number of UI specifications emitted by layout",
	}, []string{"layout"})
)

// RecordRequest records one finished chat request.
func RecordRequest(status string, duration time.Duration) {
	requestsTotal.WithLabelValues(status).Inc()
	requestDuration.Observe(duration.Seconds())
}

// RecordDegraded counts a response produced through any fallback path.
func RecordDegraded() {
	degradedTotal.Inc()
}

// RecordFallback counts a stage falling back.
func RecordFallback(stage string) {
	fallbacksTotal.WithLabelValues(stage).Inc()
}

// RecordToolCall counts one tool call.
func RecordToolCall(tool, status string) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
}

// RecordLayout counts an emitted layout strategy.
func RecordLayout(layout string) {
	layoutsTotal.WithLabelValues(layout).Inc()
}
