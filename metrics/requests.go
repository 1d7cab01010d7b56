package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Labels to use for partitioning enclave requests.
	requestLabels = []string{"method", "status", "cause"}

	// Labels to use for partitioning request latencies.
	requestLatencyLabels = []string{"method"}

	// Labels to use for partitioning received frames.
	frameLabels = []string{"method", "outcome"}
)

// Frame outcomes.
const (
	FrameDelivered = "delivered"
	FrameDropped   = "dropped"
	FrameSkipped   = "skipped"
)

// Request statuses.
const (
	StatusOk      = "ok"
	StatusFailure = "failure"
)

// RequestMetrics instruments requests sent to the enclave.
type RequestMetrics struct {
	// Counts of requests made, per RPC method.
	RequestCounts *prometheus.CounterVec

	// Latencies of requests, from dial to completion.
	RequestLatencies *prometheus.HistogramVec

	// Counts of frames received, per RPC method and what became of them.
	FrameCounts *prometheus.CounterVec
}

// NewDefaultRequestMetrics creates Prometheus instrumentation for enclave
// requests. Metrics are registered once per process, so repeated calls
// with the same pkg share collectors.
func NewDefaultRequestMetrics(pkg string) RequestMetrics {
	return RequestMetrics{
		RequestCounts: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_requests", pkg),
				Help: "How many enclave requests were made, partitioned by RPC method, status, and cause.",
			},
			requestLabels,
		)).(*prometheus.CounterVec),
		RequestLatencies: registerOnce(prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_request_latencies", pkg),
				Help: "How long enclave requests take to complete, partitioned by RPC method.",
			},
			requestLatencyLabels,
		)).(*prometheus.HistogramVec),
		FrameCounts: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_frames", pkg),
				Help: "How many frames were received, partitioned by RPC method and outcome.",
			},
			frameLabels,
		)).(*prometheus.CounterVec),
	}
}

// RequestCounter returns the counter for the calling request.
// Provided labels should be method, status, and cause.
func (m *RequestMetrics) RequestCounter(labels ...string) prometheus.Counter {
	return m.RequestCounts.WithLabelValues(padLabels(labels, requestLabels)...)
}

// RequestTimer creates a new latency timer for the provided RPC method.
func (m *RequestMetrics) RequestTimer(labels ...string) *prometheus.Timer {
	return prometheus.NewTimer(m.RequestLatencies.WithLabelValues(padLabels(labels, requestLatencyLabels)...))
}

// FrameCounter returns the counter for frames of a method with an outcome.
func (m *RequestMetrics) FrameCounter(labels ...string) prometheus.Counter {
	return m.FrameCounts.WithLabelValues(padLabels(labels, frameLabels)...)
}

func padLabels(labels []string, names []string) []string {
	if len(labels) > len(names) {
		labels = labels[:len(names)]
	}
	return append(labels, make([]string, len(names)-len(labels))...)
}
