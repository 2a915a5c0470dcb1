// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Submission workflow metrics
	IncSubmissionAccepted()
	IncSubmissionRejected(field string) // field: "tokens" or "prompt"
	ObserveTokensSpent(amount int64)

	// Provider call metrics
	IncProviderFault()
	ObserveProviderDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
