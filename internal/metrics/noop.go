package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSubmissionAccepted is a no-op.
func (n *NoopRecorder) IncSubmissionAccepted() {}

// IncSubmissionRejected is a no-op.
func (n *NoopRecorder) IncSubmissionRejected(field string) {}

// ObserveTokensSpent is a no-op.
func (n *NoopRecorder) ObserveTokensSpent(amount int64) {}

// IncProviderFault is a no-op.
func (n *NoopRecorder) IncProviderFault() {}

// ObserveProviderDuration is a no-op.
func (n *NoopRecorder) ObserveProviderDuration(duration time.Duration) {}
