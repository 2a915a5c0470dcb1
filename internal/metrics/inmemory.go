package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SubmissionsAccepted        uint64
	SubmissionsRejectedTokens  uint64
	SubmissionsRejectedPrompt  uint64
	TokensSpentTotal           int64
	ProviderFaults             uint64
	ProviderDurationCount      uint64
	ProviderDurationTotalNs    int64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	submissionsAccepted       uint64
	submissionsRejectedTokens uint64
	submissionsRejectedPrompt uint64
	tokensSpentTotal          int64
	providerFaults            uint64
	providerDurationCount     uint64
	providerDurationTotalNs   int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		SubmissionsAccepted:       atomic.LoadUint64(&m.submissionsAccepted),
		SubmissionsRejectedTokens: atomic.LoadUint64(&m.submissionsRejectedTokens),
		SubmissionsRejectedPrompt: atomic.LoadUint64(&m.submissionsRejectedPrompt),
		TokensSpentTotal:          atomic.LoadInt64(&m.tokensSpentTotal),
		ProviderFaults:            atomic.LoadUint64(&m.providerFaults),
		ProviderDurationCount:     atomic.LoadUint64(&m.providerDurationCount),
		ProviderDurationTotalNs:   atomic.LoadInt64(&m.providerDurationTotalNs),
	}
}

// IncSubmissionAccepted increments the accepted submissions counter.
func (m *InMemoryRecorder) IncSubmissionAccepted() {
	atomic.AddUint64(&m.submissionsAccepted, 1)
}

// IncSubmissionRejected increments the rejection counter for a field.
func (m *InMemoryRecorder) IncSubmissionRejected(field string) {
	switch field {
	case "prompt":
		atomic.AddUint64(&m.submissionsRejectedPrompt, 1)
	default:
		atomic.AddUint64(&m.submissionsRejectedTokens, 1)
	}
}

// ObserveTokensSpent adds to the total tokens spent.
func (m *InMemoryRecorder) ObserveTokensSpent(amount int64) {
	atomic.AddInt64(&m.tokensSpentTotal, amount)
}

// IncProviderFault increments the provider fault counter.
func (m *InMemoryRecorder) IncProviderFault() {
	atomic.AddUint64(&m.providerFaults, 1)
}

// ObserveProviderDuration records one provider call duration.
func (m *InMemoryRecorder) ObserveProviderDuration(duration time.Duration) {
	atomic.AddUint64(&m.providerDurationCount, 1)
	atomic.AddInt64(&m.providerDurationTotalNs, duration.Nanoseconds())
}
