package metrics

import "sync"

// MockMetrics is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type MockMetrics struct {
	mu sync.Mutex

	VerificationSuccessCount  int
	VerificationConflictCount int
	VerificationFailedCount   int
	BestTimeUpdatedCount      int
	BestTimeSkippedCount      int
	HistoryRebuildsCount      int
	RebuildDurations          []float64
	StartupTimes              []float64
}

var _ Metrics = (*MockMetrics)(nil)

// NewMock creates a new mock Metrics instance.
func NewMock() *MockMetrics {
	return &MockMetrics{}
}

func (m *MockMetrics) IncVerificationSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerificationSuccessCount++
}

func (m *MockMetrics) IncVerificationConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerificationConflictCount++
}

func (m *MockMetrics) IncVerificationFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerificationFailedCount++
}

func (m *MockMetrics) IncBestTimeUpdated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BestTimeUpdatedCount++
}

func (m *MockMetrics) IncBestTimeSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BestTimeSkippedCount++
}

func (m *MockMetrics) IncHistoryRebuilds() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HistoryRebuildsCount++
}

func (m *MockMetrics) ObserveRebuildDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RebuildDurations = append(m.RebuildDurations, seconds)
}

func (m *MockMetrics) SetStartupTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartupTimes = append(m.StartupTimes, seconds)
}
