package metrics

import "sync/atomic"

// MetricID identifies a single counter slot.
type MetricID uint16

const (
	// MetricPairIssued is an exported constant or variable used by the credential engine.
	MetricPairIssued MetricID = iota
	// MetricAccessValidateSuccess is an exported constant or variable used by the credential engine.
	MetricAccessValidateSuccess
	// MetricAccessValidateFailure is an exported constant or variable used by the credential engine.
	MetricAccessValidateFailure
	// MetricRefreshSuccess is an exported constant or variable used by the credential engine.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the credential engine.
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts refresh attempts with a superseded token.
	MetricRefreshReuseDetected
	// MetricAssertionValidated is an exported constant or variable used by the credential engine.
	MetricAssertionValidated
	// MetricCounterMismatch counts exact-match failures on the signature counter.
	MetricCounterMismatch
	// MetricCounterAdvanced is an exported constant or variable used by the credential engine.
	MetricCounterAdvanced
	// MetricCounterReset is an exported constant or variable used by the credential engine.
	MetricCounterReset
	// MetricChallengeIssued is an exported constant or variable used by the credential engine.
	MetricChallengeIssued
	// MetricChallengeConsumed is an exported constant or variable used by the credential engine.
	MetricChallengeConsumed

	// MetricIDCount is the number of counter slots.
	MetricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls whether counting is active. When Enabled is false every
// operation is a no-op.
type Config struct {
	Enabled bool
}

// Metrics holds the counter slots. Safe for concurrent use.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]paddedCounter
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters [MetricIDCount]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	var s Snapshot
	if m == nil {
		return s
	}
	for i := MetricID(0); i < MetricIDCount; i++ {
		s.Counters[i] = atomic.LoadUint64(&m.counters[i].value)
	}
	return s
}
