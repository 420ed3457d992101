package authkit

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram in the in-process metrics
// system.
type MetricID uint16

const (
	// MetricRegisterSuccess counts successful registrations.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected on a
	// duplicate email.
	MetricRegisterDuplicate
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts logins rejected with generic invalid
	// credentials.
	MetricLoginFailure
	// MetricLoginUnverified counts logins rejected for an unverified
	// email after a password match.
	MetricLoginUnverified
	// MetricRefreshSuccess counts successful refresh rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh attempts, including
	// replays of rotated-out tokens.
	MetricRefreshFailure
	// MetricLogout counts logout operations.
	MetricLogout
	// MetricTokenRevoked counts denylist insertions.
	MetricTokenRevoked
	// MetricPasswordResetRequest counts reset requests, existing account
	// or not.
	MetricPasswordResetRequest
	// MetricPasswordResetConfirmSuccess counts completed resets.
	MetricPasswordResetConfirmSuccess
	// MetricPasswordResetConfirmFailure counts rejected reset
	// confirmations.
	MetricPasswordResetConfirmFailure
	// MetricVerificationEmailSent counts verification messages handed to
	// the sender.
	MetricVerificationEmailSent
	// MetricEmailVerificationSuccess counts completed verifications.
	MetricEmailVerificationSuccess
	// MetricEmailVerificationFailure counts rejected verification
	// tokens.
	MetricEmailVerificationFailure
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts changes rejected on a wrong
	// current password.
	MetricPasswordChangeInvalidOld
	// MetricPasswordChangeReuseRejected counts changes rejected for
	// reusing the current password.
	MetricPasswordChangeReuseRejected
	// MetricProfileUpdate counts profile merge-updates.
	MetricProfileUpdate
	// MetricAuthenticateLatency is the request-authentication latency
	// histogram.
	MetricAuthenticateLatency

	metricIDCount
)

// histogramBucketCount matches the bucket layout shared with the
// exporters in metrics/export/internaldefs.
const histogramBucketCount = 8

// histogramBoundsMicros are the upper bounds, in microseconds, of the
// first seven buckets; the eighth is +Inf.
var histogramBoundsMicros = [histogramBucketCount - 1]int64{
	100, 250, 500, 1000, 2500, 5000, 10000,
}

// Metrics holds atomic counters and optional latency histograms. All
// methods are safe for concurrent use; a disabled Metrics is a no-op.
type Metrics struct {
	enabled        bool
	latencyEnabled bool
	counters       [metricIDCount]atomic.Uint64
	latency        [histogramBucketCount]atomic.Uint64
}

// NewMetrics creates a Metrics instance per the given config.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:        cfg.Enabled,
		latencyEnabled: cfg.Enabled && cfg.EnableLatencyHistogram,
	}
}

// Inc increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// LatencyEnabled reports whether Observe records anything.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.latencyEnabled
}

// Observe records a latency sample into the histogram for id. Only
// MetricAuthenticateLatency is currently backed by a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latencyEnabled || id != MetricAuthenticateLatency {
		return
	}

	micros := d.Microseconds()
	bucket := histogramBucketCount - 1
	for i, bound := range histogramBoundsMicros {
		if micros <= bound {
			bucket = i
			break
		}
	}
	m.latency[bucket].Add(1)
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Snapshot copies every counter and histogram bucket.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, metricIDCount),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	if m.latencyEnabled {
		buckets := make([]uint64, histogramBucketCount)
		for i := range m.latency {
			buckets[i] = m.latency[i].Load()
		}
		snap.Histograms[MetricAuthenticateLatency] = buckets
	}
	return snap
}
