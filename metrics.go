package authcore

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricSessionCreated
	MetricSessionVerified
	MetricSessionRejected
	MetricSessionDeleted
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshReuse
	MetricMagicLinkIssued
	MetricMagicLinkRedeemed
	MetricMagicLinkRejected
	MetricUpstreamFault

	metricCount
)

// CounterDef describes a counter for exporters.
type CounterDef struct {
	ID   MetricID
	Name string
	Help string
}

// CounterDefs lists every counter the Authority maintains, in a stable
// order suitable for export registration.
var CounterDefs = []CounterDef{
	{MetricLoginSuccess, "authcore_login_success_total", "Successful password logins."},
	{MetricLoginFailure, "authcore_login_failure_total", "Rejected password logins (unknown identifier and wrong password combined)."},
	{MetricSessionCreated, "authcore_session_created_total", "Sessions minted (access plus refresh pair registered)."},
	{MetricSessionVerified, "authcore_session_verified_total", "Access tokens accepted by verification."},
	{MetricSessionRejected, "authcore_session_rejected_total", "Access tokens rejected by verification."},
	{MetricSessionDeleted, "authcore_session_deleted_total", "Sessions revoked by logout."},
	{MetricRefreshSuccess, "authcore_refresh_success_total", "Refresh rotations that issued a new access token."},
	{MetricRefreshFailure, "authcore_refresh_failure_total", "Rejected refresh attempts."},
	{MetricRefreshReuse, "authcore_refresh_reuse_total", "Refresh tokens presented again after rotation."},
	{MetricMagicLinkIssued, "authcore_magic_link_issued_total", "Magic links issued."},
	{MetricMagicLinkRedeemed, "authcore_magic_link_redeemed_total", "Magic links redeemed."},
	{MetricMagicLinkRejected, "authcore_magic_link_rejected_total", "Magic links rejected (malformed, tampered, or expired)."},
	{MetricUpstreamFault, "authcore_upstream_fault_total", "Credential store or session cache faults observed at the boundary."},
}

// Metrics is a fixed set of lock-free counters. The zero value is not
// usable; construct with NewMetrics.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc adds one to the counter. Unknown ids are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns the current value of a single counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id >= metricCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies all counters. Counters incremented concurrently with the
// snapshot may or may not be included; each value is individually consistent.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
