package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ElectionMetrics tracks lease acquisition, renewal, and failover
// activity. All methods are nil-receiver safe so components can be
// constructed with a nil *ElectionMetrics when metrics are disabled.
type ElectionMetrics struct {
	acquisitions *prometheus.CounterVec
	renewals     *prometheus.CounterVec
	failovers    prometheus.Counter
	splitBrains  prometheus.Counter
	currentEpoch prometheus.Gauge
	isLeader     prometheus.Gauge
}

// NewElectionMetrics returns nil if metrics are not enabled
// (InitRegistry not called), in which case every Record method is a
// no-op.
func NewElectionMetrics() *ElectionMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &ElectionMetrics{
		acquisitions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tso_lease_acquisitions_total",
				Help: "Total number of lease acquisition attempts by outcome",
			},
			[]string{"outcome"}, // ok, version_mismatch, transport_error
		),
		renewals: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tso_lease_renewals_total",
				Help: "Total number of lease renewal attempts by outcome",
			},
			[]string{"outcome"},
		),
		failovers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tso_lease_promotions_total",
			Help: "Total number of completed promotions (successful master transitions)",
		}),
		splitBrains: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tso_lease_split_brain_total",
			Help: "Total number of detected split-brain conditions",
		}),
		currentEpoch: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tso_lease_current_epoch",
			Help: "The last epoch this replica published during a promotion",
		}),
		isLeader: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tso_lease_is_leader",
			Help: "1 if this replica currently believes it is the master, 0 otherwise",
		}),
	}
}

func (m *ElectionMetrics) RecordAcquisition(outcome string) {
	if m == nil {
		return
	}
	m.acquisitions.WithLabelValues(outcome).Inc()
}

func (m *ElectionMetrics) RecordRenewal(outcome string) {
	if m == nil {
		return
	}
	m.renewals.WithLabelValues(outcome).Inc()
}

func (m *ElectionMetrics) RecordPromotion(epoch int64) {
	if m == nil {
		return
	}
	m.failovers.Inc()
	m.currentEpoch.Set(float64(epoch))
}

func (m *ElectionMetrics) RecordSplitBrain() {
	if m == nil {
		return
	}
	m.splitBrains.Inc()
}

func (m *ElectionMetrics) SetIsLeader(isLeader bool) {
	if m == nil {
		return
	}
	if isLeader {
		m.isLeader.Set(1)
		return
	}
	m.isLeader.Set(0)
}
