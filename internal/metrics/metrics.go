package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement paths, used as the "path" label.
const (
	PathWebhook = "webhook"
	PathPoll    = "poll"
	PathProof   = "proof"
	PathSweeper = "sweeper"
)

// Callback rejection reasons, used as the "reason" label.
const (
	ReasonMissingHash      = "missing_hash"
	ReasonInvalidHash      = "invalid_hash"
	ReasonMalformed        = "malformed"
	ReasonUnknownReference = "unknown_reference"
)

// Metrics aggregates the settlement counters. A nil *Metrics is a valid
// no-op receiver so services can run without a registry in tests.
type Metrics struct {
	settlements       *prometheus.CounterVec
	rejectedCallbacks *prometheus.CounterVec
}

// New registers the settlement counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "localpay_settlements_total",
			Help: "Terminal transaction transitions performed, by path and resulting status.",
		}, []string{"path", "status"}),
		rejectedCallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "localpay_rejected_callbacks_total",
			Help: "Webhook deliveries rejected before any row was touched, by reason.",
		}, []string{"reason"}),
	}
}

// SettlementProcessed records a won settlement transition.
func (m *Metrics) SettlementProcessed(path, status string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(path, status).Inc()
}

// CallbackRejected records a rejected webhook delivery.
func (m *Metrics) CallbackRejected(reason string) {
	if m == nil {
		return
	}
	m.rejectedCallbacks.WithLabelValues(reason).Inc()
}
