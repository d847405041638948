package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the fulfillment workflow's Prometheus collectors.
type Metrics struct {
	CheckoutDomains     *prometheus.CounterVec
	TransferAttempts    *prometheus.CounterVec
	Compensations       *prometheus.CounterVec
	ReconcilePasses     *prometheus.CounterVec
	StoreWriteFailures  *prometheus.CounterVec
	RegistrarLatency    *prometheus.HistogramVec
	ReservationConflict prometheus.Counter
	OutboxPublished     prometheus.Counter
	OutboxFailures      prometheus.Counter
}

// New registers collectors with the given registerer; nil means the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		CheckoutDomains: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namecart_checkout_domains_total",
			Help: "Per-domain checkout results by result code",
		}, []string{"code"}),
		TransferAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namecart_transfer_attempts_total",
			Help: "Registrar transfer attempts by outcome",
		}, []string{"outcome"}),
		Compensations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namecart_compensations_total",
			Help: "Failure compensation runs by outcome",
		}, []string{"outcome"}),
		ReconcilePasses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namecart_reconcile_passes_total",
			Help: "Reconciliation passes by outcome",
		}, []string{"outcome"}),
		StoreWriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namecart_store_write_failures_total",
			Help: "Operation store writes that failed and were left for reconciliation",
		}, []string{"stage"}),
		RegistrarLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "namecart_registrar_request_seconds",
			Help:    "Registrar API latency by call",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
		ReservationConflict: f.NewCounter(prometheus.CounterOpts{
			Name: "namecart_reservation_conflicts_total",
			Help: "Reserve calls rejected because another wallet holds the domain",
		}),
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "namecart_outbox_published_total",
			Help: "Outbox events relayed to Kafka",
		}),
		OutboxFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "namecart_outbox_publish_failures_total",
			Help: "Outbox relay attempts that failed",
		}),
	}
}

func (m *Metrics) IncCheckoutDomain(code string) {
	if m != nil {
		m.CheckoutDomains.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) IncTransferAttempt(outcome string) {
	if m != nil {
		m.TransferAttempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncCompensation(outcome string) {
	if m != nil {
		m.Compensations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncReconcile(outcome string) {
	if m != nil {
		m.ReconcilePasses.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncStoreWriteFailure(stage string) {
	if m != nil {
		m.StoreWriteFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveRegistrar(call string, seconds float64) {
	if m != nil {
		m.RegistrarLatency.WithLabelValues(call).Observe(seconds)
	}
}

func (m *Metrics) IncReservationConflict() {
	if m != nil {
		m.ReservationConflict.Inc()
	}
}

func (m *Metrics) IncOutboxPublished(n int) {
	if m != nil {
		m.OutboxPublished.Add(float64(n))
	}
}

func (m *Metrics) IncOutboxFailure() {
	if m != nil {
		m.OutboxFailures.Inc()
	}
}
