package metrics

import (
	"strconv"

	"shopify-variant-cleanup/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "variant_cleanup"

// Metrics holds the pipeline's Prometheus collectors
type Metrics struct {
	webhooks         *prometheus.CounterVec
	pipelineFailures *prometheus.CounterVec
	deletions        *prometheus.CounterVec
	activeShops      prometheus.GaugeFunc
}

// New registers the collectors on reg. activeShops may be nil.
func New(reg prometheus.Registerer, activeShops func() int) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_received_total",
			Help:      "Webhook deliveries by topic and handling status.",
		}, []string{"topic", "status"}),
		pipelineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Order pipeline runs abandoned, by stage.",
		}, []string{"stage"}),
		deletions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variant_deletions_total",
			Help:      "Variant delete mutations by kind and result.",
		}, []string{"kind", "success"}),
	}

	if activeShops != nil {
		m.activeShops = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_shops",
			Help:      "Shops currently in the active registry.",
		}, func() float64 { return float64(activeShops()) })
	}

	return m
}

func (m *Metrics) WebhookReceived(topic string, status string) {
	m.webhooks.WithLabelValues(topic, status).Inc()
}

func (m *Metrics) PipelineFailed(stage string) {
	m.pipelineFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) VariantDeletion(kind domain.DeletionKind, success bool) {
	m.deletions.WithLabelValues(string(kind), strconv.FormatBool(success)).Inc()
}
