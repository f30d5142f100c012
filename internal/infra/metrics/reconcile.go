package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		reconciliationsTotal,
		revenueCents,
		webhookRejections,
	)
}

var (
	reconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliations_total",
			Help: "Purchase status transitions applied, by provider and resulting status.",
		},
		[]string{"provider", "status"},
	)

	revenueCents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revenue_cents_total",
			Help: "Monetary value of completed purchases, labeled by currency.",
		},
		[]string{"currency"},
	)

	webhookRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejections_total",
			Help: "Callback notifications rejected before processing.",
		},
		[]string{"provider", "reason"},
	)
)

func IncReconciliation(provider, status string) {
	reconciliationsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddRevenue(currency string, cents int64) {
	revenueCents.WithLabelValues(norm(currency)).Add(float64(cents))
}

func IncWebhookRejection(provider, reason string) {
	webhookRejections.WithLabelValues(norm(provider), norm(reason)).Inc()
}
