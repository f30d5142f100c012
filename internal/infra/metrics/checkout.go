package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutsTotal,
		couponsConsumed,
	)
}

var (
	checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout intents by provider and outcome (created/rejected/failed).",
		},
		[]string{"provider", "outcome"},
	)

	couponsConsumed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupons_consumed_total",
			Help: "Discount codes burned at intent time.",
		},
	)
)

func IncCheckout(provider, outcome string) {
	checkoutsTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}

func IncCouponConsumed() {
	couponsConsumed.Inc()
}
