// Package metrics exposes Prometheus instruments for the shop's checkout
// path and a scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ShopMetrics struct {
	// CheckoutTotal counts finished checkout attempts by outcome
	// (paid, failed, pending, rejected_input).
	CheckoutTotal *prometheus.CounterVec

	// PendingOrders tracks orders awaiting settlement confirmation,
	// refreshed by the reconciler sweep.
	PendingOrders prometheus.Gauge

	// ChargeSeconds observes wall time of gateway charge calls.
	ChargeSeconds prometheus.Histogram
}

func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	checkoutTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paintshop",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Total number of checkout attempts by outcome.",
	}, []string{"outcome"})
	pendingOrders := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "paintshop",
		Subsystem: "orders",
		Name:      "pending",
		Help:      "Orders currently awaiting payment confirmation.",
	})
	chargeSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paintshop",
		Subsystem: "payment",
		Name:      "charge_duration_seconds",
		Help:      "Latency of payment gateway charge calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	reg.MustRegister(checkoutTotal, pendingOrders, chargeSeconds)
	return &ShopMetrics{
		CheckoutTotal: checkoutTotal,
		PendingOrders: pendingOrders,
		ChargeSeconds: chargeSeconds,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
