package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Settlement struct {
	Settlements          *prometheus.CounterVec
	GatewayLatencyMS     *prometheus.HistogramVec
	OpenReconciliations  prometheus.Gauge
	NotificationFailures prometheus.Counter
}

func NewSettlement() *Settlement {
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "settlement",
		Name:      "settlements_total",
		Help:      "Settlement attempts by terminal outcome.",
	}, []string{"outcome"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "settlement",
		Name:      "gateway_request_duration_ms",
		Help:      "Payment gateway request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"op", "status"})
	openRecon := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "storefront",
		Subsystem: "settlement",
		Name:      "reconciliation_open_entries",
		Help:      "Captured payments awaiting manual reconciliation.",
	})
	notifFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "settlement",
		Name:      "notification_failures_total",
		Help:      "Emails that could not be delivered.",
	})

	prometheus.MustRegister(settlements, gatewayLatency, openRecon, notifFailures)
	return &Settlement{
		Settlements:          settlements,
		GatewayLatencyMS:     gatewayLatency,
		OpenReconciliations:  openRecon,
		NotificationFailures: notifFailures,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
