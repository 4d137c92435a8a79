package api

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// Metrics represents the credential API metrics
type Metrics struct {
	// No.of handled requests, labelled by endpoint
	Requests metrics.Counter

	// No.of requests rejected by the per-IP rate limiter
	RateLimited metrics.Counter

	// No.of payment transactions submitted to the node
	TransfersSubmitted metrics.Counter
}

// GetPrometheusMetrics return the credential API metrics instance
func GetPrometheusMetrics(namespace string, labelsWithValues ...string) *Metrics {
	labels := []string{}

	for i := 0; i < len(labelsWithValues); i += 2 {
		labels = append(labels, labelsWithValues[i])
	}

	return &Metrics{
		Requests: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests",
			Help:      "Number of handled API requests.",
		}, append(labels, "endpoint")).With(labelsWithValues...),
		RateLimited: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "rate_limited",
			Help:      "Number of rate limited API requests.",
		}, labels).With(labelsWithValues...),
		TransfersSubmitted: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "transfers_submitted",
			Help:      "Number of submitted payment transactions.",
		}, labels).With(labelsWithValues...),
	}
}

// NilMetrics will return the non operational metrics
func NilMetrics() *Metrics {
	return &Metrics{
		Requests:           discard.NewCounter(),
		RateLimited:        discard.NewCounter(),
		TransfersSubmitted: discard.NewCounter(),
	}
}
