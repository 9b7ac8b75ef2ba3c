// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts handled HTTP requests by method and route pattern.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crudai_http_requests_total",
		Help: "Handled HTTP requests by method and route.",
	}, []string{"method", "route"})

	// GenerationsTotal counts AI generation attempts by outcome:
	// ok, unavailable, no_context, failed.
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crudai_generations_total",
		Help: "AI generation attempts by outcome.",
	}, []string{"outcome"})
)

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
