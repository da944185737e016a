package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shapeblock/shapeblock-api/api/middleware/recovery"
	"github.com/urfave/negroni/v3"
)

// NewMetricsHandler serves the collectors of the default registry. Scrapes
// are not logged.
func NewMetricsHandler() http.Handler {
	serveMux := http.NewServeMux()
	serveMux.Handle("GET /metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{EnableOpenMetrics: true}),
	))
	serveMux.Handle("/health/", createHealthHandler())

	n := negroni.New(recovery.NewMiddleware())
	n.UseHandler(serveMux)

	return n
}
