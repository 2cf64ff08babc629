package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	authzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parable_authz_decisions_total",
			Help: "Authorization gate decisions by action and result",
		},
		[]string{"action", "result"},
	)

	logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parable_logins_total",
			Help: "Completed sign-in attempts by result",
		},
		[]string{"result"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parable_http_requests_total",
			Help: "HTTP requests by method and status class",
		},
		[]string{"method", "status"},
	)
)

// RecordAuthzDecision counts one gate decision ("allowed" or "denied").
func RecordAuthzDecision(action, result string) {
	authzDecisions.WithLabelValues(action, result).Inc()
}

// RecordLogin counts one completed sign-in attempt ("success" or "failure").
func RecordLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

// RecordHTTPRequest counts one served request.
func RecordHTTPRequest(method, status string) {
	httpRequests.WithLabelValues(method, status).Inc()
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
