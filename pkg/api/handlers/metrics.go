package handlers

import (
	"net/http"

	"github.com/marmos91/tso-lease/pkg/metrics"
)

// Metrics exposes /metrics, delegating straight to the Prometheus
// registry's own handler.
func Metrics() http.Handler {
	return metrics.Handler()
}
