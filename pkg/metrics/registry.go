// Package metrics provides the process-wide Prometheus registry gate.
// Election and coordination components fetch metrics instances from
// here; when metrics are disabled they get a nil instance and every
// Record method becomes a no-op, so disabling metrics costs nothing
// beyond the gate check itself.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry enables process metrics collection. Call once at
// startup before constructing any metrics-emitting component.
func InitRegistry() *prometheus.Registry {
	registry = prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return enabled
}

// GetRegistry returns the process registry. Only valid after
// InitRegistry; panics otherwise, since callers must gate on
// IsEnabled first.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		panic("metrics: GetRegistry called before InitRegistry")
	}
	return registry
}

// Handler returns the /metrics HTTP handler for the process registry.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics not enabled", http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
