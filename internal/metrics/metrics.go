// Package metrics contains definitions of the prometheus metrics that we use
// in the filter-subscription manager.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// constants with the namespace and the subsystem names that we use in our
// prometheus metrics.
const (
	namespace = "filters"

	subsystemApplication = "app"
	subsystemCatalog     = "catalog"
	subsystemManager     = "manager"
	subsystemUpdater     = "updater"
)

// SetUpGauge signals that the application has been started.
func SetUpGauge(version, buildtime, branch, revision, goversion string) {
	upGauge := promauto.NewGauge(
		prometheus.GaugeOpts{
			Name:      "up",
			Namespace: namespace,
			Subsystem: subsystemApplication,
			Help: `A metric with a constant '1' value labeled by ` +
				`version and goversion from which the program was built.`,
			ConstLabels: prometheus.Labels{
				"version":   version,
				"buildtime": buildtime,
				"branch":    branch,
				"revision":  revision,
				"goversion": goversion,
			},
		},
	)

	upGauge.Set(1)
}

// SetStatusGauge is a helper function that automatically checks if there's an
// error and sets the gauge to either 1 (success) or 0 (error).
func SetStatusGauge(gauge prometheus.Gauge, err error) {
	if err == nil {
		gauge.Set(1)
	} else {
		gauge.Set(0)
	}
}
