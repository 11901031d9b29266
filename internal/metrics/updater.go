package metrics

import (
	"context"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/updater"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// updaterRulesTotal is a gauge with the number of rules loaded by each
	// filter.
	updaterRulesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name:      "rules_total",
		Subsystem: subsystemUpdater,
		Namespace: namespace,
		Help:      "The number of rules loaded by filters.",
	}, []string{"filter"})

	// updaterUpdatedTime is a gauge with the time when the filter was last
	// updated.
	updaterUpdatedTime = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name:      "updated_time",
		Subsystem: subsystemUpdater,
		Namespace: namespace,
		Help:      "Time when the filter was last time updated.",
	}, []string{"filter"})

	// updaterUpdateStatus is a gauge with the status of the last filter
	// update.  "0" means error, "1" means success.
	updaterUpdateStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name:      "update_status",
		Subsystem: subsystemUpdater,
		Namespace: namespace,
		Help:      "Status of the filter update. 1 means success.",
	}, []string{"filter"})
)

// Updater is the prometheus-based implementation of [updater.Metrics].
type Updater struct{}

// type check
var _ updater.Metrics = Updater{}

// SetFilterStatus implements the [updater.Metrics] interface for Updater.
func (Updater) SetFilterStatus(
	_ context.Context,
	id string,
	updTime time.Time,
	ruleCount int,
	err error,
) {
	if err != nil {
		updaterUpdateStatus.WithLabelValues(id).Set(0)

		return
	}

	updaterRulesTotal.WithLabelValues(id).Set(float64(ruleCount))
	updaterUpdatedTime.WithLabelValues(id).Set(float64(updTime.UnixNano()) / float64(time.Second))
	updaterUpdateStatus.WithLabelValues(id).Set(1)
}
