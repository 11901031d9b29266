package metrics

import (
	"context"

	"github.com/AdguardTeam/AdGuardFilters/internal/filternotify"
	"github.com/AdguardTeam/AdGuardFilters/internal/manager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// managerEventsTotal is a counter with the total number of lifecycle events
// emitted by the manager, labeled by the kind of the event.
var managerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name:      "events_total",
	Subsystem: subsystemManager,
	Namespace: namespace,
	Help:      "Total number of emitted lifecycle events.",
}, []string{"kind"})

// Manager is the prometheus-based implementation of [manager.Metrics].
type Manager struct{}

// type check
var _ manager.Metrics = Manager{}

// IncEvent implements the [manager.Metrics] interface for Manager.
func (Manager) IncEvent(_ context.Context, kind filternotify.Kind) {
	managerEventsTotal.WithLabelValues(kind.String()).Inc()
}
