package metrics

import (
	"context"

	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// catalogCustomCacheLookups is a counter with the total number of lookups of
// custom-filter texts in the cache, labeled by the result of the lookup.
var catalogCustomCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name:      "custom_cache_lookups_total",
	Subsystem: subsystemCatalog,
	Namespace: namespace,
	Help:      "Total number of custom-filter cache lookups.",
}, []string{"result"})

// Catalog is the prometheus-based implementation of [subscription.Metrics].
type Catalog struct{}

// type check
var _ subscription.Metrics = Catalog{}

// IncrementCustomCacheLookups implements the [subscription.Metrics] interface
// for Catalog.
func (Catalog) IncrementCustomCacheLookups(_ context.Context, hit bool) {
	if hit {
		catalogCustomCacheLookups.WithLabelValues("hit").Inc()
	} else {
		catalogCustomCacheLookups.WithLabelValues("miss").Inc()
	}
}
