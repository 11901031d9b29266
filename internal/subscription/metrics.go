package subscription

import "context"

// Metrics is an interface for the collection of the catalog statistics.
type Metrics interface {
	// IncrementCustomCacheLookups increments the number of lookups of
	// custom-filter texts in the cache.  hit is true if the lookup was a hit.
	IncrementCustomCacheLookups(ctx context.Context, hit bool)
}

// EmptyMetrics is the implementation of the [Metrics] interface that does
// nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// IncrementCustomCacheLookups implements the [Metrics] interface for
// EmptyMetrics.
func (EmptyMetrics) IncrementCustomCacheLookups(_ context.Context, _ bool) {}
