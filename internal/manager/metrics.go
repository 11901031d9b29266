package manager

import (
	"context"

	"github.com/AdguardTeam/AdGuardFilters/internal/filternotify"
)

// Metrics is an interface that is used for the collection of the lifecycle
// statistics.
type Metrics interface {
	// IncEvent increments the counter of emitted events of the given kind.
	IncEvent(ctx context.Context, kind filternotify.Kind)
}

// EmptyMetrics is a [Metrics] implementation that does nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// IncEvent implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) IncEvent(_ context.Context, _ filternotify.Kind) {}
