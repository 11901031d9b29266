// Package updater contains the download pipeline of filter rules: the loading
// of single lists and the periodic update check over the whole catalog.
package updater

import (
	"context"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
)

// Loader downloads the rules of filters.
type Loader interface {
	// LoadFilterRules downloads the rules of f into the cache directory and
	// records the new version info.  If force is true, a fresh cached copy is
	// not used.  f must not be nil.
	LoadFilterRules(ctx context.Context, f *agd.Filter, force bool) (err error)

	// CheckFiltersUpdate reloads the rules of every loaded filter that is due
	// for a check.  If force is true, the update periods and the cached
	// copies are ignored.  Filters are processed one at a time; a failure of
	// one does not stop the others.
	CheckFiltersUpdate(ctx context.Context, force bool) (err error)
}

// Empty is a [Loader] that does nothing.
type Empty struct{}

// type check
var _ Loader = Empty{}

// LoadFilterRules implements the [Loader] interface for Empty.  It always
// returns nil.
func (Empty) LoadFilterRules(_ context.Context, _ *agd.Filter, _ bool) (err error) {
	return nil
}

// CheckFiltersUpdate implements the [Loader] interface for Empty.  It always
// returns nil.
func (Empty) CheckFiltersUpdate(_ context.Context, _ bool) (err error) {
	return nil
}

// Metrics is an interface that is used for the collection of the filter
// update statistics.
type Metrics interface {
	// SetFilterStatus sets the status of the filter with ID id after an
	// update attempt.  If err is not nil, updTime and ruleCount are ignored.
	SetFilterStatus(ctx context.Context, id string, updTime time.Time, ruleCount int, err error)
}

// EmptyMetrics is a [Metrics] implementation that does nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// SetFilterStatus implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) SetFilterStatus(
	_ context.Context,
	_ string,
	_ time.Time,
	_ int,
	_ error,
) {
}
