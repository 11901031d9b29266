package filterstate

import (
	"context"
	"log/slog"

	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/AdguardTeam/AdGuardFilters/internal/filternotify"
)

// PersisterConfig is the configuration structure for a persister.
type PersisterConfig struct {
	// Logger is used for logging persistence failures.  It must not be nil.
	Logger *slog.Logger

	// ErrColl collects persistence failures.  It must not be nil.
	ErrColl errcoll.Interface

	// Storage is the storage the state is written to.  It must not be nil.
	Storage Storage
}

// Persister is a [filternotify.Handler] that writes every committed lifecycle
// transition through to a [Storage].
type Persister struct {
	logger  *slog.Logger
	errColl errcoll.Interface
	storage Storage
}

// NewPersister returns a new persister.  c must not be nil.
func NewPersister(c *PersisterConfig) (p *Persister) {
	return &Persister{
		logger:  c.Logger,
		errColl: c.ErrColl,
		storage: c.Storage,
	}
}

// type check
var _ filternotify.Handler = (*Persister)(nil)

// Handle implements the [filternotify.Handler] interface for *Persister.  A
// persistence failure is collected but does not propagate, since the
// transition has already been committed.
func (p *Persister) Handle(ctx context.Context, evt *filternotify.Event) {
	var err error
	switch {
	case evt.Filter != nil:
		f := evt.Filter
		err = p.storage.SetFilterState(f.ID, &FilterState{
			Enabled:   f.Enabled,
			Installed: f.Installed,
			Loaded:    f.Loaded,
			Removed:   f.Removed,
		})
	case evt.Group != nil:
		g := evt.Group
		err = p.storage.SetGroupState(g.ID, &GroupState{
			Enabled: g.Enabled,
		})
	default:
		// Nothing to persist.
		return
	}

	if err != nil {
		errcoll.Collect(ctx, p.errColl, p.logger, "persisting state", err)
	}
}
