// Package manager contains the lifecycle manager of filter subscriptions: the
// single entry point through which the host application enables, disables,
// adds, and removes filters and filter groups.
//
// All mutations are serialized on a single mutex, so at most one load-enable
// pipeline is in flight at any moment.  Every committed transition is
// broadcast on the notification bus and written through to the state storage
// before the mutating call returns.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/category"
	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/AdguardTeam/AdGuardFilters/internal/filternotify"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/AdGuardFilters/internal/updater"
	"github.com/AdguardTeam/golibs/errors"
)

// Config is the configuration structure for a manager.
type Config struct {
	// Logger is used for logging the operation of the manager.  It must not
	// be nil.
	Logger *slog.Logger

	// ErrColl collects the errors of background work whose failures do not
	// fail the mutating call itself.  It must not be nil.
	ErrColl errcoll.Interface

	// Metrics collects the lifecycle statistics.  It must not be nil.
	Metrics Metrics

	// Catalog is the catalog of subscriptions.  It must not be nil.
	Catalog *subscription.Catalog

	// States is the persistent state storage.  It must not be nil.
	States filterstate.Storage

	// Selector decides which filters are offered.  It must not be nil.
	Selector *category.Selector

	// Loader downloads the rules of filters.  It must not be nil.
	Loader updater.Loader

	// Bus broadcasts the committed transitions.  It must not be nil.
	Bus *filternotify.Bus
}

// Manager is the lifecycle manager of filter subscriptions.
type Manager struct {
	logger   *slog.Logger
	errColl  errcoll.Interface
	metrics  Metrics
	catalog  *subscription.Catalog
	states   filterstate.Storage
	selector *category.Selector
	loader   updater.Loader
	bus      *filternotify.Bus

	// mu serializes all mutations and projection refreshes.
	mu *sync.Mutex
}

// onboardingGroups are the groups offered during onboarding, in display
// order.
var onboardingGroups = []agd.GroupID{
	agd.GroupIDAdBlocking,
	agd.GroupIDPrivacy,
	agd.GroupIDLanguageSpecific,
}

// New returns a new manager.  It subscribes the persister of the state
// storage to the bus, so every event emitted by the manager is written
// through before the mutating call returns.  c must not be nil.
func New(c *Config) (m *Manager) {
	m = &Manager{
		logger:   c.Logger,
		errColl:  c.ErrColl,
		metrics:  c.Metrics,
		catalog:  c.Catalog,
		states:   c.States,
		selector: c.Selector,
		loader:   c.Loader,
		bus:      c.Bus,

		mu: &sync.Mutex{},
	}

	m.bus.Subscribe(filterstate.NewPersister(&filterstate.PersisterConfig{
		Logger:  c.Logger,
		ErrColl: c.ErrColl,
		Storage: c.States,
	}))

	return m
}

// refresh reloads the flag and version projections of the catalog from the
// state storage.  m.mu is expected to be locked.
func (m *Manager) refresh() {
	m.catalog.ApplyState(m.states.FiltersState(), m.states.GroupsState())
	m.catalog.ApplyVersions(m.states.FiltersVersion())
}

// notify broadcasts evt and counts it.  m.mu is expected to be locked.
func (m *Manager) notify(ctx context.Context, evt *filternotify.Event) {
	m.metrics.IncEvent(ctx, evt.Kind)
	m.bus.Notify(ctx, evt)
}

// EnableFilter enables the filter with ID id.  Enabling an already enabled
// filter is a no-op and emits nothing.  If the group of the filter has never
// been toggled, the group is enabled as well.
func (m *Manager) EnableFilter(ctx context.Context, id agd.FilterID) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	return m.enableFilter(ctx, id)
}

// enableFilter is the implementation of [Manager.EnableFilter].  m.mu is
// expected to be locked and the projections to be fresh.
func (m *Manager) enableFilter(ctx context.Context, id agd.FilterID) (err error) {
	f, ok := m.catalog.Filter(id)
	if !ok {
		return &agd.FilterNotFoundError{ID: id}
	}

	if f.Enabled {
		m.logger.DebugContext(ctx, "filter already enabled", "id", id)

		return nil
	}

	if !m.catalog.GroupHasEnabledStatus(f.GroupID) {
		m.setGroupStatus(ctx, f.GroupID, agd.ToggleStateEnabled)
	}

	f, _ = m.catalog.SetFilterEnabled(id, true)
	m.notify(ctx, &filternotify.Event{
		Filter: f,
		Kind:   filternotify.KindFilterEnableDisable,
	})

	return nil
}

// DisableFilters disables the given filters, in order and without duplicates.
// All filters must exist.  If a filter in the batch turns out to be already
// disabled, the batch stops there; the filters disabled so far stay disabled.
func (m *Manager) DisableFilters(ctx context.Context, ids ...agd.FilterID) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	ids = dedup(ids)
	for _, id := range ids {
		if _, ok := m.catalog.Filter(id); !ok {
			return &agd.FilterNotFoundError{ID: id}
		}
	}

	for _, id := range ids {
		f, _ := m.catalog.Filter(id)
		if !f.Enabled {
			m.logger.DebugContext(ctx, "filter not enabled, stopping batch", "id", id)

			return nil
		}

		f, _ = m.catalog.SetFilterEnabled(id, false)
		m.notify(ctx, &filternotify.Event{
			Filter: f,
			Kind:   filternotify.KindFilterEnableDisable,
		})
	}

	return nil
}

// AddFilter installs the filter with ID id, downloading its rules first if
// they have not been downloaded yet.  Installing an already installed filter
// is a no-op and emits nothing.
func (m *Manager) AddFilter(ctx context.Context, id agd.FilterID) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	return m.addFilter(ctx, id)
}

// addFilter is the implementation of [Manager.AddFilter].  m.mu is expected
// to be locked and the projections to be fresh.
func (m *Manager) addFilter(ctx context.Context, id agd.FilterID) (err error) {
	f, ok := m.catalog.Filter(id)
	if !ok {
		return &agd.FilterNotFoundError{ID: id}
	}

	if f.Installed {
		m.logger.DebugContext(ctx, "filter already installed", "id", id)

		return nil
	}

	if !f.Loaded {
		err = m.loader.LoadFilterRules(ctx, f, false)
		if err != nil {
			return fmt.Errorf("adding filter %d: %w", id, err)
		}

		m.catalog.SetFilterLoaded(id, true)
	}

	f, _ = m.catalog.SetFilterInstalled(id, true)
	m.notify(ctx, &filternotify.Event{
		Filter: f,
		Kind:   filternotify.KindFilterAddRemove,
	})

	return nil
}

// AddAndEnableFilters installs and enables the given filters, one at a time
// and without duplicates.  A failure of one filter is collected and does not
// stop the others.  enabled contains the IDs that were successfully
// installed and enabled, in request order.
func (m *Manager) AddAndEnableFilters(
	ctx context.Context,
	ids ...agd.FilterID,
) (enabled []agd.FilterID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	return m.addAndEnableFilters(ctx, ids)
}

// addAndEnableFilters is the implementation of
// [Manager.AddAndEnableFilters].  m.mu is expected to be locked and the
// projections to be fresh.
func (m *Manager) addAndEnableFilters(
	ctx context.Context,
	ids []agd.FilterID,
) (enabled []agd.FilterID) {
	for _, id := range dedup(ids) {
		err := m.addFilter(ctx, id)
		if err == nil {
			err = m.enableFilter(ctx, id)
		}

		if err != nil {
			errcoll.Collect(ctx, m.errColl, m.logger, "adding and enabling", err)

			continue
		}

		enabled = append(enabled, id)
	}

	return enabled
}

// RemoveFilter removes the custom filter with ID id.  Only custom filters
// can be removed; a removal of a filter that does not exist, is not custom,
// or has already been removed is rejected without any mutations or events.
func (m *Manager) RemoveFilter(ctx context.Context, id agd.FilterID) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	f, ok := m.catalog.Filter(id)
	if !ok {
		return &agd.FilterNotFoundError{ID: id}
	}

	if !f.IsCustom() {
		return &agd.NotCustomError{ID: id}
	}

	if f.Removed {
		return fmt.Errorf("removing filter %d: already removed", id)
	}

	f, _ = m.catalog.SetFilterEnabled(id, false)
	m.notify(ctx, &filternotify.Event{
		Filter: f,
		Kind:   filternotify.KindFilterEnableDisable,
	})

	m.catalog.SetFilterInstalled(id, false)
	f, _ = m.catalog.SetFilterRemoved(id, true)
	m.notify(ctx, &filternotify.Event{
		Filter: f,
		Kind:   filternotify.KindFilterAddRemove,
	})

	return nil
}

// EnableGroup enables the group with ID id.  An unknown or already enabled
// group is a no-op.
func (m *Manager) EnableGroup(ctx context.Context, id agd.GroupID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	g, ok := m.catalog.Group(id)
	if !ok || g.Enabled == agd.ToggleStateEnabled {
		return
	}

	m.setGroupStatus(ctx, id, agd.ToggleStateEnabled)
}

// DisableGroup disables the group with ID id.  An unknown or already
// disabled group is a no-op.
func (m *Manager) DisableGroup(ctx context.Context, id agd.GroupID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	g, ok := m.catalog.Group(id)
	if !ok || g.Enabled == agd.ToggleStateDisabled {
		return
	}

	m.setGroupStatus(ctx, id, agd.ToggleStateDisabled)
}

// setGroupStatus sets the enabled state of the group with ID id and emits
// the group event.  m.mu is expected to be locked.
func (m *Manager) setGroupStatus(ctx context.Context, id agd.GroupID, st agd.ToggleState) {
	g, ok := m.catalog.SetGroupStatus(id, st)
	if !ok {
		return
	}

	m.notify(ctx, &filternotify.Event{
		Group: g,
		Kind:  filternotify.KindGroupEnableDisable,
	})
}

// EnableFiltersGroup enables the group with ID id together with its filters.
// On the first transition out of the never-toggled state the recommended
// filters of the group are installed and enabled.  Unlike
// [Manager.EnableGroup], the group event is emitted even when the group is
// already enabled.
func (m *Manager) EnableFiltersGroup(ctx context.Context, id agd.GroupID) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	_, ok := m.catalog.Group(id)
	if !ok {
		return &agd.GroupNotFoundError{ID: id}
	}

	if !m.catalog.GroupHasEnabledStatus(id) {
		ids := m.selector.RecommendedFilterIDs(ctx, id)
		m.addAndEnableFilters(ctx, ids)
	}

	m.setGroupStatus(ctx, id, agd.ToggleStateEnabled)

	return nil
}

// LoadCustomFilter downloads the rule list at rawURL and registers it as a
// custom filter, or refreshes the metadata of the existing custom filter with
// that URL.  The filter is not installed or enabled.  Loading a previously
// removed custom filter makes it visible again.
func (m *Manager) LoadCustomFilter(
	ctx context.Context,
	rawURL string,
) (f *agd.Filter, err error) {
	if rawURL == "" {
		return nil, errors.Error("no url for custom filter")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	f, err = m.catalog.UpdateCustomFilter(ctx, rawURL)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}

	if f.Removed {
		f, _ = m.catalog.SetFilterRemoved(f.ID, false)
		m.notify(ctx, &filternotify.Event{
			Filter: f,
			Kind:   filternotify.KindFilterAddRemove,
		})
	}

	return f, nil
}

// Filters returns all filters except the removed ones, with fresh
// projections.
func (m *Manager) Filters(ctx context.Context) (filters []*agd.Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	return m.selector.VisibleFilters()
}

// Groups returns all groups with fresh projections, ordered by their display
// number.
func (m *Manager) Groups(ctx context.Context) (groups []*agd.FilterGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	return m.catalog.Groups()
}

// FiltersMetadata returns the full display model of the catalog with fresh
// projections.
func (m *Manager) FiltersMetadata(ctx context.Context) (md *category.Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	return m.selector.FiltersMetadata()
}

// IsFilterEnabled returns true if the filter with ID id exists and is
// enabled.
func (m *Manager) IsFilterEnabled(ctx context.Context, id agd.FilterID) (ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	f, found := m.catalog.Filter(id)

	return found && f.Enabled && !f.Removed
}

// IsGroupEnabled returns true if the group with ID id exists and is enabled.
func (m *Manager) IsGroupEnabled(ctx context.Context, id agd.GroupID) (ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	g, found := m.catalog.Group(id)

	return found && g.Enabled == agd.ToggleStateEnabled
}

// OfferGroupsAndFilters returns the onboarding groups together with the
// filters offered for each of them in the current environment.
func (m *Manager) OfferGroupsAndFilters(ctx context.Context) (cats []*category.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh()

	for _, gid := range onboardingGroups {
		g, ok := m.catalog.Group(gid)
		if !ok {
			continue
		}

		c := &category.Category{
			Group: g,
		}

		for _, id := range m.selector.RecommendedFilterIDs(ctx, gid) {
			f, found := m.catalog.Filter(id)
			if !found {
				continue
			}

			c.Filters = append(c.Filters, m.selector.FilterDetails(f))
		}

		cats = append(cats, c)
	}

	return cats
}

// dedup returns ids without duplicates, preserving the order of the first
// occurrences.
func dedup(ids []agd.FilterID) (res []agd.FilterID) {
	res = make([]agd.FilterID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(res, id) {
			res = append(res, id)
		}
	}

	return res
}
