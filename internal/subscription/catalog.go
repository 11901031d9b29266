package subscription

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdcache"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdhttp"
	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/c2h5oh/datasize"
)

// CatalogConfig is the configuration structure for a catalog.
type CatalogConfig struct {
	// Logger is used for logging the operation of the catalog.  It must not
	// be nil.
	Logger *slog.Logger

	// ErrColl collects errors arising from invalid index entries and from
	// custom-filter downloads.  It must not be nil.
	ErrColl errcoll.Interface

	// Client is the HTTP client used to download custom filters.  It must
	// not be nil.
	Client *agdhttp.Client

	// Cache caches the downloaded texts of custom filters by their URL.  It
	// must not be nil.
	Cache agdcache.Interface[string, string]

	// Metrics collects the statistics of the catalog.  It must not be nil.
	Metrics Metrics

	// Index is the parsed filter index the catalog is built from.  It must
	// not be nil.
	Index *Index

	// MaxSize is the maximum allowed size of a downloaded custom filter.  It
	// must be positive.
	MaxSize datasize.ByteSize
}

// Catalog is the catalog of filter-list subscriptions.
type Catalog struct {
	logger  *slog.Logger
	errColl errcoll.Interface
	client  *agdhttp.Client
	cache   agdcache.Interface[string, string]
	metrics Metrics

	// mu protects the fields below.
	mu         *sync.RWMutex
	filters    map[agd.FilterID]*agd.Filter
	order      []agd.FilterID
	groups     []*agd.FilterGroup
	groupsByID map[agd.GroupID]*agd.FilterGroup
	tags       map[agd.TagID]*agd.Tag

	nextCustomID agd.FilterID

	maxSize datasize.ByteSize
}

// NewCatalog returns a new catalog built from c.Index.  Invalid index entries
// are skipped, logged, and collected; they do not fail the construction.  c
// must not be nil.
func NewCatalog(ctx context.Context, c *CatalogConfig) (cat *Catalog) {
	cat = &Catalog{
		logger:  c.Logger,
		errColl: c.ErrColl,
		client:  c.Client,
		cache:   c.Cache,
		metrics: c.Metrics,

		mu:         &sync.RWMutex{},
		filters:    map[agd.FilterID]*agd.Filter{},
		groupsByID: map[agd.GroupID]*agd.FilterGroup{},
		tags:       map[agd.TagID]*agd.Tag{},

		nextCustomID: agd.FilterIDCustomStart,

		maxSize: c.MaxSize,
	}

	cat.addGroups(ctx, c.Index.Groups)
	cat.addTags(ctx, c.Index.Tags)
	cat.addFilters(ctx, c.Index.Filters)

	return cat
}

// addGroups fills the group tables from the index entries, making sure that
// the group of custom filters is always present.
func (cat *Catalog) addGroups(ctx context.Context, groups []*IndexGroup) {
	for i, g := range groups {
		err := g.validate()
		if err != nil {
			err = fmt.Errorf("validating group at index %d: %w", i, err)
			errcoll.Collect(ctx, cat.errColl, cat.logger, "index response", err)

			continue
		}

		cat.groupsByID[g.ID] = &agd.FilterGroup{
			Name:          g.Name,
			ID:            g.ID,
			DisplayNumber: g.DisplayNumber,
		}
	}

	if _, ok := cat.groupsByID[agd.GroupIDCustom]; !ok {
		cat.groupsByID[agd.GroupIDCustom] = &agd.FilterGroup{
			Name: "Custom",
			ID:   agd.GroupIDCustom,
		}
	}

	for _, g := range cat.groupsByID {
		cat.groups = append(cat.groups, g)
	}

	slices.SortFunc(cat.groups, func(a, b *agd.FilterGroup) (res int) {
		return cmp.Or(
			cmp.Compare(a.DisplayNumber, b.DisplayNumber),
			cmp.Compare(a.ID, b.ID),
		)
	})
}

// addTags fills the tag table from the index entries.
func (cat *Catalog) addTags(ctx context.Context, tags []*IndexTag) {
	for i, t := range tags {
		err := t.validate()
		if err != nil {
			err = fmt.Errorf("validating tag at index %d: %w", i, err)
			errcoll.Collect(ctx, cat.errColl, cat.logger, "index response", err)

			continue
		}

		cat.tags[t.ID] = &agd.Tag{
			Keyword: t.Keyword,
			ID:      t.ID,
		}
	}
}

// addFilters fills the filter tables from the index entries.
func (cat *Catalog) addFilters(ctx context.Context, filters []*IndexFilter) {
	for i, rf := range filters {
		err := rf.validate()
		if err != nil {
			err = fmt.Errorf("validating filter at index %d: %w", i, err)
			errcoll.Collect(ctx, cat.errColl, cat.logger, "index response", err)

			continue
		}

		flt, err := rf.toInternal(ctx, cat.logger, cat.errColl)
		if err != nil {
			err = fmt.Errorf("converting filter at index %d: %w", i, err)
			errcoll.Collect(ctx, cat.errColl, cat.logger, "index response", err)

			continue
		}

		cat.filters[flt.ID] = flt
		cat.order = append(cat.order, flt.ID)
	}
}

// Filter returns a copy of the filter with ID id.
func (cat *Catalog) Filter(id agd.FilterID) (f *agd.Filter, ok bool) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()

	flt, ok := cat.filters[id]
	if !ok {
		return nil, false
	}

	return flt.Clone(), true
}

// Filters returns copies of all filters, in index order with custom filters
// after the indexed ones.
func (cat *Catalog) Filters() (filters []*agd.Filter) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()

	filters = make([]*agd.Filter, 0, len(cat.order))
	for _, id := range cat.order {
		filters = append(filters, cat.filters[id].Clone())
	}

	return filters
}

// Group returns a copy of the group with ID id.
func (cat *Catalog) Group(id agd.GroupID) (g *agd.FilterGroup, ok bool) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()

	grp, ok := cat.groupsByID[id]
	if !ok {
		return nil, false
	}

	return grp.Clone(), true
}

// GroupHasEnabledStatus returns true if the group with ID id exists and has
// been explicitly enabled or disabled at least once.
func (cat *Catalog) GroupHasEnabledStatus(id agd.GroupID) (ok bool) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()

	g, ok := cat.groupsByID[id]

	return ok && g.Enabled != agd.ToggleStateNeverToggled
}

// Groups returns copies of all groups, ordered by their display number.
func (cat *Catalog) Groups() (groups []*agd.FilterGroup) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()

	groups = make([]*agd.FilterGroup, 0, len(cat.groups))
	for _, g := range cat.groups {
		groups = append(groups, g.Clone())
	}

	return groups
}

// Tag returns the tag with ID id.  The result must not be modified.
func (cat *Catalog) Tag(id agd.TagID) (t *agd.Tag, ok bool) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()

	t, ok = cat.tags[id]

	return t, ok
}

// FilterIDsForLanguage returns the IDs of the filters suitable for the given
// locale code, which may carry a region subtag, for example "en-US".  Removed
// filters are not considered.
func (cat *Catalog) FilterIDsForLanguage(locale string) (ids []agd.FilterID) {
	lang, _, _ := strings.Cut(locale, "-")
	lang = strings.ToLower(lang)

	cat.mu.RLock()
	defer cat.mu.RUnlock()

	for _, id := range cat.order {
		f := cat.filters[id]
		if f.Removed {
			continue
		}

		if slices.Contains(f.Languages, lang) {
			ids = append(ids, id)
		}
	}

	return ids
}

// SetFilterEnabled sets the enabled flag of the filter with ID id and returns
// a copy of its new state.
func (cat *Catalog) SetFilterEnabled(id agd.FilterID, enabled bool) (f *agd.Filter, ok bool) {
	return cat.setFilterFlag(id, func(flt *agd.Filter) { flt.Enabled = enabled })
}

// SetFilterInstalled sets the installed flag of the filter with ID id and
// returns a copy of its new state.
func (cat *Catalog) SetFilterInstalled(id agd.FilterID, installed bool) (f *agd.Filter, ok bool) {
	return cat.setFilterFlag(id, func(flt *agd.Filter) { flt.Installed = installed })
}

// SetFilterLoaded sets the loaded flag of the filter with ID id and returns a
// copy of its new state.
func (cat *Catalog) SetFilterLoaded(id agd.FilterID, loaded bool) (f *agd.Filter, ok bool) {
	return cat.setFilterFlag(id, func(flt *agd.Filter) { flt.Loaded = loaded })
}

// SetFilterRemoved sets the removed flag of the filter with ID id and returns
// a copy of its new state.
func (cat *Catalog) SetFilterRemoved(id agd.FilterID, removed bool) (f *agd.Filter, ok bool) {
	return cat.setFilterFlag(id, func(flt *agd.Filter) { flt.Removed = removed })
}

// setFilterFlag applies change to the filter with ID id and returns a copy of
// its new state.
func (cat *Catalog) setFilterFlag(
	id agd.FilterID,
	change func(flt *agd.Filter),
) (f *agd.Filter, ok bool) {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	flt, ok := cat.filters[id]
	if !ok {
		return nil, false
	}

	change(flt)

	return flt.Clone(), true
}

// SetGroupStatus sets the enabled state of the group with ID id and returns a
// copy of its new state.
func (cat *Catalog) SetGroupStatus(
	id agd.GroupID,
	st agd.ToggleState,
) (g *agd.FilterGroup, ok bool) {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	grp, ok := cat.groupsByID[id]
	if !ok {
		return nil, false
	}

	grp.Enabled = st

	return grp.Clone(), true
}
