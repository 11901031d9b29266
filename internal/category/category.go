// Package category contains the recommendation selector, which decides which
// filters are offered to the user based on the environment of the host
// application: its locale and whether it runs on a mobile device.
package category

import (
	"context"
	"log/slog"
	"strings"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/golibs/container"
)

// Environment provides the properties of the host application that the
// offering predicates depend on.
type Environment interface {
	// Locale returns the locale code of the host application, for example
	// "en-US".
	Locale(ctx context.Context) (locale string)

	// IsMobile returns true if the host application runs on a mobile device.
	IsMobile(ctx context.Context) (ok bool)
}

// StaticEnvironment is an [Environment] with fixed values.
type StaticEnvironment struct {
	// LocaleCode is the locale code returned by Locale.
	LocaleCode string

	// Mobile is the value returned by IsMobile.
	Mobile bool
}

// type check
var _ Environment = (*StaticEnvironment)(nil)

// Locale implements the [Environment] interface for *StaticEnvironment.
func (e *StaticEnvironment) Locale(_ context.Context) (locale string) { return e.LocaleCode }

// IsMobile implements the [Environment] interface for *StaticEnvironment.
func (e *StaticEnvironment) IsMobile(_ context.Context) (ok bool) { return e.Mobile }

// FilterDetails is a filter annotated with the display details of its tags.
type FilterDetails struct {
	// Filter is the filter itself.
	Filter *agd.Filter

	// TagsDetails are the display representations of the tags of the filter,
	// in tag order.  Unknown tag IDs are skipped.
	TagsDetails []*agd.Tag
}

// Category is a group together with its member filters.
type Category struct {
	// Group is the group itself.
	Group *agd.FilterGroup

	// Filters are the members of the group, annotated with tag details.
	Filters []*FilterDetails
}

// Metadata is the full display model of the catalog.
type Metadata struct {
	// Filters are all visible filters, annotated with tag details.
	Filters []*FilterDetails

	// Categories are all groups with their member filters, ordered by the
	// display number of the group.
	Categories []*Category
}

// SelectorConfig is the configuration structure for a selector.
type SelectorConfig struct {
	// Logger is used for logging the operation of the selector.  It must not
	// be nil.
	Logger *slog.Logger

	// Catalog is the catalog the filters are selected from.  It must not be
	// nil.
	Catalog *subscription.Catalog

	// Env provides the locale and the device kind.  It must not be nil.
	Env Environment

	// PlatformFilterID is the ID of the platform-mandated filter, which is
	// offered unconditionally.  Use [agd.FilterIDNone] when the platform has
	// no such filter.
	PlatformFilterID agd.FilterID
}

// Selector decides which filters are offered to the user.
type Selector struct {
	logger     *slog.Logger
	catalog    *subscription.Catalog
	env        Environment
	platformID agd.FilterID
}

// NewSelector returns a new selector.  c must not be nil.
func NewSelector(c *SelectorConfig) (s *Selector) {
	return &Selector{
		logger:     c.Logger,
		catalog:    c.Catalog,
		env:        c.Env,
		platformID: c.PlatformFilterID,
	}
}

// VisibleFilters returns all filters except the removed ones.
func (s *Selector) VisibleFilters() (filters []*agd.Filter) {
	for _, f := range s.catalog.Filters() {
		if !f.Removed {
			filters = append(filters, f)
		}
	}

	return filters
}

// FiltersMetadata returns the full display model of the catalog: all visible
// filters with their tag details and all groups with their member filters.
func (s *Selector) FiltersMetadata() (md *Metadata) {
	md = &Metadata{}

	byGroup := map[agd.GroupID][]*FilterDetails{}
	for _, f := range s.VisibleFilters() {
		fd := &FilterDetails{
			Filter:      f,
			TagsDetails: s.tagsDetails(f),
		}

		md.Filters = append(md.Filters, fd)
		byGroup[f.GroupID] = append(byGroup[f.GroupID], fd)
	}

	for _, g := range s.catalog.Groups() {
		md.Categories = append(md.Categories, &Category{
			Group:   g,
			Filters: byGroup[g.ID],
		})
	}

	return md
}

// FilterDetails returns f annotated with the display details of its tags.  f
// must not be nil.
func (s *Selector) FilterDetails(f *agd.Filter) (fd *FilterDetails) {
	return &FilterDetails{
		Filter:      f,
		TagsDetails: s.tagsDetails(f),
	}
}

// tagsDetails returns the display representations of the tags of f.
func (s *Selector) tagsDetails(f *agd.Filter) (tags []*agd.Tag) {
	for _, id := range f.Tags {
		t, ok := s.catalog.Tag(id)
		if !ok {
			continue
		}

		dt, ok := displayTag(t)
		if !ok {
			continue
		}

		tags = append(tags, dt)
	}

	return tags
}

// displayTag transforms t into its display representation.  Reference tags
// are not displayed at all; language keywords are displayed verbatim; other
// namespaced keywords are displayed without the namespace.
func displayTag(t *agd.Tag) (dt *agd.Tag, ok bool) {
	ns, rest, found := strings.Cut(t.Keyword, agd.TagKeywordSeparator)
	if !found {
		return t, true
	}

	switch ns {
	case agd.TagPrefixReference:
		return nil, false
	case agd.TagPrefixLang:
		return t, true
	default:
		return &agd.Tag{
			Keyword: rest,
			ID:      t.ID,
		}, true
	}
}

// IsOfferedFilter returns true if f should be offered to the user in the
// current environment.  The platform-mandated filter is always offered.  All
// other filters require the recommended tag; filters with languages are
// additionally matched against the locale, and mobile-tagged filters are
// offered on mobile devices only.
func (s *Selector) IsOfferedFilter(
	ctx context.Context,
	f *agd.Filter,
	langIDs *container.MapSet[agd.FilterID],
) (ok bool) {
	if s.platformID != agd.FilterIDNone && f.ID == s.platformID {
		return true
	}

	if !s.hasKeyword(f, agd.TagKeywordRecommended) {
		return false
	}

	if len(f.Languages) > 0 && !langIDs.Has(f.ID) {
		return false
	}

	return !s.hasKeyword(f, agd.TagKeywordMobile) || s.env.IsMobile(ctx)
}

// hasKeyword returns true if f carries a tag with the given keyword.
func (s *Selector) hasKeyword(f *agd.Filter, keyword string) (ok bool) {
	for _, id := range f.Tags {
		t, found := s.catalog.Tag(id)
		if found && t.Keyword == keyword {
			return true
		}
	}

	return false
}

// RecommendedFilterIDs returns the IDs of the filters offered for the group
// with ID groupID, in catalog order.  It returns nil for an unknown group.
func (s *Selector) RecommendedFilterIDs(
	ctx context.Context,
	groupID agd.GroupID,
) (ids []agd.FilterID) {
	if _, ok := s.catalog.Group(groupID); !ok {
		return nil
	}

	langIDs := container.NewMapSet(
		s.catalog.FilterIDsForLanguage(s.env.Locale(ctx))...,
	)

	for _, f := range s.VisibleFilters() {
		if f.GroupID != groupID {
			continue
		}

		if s.IsOfferedFilter(ctx, f, langIDs) {
			ids = append(ids, f.ID)
		}
	}

	return ids
}
