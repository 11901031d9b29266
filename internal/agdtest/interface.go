package agdtest

import (
	"context"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/category"
	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/AdguardTeam/AdGuardFilters/internal/filternotify"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
	"github.com/AdguardTeam/AdGuardFilters/internal/updater"
	"github.com/AdguardTeam/golibs/timeutil"
)

// Interface Mocks
//
// Keep entities within a module/package in alphabetic order.

// Package category

// type check
var _ category.Environment = (*Environment)(nil)

// Environment is a [category.Environment] for tests.
type Environment struct {
	OnLocale   func(ctx context.Context) (locale string)
	OnIsMobile func(ctx context.Context) (ok bool)
}

// Locale implements the [category.Environment] interface for *Environment.
func (e *Environment) Locale(ctx context.Context) (locale string) {
	return e.OnLocale(ctx)
}

// IsMobile implements the [category.Environment] interface for *Environment.
func (e *Environment) IsMobile(ctx context.Context) (ok bool) {
	return e.OnIsMobile(ctx)
}

// Package errcoll

// type check
var _ errcoll.Interface = (*ErrorCollector)(nil)

// ErrorCollector is an [errcoll.Interface] for tests.
type ErrorCollector struct {
	OnCollect func(ctx context.Context, err error)
}

// Collect implements the [errcoll.Interface] interface for *ErrorCollector.
func (c *ErrorCollector) Collect(ctx context.Context, err error) {
	c.OnCollect(ctx, err)
}

// Package filternotify

// type check
var _ filternotify.Handler = (*Handler)(nil)

// Handler is a [filternotify.Handler] for tests.
type Handler struct {
	OnHandle func(ctx context.Context, evt *filternotify.Event)
}

// Handle implements the [filternotify.Handler] interface for *Handler.
func (h *Handler) Handle(ctx context.Context, evt *filternotify.Event) {
	h.OnHandle(ctx, evt)
}

// Package filterstate

// type check
var _ filterstate.Storage = (*StateStorage)(nil)

// StateStorage is a [filterstate.Storage] for tests.
type StateStorage struct {
	OnFiltersVersion   func() (vers map[agd.FilterID]*filterstate.VersionInfo)
	OnFiltersState     func() (states map[agd.FilterID]*filterstate.FilterState)
	OnGroupsState      func() (states map[agd.GroupID]*filterstate.GroupState)
	OnSetFilterVersion func(id agd.FilterID, v *filterstate.VersionInfo) (err error)
	OnSetFilterState   func(id agd.FilterID, st *filterstate.FilterState) (err error)
	OnSetGroupState    func(id agd.GroupID, st *filterstate.GroupState) (err error)
}

// FiltersVersion implements the [filterstate.Storage] interface for
// *StateStorage.
func (s *StateStorage) FiltersVersion() (vers map[agd.FilterID]*filterstate.VersionInfo) {
	return s.OnFiltersVersion()
}

// FiltersState implements the [filterstate.Storage] interface for
// *StateStorage.
func (s *StateStorage) FiltersState() (states map[agd.FilterID]*filterstate.FilterState) {
	return s.OnFiltersState()
}

// GroupsState implements the [filterstate.Storage] interface for
// *StateStorage.
func (s *StateStorage) GroupsState() (states map[agd.GroupID]*filterstate.GroupState) {
	return s.OnGroupsState()
}

// SetFilterVersion implements the [filterstate.Storage] interface for
// *StateStorage.
func (s *StateStorage) SetFilterVersion(
	id agd.FilterID,
	v *filterstate.VersionInfo,
) (err error) {
	return s.OnSetFilterVersion(id, v)
}

// SetFilterState implements the [filterstate.Storage] interface for
// *StateStorage.
func (s *StateStorage) SetFilterState(
	id agd.FilterID,
	st *filterstate.FilterState,
) (err error) {
	return s.OnSetFilterState(id, st)
}

// SetGroupState implements the [filterstate.Storage] interface for
// *StateStorage.
func (s *StateStorage) SetGroupState(id agd.GroupID, st *filterstate.GroupState) (err error) {
	return s.OnSetGroupState(id, st)
}

// Package updater

// type check
var _ updater.Loader = (*Loader)(nil)

// Loader is an [updater.Loader] for tests.
type Loader struct {
	OnLoadFilterRules    func(ctx context.Context, f *agd.Filter, force bool) (err error)
	OnCheckFiltersUpdate func(ctx context.Context, force bool) (err error)
}

// LoadFilterRules implements the [updater.Loader] interface for *Loader.
func (l *Loader) LoadFilterRules(ctx context.Context, f *agd.Filter, force bool) (err error) {
	return l.OnLoadFilterRules(ctx, f, force)
}

// CheckFiltersUpdate implements the [updater.Loader] interface for *Loader.
func (l *Loader) CheckFiltersUpdate(ctx context.Context, force bool) (err error) {
	return l.OnCheckFiltersUpdate(ctx, force)
}

// Module golibs

// type check
var _ timeutil.Clock = (*Clock)(nil)

// Clock is a [timeutil.Clock] for tests.
type Clock struct {
	OnNow func() (now time.Time)
}

// Now implements the [timeutil.Clock] interface for *Clock.
func (c *Clock) Now() (now time.Time) {
	return c.OnNow()
}
