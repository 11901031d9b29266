package manager_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdhttp"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdtest"
	"github.com/AdguardTeam/AdGuardFilters/internal/category"
	"github.com/AdguardTeam/AdGuardFilters/internal/filternotify"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
	"github.com/AdguardTeam/AdGuardFilters/internal/manager"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/AdGuardFilters/internal/updater"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is the environment of the manager tests: an English-locale desktop.
var testEnv = &category.StaticEnvironment{LocaleCode: "en-US"}

// eventRec records the events broadcast on the bus of a test manager.
type eventRec struct {
	events []*filternotify.Event
}

// kinds returns the kinds of the recorded events, in order.
func (r *eventRec) kinds() (kinds []filternotify.Kind) {
	for _, evt := range r.events {
		kinds = append(kinds, evt.Kind)
	}

	return kinds
}

// reset forgets the recorded events.
func (r *eventRec) reset() {
	r.events = nil
}

// newTestManager is a helper that builds a manager over the test catalog with
// a file-based state storage and the given loader.  The returned recorder
// sees every event emitted by the manager.
func newTestManager(
	tb testing.TB,
	cat *subscription.Catalog,
	l updater.Loader,
) (m *manager.Manager, rec *eventRec) {
	tb.Helper()

	logger := slogutil.NewDiscardLogger()

	states, err := filterstate.NewFile(&filterstate.FileConfig{
		Logger: logger,
		Path:   filepath.Join(tb.TempDir(), "state.json"),
	})
	require.NoError(tb, err)

	bus := filternotify.NewBus(&filternotify.BusConfig{
		Logger: logger,
	})

	rec = &eventRec{}
	bus.Subscribe(filternotify.HandlerFunc(
		func(_ context.Context, evt *filternotify.Event) {
			rec.events = append(rec.events, evt)
		},
	))

	m = manager.New(&manager.Config{
		Logger:  logger,
		ErrColl: agdtest.NewErrorCollector(),
		Metrics: manager.EmptyMetrics{},
		Catalog: cat,
		States:  states,
		Selector: category.NewSelector(&category.SelectorConfig{
			Logger:           logger,
			Catalog:          cat,
			Env:              testEnv,
			PlatformFilterID: agd.FilterIDNone,
		}),
		Loader: l,
		Bus:    bus,
	})

	return m, rec
}

func TestManager_EnableFilter(t *testing.T) {
	m, rec := newTestManager(t, agdtest.NewCatalog(t), updater.Empty{})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	require.NoError(t, m.EnableFilter(ctx, agdtest.FilterIDBase))

	// The group of the filter has never been toggled, so enabling the filter
	// enables the group as well.
	assert.Equal(t, []filternotify.Kind{
		filternotify.KindGroupEnableDisable,
		filternotify.KindFilterEnableDisable,
	}, rec.kinds())

	assert.True(t, m.IsFilterEnabled(ctx, agdtest.FilterIDBase))
	assert.True(t, m.IsGroupEnabled(ctx, agd.GroupIDAdBlocking))

	// Enabling an already enabled filter is a no-op and emits nothing.
	rec.reset()
	require.NoError(t, m.EnableFilter(ctx, agdtest.FilterIDBase))

	assert.Empty(t, rec.events)

	err := m.EnableFilter(ctx, agd.FilterID(404))
	assert.ErrorAs(t, err, new(*agd.FilterNotFoundError))
}

func TestManager_DisableFilters(t *testing.T) {
	m, rec := newTestManager(t, agdtest.NewCatalog(t), updater.Empty{})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	require.NoError(t, m.EnableFilter(ctx, agdtest.FilterIDBase))
	require.NoError(t, m.EnableFilter(ctx, agdtest.FilterIDMobileAds))
	rec.reset()

	// The English filter is not enabled, so the batch stops there and the
	// mobile filter stays enabled.
	err := m.DisableFilters(
		ctx,
		agdtest.FilterIDBase,
		agdtest.FilterIDEnglish,
		agdtest.FilterIDMobileAds,
	)
	require.NoError(t, err)

	assert.Equal(t, []filternotify.Kind{filternotify.KindFilterEnableDisable}, rec.kinds())
	assert.False(t, m.IsFilterEnabled(ctx, agdtest.FilterIDBase))
	assert.True(t, m.IsFilterEnabled(ctx, agdtest.FilterIDMobileAds))

	// An unknown ID rejects the whole batch before any mutations.
	rec.reset()
	err = m.DisableFilters(ctx, agdtest.FilterIDMobileAds, agd.FilterID(404))
	assert.ErrorAs(t, err, new(*agd.FilterNotFoundError))
	assert.Empty(t, rec.events)
	assert.True(t, m.IsFilterEnabled(ctx, agdtest.FilterIDMobileAds))
}

func TestManager_AddAndEnableFilters(t *testing.T) {
	loadErr := errors.Error("test load error")

	var loaded []agd.FilterID
	l := &agdtest.Loader{
		OnLoadFilterRules: func(_ context.Context, f *agd.Filter, _ bool) (err error) {
			loaded = append(loaded, f.ID)
			if f.ID == agdtest.FilterIDBase {
				return loadErr
			}

			return nil
		},
	}

	m, rec := newTestManager(t, agdtest.NewCatalog(t), l)

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)

	// The first filter fails to load; the second is processed anyway, after
	// the first.  Duplicates are dropped.
	enabled := m.AddAndEnableFilters(
		ctx,
		agdtest.FilterIDBase,
		agdtest.FilterIDEnglish,
		agdtest.FilterIDBase,
	)

	assert.Equal(t, []agd.FilterID{agdtest.FilterIDEnglish}, enabled)
	assert.Equal(t, []agd.FilterID{agdtest.FilterIDBase, agdtest.FilterIDEnglish}, loaded)

	assert.False(t, m.IsFilterEnabled(ctx, agdtest.FilterIDBase))
	assert.True(t, m.IsFilterEnabled(ctx, agdtest.FilterIDEnglish))

	// Install, group enable, and filter enable for the one successful filter.
	assert.Equal(t, []filternotify.Kind{
		filternotify.KindFilterAddRemove,
		filternotify.KindGroupEnableDisable,
		filternotify.KindFilterEnableDisable,
	}, rec.kinds())
}

func TestManager_RemoveFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			_, writeErr := w.Write([]byte("||custom.example^\n"))
			require.NoError(testutil.PanicT{}, writeErr)
		},
	))
	t.Cleanup(srv.Close)

	cat := agdtest.NewCatalogWithClient(t, agdhttp.NewClient(&agdhttp.ClientConfig{
		Timeout: agdtest.Timeout,
	}))

	m, rec := newTestManager(t, cat, updater.Empty{})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)

	// Only custom filters can be removed.
	err := m.RemoveFilter(ctx, agdtest.FilterIDBase)
	assert.ErrorAs(t, err, new(*agd.NotCustomError))
	assert.Empty(t, rec.events)

	f, err := m.LoadCustomFilter(ctx, srv.URL)
	require.NoError(t, err)

	require.NoError(t, m.EnableFilter(ctx, f.ID))
	rec.reset()

	require.NoError(t, m.RemoveFilter(ctx, f.ID))

	assert.Equal(t, []filternotify.Kind{
		filternotify.KindFilterEnableDisable,
		filternotify.KindFilterAddRemove,
	}, rec.kinds())

	assert.False(t, m.IsFilterEnabled(ctx, f.ID))
	for _, flt := range m.Filters(ctx) {
		assert.NotEqual(t, f.ID, flt.ID)
	}

	// A second removal is rejected without mutations or events.
	rec.reset()
	err = m.RemoveFilter(ctx, f.ID)
	assert.Error(t, err)
	assert.Empty(t, rec.events)
}

func TestManager_EnableFiltersGroup(t *testing.T) {
	m, rec := newTestManager(t, agdtest.NewCatalog(t), updater.Empty{})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	require.NoError(t, m.EnableFiltersGroup(ctx, agd.GroupIDAdBlocking))

	// The first transition out of the never-toggled state seeds the
	// recommended filters of the group.  On an English desktop that is the
	// base filter only.
	assert.Equal(t, []filternotify.Kind{
		filternotify.KindFilterAddRemove,
		filternotify.KindGroupEnableDisable,
		filternotify.KindFilterEnableDisable,
		filternotify.KindGroupEnableDisable,
	}, rec.kinds())

	assert.True(t, m.IsFilterEnabled(ctx, agdtest.FilterIDBase))
	assert.False(t, m.IsFilterEnabled(ctx, agdtest.FilterIDMobileAds))
	assert.True(t, m.IsGroupEnabled(ctx, agd.GroupIDAdBlocking))

	// A second call does not seed again but still emits the group event.
	rec.reset()
	require.NoError(t, m.EnableFiltersGroup(ctx, agd.GroupIDAdBlocking))

	assert.Equal(t, []filternotify.Kind{filternotify.KindGroupEnableDisable}, rec.kinds())

	err := m.EnableFiltersGroup(ctx, agd.GroupID(404))
	assert.ErrorAs(t, err, new(*agd.GroupNotFoundError))
}

func TestManager_EnableGroup(t *testing.T) {
	m, rec := newTestManager(t, agdtest.NewCatalog(t), updater.Empty{})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	m.EnableGroup(ctx, agd.GroupIDPrivacy)

	assert.Equal(t, []filternotify.Kind{filternotify.KindGroupEnableDisable}, rec.kinds())
	assert.True(t, m.IsGroupEnabled(ctx, agd.GroupIDPrivacy))

	// Unlike [manager.Manager.EnableFiltersGroup], enabling an already
	// enabled group emits nothing.
	rec.reset()
	m.EnableGroup(ctx, agd.GroupIDPrivacy)

	assert.Empty(t, rec.events)

	m.DisableGroup(ctx, agd.GroupIDPrivacy)

	assert.Equal(t, []filternotify.Kind{filternotify.KindGroupEnableDisable}, rec.kinds())
	assert.False(t, m.IsGroupEnabled(ctx, agd.GroupIDPrivacy))
}

func TestManager_LoadCustomFilter_badInput(t *testing.T) {
	m, rec := newTestManager(t, agdtest.NewCatalog(t), updater.Empty{})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)

	_, err := m.LoadCustomFilter(ctx, "")
	assert.Error(t, err)

	_, err = m.LoadCustomFilter(ctx, "ftp://filters.example/1.txt")
	assert.Error(t, err)

	assert.Empty(t, rec.events)
}

func TestManager_OfferGroupsAndFilters(t *testing.T) {
	m, _ := newTestManager(t, agdtest.NewCatalog(t), updater.Empty{})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	cats := m.OfferGroupsAndFilters(ctx)
	require.Len(t, cats, 3)

	assert.Equal(t, agd.GroupIDAdBlocking, cats[0].Group.ID)
	assert.Equal(t, agd.GroupIDPrivacy, cats[1].Group.ID)
	assert.Equal(t, agd.GroupIDLanguageSpecific, cats[2].Group.ID)

	require.Len(t, cats[0].Filters, 1)
	assert.Equal(t, agdtest.FilterIDBase, cats[0].Filters[0].Filter.ID)

	require.Len(t, cats[2].Filters, 1)
	assert.Equal(t, agdtest.FilterIDEnglish, cats[2].Filters[0].Filter.ID)
}

func TestManager_LoadCustomFilter_readd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			_, writeErr := w.Write([]byte("||custom.example^\n"))
			require.NoError(testutil.PanicT{}, writeErr)
		},
	))
	t.Cleanup(srv.Close)

	cat := agdtest.NewCatalogWithClient(t, agdhttp.NewClient(&agdhttp.ClientConfig{
		Timeout: agdtest.Timeout,
	}))

	m, rec := newTestManager(t, cat, updater.Empty{})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)

	f, err := m.LoadCustomFilter(ctx, srv.URL)
	require.NoError(t, err)
	require.NoError(t, m.RemoveFilter(ctx, f.ID))

	// Loading the same URL again revives the removed filter under its old
	// ID.
	rec.reset()
	readded, err := m.LoadCustomFilter(ctx, srv.URL)
	require.NoError(t, err)

	assert.Equal(t, f.ID, readded.ID)
	assert.False(t, readded.Removed)
	assert.Equal(t, []filternotify.Kind{filternotify.KindFilterAddRemove}, rec.kinds())

	ids := []agd.FilterID{}
	for _, flt := range m.Filters(ctx) {
		ids = append(ids, flt.ID)
	}
	assert.Contains(t, ids, f.ID)
}
