package updater_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdtest"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/AdGuardFilters/internal/updater"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// testRules is the rule-list text served in loader tests.
const testRules = `! Title: Served Filter
! Version: 4.5.6
||served.example^
||other.example^
`

// newTestLoader is a helper that builds a loader over cat, downloading into a
// temporary directory and recording versions into vers.
func newTestLoader(
	tb testing.TB,
	cat *subscription.Catalog,
	vers map[agd.FilterID]*filterstate.VersionInfo,
) (u *updater.Default) {
	tb.Helper()

	states := &agdtest.StateStorage{
		OnFiltersVersion: func() (m map[agd.FilterID]*filterstate.VersionInfo) {
			return vers
		},
		OnSetFilterVersion: func(id agd.FilterID, v *filterstate.VersionInfo) (err error) {
			vers[id] = v

			return nil
		},
	}

	return updater.NewDefault(&updater.DefaultConfig{
		Logger:       slogutil.NewDiscardLogger(),
		Clock:        timeutil.SystemClock{},
		ErrColl:      agdtest.NewErrorCollector(),
		Metrics:      updater.EmptyMetrics{},
		States:       states,
		Catalog:      cat,
		Limiter:      rate.NewLimiter(rate.Inf, 1),
		CacheDir:     tb.TempDir(),
		UpdatePeriod: 1 * time.Hour,
		Staleness:    1 * time.Hour,
		Timeout:      agdtest.Timeout,
		MaxSize:      1 * datasize.MB,
	})
}

// newTestServer is a helper that serves testRules and counts the requests.
func newTestServer(tb testing.TB) (srv *httptest.Server, reqCount *int) {
	tb.Helper()

	reqCount = new(int)
	srv = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			*reqCount++

			_, writeErr := w.Write([]byte(testRules))
			require.NoError(testutil.PanicT{}, writeErr)
		},
	))
	tb.Cleanup(srv.Close)

	return srv, reqCount
}

func TestDefault_LoadFilterRules(t *testing.T) {
	srv, reqCount := newTestServer(t)

	vers := map[agd.FilterID]*filterstate.VersionInfo{}
	u := newTestLoader(t, agdtest.NewCatalog(t), vers)

	f := &agd.Filter{
		DownloadURL: agdtest.NewURL(t, srv.URL),
		ID:          agdtest.FilterIDBase,
	}

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	require.NoError(t, u.LoadFilterRules(ctx, f, false))

	assert.Equal(t, 1, *reqCount)

	v := vers[agdtest.FilterIDBase]
	require.NotNil(t, v)

	assert.Equal(t, "4.5.6", v.Version)
	assert.False(t, v.LastCheckTime.IsZero())

	// A fresh cached copy is used without a download.
	require.NoError(t, u.LoadFilterRules(ctx, f, false))

	assert.Equal(t, 1, *reqCount)

	// A forced load ignores the cached copy.
	require.NoError(t, u.LoadFilterRules(ctx, f, true))

	assert.Equal(t, 2, *reqCount)
}

func TestDefault_LoadFilterRules_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	))
	t.Cleanup(srv.Close)

	vers := map[agd.FilterID]*filterstate.VersionInfo{}
	u := newTestLoader(t, agdtest.NewCatalog(t), vers)

	f := &agd.Filter{
		DownloadURL: agdtest.NewURL(t, srv.URL),
		ID:          agdtest.FilterIDBase,
	}

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	err := u.LoadFilterRules(ctx, f, false)
	assert.Error(t, err)
	assert.Empty(t, vers)
}

func TestDefault_CheckFiltersUpdate(t *testing.T) {
	srv, reqCount := newTestServer(t)

	// An index with two filters pointing at the test server.
	idxText := fmt.Sprintf(`{
	  "groups": [{"groupId": 1, "groupName": "Ad Blocking", "displayNumber": 1}],
	  "tags": [],
	  "filters": [
	    {"filterId": 1, "groupId": 1, "name": "First", "downloadUrl": %[1]q},
	    {"filterId": 2, "groupId": 1, "name": "Second", "downloadUrl": %[1]q}
	  ]
	}`, srv.URL+"/list.txt")

	idx, err := subscription.ParseIndex(strings.NewReader(idxText))
	require.NoError(t, err)

	cat := agdtest.NewCatalogWithIndex(t, idx)

	// Only the first filter is loaded, so only it is due for a check.
	cat.ApplyState(map[agd.FilterID]*filterstate.FilterState{
		1: {Installed: true, Loaded: true},
		2: {Installed: true},
	}, nil)

	vers := map[agd.FilterID]*filterstate.VersionInfo{}
	u := newTestLoader(t, cat, vers)

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	require.NoError(t, u.CheckFiltersUpdate(ctx, false))

	assert.Equal(t, 1, *reqCount)
	assert.Contains(t, vers, agd.FilterID(1))
	assert.NotContains(t, vers, agd.FilterID(2))
}

func TestDefault_CheckFiltersUpdate_expires(t *testing.T) {
	reqCount := 0
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			reqCount++

			_, writeErr := w.Write([]byte(
				"! Title: Served Filter\n! Expires: 12 hours\n||served.example^\n",
			))
			require.NoError(testutil.PanicT{}, writeErr)
		},
	))
	t.Cleanup(srv.Close)

	idxText := fmt.Sprintf(`{
	  "groups": [{"groupId": 1, "groupName": "Ad Blocking", "displayNumber": 1}],
	  "tags": [],
	  "filters": [
	    {"filterId": 1, "groupId": 1, "name": "First", "downloadUrl": %q}
	  ]
	}`, srv.URL+"/list.txt")

	idx, err := subscription.ParseIndex(strings.NewReader(idxText))
	require.NoError(t, err)

	cat := agdtest.NewCatalogWithIndex(t, idx)
	cat.ApplyState(map[agd.FilterID]*filterstate.FilterState{
		1: {Installed: true, Loaded: true},
	}, nil)

	vers := map[agd.FilterID]*filterstate.VersionInfo{}

	now := time.Now()
	u := updater.NewDefault(&updater.DefaultConfig{
		Logger:  slogutil.NewDiscardLogger(),
		Clock:   &agdtest.Clock{OnNow: func() (n time.Time) { return now }},
		ErrColl: agdtest.NewErrorCollector(),
		Metrics: updater.EmptyMetrics{},
		States: &agdtest.StateStorage{
			OnFiltersVersion: func() (m map[agd.FilterID]*filterstate.VersionInfo) {
				return vers
			},
			OnSetFilterVersion: func(
				id agd.FilterID,
				v *filterstate.VersionInfo,
			) (err error) {
				vers[id] = v

				return nil
			},
		},
		Catalog:      cat,
		Limiter:      rate.NewLimiter(rate.Inf, 1),
		CacheDir:     t.TempDir(),
		UpdatePeriod: 1 * time.Hour,
		Staleness:    1 * time.Hour,
		Timeout:      agdtest.Timeout,
		MaxSize:      1 * datasize.MB,
	})

	ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
	require.NoError(t, u.CheckFiltersUpdate(ctx, false))

	require.Equal(t, 1, reqCount)
	require.Contains(t, vers, agd.FilterID(1))
	assert.Equal(t, timeutil.Duration(12*time.Hour), vers[1].UpdatePeriod)

	// Two hours later the configured period has elapsed, but the period the
	// list declares in its Expires field has not, so no download happens.
	cat.ApplyVersions(vers)
	now = now.Add(2 * time.Hour)

	require.NoError(t, u.CheckFiltersUpdate(ctx, false))
	assert.Equal(t, 1, reqCount)

	// Past the declared period the filter is due again.
	now = now.Add(11 * time.Hour)

	require.NoError(t, u.CheckFiltersUpdate(ctx, false))
	assert.Equal(t, 2, reqCount)
}
