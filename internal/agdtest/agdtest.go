// Package agdtest contains simple mocks for common interfaces and other test
// utilities.
package agdtest

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdcache"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdhttp"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/c2h5oh/datasize"
)

// Timeout is the common timeout for tests.
const Timeout = 1 * time.Second

// Test Fixtures

// Well-known tag IDs of the test index.
const (
	TagIDReference   agd.TagID = 1
	TagIDPurposeAds  agd.TagID = 2
	TagIDRecommended agd.TagID = 10
	TagIDMobile      agd.TagID = 20
	TagIDLangEn      agd.TagID = 41
	TagIDLangRu      agd.TagID = 42
)

// Well-known filter IDs of the test index.
const (
	FilterIDBase           agd.FilterID = 1
	FilterIDEnglish        agd.FilterID = 2
	FilterIDRussian        agd.FilterID = 3
	FilterIDMobileAds      agd.FilterID = 4
	FilterIDNotRecommended agd.FilterID = 5
	FilterIDSafari         agd.FilterID = agd.FilterIDSafari
)

// IndexText is the JSON text of the filter index used by [NewCatalog].
const IndexText = `{
  "groups": [
    {"groupId": 1, "groupName": "Ad Blocking", "displayNumber": 1},
    {"groupId": 2, "groupName": "Privacy", "displayNumber": 2},
    {"groupId": 7, "groupName": "Language-specific", "displayNumber": 7}
  ],
  "tags": [
    {"tagId": 1, "keyword": "reference:1"},
    {"tagId": 2, "keyword": "purpose:ads"},
    {"tagId": 10, "keyword": "recommended"},
    {"tagId": 20, "keyword": "mobile"},
    {"tagId": 41, "keyword": "lang:en"},
    {"tagId": 42, "keyword": "lang:ru"}
  ],
  "filters": [{
    "filterId": 1,
    "groupId": 1,
    "name": "Base Filter",
    "description": "Blocks ads.",
    "version": "2.0.91.0",
    "timeUpdated": "2025-06-01T12:00:00+00:00",
    "languages": [],
    "tags": [10, 2],
    "downloadUrl": "https://filters.example/1.txt"
  }, {
    "filterId": 2,
    "groupId": 7,
    "name": "English Filter",
    "languages": ["en"],
    "tags": [10, 41],
    "downloadUrl": "https://filters.example/2.txt"
  }, {
    "filterId": 3,
    "groupId": 7,
    "name": "Russian Filter",
    "languages": ["ru"],
    "tags": [10, 42],
    "downloadUrl": "https://filters.example/3.txt"
  }, {
    "filterId": 4,
    "groupId": 1,
    "name": "Mobile Ads Filter",
    "languages": [],
    "tags": [10, 20],
    "downloadUrl": "https://filters.example/4.txt"
  }, {
    "filterId": 5,
    "groupId": 2,
    "name": "Tracking Protection Filter",
    "languages": [],
    "tags": [2],
    "downloadUrl": "https://filters.example/5.txt"
  }, {
    "filterId": 12,
    "groupId": 1,
    "name": "Safari Filter",
    "languages": [],
    "tags": [],
    "downloadUrl": "https://filters.example/12.txt"
  }]
}`

// NewCatalog returns a catalog built from [IndexText] for tests.
func NewCatalog(tb testing.TB) (cat *subscription.Catalog) {
	tb.Helper()

	return NewCatalogWithClient(tb, agdhttp.NewClient(&agdhttp.ClientConfig{
		Timeout: Timeout,
	}))
}

// NewCatalogWithClient is like [NewCatalog] but uses c to download custom
// filters.
func NewCatalogWithClient(tb testing.TB, c *agdhttp.Client) (cat *subscription.Catalog) {
	tb.Helper()

	idx, err := subscription.ParseIndex(strings.NewReader(IndexText))
	if err != nil {
		tb.Fatalf("parsing test index: %v", err)
	}

	return newCatalog(tb, idx, c)
}

// NewCatalogWithIndex is like [NewCatalog] but builds the catalog from idx.
func NewCatalogWithIndex(tb testing.TB, idx *subscription.Index) (cat *subscription.Catalog) {
	tb.Helper()

	return newCatalog(tb, idx, agdhttp.NewClient(&agdhttp.ClientConfig{
		Timeout: Timeout,
	}))
}

// newCatalog builds a catalog from idx using c.
func newCatalog(
	tb testing.TB,
	idx *subscription.Index,
	c *agdhttp.Client,
) (cat *subscription.Catalog) {
	tb.Helper()

	ctx := testutil.ContextWithTimeout(tb, Timeout)

	return subscription.NewCatalog(ctx, &subscription.CatalogConfig{
		Logger:  slogutil.NewDiscardLogger(),
		ErrColl: NewErrorCollector(),
		Client:  c,
		Cache: agdcache.NewLRU[string, string](&agdcache.LRUConfig{
			Count: 100,
		}),
		Metrics: subscription.EmptyMetrics{},
		Index:   idx,
		MaxSize: 1 * datasize.MB,
	})
}

// NewErrorCollector returns a collector that does nothing, for the tests that
// do not inspect the collected errors.
func NewErrorCollector() (c *ErrorCollector) {
	return &ErrorCollector{
		OnCollect: func(_ context.Context, _ error) {},
	}
}

// NewURL is a helper that parses rawURL and fails the test on error.
func NewURL(tb testing.TB, rawURL string) (u *url.URL) {
	tb.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		tb.Fatalf("parsing url: %v", err)
	}

	return u
}
