package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agdcache"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdhttp"
	"github.com/AdguardTeam/AdGuardFilters/internal/category"
	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/AdguardTeam/AdGuardFilters/internal/filternotify"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
	"github.com/AdguardTeam/AdGuardFilters/internal/manager"
	"github.com/AdguardTeam/AdGuardFilters/internal/metrics"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/AdGuardFilters/internal/updater"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"golang.org/x/time/rate"
)

// customCacheCount is the maximum number of cached custom-filter downloads.
const customCacheCount = 100

// builderConfig is the configuration structure for a builder.  All fields
// must not be nil.
type builderConfig struct {
	baseLogger *slog.Logger
	envs       *environment
	conf       *configuration
	errColl    errcoll.Interface
	index      *subscription.Index
}

// builder contains the assembled entities of the filter-subscription manager.
type builder struct {
	manager *manager.Manager
	loader  updater.Loader
}

// newBuilder assembles the catalog, the state storage, the download pipeline,
// and the lifecycle manager.  c must not be nil.
func newBuilder(ctx context.Context, c *builderConfig) (b *builder, err error) {
	fc := c.conf.Filters

	err = os.MkdirAll(c.envs.FilterCachePath, 0o700)
	if err != nil {
		return nil, fmt.Errorf("creating filter cache dir: %w", err)
	}

	cat := subscription.NewCatalog(ctx, &subscription.CatalogConfig{
		Logger:  c.baseLogger.With(slogutil.KeyPrefix, "catalog"),
		ErrColl: c.errColl,
		Client: agdhttp.NewClient(&agdhttp.ClientConfig{
			Timeout: time.Duration(fc.UpdateTimeout),
		}),
		Cache: agdcache.NewLRU[string, string](&agdcache.LRUConfig{
			Count: customCacheCount,
		}),
		Metrics: metrics.Catalog{},
		Index:   c.index,
		MaxSize: fc.MaxSize,
	})

	states, err := filterstate.NewFile(&filterstate.FileConfig{
		Logger: c.baseLogger.With(slogutil.KeyPrefix, "filterstate"),
		Path:   c.envs.StatePath,
	})
	if err != nil {
		return nil, fmt.Errorf("creating state storage: %w", err)
	}

	bus := filternotify.NewBus(&filternotify.BusConfig{
		Logger: c.baseLogger.With(slogutil.KeyPrefix, "filternotify"),
	})

	sel := category.NewSelector(&category.SelectorConfig{
		Logger:  c.baseLogger.With(slogutil.KeyPrefix, "category"),
		Catalog: cat,
		Env: &category.StaticEnvironment{
			LocaleCode: c.conf.Selection.Locale,
			Mobile:     c.conf.Selection.Mobile,
		},
		PlatformFilterID: c.conf.Selection.PlatformFilterID,
	})

	loader := updater.NewDefault(&updater.DefaultConfig{
		Logger:       c.baseLogger.With(slogutil.KeyPrefix, "updater"),
		Clock:        timeutil.SystemClock{},
		ErrColl:      c.errColl,
		Metrics:      metrics.Updater{},
		States:       states,
		Catalog:      cat,
		Limiter:      rate.NewLimiter(rate.Limit(fc.DownloadRPS), fc.DownloadBurst),
		CacheDir:     c.envs.FilterCachePath,
		UpdatePeriod: time.Duration(fc.UpdatePeriod),
		Staleness:    time.Duration(fc.Staleness),
		Timeout:      time.Duration(fc.UpdateTimeout),
		MaxSize:      fc.MaxSize,
	})

	mgr := manager.New(&manager.Config{
		Logger:   c.baseLogger.With(slogutil.KeyPrefix, "manager"),
		ErrColl:  c.errColl,
		Metrics:  metrics.Manager{},
		Catalog:  cat,
		States:   states,
		Selector: sel,
		Loader:   loader,
		Bus:      bus,
	})

	return &builder{
		manager: mgr,
		loader:  loader,
	}, nil
}
