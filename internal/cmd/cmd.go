// Package cmd is the filter-subscription manager entry point.  It contains
// the environment and on-disk configuration utilities, the signal processing
// logic, and the assembly of the manager and its download pipeline.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agdhttp"
	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/AdguardTeam/AdGuardFilters/internal/metrics"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/AdGuardFilters/internal/version"
	"github.com/AdguardTeam/golibs/contextutil"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/AdguardTeam/golibs/osutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/AdguardTeam/golibs/timeutil"
	"golang.org/x/sys/unix"
)

// shutdownTimeout is the timeout for the graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Main is the entry point of application.
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()

	envs := errors.Must(parseEnvironment())
	errors.Check(envs.Validate())

	lvl := errors.Must(slogutil.VerbosityToLevel(envs.Verbosity))
	baseLogger := slogutil.New(&slogutil.Config{
		// Don't use [slogutil.NewFormat] here, because the value is validated.
		Format:       slogutil.Format(envs.LogFormat),
		AddTimestamp: bool(envs.LogTimestamp),
		Level:        lvl,
	})

	mainLogger := baseLogger.With(slogutil.KeyPrefix, "main")

	mainLogger.InfoContext(
		ctx,
		"agdfilters starting",
		"version", version.Version(),
		"revision", version.Revision(),
		"branch", version.Branch(),
		"commit_time", version.CommitTime(),
	)

	errColl := errors.Must(envs.buildErrColl())
	defer reportPanics(ctx, errColl, mainLogger)

	conf := errors.Must(parseConfig(envs.ConfPath))
	errors.Check(conf.Validate())

	metrics.SetUpGauge(
		version.Version(),
		version.CommitTime(),
		version.Branch(),
		version.Revision(),
		runtime.Version(),
	)

	idx := errors.Must(loadIndex(ctx, envs))

	b := errors.Must(newBuilder(ctx, &builderConfig{
		baseLogger: baseLogger,
		envs:       envs,
		conf:       conf,
		errColl:    errColl,
		index:      idx,
	}))

	mainLogger.InfoContext(
		ctx,
		"catalog ready",
		"filters", len(b.manager.Filters(ctx)),
		"groups", len(b.manager.Groups(ctx)),
	)

	upd := b.updateWorker(baseLogger, conf.Filters)
	errors.Check(upd.Start(ctx))

	mainLogger.InfoContext(ctx, "started")

	<-ctx.Done()

	mainLogger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := upd.Shutdown(shutdownCtx)
	if err != nil {
		errcoll.Collect(shutdownCtx, errColl, mainLogger, "shutting down updates", err)
	}

	if fc, ok := errColl.(errcoll.ErrorFlushCollector); ok {
		fc.Flush()
	}

	mainLogger.InfoContext(ctx, "exited")
}

// updateWorker returns the background update-check worker of b.
func (b *builder) updateWorker(
	baseLogger *slog.Logger,
	fc *filtersConfig,
) (w *service.RefreshWorker) {
	return service.NewRefreshWorker(&service.RefreshWorkerConfig{
		ContextConstructor: contextutil.NewTimeoutConstructor(time.Duration(fc.UpdateTimeout)),
		ErrorHandler: service.NewSlogErrorHandler(
			baseLogger.With(slogutil.KeyPrefix, "update_check"),
			slog.LevelError,
			"checking filter updates",
		),
		Refresher: service.RefresherFunc(
			func(ctx context.Context) (err error) {
				return b.loader.CheckFiltersUpdate(ctx, false)
			},
		),
		Schedule:          timeutil.NewConstSchedule(time.Duration(fc.CheckInterval)),
		RefreshOnShutdown: false,
	})
}

// loadIndex reads and parses the filter index from the URL in the
// environment, which is either a file URI or an HTTP(S) URL.
func loadIndex(ctx context.Context, envs *environment) (idx *subscription.Index, err error) {
	u := &envs.FilterIndexURL.URL

	var r io.ReadCloser
	if urlutil.IsValidHTTPURLScheme(u.Scheme) {
		cli := agdhttp.NewClient(&agdhttp.ClientConfig{
			Timeout: shutdownTimeout,
		})

		var resp *http.Response
		resp, err = cli.Get(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("requesting index: %w", err)
		}

		r = resp.Body
	} else {
		// #nosec G304 -- Trust the index path from the environment.
		r, err = os.Open(u.Path)
		if err != nil {
			return nil, fmt.Errorf("opening index file: %w", err)
		}
	}
	defer func() { err = errors.WithDeferred(err, r.Close()) }()

	return subscription.ParseIndex(r)
}

// reportPanics reports all panics in Main.
func reportPanics(ctx context.Context, errColl errcoll.Interface, l *slog.Logger) {
	v := recover()
	if v == nil {
		return
	}

	err := errors.FromRecovered(v)
	l.ErrorContext(ctx, "recovered from panic", slogutil.KeyError, err)
	slogutil.PrintStack(ctx, l, slog.LevelError)

	errColl.Collect(ctx, err)
	if fc, ok := errColl.(errcoll.ErrorFlushCollector); ok {
		fc.Flush()
	}

	os.Exit(osutil.ExitCodeFailure)
}
