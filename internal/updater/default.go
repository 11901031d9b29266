package updater

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdhttp"
	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
	"github.com/AdguardTeam/AdGuardFilters/internal/rulelist"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/ioutil"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/c2h5oh/datasize"
	renameio "github.com/google/renameio/v2"
	"golang.org/x/time/rate"
)

// DefaultConfig is the configuration structure for the default loader.
type DefaultConfig struct {
	// Logger is used for logging the operation of the loader.  It must not be
	// nil.
	Logger *slog.Logger

	// Clock is used to get the current time.  It must not be nil.
	Clock timeutil.Clock

	// ErrColl collects the errors of single filters during a full update
	// check.  It must not be nil.
	ErrColl errcoll.Interface

	// Metrics collects the update statistics.  It must not be nil.
	Metrics Metrics

	// States records the version info of downloaded filters.  It must not be
	// nil.
	States filterstate.Storage

	// Catalog is the catalog the filters are taken from.  It must not be
	// nil.
	Catalog *subscription.Catalog

	// Limiter limits the rate of downloads.  It must not be nil.
	Limiter *rate.Limiter

	// CacheDir is the path to the directory holding the downloaded rules,
	// one file per filter.  It must not be empty and the directory must
	// exist.
	CacheDir string

	// UpdatePeriod is how often a loaded filter is checked for updates.  It
	// must be positive.
	UpdatePeriod time.Duration

	// Staleness is the time after which a cached file is no longer used
	// without a download.  It must be positive.
	Staleness time.Duration

	// Timeout is the timeout for downloading a single filter.  It must be
	// positive.
	Timeout time.Duration

	// MaxSize is the maximum allowed size of a downloaded filter.  It must be
	// positive.
	MaxSize datasize.ByteSize
}

// Default is the default [Loader].  Downloads are rate-limited and performed
// one at a time.
type Default struct {
	logger  *slog.Logger
	clock   timeutil.Clock
	errColl errcoll.Interface
	metrics Metrics
	states  filterstate.Storage
	catalog *subscription.Catalog
	limiter *rate.Limiter
	http    *agdhttp.Client

	cacheDir     string
	updatePeriod time.Duration
	staleness    time.Duration
	maxSize      datasize.ByteSize
}

// NewDefault returns a new default loader.  c must not be nil.
func NewDefault(c *DefaultConfig) (u *Default) {
	return &Default{
		logger:  c.Logger,
		clock:   c.Clock,
		errColl: c.ErrColl,
		metrics: c.Metrics,
		states:  c.States,
		catalog: c.Catalog,
		limiter: c.Limiter,
		http: agdhttp.NewClient(&agdhttp.ClientConfig{
			Timeout: c.Timeout,
		}),

		cacheDir:     c.CacheDir,
		updatePeriod: c.UpdatePeriod,
		staleness:    c.Staleness,
		maxSize:      c.MaxSize,
	}
}

// type check
var _ Loader = (*Default)(nil)

// LoadFilterRules implements the [Loader] interface for *Default.
func (u *Default) LoadFilterRules(ctx context.Context, f *agd.Filter, force bool) (err error) {
	defer func() { err = errors.Annotate(err, "loading rules of filter %d: %w", f.ID) }()

	idStr := strconv.FormatInt(int64(f.ID), 10)
	now := u.clock.Now()

	defer func() {
		if err != nil {
			u.metrics.SetFilterStatus(ctx, idStr, now, 0, err)
		}
	}()

	err = u.limiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	text, err := u.loadText(ctx, f, force, now)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return err
	}

	hdr := rulelist.ParseHeader(text)
	count := rulelist.CountRules(text)

	ver := hdr.Version
	if ver == "" {
		ver = f.Version
	}

	err = u.states.SetFilterVersion(f.ID, &filterstate.VersionInfo{
		LastCheckTime:  now,
		LastUpdateTime: now,
		Version:        ver,
		UpdatePeriod:   timeutil.Duration(hdr.Expires),
	})
	if err != nil {
		return fmt.Errorf("recording version: %w", err)
	}

	u.metrics.SetFilterStatus(ctx, idStr, now, count, nil)

	u.logger.InfoContext(ctx, "loaded rules", "id", f.ID, "version", ver, "rules", count)

	return nil
}

// cachePath returns the path of the cache file of the filter with ID id.
func (u *Default) cachePath(id agd.FilterID) (path string) {
	return filepath.Join(u.cacheDir, strconv.FormatInt(int64(id), 10)+".txt")
}

// loadText returns the text of the rules of f, either from a fresh cached
// file or from the download URL.  If force is true, the cached file is not
// used.
func (u *Default) loadText(
	ctx context.Context,
	f *agd.Filter,
	force bool,
	now time.Time,
) (text string, err error) {
	cachePath := u.cachePath(f.ID)

	if !force {
		text, err = u.textFromCache(cachePath, now)
		if err != nil {
			return "", fmt.Errorf("reading cache file %q: %w", cachePath, err)
		}

		if text != "" {
			u.logger.InfoContext(ctx, "using cached rules", "id", f.ID, "path", cachePath)

			return text, nil
		}
	}

	ru := urlutil.RedactUserinfo(f.DownloadURL)
	u.logger.InfoContext(ctx, "downloading rules", "id", f.ID, "url", ru)

	text, err = u.textFromURL(ctx, f.DownloadURL, cachePath, now)
	if err != nil {
		return "", fmt.Errorf("downloading from %q: %w", ru, err)
	}

	return text, nil
}

// textFromCache reads the cached rules from filePath if its mtime shows that
// it is still fresh relative to now.  If err is nil and text is empty, a
// download is required.
func (u *Default) textFromCache(filePath string, now time.Time) (text string, err error) {
	// #nosec G304 -- Trust the path, since it is the cache directory from the
	// configuration plus a numeric filter ID.
	file, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		// File does not exist.  Download.
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("opening: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, file.Close()) }()

	fi, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("reading stat: %w", err)
	}

	if mtime := fi.ModTime(); !mtime.Add(u.staleness).After(now) {
		return "", nil
	}

	b := &strings.Builder{}
	_, err = io.Copy(b, file)
	if err != nil {
		return "", fmt.Errorf("reading: %w", err)
	}

	return b.String(), nil
}

// textFromURL downloads the rules from dlURL, puts them into the file
// specified by cachePath, returns their text, and sets the atime and the
// mtime of the file to now.
func (u *Default) textFromURL(
	ctx context.Context,
	dlURL *url.URL,
	cachePath string,
	now time.Time,
) (text string, err error) {
	tmpDir := renameio.TempDir(filepath.Dir(cachePath))
	tmpFile, err := renameio.TempFile(tmpDir, cachePath)
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() { err = u.withDeferredTmpCleanup(err, tmpFile, cachePath, now) }()

	resp, err := u.http.Get(ctx, dlURL)
	if err != nil {
		return "", fmt.Errorf("requesting: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, resp.Body.Close()) }()

	u.logger.DebugContext(
		ctx,
		"got response",
		"code", resp.StatusCode,
		"content-length", resp.ContentLength,
		"server", resp.Header.Get(httphdr.Server),
	)

	err = agdhttp.CheckStatus(resp, http.StatusOK)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return "", err
	}

	b := &strings.Builder{}
	mw := io.MultiWriter(b, tmpFile)
	_, err = io.Copy(mw, ioutil.LimitReader(resp.Body, u.maxSize.Bytes()))
	if err != nil {
		return "", agdhttp.WrapServerError(fmt.Errorf("reading into file: %w", err), resp)
	}

	if b.Len() == 0 {
		return "", agdhttp.WrapServerError(errors.Error("empty text, not resetting"), resp)
	}

	return b.String(), nil
}

// withDeferredTmpCleanup is a helper that performs the necessary cleanups and
// finalizations of the temporary file based on the returned error.
func (u *Default) withDeferredTmpCleanup(
	returned error,
	tmpFile *renameio.PendingFile,
	cachePath string,
	now time.Time,
) (err error) {
	// Make sure that any error returned from here is marked as a deferred one.
	if returned != nil {
		return errors.WithDeferred(returned, tmpFile.Cleanup())
	}

	err = tmpFile.CloseAtomicallyReplace()
	if err != nil {
		return errors.WithDeferred(nil, err)
	}

	// Set the modification and access times to the moment the download
	// started.
	return errors.WithDeferred(nil, os.Chtimes(cachePath, now, now))
}

// CheckFiltersUpdate implements the [Loader] interface for *Default.
func (u *Default) CheckFiltersUpdate(ctx context.Context, force bool) (err error) {
	now := u.clock.Now()
	vers := u.states.FiltersVersion()

	var errs []error
	for _, f := range u.catalog.Filters() {
		if f.Removed || !f.Loaded {
			continue
		}

		// A period declared by the list itself overrides the configured one.
		period := u.updatePeriod
		if vi, ok := vers[f.ID]; ok && vi.UpdatePeriod > 0 {
			period = time.Duration(vi.UpdatePeriod)
		}

		if !force && now.Sub(f.LastCheckTime) < period {
			continue
		}

		loadErr := u.LoadFilterRules(ctx, f, force)
		if loadErr != nil {
			errcoll.Collect(ctx, u.errColl, u.logger, "update check", loadErr)
			errs = append(errs, loadErr)
		}
	}

	return errors.Join(errs...)
}
