package errcoll

import (
	"context"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/version"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/getsentry/sentry-go"
)

// SentryErrorCollector is an [Interface] implementation that sends errors to
// a Sentry-like HTTP API.
type SentryErrorCollector struct {
	sentry *sentry.Client
}

// NewSentryErrorCollector returns a new SentryErrorCollector.  cli must be
// non-nil.
func NewSentryErrorCollector(cli *sentry.Client) (c *SentryErrorCollector) {
	return &SentryErrorCollector{
		sentry: cli,
	}
}

// type check
var _ Interface = (*SentryErrorCollector)(nil)

// Collect implements the [Interface] interface for *SentryErrorCollector.
func (c *SentryErrorCollector) Collect(ctx context.Context, err error) {
	if !isReportable(err) {
		return
	}

	scope := sentry.NewScope()
	scope.SetTags(sentryTags{
		"git_revision": version.Revision(),
	})

	_ = c.sentry.CaptureException(err, &sentry.EventHint{
		Context: ctx,
	}, scope)
}

// ErrorFlushCollector collects information about errors, possibly sending
// them to a remote location.  The collected errors should be flushed with the
// Flush.
type ErrorFlushCollector interface {
	Interface

	// Flush waits until the underlying transport sends any buffered events to
	// the sentry server, blocking for at most the predefined timeout.
	Flush()
}

// type check
var _ ErrorFlushCollector = (*SentryErrorCollector)(nil)

// flushTimeout is the timeout for flushing sentry errors.
const flushTimeout = 1 * time.Second

// Flush implements the [ErrorFlushCollector] interface for
// *SentryErrorCollector.
func (c *SentryErrorCollector) Flush() {
	_ = c.sentry.Flush(flushTimeout)
}

// SentryReportableError is the interface for errors and wrappers that can
// tell whether they should be reported or not.
type SentryReportableError interface {
	error

	IsSentryReportable() (ok bool)
}

// isReportable returns true if the error is worth reporting.
func isReportable(err error) (ok bool) {
	var sentryRepErr SentryReportableError
	if errors.As(err, &sentryRepErr) {
		return sentryRepErr.IsSentryReportable()
	}

	return true
}

// sentryTags is a convenient alias for map[string]string.
type sentryTags = map[string]string
