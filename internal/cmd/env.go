package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/AdguardTeam/AdGuardFilters/internal/version"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/caarlos0/env/v7"
	"github.com/getsentry/sentry-go"
)

// environment represents the configuration that is kept in the environment.
type environment struct {
	FilterIndexURL *urlutil.URL `env:"FILTER_INDEX_URL,notEmpty"`

	ConfPath        string `env:"CONFIG_PATH" envDefault:"./config.yaml"`
	FilterCachePath string `env:"FILTER_CACHE_PATH" envDefault:"./filters/"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"text"`
	SentryDSN       string `env:"SENTRY_DSN" envDefault:"stderr"`
	StatePath       string `env:"STATE_PATH" envDefault:"./state.json"`

	Verbosity uint8 `env:"VERBOSE" envDefault:"0"`

	LogTimestamp strictBool `env:"LOG_TIMESTAMP" envDefault:"1"`
}

// parseEnvironment reads the configuration.
func parseEnvironment() (envs *environment, err error) {
	envs = &environment{}
	err = env.Parse(envs)
	if err != nil {
		return nil, fmt.Errorf("parsing environments: %w", err)
	}

	return envs, nil
}

// type check
var _ validate.Interface = (*environment)(nil)

// Validate implements the [validate.Interface] interface for *environment.
func (envs *environment) Validate() (err error) {
	errs := []error{
		validate.NotEmpty("FILTER_CACHE_PATH", envs.FilterCachePath),
		validate.NotEmpty("STATE_PATH", envs.StatePath),
	}

	if s := envs.FilterIndexURL.Scheme; !strings.EqualFold(s, urlutil.SchemeFile) &&
		!urlutil.IsValidHTTPURLScheme(s) {
		errs = append(errs, fmt.Errorf(
			"%s: not a valid http(s) url or file uri",
			"FILTER_INDEX_URL",
		))
	}

	_, err = slogutil.NewFormat(envs.LogFormat)
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: %w", err))
	}

	_, err = slogutil.VerbosityToLevel(envs.Verbosity)
	if err != nil {
		errs = append(errs, fmt.Errorf("VERBOSE: %w", err))
	}

	return errors.Join(errs...)
}

// buildErrColl builds and returns an error collector from environment.
func (envs *environment) buildErrColl() (errColl errcoll.Interface, err error) {
	dsn := envs.SentryDSN
	if dsn == "stderr" {
		return errcoll.NewWriterErrorCollector(os.Stderr), nil
	}

	cli, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: true,
		Release:          version.Version(),
	})
	if err != nil {
		return nil, err
	}

	return errcoll.NewSentryErrorCollector(cli), nil
}

// strictBool is a type for booleans that are parsed from the environment more
// strictly than the usual bool.  It only accepts "0" and "1" as valid values.
type strictBool bool

// UnmarshalText implements the [encoding.TextUnmarshaler] interface for
// *strictBool.
func (sb *strictBool) UnmarshalText(b []byte) (err error) {
	if len(b) == 1 {
		switch b[0] {
		case '0':
			*sb = false

			return nil
		case '1':
			*sb = true

			return nil
		default:
			// Go on and return an error.
		}
	}

	return fmt.Errorf("invalid value %q, supported: %q, %q", b, "0", "1")
}
