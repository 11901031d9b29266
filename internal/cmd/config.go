package cmd

import (
	"fmt"
	"os"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v2"
)

// configuration represents the on-disk configuration of the
// filter-subscription manager.
type configuration struct {
	// Filters is the configuration of the download pipeline.
	Filters *filtersConfig `yaml:"filters"`

	// Selection is the configuration of the recommendation selector.
	Selection *selectionConfig `yaml:"selection"`
}

// type check
var _ validate.Interface = (*configuration)(nil)

// Validate implements the [validate.Interface] interface for *configuration.
func (c *configuration) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	var errs []error
	errs = validate.Append(errs, "filters", c.Filters)
	errs = validate.Append(errs, "selection", c.Selection)

	return errors.Join(errs...)
}

// filtersConfig is the configuration of the download pipeline.
type filtersConfig struct {
	// CheckInterval is how often the background update check runs.
	CheckInterval timeutil.Duration `yaml:"check_interval"`

	// UpdatePeriod is how often a loaded filter is checked for updates.
	UpdatePeriod timeutil.Duration `yaml:"update_period"`

	// Staleness is the time after which a cached file is no longer used
	// without a download.
	Staleness timeutil.Duration `yaml:"staleness"`

	// UpdateTimeout is the timeout for downloading a single filter.
	UpdateTimeout timeutil.Duration `yaml:"update_timeout"`

	// MaxSize is the maximum allowed size of a downloaded filter.
	MaxSize datasize.ByteSize `yaml:"max_size"`

	// DownloadRPS is the allowed rate of downloads per second.
	DownloadRPS float64 `yaml:"download_rps"`

	// DownloadBurst is the allowed burst of downloads.
	DownloadBurst int `yaml:"download_burst"`
}

// type check
var _ validate.Interface = (*filtersConfig)(nil)

// Validate implements the [validate.Interface] interface for *filtersConfig.
func (c *filtersConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	return errors.Join(
		validate.Positive("check_interval", c.CheckInterval),
		validate.Positive("update_period", c.UpdatePeriod),
		validate.Positive("staleness", c.Staleness),
		validate.Positive("update_timeout", c.UpdateTimeout),
		validate.Positive("max_size", c.MaxSize),
		validate.Positive("download_rps", c.DownloadRPS),
		validate.Positive("download_burst", c.DownloadBurst),
	)
}

// selectionConfig is the configuration of the recommendation selector.
type selectionConfig struct {
	// Locale is the locale code of the host application, for example
	// "en-US".
	Locale string `yaml:"locale"`

	// PlatformFilterID is the ID of the platform-mandated filter.  Zero
	// means that the platform has no such filter.
	PlatformFilterID agd.FilterID `yaml:"platform_filter_id"`

	// Mobile shows whether the host application runs on a mobile device.
	Mobile bool `yaml:"mobile"`
}

// type check
var _ validate.Interface = (*selectionConfig)(nil)

// Validate implements the [validate.Interface] interface for
// *selectionConfig.
func (c *selectionConfig) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	return validate.NotEmpty("locale", c.Locale)
}

// parseConfig reads the configuration file from confPath.
func parseConfig(confPath string) (c *configuration, err error) {
	// #nosec G304 -- Trust the path to the configuration file that is given
	// from the environment.
	yamlFile, err := os.ReadFile(confPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c = &configuration{}
	err = yaml.Unmarshal(yamlFile, c)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return c, nil
}
