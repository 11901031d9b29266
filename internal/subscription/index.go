package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdhttp"
	"github.com/AdguardTeam/AdGuardFilters/internal/errcoll"
	"github.com/AdguardTeam/golibs/errors"
)

// Index is the parsed JSON document of a filter index.
//
// NOTE:  Keep the fields as plain strings and numbers instead of unmarshalers
// to make sure that entries with invalid data do not prevent valid entries
// from being used.
type Index struct {
	Groups  []*IndexGroup  `json:"groups"`
	Tags    []*IndexTag    `json:"tags"`
	Filters []*IndexFilter `json:"filters"`
}

// IndexGroup is a single group entry of a filter index.
type IndexGroup struct {
	// Name is the human-readable name of the group.
	Name string `json:"groupName"`

	// ID is the unique ID of the group.
	ID agd.GroupID `json:"groupId"`

	// DisplayNumber defines the position of the group in listings.
	DisplayNumber int `json:"displayNumber"`
}

// validate returns an error if g is invalid.
func (g *IndexGroup) validate() (err error) {
	if g == nil {
		return errors.ErrNoValue
	}

	if g.Name == "" {
		return fmt.Errorf("groupName: %w", errors.ErrEmptyValue)
	}

	return nil
}

// IndexTag is a single tag entry of a filter index.
type IndexTag struct {
	// Keyword is the namespaced keyword of the tag, for example
	// "lang:en" or "recommended".
	Keyword string `json:"keyword"`

	// ID is the unique ID of the tag.
	ID agd.TagID `json:"tagId"`
}

// validate returns an error if t is invalid.
func (t *IndexTag) validate() (err error) {
	if t == nil {
		return errors.ErrNoValue
	}

	if t.Keyword == "" {
		return fmt.Errorf("keyword: %w", errors.ErrEmptyValue)
	}

	return nil
}

// IndexFilter is a single filter entry of a filter index.
type IndexFilter struct {
	// DownloadURL contains the URL to use for downloading this filter.
	DownloadURL string `json:"downloadUrl"`

	// Name is the human-readable name of this filter.
	Name string `json:"name"`

	// Description is the human-readable description of this filter.
	Description string `json:"description"`

	// Homepage is the URL of the home page of this filter.
	Homepage string `json:"homepage"`

	// Version is the version of the rules at the time the index was built.
	Version string `json:"version"`

	// TimeUpdated is the time of the last rules update at the time the index
	// was built, in the RFC 3339 format.
	TimeUpdated string `json:"timeUpdated"`

	// Languages are the locale codes this filter is suitable for.
	Languages []string `json:"languages"`

	// Tags are the IDs of the tags of this filter.
	Tags []agd.TagID `json:"tags"`

	// ID is the unique ID of this filter.
	ID agd.FilterID `json:"filterId"`

	// GroupID is the ID of the group this filter belongs to.
	GroupID agd.GroupID `json:"groupId"`
}

// validate returns an error if f is invalid.
func (f *IndexFilter) validate() (err error) {
	if f == nil {
		return errors.ErrNoValue
	}

	var errs []error

	if f.ID == agd.FilterIDNone {
		errs = append(errs, fmt.Errorf("filterId: %w", errors.ErrNoValue))
	}

	if f.DownloadURL == "" {
		errs = append(errs, fmt.Errorf("downloadUrl: %w", errors.ErrEmptyValue))
	}

	if f.Name == "" {
		errs = append(errs, fmt.Errorf("name: %w", errors.ErrEmptyValue))
	}

	return errors.Join(errs...)
}

// toInternal converts f to a filter entity.  The flags are left at their
// defaults.  f is expected to be valid.
func (f *IndexFilter) toInternal(
	ctx context.Context,
	logger *slog.Logger,
	errColl errcoll.Interface,
) (flt *agd.Filter, err error) {
	u, err := agdhttp.ParseHTTPURL(f.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("validating downloadUrl: %w", err)
	}

	flt = &agd.Filter{
		DownloadURL: u,
		Name:        f.Name,
		Description: f.Description,
		Homepage:    f.Homepage,
		Version:     f.Version,
		Tags:        f.Tags,
		Languages:   f.Languages,
		ID:          f.ID,
		GroupID:     f.GroupID,
	}

	if f.TimeUpdated != "" {
		upd, timeErr := time.Parse(time.RFC3339, f.TimeUpdated)
		if timeErr != nil {
			// A malformed update time does not invalidate the whole entry.
			timeErr = fmt.Errorf("filter %d: parsing timeUpdated: %w", f.ID, timeErr)
			errcoll.Collect(ctx, errColl, logger, "index response", timeErr)
		} else {
			flt.LastUpdateTime = upd
		}
	}

	return flt, nil
}

// ParseIndex reads and parses a filter index document from r.
func ParseIndex(r io.Reader) (idx *Index, err error) {
	idx = &Index{}
	err = json.NewDecoder(r).Decode(idx)
	if err != nil {
		return nil, fmt.Errorf("decoding filter index: %w", err)
	}

	return idx, nil
}
