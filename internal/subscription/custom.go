package subscription

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdhttp"
	"github.com/AdguardTeam/AdGuardFilters/internal/rulelist"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/ioutil"
)

// UpdateCustomFilter downloads the rule list at rawURL and either refreshes
// the metadata of the existing custom filter with that URL or registers a new
// one with the next free ID in the custom range.  The downloaded text is
// cached, so repeated calls with the same URL do not hit the network.
func (cat *Catalog) UpdateCustomFilter(
	ctx context.Context,
	rawURL string,
) (f *agd.Filter, err error) {
	defer func() { err = errors.Annotate(err, "updating custom filter from %q: %w", rawURL) }()

	u, err := agdhttp.ParseHTTPURL(rawURL)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}

	text, err := cat.customText(ctx, u)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}

	hdr := rulelist.ParseHeader(text)

	cat.mu.Lock()
	defer cat.mu.Unlock()

	flt := cat.customByURL(u)
	if flt == nil {
		flt = &agd.Filter{
			DownloadURL: u,
			CustomURL:   u,
			ID:          cat.nextCustomID,
			GroupID:     agd.GroupIDCustom,
		}

		cat.nextCustomID++

		cat.filters[flt.ID] = flt
		cat.order = append(cat.order, flt.ID)
	}

	flt.Name = hdr.Title
	if flt.Name == "" {
		flt.Name = u.String()
	}

	flt.Description = hdr.Description
	flt.Homepage = hdr.Homepage
	flt.Version = hdr.Version
	if !hdr.TimeUpdated.IsZero() {
		flt.LastUpdateTime = hdr.TimeUpdated
	}

	return flt.Clone(), nil
}

// customByURL returns the custom filter added from u, or nil.  cat.mu is
// expected to be locked.
func (cat *Catalog) customByURL(u *url.URL) (flt *agd.Filter) {
	for _, id := range cat.order {
		f := cat.filters[id]
		if f.CustomURL != nil && f.CustomURL.String() == u.String() {
			return f
		}
	}

	return nil
}

// customText returns the text of the rule list at u, from the cache when
// possible.
func (cat *Catalog) customText(ctx context.Context, u *url.URL) (text string, err error) {
	cacheKey := u.String()
	text, ok := cat.cache.Get(cacheKey)
	cat.metrics.IncrementCustomCacheLookups(ctx, ok)
	if ok {
		cat.logger.DebugContext(ctx, "using cached list", "url", cacheKey)

		return text, nil
	}

	resp, err := cat.client.Get(ctx, u)
	if err != nil {
		return "", fmt.Errorf("requesting: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, resp.Body.Close()) }()

	err = agdhttp.CheckStatus(resp, http.StatusOK)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return "", err
	}

	data, err := io.ReadAll(ioutil.LimitReader(resp.Body, cat.maxSize.Bytes()))
	if err != nil {
		return "", agdhttp.WrapServerError(fmt.Errorf("reading body: %w", err), resp)
	}

	text = string(data)
	if text == "" {
		return "", agdhttp.WrapServerError(errors.Error("empty text"), resp)
	}

	cat.cache.Set(cacheKey, text)

	return text, nil
}
