package agd

import (
	"net/url"
	"time"
)

// FilterID is the unique, stable ID of a filter list.
type FilterID int32

// Special FilterID values shared across the AdGuard filter-subscription
// manager.
//
// DO NOT change these as the filter index and the host applications depend on
// these values.
const (
	// FilterIDNone means that no filter is referenced.
	FilterIDNone FilterID = 0

	// FilterIDSafari is the platform-mandated content-blocker filter for the
	// Safari integration.  It is always offered, regardless of its tags and
	// languages.
	FilterIDSafari FilterID = 12

	// FilterIDCustomStart is the first ID in the range reserved for filters
	// added by the user from arbitrary URLs.
	FilterIDCustomStart FilterID = 1000
)

// Filter is a single filter-list subscription known to the catalog.
//
// The identity and the static fields are owned by the subscription catalog.
// The flags and the version fields are projections of the persisted state and
// version info and are refreshed from the state storage on reads.
type Filter struct {
	// DownloadURL is the URL used to download the rules of this filter.  It
	// must not be nil for filters that come from the index.
	DownloadURL *url.URL

	// CustomURL is the URL the user added this filter from.  It is nil for
	// all filters except custom ones.
	CustomURL *url.URL

	// LastCheckTime is the time of the last update check of this filter.
	LastCheckTime time.Time

	// LastUpdateTime is the time of the last successful rules update of this
	// filter.
	LastUpdateTime time.Time

	// Name is the human-readable name of this filter.
	Name string

	// Description is the human-readable description of this filter.
	Description string

	// Homepage is the URL of the home page of this filter, as reported by
	// the index or by the list header.  It may be empty.
	Homepage string

	// Version is the version of the rules of this filter, as reported by the
	// index or by the list header.  It is empty until the first check.
	Version string

	// Tags are the IDs of the tags of this filter, in index order.
	Tags []TagID

	// Languages are the locale codes this filter is suitable for.  An empty
	// slice means that the filter suits all locales.
	Languages []string

	// ID is the unique ID of this filter.
	ID FilterID

	// GroupID is the ID of the group this filter belongs to.
	GroupID GroupID

	// Enabled shows whether the filter takes part in filtering.
	Enabled bool

	// Installed shows whether the filter has been added by the user or by a
	// recommendation seeding.
	Installed bool

	// Loaded shows whether the rules of the filter have been downloaded.
	Loaded bool

	// Removed shows whether this custom filter has been removed.  A removed
	// filter is excluded from every listing and recommendation query.
	Removed bool
}

// Clone returns a deep copy of f.
func (f *Filter) Clone() (clone *Filter) {
	if f == nil {
		return nil
	}

	clone = &Filter{}
	*clone = *f

	if f.DownloadURL != nil {
		u := *f.DownloadURL
		clone.DownloadURL = &u
	}

	if f.CustomURL != nil {
		u := *f.CustomURL
		clone.CustomURL = &u
	}

	clone.Tags = append([]TagID(nil), f.Tags...)
	clone.Languages = append([]string(nil), f.Languages...)

	return clone
}

// IsCustom returns true if f has been added by the user from an arbitrary
// URL.  Only custom filters can be removed.
func (f *Filter) IsCustom() (ok bool) {
	return f.CustomURL != nil
}

// HasTag returns true if f carries the tag with ID id.
func (f *Filter) HasTag(id TagID) (ok bool) {
	for _, t := range f.Tags {
		if t == id {
			return true
		}
	}

	return false
}
