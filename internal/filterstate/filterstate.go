// Package filterstate contains the persistent storage of the user-controlled
// state of filters and filter groups as well as of the filter version info.
//
// The storage is the single source of truth for these.  The catalog keeps
// only a projection that is refreshed from the storage on reads.
package filterstate

import (
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/golibs/timeutil"
)

// VersionInfo is the persisted version information of a single filter.
type VersionInfo struct {
	// LastCheckTime is the time of the last update check.
	LastCheckTime time.Time `json:"last_check_time"`

	// LastUpdateTime is the time of the last successful rules update.
	LastUpdateTime time.Time `json:"last_update_time"`

	// Version is the version of the downloaded rules.
	Version string `json:"version"`

	// UpdatePeriod is the update period the list declares in its "Expires"
	// header field.  Zero means that the list declares none and the
	// configured period applies.
	UpdatePeriod timeutil.Duration `json:"update_period,omitempty"`
}

// FilterState is the persisted user-controlled state of a single filter.
type FilterState struct {
	// Enabled shows whether the filter takes part in filtering.
	Enabled bool `json:"enabled"`

	// Installed shows whether the filter has been added.
	Installed bool `json:"installed"`

	// Loaded shows whether the rules of the filter have been downloaded.
	Loaded bool `json:"loaded"`

	// Removed shows whether this custom filter has been removed.
	Removed bool `json:"removed"`
}

// GroupState is the persisted user-controlled state of a single filter group.
type GroupState struct {
	// Enabled is the three-valued enabled state of the group.
	Enabled agd.ToggleState `json:"enabled"`
}

// Storage is the persistent storage of filter and group state.
//
// All methods must be safe for concurrent use.
type Storage interface {
	// FiltersVersion returns the version info of all filters that have one.
	// The result must not be modified.
	FiltersVersion() (vers map[agd.FilterID]*VersionInfo)

	// FiltersState returns the state of all filters that have one.  The
	// result must not be modified.
	FiltersState() (states map[agd.FilterID]*FilterState)

	// GroupsState returns the state of all groups that have one.  The result
	// must not be modified.
	GroupsState() (states map[agd.GroupID]*GroupState)

	// SetFilterVersion sets the version info of the filter with ID id.  v
	// must not be nil.
	SetFilterVersion(id agd.FilterID, v *VersionInfo) (err error)

	// SetFilterState sets the state of the filter with ID id.  st must not be
	// nil.
	SetFilterState(id agd.FilterID, st *FilterState) (err error)

	// SetGroupState sets the state of the group with ID id.  st must not be
	// nil.
	SetGroupState(id agd.GroupID, st *GroupState) (err error)
}

// Empty is a [Storage] that holds nothing and persists nothing.
type Empty struct{}

// type check
var _ Storage = Empty{}

// FiltersVersion implements the [Storage] interface for Empty.  It always
// returns nil.
func (Empty) FiltersVersion() (vers map[agd.FilterID]*VersionInfo) { return nil }

// FiltersState implements the [Storage] interface for Empty.  It always
// returns nil.
func (Empty) FiltersState() (states map[agd.FilterID]*FilterState) { return nil }

// GroupsState implements the [Storage] interface for Empty.  It always
// returns nil.
func (Empty) GroupsState() (states map[agd.GroupID]*GroupState) { return nil }

// SetFilterVersion implements the [Storage] interface for Empty.  It always
// returns nil.
func (Empty) SetFilterVersion(_ agd.FilterID, _ *VersionInfo) (err error) { return nil }

// SetFilterState implements the [Storage] interface for Empty.  It always
// returns nil.
func (Empty) SetFilterState(_ agd.FilterID, _ *FilterState) (err error) { return nil }

// SetGroupState implements the [Storage] interface for Empty.  It always
// returns nil.
func (Empty) SetGroupState(_ agd.GroupID, _ *GroupState) (err error) { return nil }
