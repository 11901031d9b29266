package subscription

import (
	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
)

// ApplyState refreshes the flag projections of the catalog from the persisted
// state.  The storage is the single source of truth: a filter or group with
// no record is reset to its defaults.
func (cat *Catalog) ApplyState(
	states map[agd.FilterID]*filterstate.FilterState,
	groups map[agd.GroupID]*filterstate.GroupState,
) {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	for id, flt := range cat.filters {
		st := states[id]
		if st == nil {
			flt.Enabled = false
			flt.Installed = false
			flt.Loaded = false
			flt.Removed = false

			continue
		}

		flt.Enabled = st.Enabled
		flt.Installed = st.Installed
		flt.Loaded = st.Loaded
		flt.Removed = st.Removed
	}

	for id, grp := range cat.groupsByID {
		st := groups[id]
		if st == nil {
			grp.Enabled = agd.ToggleStateNeverToggled

			continue
		}

		grp.Enabled = st.Enabled
	}
}

// ApplyVersions refreshes the version projections of the catalog from the
// persisted version info.  Unlike [Catalog.ApplyState], a filter with no
// record keeps its values from the index, which serve as the static baseline.
func (cat *Catalog) ApplyVersions(vers map[agd.FilterID]*filterstate.VersionInfo) {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	for id, flt := range cat.filters {
		v := vers[id]
		if v == nil {
			continue
		}

		flt.Version = v.Version
		flt.LastCheckTime = v.LastCheckTime
		flt.LastUpdateTime = v.LastUpdateTime
	}
}
