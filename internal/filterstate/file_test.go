package filterstate_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	f, err := filterstate.NewFile(&filterstate.FileConfig{
		Logger: slogutil.NewDiscardLogger(),
		Path:   path,
	})
	require.NoError(t, err)

	assert.Empty(t, f.FiltersState())
	assert.Empty(t, f.FiltersVersion())
	assert.Empty(t, f.GroupsState())

	const fltID agd.FilterID = 1

	wantState := &filterstate.FilterState{
		Enabled:   true,
		Installed: true,
		Loaded:    true,
	}
	require.NoError(t, f.SetFilterState(fltID, wantState))

	wantVer := &filterstate.VersionInfo{
		LastCheckTime:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		LastUpdateTime: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Version:        "2.0.91.0",
	}
	require.NoError(t, f.SetFilterVersion(fltID, wantVer))

	wantGroup := &filterstate.GroupState{
		Enabled: agd.ToggleStateEnabled,
	}
	require.NoError(t, f.SetGroupState(agd.GroupIDAdBlocking, wantGroup))

	// Reopen and make sure everything survived the round trip.
	f, err = filterstate.NewFile(&filterstate.FileConfig{
		Logger: slogutil.NewDiscardLogger(),
		Path:   path,
	})
	require.NoError(t, err)

	states := f.FiltersState()
	require.Contains(t, states, fltID)
	assert.Equal(t, wantState, states[fltID])

	vers := f.FiltersVersion()
	require.Contains(t, vers, fltID)
	assert.Equal(t, wantVer, vers[fltID])

	groups := f.GroupsState()
	require.Contains(t, groups, agd.GroupIDAdBlocking)
	assert.Equal(t, wantGroup, groups[agd.GroupIDAdBlocking])
}

func TestFile_isolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	f, err := filterstate.NewFile(&filterstate.FileConfig{
		Logger: slogutil.NewDiscardLogger(),
		Path:   path,
	})
	require.NoError(t, err)

	const fltID agd.FilterID = 1

	require.NoError(t, f.SetFilterState(fltID, &filterstate.FilterState{
		Enabled: true,
	}))

	// Modifying the returned map must not affect the stored state.
	states := f.FiltersState()
	states[fltID].Enabled = false

	got := f.FiltersState()
	require.Contains(t, got, fltID)
	assert.True(t, got[fltID].Enabled)
}
