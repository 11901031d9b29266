package filterstate_test

import (
	"context"
	"testing"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdtest"
	"github.com/AdguardTeam/AdGuardFilters/internal/filternotify"
	"github.com/AdguardTeam/AdGuardFilters/internal/filterstate"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersister_Handle(t *testing.T) {
	filterStates := map[agd.FilterID]*filterstate.FilterState{}
	groupStates := map[agd.GroupID]*filterstate.GroupState{}

	s := &agdtest.StateStorage{
		OnSetFilterState: func(id agd.FilterID, st *filterstate.FilterState) (err error) {
			filterStates[id] = st

			return nil
		},
		OnSetGroupState: func(id agd.GroupID, st *filterstate.GroupState) (err error) {
			groupStates[id] = st

			return nil
		},
	}

	p := filterstate.NewPersister(&filterstate.PersisterConfig{
		Logger: slogutil.NewDiscardLogger(),
		ErrColl: &agdtest.ErrorCollector{
			OnCollect: func(_ context.Context, err error) {
				t.Errorf("unexpected collected error: %v", err)
			},
		},
		Storage: s,
	})

	ctx := context.Background()

	const fltID agd.FilterID = 1

	p.Handle(ctx, &filternotify.Event{
		Filter: &agd.Filter{
			ID:        fltID,
			Enabled:   true,
			Installed: true,
			Loaded:    true,
		},
		Kind: filternotify.KindFilterEnableDisable,
	})

	require.Contains(t, filterStates, fltID)
	assert.Equal(t, &filterstate.FilterState{
		Enabled:   true,
		Installed: true,
		Loaded:    true,
	}, filterStates[fltID])

	p.Handle(ctx, &filternotify.Event{
		Group: &agd.FilterGroup{
			ID:      agd.GroupIDPrivacy,
			Enabled: agd.ToggleStateDisabled,
		},
		Kind: filternotify.KindGroupEnableDisable,
	})

	require.Contains(t, groupStates, agd.GroupIDPrivacy)
	assert.Equal(t, &filterstate.GroupState{
		Enabled: agd.ToggleStateDisabled,
	}, groupStates[agd.GroupIDPrivacy])
}
