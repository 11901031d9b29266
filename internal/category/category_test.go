package category_test

import (
	"context"
	"testing"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/AdGuardFilters/internal/agdtest"
	"github.com/AdguardTeam/AdGuardFilters/internal/category"
	"github.com/AdguardTeam/AdGuardFilters/internal/subscription"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSelector is a helper that builds a selector over the test catalog.
func newSelector(
	tb testing.TB,
	cat *subscription.Catalog,
	env category.Environment,
	platformID agd.FilterID,
) (s *category.Selector) {
	tb.Helper()

	return category.NewSelector(&category.SelectorConfig{
		Logger:           slogutil.NewDiscardLogger(),
		Catalog:          cat,
		Env:              env,
		PlatformFilterID: platformID,
	})
}

func TestSelector_RecommendedFilterIDs(t *testing.T) {
	cat := agdtest.NewCatalog(t)

	testCases := []struct {
		env        category.Environment
		name       string
		want       []agd.FilterID
		groupID    agd.GroupID
		platformID agd.FilterID
	}{{
		env:        &category.StaticEnvironment{LocaleCode: "en-US"},
		name:       "desktop_en",
		want:       []agd.FilterID{agdtest.FilterIDBase},
		groupID:    agd.GroupIDAdBlocking,
		platformID: agd.FilterIDNone,
	}, {
		env:        &category.StaticEnvironment{LocaleCode: "en-US", Mobile: true},
		name:       "mobile_en",
		want:       []agd.FilterID{agdtest.FilterIDBase, agdtest.FilterIDMobileAds},
		groupID:    agd.GroupIDAdBlocking,
		platformID: agd.FilterIDNone,
	}, {
		env:        &category.StaticEnvironment{LocaleCode: "en-US"},
		name:       "platform_mandated",
		want:       []agd.FilterID{agdtest.FilterIDBase, agdtest.FilterIDSafari},
		groupID:    agd.GroupIDAdBlocking,
		platformID: agd.FilterIDSafari,
	}, {
		env:        &category.StaticEnvironment{LocaleCode: "ru-RU"},
		name:       "lang_ru",
		want:       []agd.FilterID{agdtest.FilterIDRussian},
		groupID:    agd.GroupIDLanguageSpecific,
		platformID: agd.FilterIDNone,
	}, {
		env:        &category.StaticEnvironment{LocaleCode: "en-US"},
		name:       "not_recommended",
		want:       nil,
		groupID:    agd.GroupIDPrivacy,
		platformID: agd.FilterIDNone,
	}, {
		env:        &category.StaticEnvironment{LocaleCode: "en-US"},
		name:       "unknown_group",
		want:       nil,
		groupID:    agd.GroupID(404),
		platformID: agd.FilterIDNone,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSelector(t, cat, tc.env, tc.platformID)

			ctx := testutil.ContextWithTimeout(t, agdtest.Timeout)
			assert.Equal(t, tc.want, s.RecommendedFilterIDs(ctx, tc.groupID))
		})
	}
}

func TestSelector_FiltersMetadata(t *testing.T) {
	cat := agdtest.NewCatalog(t)
	s := newSelector(t, cat, &category.StaticEnvironment{LocaleCode: "en-US"}, agd.FilterIDNone)

	md := s.FiltersMetadata()
	require.NotNil(t, md)
	require.Len(t, md.Filters, 6)
	require.Len(t, md.Categories, 4)

	// The base filter carries "recommended" and "purpose:ads".  The purpose
	// namespace is stripped for display.
	base := md.Filters[0]
	require.Equal(t, agdtest.FilterIDBase, base.Filter.ID)
	require.Len(t, base.TagsDetails, 2)

	assert.Equal(t, "recommended", base.TagsDetails[0].Keyword)
	assert.Equal(t, "ads", base.TagsDetails[1].Keyword)

	// Language keywords are displayed verbatim.
	english := md.Filters[1]
	require.Equal(t, agdtest.FilterIDEnglish, english.Filter.ID)
	require.Len(t, english.TagsDetails, 2)

	assert.Equal(t, "lang:en", english.TagsDetails[1].Keyword)
}

func TestSelector_VisibleFilters(t *testing.T) {
	cat := agdtest.NewCatalog(t)
	s := newSelector(t, cat, &category.StaticEnvironment{LocaleCode: "en-US"}, agd.FilterIDNone)

	_, ok := cat.SetFilterRemoved(agdtest.FilterIDBase, true)
	require.True(t, ok)

	filters := s.VisibleFilters()
	require.Len(t, filters, 5)

	for _, f := range filters {
		assert.NotEqual(t, agdtest.FilterIDBase, f.ID)
	}
}

func TestStaticEnvironment(t *testing.T) {
	env := &category.StaticEnvironment{
		LocaleCode: "en-US",
		Mobile:     true,
	}

	ctx := context.Background()
	assert.Equal(t, "en-US", env.Locale(ctx))
	assert.True(t, env.IsMobile(ctx))
}
