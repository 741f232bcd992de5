package policies

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bomkit/internal/types"
)

func TestArtifactFilterExclusionWins(t *testing.T) {
	filter, err := NewArtifactFilter(types.BuildSetPolicy{
		IncludeGroupIDs:    []string{"com.acme.*"},
		ExcludeKeys:        []types.ArtifactKey{key("com.acme.core", "old")},
		ExcludeCoordinates: []types.ArtifactCoordinate{coord("com.acme.core", "api", "0.9")},
		ExcludeScopes:      []string{" Test "},
	})
	require.NoError(t, err)

	require.True(t, filter.HasIncludes())
	require.True(t, filter.Included(coord("com.acme.core", "api", "1.0")))
	require.False(t, filter.Excluded(coord("com.acme.core", "api", "1.0")))
	require.True(t, filter.Excluded(coord("com.acme.core", "api", "0.9")))
	require.True(t, filter.Excluded(coord("com.acme.core", "old", "3.0")))
	require.True(t, filter.ExcludedScope("test"))
	require.False(t, filter.ExcludedScope("compile"))
}

func TestArtifactFilterRejectsContradictions(t *testing.T) {
	policies := []types.BuildSetPolicy{
		{IncludeKeys: []types.ArtifactKey{key("com.acme", "x")}, ExcludeKeys: []types.ArtifactKey{key("com.acme", "x")}},
		{IncludeCoordinates: []types.ArtifactCoordinate{coord("com.acme", "x", "1.0")}, ExcludeCoordinates: []types.ArtifactCoordinate{coord("com.acme", "x", "1.0")}},
		{IncludeGroupIDs: []string{"com.acme"}, ExcludeGroupIDs: []string{"com.acme"}},
	}
	for _, policy := range policies {
		_, err := NewArtifactFilter(policy)
		require.Error(t, err)
	}

	filter, err := NewArtifactFilter(types.BuildSetPolicy{})
	require.NoError(t, err)
	require.False(t, filter.HasIncludes())
}
