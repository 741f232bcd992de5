package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomkit/internal/types"
)

func releaseOrder(t *testing.T, releases *fakeReleases) []types.ReleaseRepo {
	t.Helper()
	result, err := NewBuildSetResolver(chainRepository()).Resolve(t.Context(), targetBom, coords("com.acme:r:1.0"), types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	graph, err := BuildReleaseGraph(t.Context(), releases, result)
	require.NoError(t, err)
	order, err := graph.Order()
	require.NoError(t, err)
	assert.Len(t, order, graph.Len())
	return order
}

func TestReleaseGraphOrdersDependenciesFirst(t *testing.T) {
	releases := newFakeReleases().
		set("com.acme:r:1.0", release("x", "1")).
		set("com.acme:a:1.0", release("y", "1")).
		set("com.acme:b:1.0", release("y", "1"))

	order := releaseOrder(t, releases)
	require.Len(t, order, 2)
	assert.Equal(t, release("y", "1"), order[0].ID)
	assert.Equal(t, coords("com.acme:a:1.0", "com.acme:b:1.0"), order[0].Artifacts)
	assert.Empty(t, order[0].DependsOn)
	assert.Equal(t, release("x", "1"), order[1].ID)
	assert.Equal(t, []types.ReleaseID{release("y", "1")}, order[1].DependsOn)
}

func TestReleaseGraphBreaksCycles(t *testing.T) {
	releases := newFakeReleases().
		set("com.acme:r:1.0", release("x", "1")).
		set("com.acme:a:1.0", release("y", "1")).
		set("com.acme:b:1.0", release("x", "1"))

	order := releaseOrder(t, releases)
	require.Len(t, order, 2)
	assert.Equal(t, release("y", "1"), order[0].ID)
	assert.Equal(t, release("x", "1"), order[1].ID)
	assert.Equal(t, []types.ReleaseID{release("x", "1")}, order[0].DependsOn)
}

func TestReleaseGraphRequiresClassification(t *testing.T) {
	result, err := NewBuildSetResolver(chainRepository()).Resolve(t.Context(), targetBom, nil, types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	_, err = BuildReleaseGraph(t.Context(), newFakeReleases(), result)
	require.Error(t, err)
	assert.True(t, IsClassificationError(err))
}
