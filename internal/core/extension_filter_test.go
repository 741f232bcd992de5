package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomkit/internal/types"
)

type fakeExtensions struct {
	edges   map[types.ArtifactCoordinate]types.ExtensionEdges
	missing map[types.ArtifactCoordinate]struct{}
}

func (f fakeExtensions) ExtensionEdges(ctx context.Context, coord types.ArtifactCoordinate) (types.ExtensionEdges, error) {
	if _, ok := f.missing[coord]; ok {
		return types.ExtensionEdges{}, notFound(coord)
	}
	return f.edges[coord], nil
}

func extensionBom(t *testing.T) DecomposedBom {
	return buildBom(t,
		dep("com.acme:ext-a:1.0", release("a", "1")),
		dep("com.acme:lib-b:1.0", release("b", "1")),
		dep("com.acme:tool-c:1.0", release("b", "1")),
		dep("com.acme:unused:1.0", release("c", "1")),
	)
}

func extensionEdges() fakeExtensions {
	return fakeExtensions{edges: map[types.ArtifactCoordinate]types.ExtensionEdges{
		mustCoord("com.acme:ext-a:1.0"): {
			Runtime: coords("com.acme:lib-b:1.0", "org.outside:x:1.0"),
		},
		mustCoord("com.acme:lib-b:1.0"): {
			BuildTime: coords("com.acme:tool-c:1.0", "com.acme:ext-a:1.0"),
		},
	}}
}

func TestExtensionFilterKeepsReachableArtifacts(t *testing.T) {
	result, err := NewExtensionFilter(extensionEdges()).Filter(t.Context(), extensionBom(t), []types.ArtifactKey{
		mustKey("com.acme:ext-a"),
		mustKey("com.acme:not-in-manifest"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"com.acme:ext-a:jar:1.0@a#1",
		"com.acme:lib-b:jar:1.0@b#1",
		"com.acme:tool-c:jar:1.0@b#1",
	}, flattenBom(result.Bom))
	assert.Equal(t, []types.ArtifactKey{mustKey("com.acme:unused")}, result.Dropped)
	for _, ref := range result.RefCounts {
		assert.Equal(t, 1, ref.Count, ref.Key.String())
	}
	assert.Equal(t, baseBom, result.Bom.Coordinate())
}

func TestExtensionFilterCountsSharedReferences(t *testing.T) {
	result, err := NewExtensionFilter(extensionEdges()).Filter(t.Context(), extensionBom(t), []types.ArtifactKey{
		mustKey("com.acme:lib-b"),
		mustKey("com.acme:ext-a"),
		mustKey("com.acme:ext-a"),
	})
	require.NoError(t, err)
	assert.Equal(t, []types.KeyRefCount{
		{Key: mustKey("com.acme:ext-a"), Count: 2},
		{Key: mustKey("com.acme:lib-b"), Count: 2},
		{Key: mustKey("com.acme:tool-c"), Count: 2},
	}, result.RefCounts)
}

func TestExtensionFilterMissingDescriptor(t *testing.T) {
	extensions := extensionEdges()
	extensions.missing = map[types.ArtifactCoordinate]struct{}{mustCoord("com.acme:lib-b:1.0"): {}}
	_, err := NewExtensionFilter(extensions).Filter(t.Context(), extensionBom(t), []types.ArtifactKey{mustKey("com.acme:ext-a")})
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))
}

func TestExtensionFilterWithoutSupportedDropsEverything(t *testing.T) {
	result, err := NewExtensionFilter(extensionEdges()).Filter(t.Context(), extensionBom(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Bom.Len())
	assert.Len(t, result.Dropped, 4)
}
