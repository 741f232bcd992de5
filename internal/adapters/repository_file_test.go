package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomkit/internal/core"
	"bomkit/internal/types"
)

const repositoryFixture = "../../fixtures/repository.yaml"

func mustCoord(t *testing.T, raw string) types.ArtifactCoordinate {
	t.Helper()
	coord, err := core.ParseCoordinate(raw)
	require.NoError(t, err)
	return coord
}

func TestRepositoryFileResolve(t *testing.T) {
	adapter := NewRepositoryFileAdapter(repositoryFixture)

	path, err := adapter.Resolve(t.Context(), mustCoord(t, "com.acme.core:core-api:2.0"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("../../fixtures", "com/acme/core/core-api/2.0/core-api-2.0.jar"), path)

	_, err = adapter.Resolve(t.Context(), mustCoord(t, "com.acme.core:core-api:9.9"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestRepositoryFileDescriptorInheritsParentAndKeepsFirstConstraint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repository.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`artifacts:
  - coordinate: com.acme:parent:pom:1.0
    managed:
      - coordinate: com.acme:x:1.0
      - coordinate: com.acme:y:1.0
  - coordinate: com.acme:imported:pom:1.0
    managed:
      - coordinate: com.acme:z:3.0
  - coordinate: com.acme:child:pom:1.0
    parent: com.acme:parent:pom:1.0
    imports:
      - com.acme:imported:pom:1.0
    managed:
      - coordinate: com.acme:x:2.0
`), 0644))

	desc, err := NewRepositoryFileAdapter(path).ResolveDescriptor(t.Context(), mustCoord(t, "com.acme:child:pom:1.0"))
	require.NoError(t, err)
	require.NotNil(t, desc.Parent)
	assert.Equal(t, mustCoord(t, "com.acme:parent:pom:1.0"), *desc.Parent)
	var managed []string
	for _, constraint := range desc.ManagedDependencies {
		managed = append(managed, constraint.Coordinate.String())
	}
	assert.Equal(t, []string{"com.acme:x:jar:2.0", "com.acme:y:jar:1.0", "com.acme:z:jar:3.0"}, managed)
}

func TestRepositoryFileCollectDependencyTree(t *testing.T) {
	adapter := NewRepositoryFileAdapter(repositoryFixture)
	managed := []types.DependencyConstraint{{Coordinate: mustCoord(t, "com.acme.util:util:1.1")}}

	tree, err := adapter.CollectDependencyTree(t.Context(), mustCoord(t, "com.acme.core:core-impl:2.0"), managed)
	require.NoError(t, err)
	require.Len(t, tree.Children, 3)
	assert.Equal(t, "com.acme.core:core-api:jar:2.0", tree.Children[0].Coordinate.String())
	assert.Equal(t, "com.acme.util:util:jar:1.1", tree.Children[1].Coordinate.String())
	require.Len(t, tree.Children[1].Children, 1)
	assert.Equal(t, "org.thirdparty:lib:jar:1.5", tree.Children[1].Children[0].Coordinate.String())
	assert.Len(t, tree.Children[1].Children[0].Children, 1)
	assert.Equal(t, "test", tree.Children[2].Scope)
}

func TestRepositoryFileExtensionsAndInlineRelease(t *testing.T) {
	adapter := NewRepositoryFileAdapter(repositoryFixture)
	appMain := mustCoord(t, "com.acme.app:app-main:1.0")

	edges, err := adapter.ExtensionEdges(t.Context(), appMain)
	require.NoError(t, err)
	assert.Equal(t, []types.ArtifactCoordinate{mustCoord(t, "com.acme.core:core-api:2.0")}, edges.Runtime)
	assert.Equal(t, []types.ArtifactCoordinate{mustCoord(t, "com.acme.log:log-api:3.0")}, edges.BuildTime)

	id, ok, err := adapter.InlineRelease(appMain)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "github.com/acme/app#1.0", id.String())

	_, ok, err = adapter.InlineRelease(mustCoord(t, "com.acme.core:core-api:2.0"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryFileErrors(t *testing.T) {
	_, err := NewRepositoryFileAdapter(filepath.Join(t.TempDir(), "missing.yaml")).Resolve(t.Context(), mustCoord(t, "com.acme:x:1.0"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))

	path := filepath.Join(t.TempDir(), "repository.yaml")
	require.NoError(t, os.WriteFile(path, []byte("artifacts:\n  - coordinate: com.acme:x:1.0\n  - coordinate: com.acme:x:jar:1.0\n"), 0644))
	_, err = NewRepositoryFileAdapter(path).Resolve(t.Context(), mustCoord(t, "com.acme:x:1.0"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
