package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomkit/internal/metrics"
	"bomkit/internal/types"
)

var targetBom = mustCoord("com.acme:target:pom:1.0")

func coords(raw ...string) []types.ArtifactCoordinate {
	out := make([]types.ArtifactCoordinate, 0, len(raw))
	for _, value := range raw {
		out = append(out, mustCoord(value))
	}
	return out
}

// chainRepository manages r, a and b where r -> a -> b.
func chainRepository() *fakeArtifacts {
	return newFakeArtifacts().
		manifest(targetBom.String(), "com.acme:r:1.0", "com.acme:a:1.0", "com.acme:b:1.0").
		exists("com.acme:a:1.0", "com.acme:b:1.0").
		tree(node("com.acme:r:1.0", node("com.acme:a:1.0", node("com.acme:b:1.0"))))
}

func policyWithDepth(depth int) types.BuildSetPolicy {
	policy := types.DefaultBuildSetPolicy()
	policy.DepthLimit = depth
	return policy
}

func TestBuildSetExcludedSubtreeIsNeitherBuiltNorRemaining(t *testing.T) {
	artifacts := newFakeArtifacts().
		manifest(targetBom.String(), "com.acme:r:1.0", "com.acme:a:1.0", "com.acme.internal:i:1.0", "com.acme.internal:j:1.0").
		exists("com.acme:a:1.0", "com.acme.internal:i:1.0", "com.acme.internal:j:1.0").
		tree(node("com.acme:r:1.0",
			node("com.acme:a:1.0",
				node("com.acme.internal:i:1.0", node("com.acme.internal:j:1.0")))))

	policy := types.DefaultBuildSetPolicy()
	policy.ExcludeGroupIDs = []string{"com.acme.internal"}

	result, err := NewBuildSetResolver(artifacts).Resolve(t.Context(), targetBom, coords("com.acme:r:1.0"), policy)
	require.NoError(t, err)
	assert.Equal(t, coords("com.acme:a:1.0", "com.acme:r:1.0"), result.ToBuild())
	assert.Empty(t, result.Remaining())
	assert.Empty(t, result.Skipped())

	accepted, ok := result.Node(mustCoord("com.acme:a:1.0"))
	require.True(t, ok)
	assert.Empty(t, accepted.Children)
}

func TestBuildSetDepthLimit(t *testing.T) {
	result, err := NewBuildSetResolver(chainRepository()).Resolve(t.Context(), targetBom, coords("com.acme:r:1.0"), policyWithDepth(1))
	require.NoError(t, err)
	assert.Equal(t, coords("com.acme:a:1.0", "com.acme:r:1.0"), result.ToBuild())
	assert.Equal(t, coords("com.acme:b:1.0"), result.Remaining())

	noReport := policyWithDepth(1)
	noReport.ReportRemaining = false
	result, err = NewBuildSetResolver(chainRepository()).Resolve(t.Context(), targetBom, coords("com.acme:r:1.0"), noReport)
	require.NoError(t, err)
	assert.Empty(t, result.Remaining())
}

func TestBuildSetDepthIsMonotonic(t *testing.T) {
	var previous []types.ArtifactCoordinate
	for depth := range 4 {
		result, err := NewBuildSetResolver(chainRepository()).Resolve(t.Context(), targetBom, coords("com.acme:r:1.0"), policyWithDepth(depth))
		require.NoError(t, err)
		current := result.ToBuild()
		assert.Subset(t, current, previous, "depth %d", depth)
		previous = current
	}
	assert.Len(t, previous, 3)
}

func TestBuildSetIsIdempotent(t *testing.T) {
	resolver := NewBuildSetResolver(chainRepository())
	first, err := resolver.Resolve(t.Context(), targetBom, nil, types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	second, err := resolver.Resolve(t.Context(), targetBom, nil, types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	assert.Equal(t, first.ToBuild(), second.ToBuild())
	assert.Equal(t, first.Summary(), second.Summary())

	releases := newFakeReleases().group("com.acme", "github.com/acme/r")
	order := func(result *BuildSetResult) []types.ReleaseRepo {
		graph, err := BuildReleaseGraph(t.Context(), releases, result)
		require.NoError(t, err)
		repos, err := graph.Order()
		require.NoError(t, err)
		return repos
	}
	if diff := cmp.Diff(order(first), order(second)); diff != "" {
		t.Fatalf("unexpected release order (-want +got):\n%s", diff)
	}
}

func TestBuildSetNonManagedNodes(t *testing.T) {
	artifacts := newFakeArtifacts().
		manifest(targetBom.String(), "com.acme:r:1.0").
		exists("org.other:n:1.0", "org.other:deep:1.0").
		tree(node("com.acme:r:1.0", node("org.other:n:1.0", node("org.other:deep:1.0"))))

	result, err := NewBuildSetResolver(artifacts).Resolve(t.Context(), targetBom, nil, types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	assert.Equal(t, coords("com.acme:r:1.0"), result.ToBuild())
	assert.Equal(t, coords("org.other:n:1.0"), result.Skipped())
	assert.Equal(t, coords("org.other:deep:1.0"), result.Remaining())

	policy := types.DefaultBuildSetPolicy()
	policy.IncludeGroupIDs = []string{"org.other"}
	result, err = NewBuildSetResolver(artifacts).Resolve(t.Context(), targetBom, nil, policy)
	require.NoError(t, err)
	assert.Len(t, result.ToBuild(), 3)
	assert.Equal(t, 2, result.Summary().NonManagedAccepted)
	assert.Empty(t, result.Skipped())
}

func TestBuildSetExcludedScopesAreNotFollowed(t *testing.T) {
	tree := node("com.acme:r:1.0", node("com.acme:a:1.0"))
	tree.Children = append(tree.Children, types.DependencyNode{Coordinate: mustCoord("com.acme:t:1.0"), Scope: "test"})
	artifacts := newFakeArtifacts().
		manifest(targetBom.String(), "com.acme:r:1.0", "com.acme:a:1.0", "com.acme:t:1.0").
		exists("com.acme:a:1.0", "com.acme:t:1.0").
		tree(tree)

	result, err := NewBuildSetResolver(artifacts).Resolve(t.Context(), targetBom, coords("com.acme:r:1.0"), types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	assert.Equal(t, coords("com.acme:a:1.0", "com.acme:r:1.0"), result.ToBuild())
}

func ancestryRepository() *fakeArtifacts {
	artifacts := newFakeArtifacts().
		manifest(targetBom.String(), "com.acme:r:1.0").
		tree(node("com.acme:r:1.0"))
	parent := mustCoord("com.acme:parent:pom:1.0")
	artifacts.descriptors[mustCoord("com.acme:r:1.0")] = types.Descriptor{Coordinate: mustCoord("com.acme:r:1.0"), Parent: &parent}
	artifacts.descriptors[parent] = types.Descriptor{Coordinate: parent, Imports: coords("com.acme:bom:pom:1.0")}
	artifacts.descriptors[mustCoord("com.acme:bom:pom:1.0")] = types.Descriptor{
		Coordinate: mustCoord("com.acme:bom:pom:1.0"),
		Imports:    coords("com.acme:nested-bom:pom:1.0"),
	}
	artifacts.exists("com.acme:nested-bom:pom:1.0")
	return artifacts
}

func TestBuildSetParentAncestryAndImports(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*types.BuildSetPolicy)
		want   []types.ArtifactCoordinate
	}{
		{
			name: "full ancestry",
			want: coords("com.acme:bom:pom:1.0", "com.acme:nested-bom:pom:1.0", "com.acme:parent:pom:1.0", "com.acme:r:1.0"),
		},
		{
			name:   "no transitive imports",
			modify: func(p *types.BuildSetPolicy) { p.ExcludeTransitiveImports = true },
			want:   coords("com.acme:bom:pom:1.0", "com.acme:parent:pom:1.0", "com.acme:r:1.0"),
		},
		{
			name:   "no ancestry",
			modify: func(p *types.BuildSetPolicy) { p.ExcludeParentAncestry = true },
			want:   coords("com.acme:r:1.0"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := types.DefaultBuildSetPolicy()
			if tt.modify != nil {
				tt.modify(&policy)
			}
			result, err := NewBuildSetResolver(ancestryRepository()).Resolve(t.Context(), targetBom, nil, policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.ToBuild())
		})
	}

	result, err := NewBuildSetResolver(ancestryRepository()).Resolve(t.Context(), targetBom, nil, types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	root, ok := result.Node(mustCoord("com.acme:r:1.0"))
	require.True(t, ok)
	assert.Equal(t, coords("com.acme:parent:pom:1.0"), root.DependsOn())
}

func TestBuildSetAncestryIsNotCountedAsNonManaged(t *testing.T) {
	result, err := NewBuildSetResolver(ancestryRepository()).Resolve(t.Context(), targetBom, nil, types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	assert.Len(t, result.ToBuild(), 4)
	assert.Equal(t, 0, result.Summary().NonManagedAccepted)

	policy := types.DefaultBuildSetPolicy()
	policy.IncludeNonManaged = true
	artifacts := newFakeArtifacts().
		manifest(targetBom.String(), "com.acme:r:1.0").
		exists("org.other:n:1.0").
		tree(node("com.acme:r:1.0", node("org.other:n:1.0")))
	parent := mustCoord("com.acme:parent:pom:1.0")
	artifacts.descriptors[mustCoord("com.acme:r:1.0")] = types.Descriptor{Coordinate: mustCoord("com.acme:r:1.0"), Parent: &parent}
	artifacts.exists(parent.String())

	result, err = NewBuildSetResolver(artifacts).Resolve(t.Context(), targetBom, nil, policy)
	require.NoError(t, err)
	assert.Equal(t, coords("com.acme:parent:pom:1.0", "com.acme:r:1.0", "org.other:n:1.0"), result.ToBuild())
	assert.Equal(t, 1, result.Summary().NonManagedAccepted)
}

func TestBuildSetRootFailureIsRecoverable(t *testing.T) {
	artifacts := chainRepository().tree(node("com.acme:ghost:1.0"))
	roots := coords("com.acme:r:1.0", "com.acme:missing:1.0", "com.acme:ghost:1.0")

	registry := prometheus.NewRegistry()
	resolver := NewBuildSetResolver(artifacts)
	resolver.Metrics = metrics.NewCollectors(registry)

	result, err := resolver.Resolve(t.Context(), targetBom, roots, types.DefaultBuildSetPolicy())
	require.NoError(t, err)
	assert.Len(t, result.ToBuild(), 3)
	failures := result.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, mustCoord("com.acme:ghost:1.0"), failures[0].Root)
	assert.Equal(t, mustCoord("com.acme:missing:1.0"), failures[1].Root)
	assert.Equal(t, 2, result.Summary().Errors)
	assert.InDelta(t, 2, testutil.ToFloat64(resolver.Metrics.RootFailures), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(resolver.Metrics.BuildSetAccepted), 0)
}

func TestBuildSetUnavailableRepositoryAborts(t *testing.T) {
	artifacts := chainRepository()
	artifacts.failures[mustCoord("com.acme:a:1.0")] = unavailable()

	_, err := NewBuildSetResolver(artifacts).Resolve(t.Context(), targetBom, nil, types.DefaultBuildSetPolicy())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}

func TestBuildSetMissingTargetIsResolutionError(t *testing.T) {
	_, err := NewBuildSetResolver(newFakeArtifacts()).Resolve(t.Context(), targetBom, nil, types.DefaultBuildSetPolicy())
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))
}

func TestBuildSetRejectsInconsistentPolicy(t *testing.T) {
	policy := types.DefaultBuildSetPolicy()
	policy.IncludeGroupIDs = []string{"com.acme"}
	policy.ExcludeGroupIDs = []string{"com.acme"}
	_, err := NewBuildSetResolver(chainRepository()).Resolve(t.Context(), targetBom, nil, policy)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestMergeBuildSetsMatchesSingleRun(t *testing.T) {
	artifacts := chainRepository().tree(node("com.acme:b:1.0"))
	resolver := NewBuildSetResolver(artifacts)
	policy := policyWithDepth(0)

	both, err := resolver.Resolve(t.Context(), targetBom, coords("com.acme:r:1.0", "com.acme:b:1.0"), policy)
	require.NoError(t, err)
	first, err := resolver.Resolve(t.Context(), targetBom, coords("com.acme:r:1.0"), policy)
	require.NoError(t, err)
	second, err := resolver.Resolve(t.Context(), targetBom, coords("com.acme:b:1.0"), policy)
	require.NoError(t, err)

	merged := MergeBuildSets(targetBom, first, nil, second)
	assert.Equal(t, both.ToBuild(), merged.ToBuild())
	assert.Equal(t, coords("com.acme:a:1.0"), merged.Remaining())
	assert.Equal(t, both.Summary(), merged.Summary())
}
