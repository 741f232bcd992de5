package app

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func platformBuildSetRequest(t *testing.T) BuildSetRequest {
	return BuildSetRequest{
		Target:      "com.acme:platform:pom:1.0",
		Repository:  fixturePath(t, "repository.yaml"),
		ReleaseMap:  fixturePath(t, "release-map.yaml"),
		OutputDir:   t.TempDir(),
		DepthLimit:  -1,
		ExcludeKeys: []string{"com.acme.legacy:old"},
	}
}

func TestBuildSetParallelMatchesSequential(t *testing.T) {
	sequential, err := NewService().BuildSet(t.Context(), platformBuildSetRequest(t))
	require.NoError(t, err)

	req := platformBuildSetRequest(t)
	req.Parallel = 4
	parallel, err := NewService().BuildSet(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, sequential.ToBuild, parallel.ToBuild)
	assert.Equal(t, sequential.Summary, parallel.Summary)
	assert.Equal(t, sequential.Order, parallel.Order)
	assert.Equal(t, 4, sequential.Summary.Accepted)
}

func TestBuildSetDepthZeroKeepsRootsOnly(t *testing.T) {
	req := platformBuildSetRequest(t)
	req.DepthLimit = 0
	req.ExcludeParentAncestry = true
	result, err := NewService().BuildSet(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Summary.Accepted)
	assert.Positive(t, result.Summary.Remaining)
}

func TestBuildSetPolicyFromRequest(t *testing.T) {
	policy, err := buildSetPolicy(BuildSetRequest{
		DepthLimit:         2,
		IncludeKeys:        []string{" com.acme:x "},
		ExcludeCoordinates: []string{"com.acme:y:1.0"},
		NoRemaining:        true,
		ExcludeScopes:      []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, policy.DepthLimit)
	assert.False(t, policy.ReportRemaining)
	assert.Equal(t, "com.acme:x:jar", policy.IncludeKeys[0].String())
	assert.Empty(t, policy.ExcludeScopes)

	policy, err = buildSetPolicy(BuildSetRequest{DepthLimit: -1})
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "provided", "system"}, policy.ExcludeScopes)

	_, err = buildSetPolicy(BuildSetRequest{IncludeKeys: []string{"broken"}})
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestBuildSetRequestValidation(t *testing.T) {
	_, err := NewService().BuildSet(t.Context(), BuildSetRequest{OutputDir: t.TempDir()})
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	req := platformBuildSetRequest(t)
	req.Target = "com.acme:missing:pom:1.0"
	_, err = NewService().BuildSet(t.Context(), req)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
