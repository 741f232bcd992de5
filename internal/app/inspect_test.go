package app

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomkit/internal/types"
)

func TestInspectSummarizesOrigins(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "platform", types.ManifestFile{
		Coordinate: "com.acme:platform:pom:1.0",
		Releases: []types.ManifestRelease{
			{Origin: "github.com/acme/core", Version: "2.0", Artifacts: []string{"com.acme.core:core-api:2.0", "com.acme.core:core-impl:2.0", "com.acme.core:core-util:2.1"}},
			{Origin: "github.com/acme/log", Version: "3.0", Artifacts: []string{"com.acme.log:log-api:3.0"}},
			{Origin: "github.com/acme/log", Version: "3.1", Artifacts: []string{"com.acme.log:log-impl:3.1"}},
		},
	})

	result, err := NewService().Inspect(t.Context(), InspectRequest{ManifestPath: path})
	require.NoError(t, err)

	assert.Equal(t, "platform", result.Coordinate.ArtifactID)
	assert.Equal(t, 5, result.Artifacts)
	want := []InspectOriginSummary{
		{
			Origin: "github.com/acme/core",
			Releases: []InspectReleaseSummary{
				{Version: "2.0", Artifacts: 3, ArtifactVersions: []string{"2.0", "2.1"}},
			},
		},
		{
			Origin: "github.com/acme/log",
			Releases: []InspectReleaseSummary{
				{Version: "3.0", Artifacts: 1, ArtifactVersions: []string{"3.0"}},
				{Version: "3.1", Artifacts: 1, ArtifactVersions: []string{"3.1"}},
			},
		},
	}
	if diff := cmp.Diff(want, result.Origins); diff != "" {
		t.Fatalf("unexpected origins (-want +got):\n%s", diff)
	}
	assert.Equal(t, []types.ReleaseOrigin{"github.com/acme/log"}, result.Split)
}

func TestInspectRequiresManifest(t *testing.T) {
	_, err := NewService().Inspect(t.Context(), InspectRequest{})
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
