package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomkit/internal/types"
)

func TestManifestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	adapter := NewManifestFileAdapter(dir)
	manifest := types.ManifestFile{
		Coordinate: "com.acme:app:pom:1.0",
		Releases: []types.ManifestRelease{
			{Origin: "github.com/acme/core", Version: "2.0", Artifacts: []string{"com.acme.core:core-api:jar:2.0"}},
		},
	}
	require.NoError(t, adapter.WriteManifest("com.acme/app 1.0", manifest))

	path := filepath.Join(dir, "com.acme_app_1.0.yaml")
	_, err := os.Stat(path)
	require.NoError(t, err)

	got, err := adapter.ReadManifest(path)
	require.NoError(t, err)
	if diff := cmp.Diff(manifest, got); diff != "" {
		t.Fatalf("unexpected manifest (-want +got):\n%s", diff)
	}
}

func TestManifestFileErrors(t *testing.T) {
	err := NewManifestFileAdapter(t.TempDir()).WriteManifest(" ", types.ManifestFile{})
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	err = NewManifestFileAdapter("").WriteManifest("app", types.ManifestFile{})
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	_, err = NewManifestFileAdapter("").ReadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("releases: [\n"), 0644))
	_, err = NewManifestFileAdapter("").ReadManifest(path)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
