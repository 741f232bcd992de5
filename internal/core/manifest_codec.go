package core

import (
	"fmt"

	"bomkit/internal/types"
)

// EncodeManifest converts a decomposed manifest to its persisted form.
// Releases and artifacts come out in a stable order.
func EncodeManifest(bom DecomposedBom) types.ManifestFile {
	file := types.ManifestFile{Coordinate: bom.Coordinate().String()}
	for _, release := range bom.Releases() {
		entry := types.ManifestRelease{
			Origin:  string(release.ID().Origin),
			Version: string(release.ID().Version),
		}
		for _, dep := range release.Dependencies() {
			entry.Artifacts = append(entry.Artifacts, dep.Coordinate.String())
		}
		file.Releases = append(file.Releases, entry)
	}
	return file
}

// DecodeManifest rebuilds a decomposed manifest, enforcing key uniqueness
// across releases.
func DecodeManifest(file types.ManifestFile) (DecomposedBom, error) {
	coord, err := ParseCoordinate(file.Coordinate)
	if err != nil {
		return DecomposedBom{}, err
	}
	builder := NewDecomposedBomBuilder(coord)
	for _, release := range file.Releases {
		if release.Origin == "" || release.Version == "" {
			return DecomposedBom{}, configurationError(fmt.Sprintf("manifest %s has a release without origin or version", file.Coordinate))
		}
		id := types.ReleaseID{Origin: types.ReleaseOrigin(release.Origin), Version: types.ReleaseVersion(release.Version)}
		for _, raw := range release.Artifacts {
			artifact, err := ParseCoordinate(raw)
			if err != nil {
				return DecomposedBom{}, err
			}
			builder.Add(types.ProjectDependency{Release: id, Coordinate: artifact})
		}
	}
	return builder.Build()
}
