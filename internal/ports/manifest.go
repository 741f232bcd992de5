package ports

import "bomkit/internal/types"

// ManifestWriterPort persists a decomposed manifest.
type ManifestWriterPort interface {
	WriteManifest(name string, manifest types.ManifestFile) error
}

// ManifestReaderPort loads a previously persisted manifest.
type ManifestReaderPort interface {
	ReadManifest(path string) (types.ManifestFile, error)
}
