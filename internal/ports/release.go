package ports

import (
	"context"

	"bomkit/internal/types"
)

// ReleaseIDResolverPort classifies an artifact by the upstream source
// release that produced it.
type ReleaseIDResolverPort interface {
	ResolveRelease(ctx context.Context, coord types.ArtifactCoordinate) (types.ReleaseID, error)
}

// ReleaseCacheStorePort lists and evicts persisted classifications.
type ReleaseCacheStorePort interface {
	Entries(ctx context.Context) ([]types.CacheEntry, error)
	Delete(ctx context.Context, coords []string) error
	Close() error
}
