package core

import (
	"context"
	"sync"

	"bomkit/internal/ports"
	"bomkit/internal/types"
)

// CachingReleaseResolver memoizes release classification for the lifetime
// of the value. Pass the same instance to every component of a run to
// share lookups; create a new one per run to keep runs independent.
type CachingReleaseResolver struct {
	Next ports.ReleaseIDResolverPort

	mu     sync.Mutex
	cached map[types.ArtifactCoordinate]types.ReleaseID
}

func NewCachingReleaseResolver(next ports.ReleaseIDResolverPort) *CachingReleaseResolver {
	return &CachingReleaseResolver{
		Next:   next,
		cached: map[types.ArtifactCoordinate]types.ReleaseID{},
	}
}

func (c *CachingReleaseResolver) ResolveRelease(ctx context.Context, coord types.ArtifactCoordinate) (types.ReleaseID, error) {
	coord = coord.Normalized()
	c.mu.Lock()
	if id, ok := c.cached[coord]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	id, err := c.Next.ResolveRelease(ctx, coord)
	if err != nil {
		return types.ReleaseID{}, err
	}
	c.mu.Lock()
	c.cached[coord] = id
	c.mu.Unlock()
	return id, nil
}

func (c *CachingReleaseResolver) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cached)
}

var _ ports.ReleaseIDResolverPort = (*CachingReleaseResolver)(nil)
