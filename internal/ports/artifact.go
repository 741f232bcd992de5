package ports

import (
	"context"

	"bomkit/internal/types"
)

// ArtifactResolverPort fetches artifacts, descriptors and live dependency
// trees from a package repository. Implementations report a missing
// artifact with errbuilder.CodeNotFound; any other code means the
// repository itself is unavailable.
type ArtifactResolverPort interface {
	// Resolve confirms the artifact exists and returns its local path.
	Resolve(ctx context.Context, coord types.ArtifactCoordinate) (string, error)

	// ResolveDescriptor reads the declared parent, imports, managed
	// constraints and dependencies of a package descriptor.
	ResolveDescriptor(ctx context.Context, coord types.ArtifactCoordinate) (types.Descriptor, error)

	// CollectDependencyTree builds the scope-filtered dependency tree of
	// root with versions managed by the given constraints.
	CollectDependencyTree(ctx context.Context, root types.ArtifactCoordinate, managed []types.DependencyConstraint) (types.DependencyNode, error)
}
