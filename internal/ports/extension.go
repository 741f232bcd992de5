package ports

import (
	"context"

	"bomkit/internal/types"
)

// ExtensionDescriptorPort reads the runtime and build-time edges of an
// extension artifact.
type ExtensionDescriptorPort interface {
	ExtensionEdges(ctx context.Context, coord types.ArtifactCoordinate) (types.ExtensionEdges, error)
}
