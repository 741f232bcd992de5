package core

import (
	"context"

	"github.com/rs/zerolog/log"

	"bomkit/internal/ports"
	"bomkit/internal/types"
)

// ReleaseGrouper decomposes a flat constraint list into releases.
type ReleaseGrouper struct {
	Releases ports.ReleaseIDResolverPort
	// SkipUnclassified logs and skips artifacts the release resolver
	// cannot classify instead of failing the whole manifest.
	SkipUnclassified bool
}

// Decomposition is a decomposed manifest plus the artifacts that were
// left out because they could not be classified.
type Decomposition struct {
	Bom          DecomposedBom
	Unclassified []types.ArtifactCoordinate
}

func NewReleaseGrouper(releases ports.ReleaseIDResolverPort) ReleaseGrouper {
	return ReleaseGrouper{Releases: releases}
}

func (g ReleaseGrouper) Decompose(ctx context.Context, manifest types.ArtifactCoordinate, constraints []types.DependencyConstraint) (Decomposition, error) {
	if g.Releases == nil {
		return Decomposition{}, configurationError("release grouper requires a release id resolver")
	}
	builder := NewDecomposedBomBuilder(manifest)
	seen := map[types.ArtifactKey]struct{}{}
	var unclassified []types.ArtifactCoordinate
	for _, constraint := range constraints {
		coord := constraint.Coordinate.Normalized()
		if _, ok := seen[coord.Key()]; ok {
			continue
		}
		seen[coord.Key()] = struct{}{}

		id, err := g.Releases.ResolveRelease(ctx, coord)
		if err != nil {
			if !IsClassificationError(err) && !IsResolutionError(err) {
				return Decomposition{}, err
			}
			if g.SkipUnclassified {
				log.Ctx(ctx).Warn().Str("artifact", coord.String()).Err(err).Msg("skipping unclassified artifact")
				unclassified = append(unclassified, coord)
				continue
			}
			return Decomposition{}, classificationError(coord, err)
		}
		builder.Add(types.ProjectDependency{Release: id, Coordinate: coord})
	}
	bom, err := builder.Build()
	if err != nil {
		return Decomposition{}, err
	}
	log.Ctx(ctx).Debug().
		Str("manifest", manifest.String()).
		Int("artifacts", bom.Len()).
		Int("releases", len(bom.releases)).
		Msg("manifest decomposed")
	return Decomposition{Bom: bom, Unclassified: unclassified}, nil
}
