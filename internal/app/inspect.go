package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Inspect summarizes a release-aligned manifest by origin. Origins that
// carry more than one release version are reported as split.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	if strings.TrimSpace(req.ManifestPath) == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	bom, err := s.readBom(req.ManifestPath)
	if err != nil {
		return InspectResult{}, err
	}
	byOrigin := bom.ReleasesByOrigin()
	result := InspectResult{Coordinate: bom.Coordinate(), Artifacts: bom.Len()}
	for _, origin := range bom.Origins() {
		summary := InspectOriginSummary{Origin: origin}
		for _, release := range byOrigin[origin] {
			summary.Releases = append(summary.Releases, InspectReleaseSummary{
				Version:          release.ID().Version,
				Artifacts:        release.Len(),
				ArtifactVersions: release.ArtifactVersions(),
			})
		}
		if len(summary.Releases) > 1 {
			result.Split = append(result.Split, origin)
		}
		result.Origins = append(result.Origins, summary)
	}
	return result, nil
}
