package app

import (
	"context"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bomkit/internal/core"
	"bomkit/internal/types"
)

func buildSetPolicy(req BuildSetRequest) (types.BuildSetPolicy, error) {
	policy := types.DefaultBuildSetPolicy()
	policy.DepthLimit = req.DepthLimit
	policy.IncludeNonManaged = req.IncludeNonManaged
	policy.IncludeGroupIDs = trimAll(req.IncludeGroupIDs)
	policy.ExcludeGroupIDs = trimAll(req.ExcludeGroupIDs)
	policy.ExcludeParentAncestry = req.ExcludeParentAncestry
	policy.ExcludeTransitiveImports = req.ExcludeTransitiveImports
	policy.ReportRemaining = !req.NoRemaining
	if req.ExcludeScopes != nil {
		policy.ExcludeScopes = trimAll(req.ExcludeScopes)
	}
	var err error
	if policy.IncludeKeys, err = core.ParseKeys(trimAll(req.IncludeKeys)); err != nil {
		return types.BuildSetPolicy{}, err
	}
	if policy.ExcludeKeys, err = core.ParseKeys(trimAll(req.ExcludeKeys)); err != nil {
		return types.BuildSetPolicy{}, err
	}
	if policy.IncludeCoordinates, err = core.ParseCoordinates(trimAll(req.IncludeCoordinates)); err != nil {
		return types.BuildSetPolicy{}, err
	}
	if policy.ExcludeCoordinates, err = core.ParseCoordinates(trimAll(req.ExcludeCoordinates)); err != nil {
		return types.BuildSetPolicy{}, err
	}
	return policy, nil
}

func (s Service) BuildSet(ctx context.Context, req BuildSetRequest) (BuildSetResult, error) {
	if strings.TrimSpace(req.Target) == "" {
		return BuildSetResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("target manifest is required")
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return BuildSetResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	target, err := core.ParseCoordinate(req.Target)
	if err != nil {
		return BuildSetResult{}, err
	}
	assert.NotEmpty(ctx, target.Version, "target version must be set")
	roots, err := core.ParseCoordinates(trimAll(req.Roots))
	if err != nil {
		return BuildSetResult{}, err
	}
	policy, err := buildSetPolicy(req)
	if err != nil {
		return BuildSetResult{}, err
	}

	sources, err := s.openSources(ctx, types.SourcesSpec{
		Repository:     req.Repository,
		ReleaseMap:     req.ReleaseMap,
		ReleaseCache:   req.ReleaseCache,
		Remote:         req.Remote,
		RemoteUser:     req.RemoteUser,
		RemotePassword: req.RemotePassword,
	})
	if err != nil {
		return BuildSetResult{}, err
	}
	defer sources.Close()

	resolver := core.NewBuildSetResolver(sources.Artifacts)
	resolver.Metrics = s.Metrics
	result, err := s.resolveBuildSet(ctx, resolver, target, roots, policy, req.Parallel)
	if err != nil {
		return BuildSetResult{}, err
	}

	graph, err := core.BuildReleaseGraph(ctx, sources.Releases, result)
	if err != nil {
		return BuildSetResult{}, err
	}
	order, err := graph.Order()
	if err != nil {
		return BuildSetResult{}, err
	}

	reports := s.reports(req.OutputDir)
	if err := reports.WriteBuildSet(result.ToBuild(), result.Skipped(), result.Remaining()); err != nil {
		return BuildSetResult{}, err
	}
	if err := reports.WriteReleaseOrder(order); err != nil {
		return BuildSetResult{}, err
	}
	summary := result.Summary()
	if err := reports.WriteSummary(summary, result.Failures()); err != nil {
		return BuildSetResult{}, err
	}
	log.Ctx(ctx).Info().
		Str("target", target.String()).
		Int("accepted", summary.Accepted).
		Int("releases", len(order)).
		Int("errors", summary.Errors).
		Msg("build set written")
	return BuildSetResult{
		Summary:  summary,
		Failures: result.Failures(),
		Order:    order,
		ToBuild:  result.ToBuild(),
	}, nil
}

// resolveBuildSet runs one resolver pass per root in parallel when
// parallel > 1 and merges the results. Each pass owns its walk state.
func (s Service) resolveBuildSet(ctx context.Context, resolver core.BuildSetResolver, target types.ArtifactCoordinate, roots []types.ArtifactCoordinate, policy types.BuildSetPolicy, parallel int) (*core.BuildSetResult, error) {
	if parallel <= 1 {
		return resolver.Resolve(ctx, target, roots, policy)
	}
	if len(roots) == 0 {
		desc, err := resolver.Artifacts.ResolveDescriptor(ctx, target)
		if err != nil {
			return nil, err
		}
		for _, constraint := range desc.ManagedDependencies {
			roots = append(roots, constraint.Coordinate)
		}
	}
	results := make([]*core.BuildSetResult, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, root := range roots {
		g.Go(func() error {
			result, err := resolver.Resolve(gctx, target, []types.ArtifactCoordinate{root}, policy)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return core.MergeBuildSets(target, results...), nil
}
