package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"bomkit/internal/core"
	"bomkit/internal/types"
)

// applyPlatformDefaults fills request fields left empty from the platform
// file. Explicit request values win.
func applyPlatformDefaults(req *ComposeRequest, cfg types.PlatformConfig) {
	if strings.TrimSpace(req.OutputDir) == "" {
		req.OutputDir = cfg.Output
	}
	if strings.TrimSpace(req.Repository) == "" {
		req.Repository = cfg.Sources.Repository
	}
	if strings.TrimSpace(req.ReleaseMap) == "" {
		req.ReleaseMap = cfg.Sources.ReleaseMap
	}
	if strings.TrimSpace(req.ReleaseCache) == "" {
		req.ReleaseCache = cfg.Sources.ReleaseCache
	}
	if strings.TrimSpace(req.Remote) == "" {
		req.Remote = cfg.Sources.Remote
	}
	if strings.TrimSpace(req.RemoteUser) == "" {
		req.RemoteUser = cfg.Sources.RemoteUser
	}
	req.SkipFailedMembers = req.SkipFailedMembers || cfg.Options.SkipFailedMembers
	req.SkipUnclassified = req.SkipUnclassified || cfg.Options.SkipUnclassified
}

func (s Service) Compose(ctx context.Context, req ComposeRequest) (ComposeResult, error) {
	platformPath := strings.TrimSpace(req.PlatformPath)
	if platformPath == "" {
		return ComposeResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("platform file path is required")
	}
	cfg, err := s.ConfigLoader.LoadPlatform(platformPath)
	if err != nil {
		return ComposeResult{}, err
	}
	applyPlatformDefaults(&req, cfg)
	if strings.TrimSpace(req.OutputDir) == "" {
		return ComposeResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	composeReq, _, err := validatePlatform(cfg)
	if err != nil {
		return ComposeResult{}, err
	}
	composeReq.SkipFailedMembers = req.SkipFailedMembers

	sources, err := s.openSources(ctx, types.SourcesSpec{
		Repository:     req.Repository,
		ReleaseMap:     req.ReleaseMap,
		ReleaseCache:   req.ReleaseCache,
		Remote:         req.Remote,
		RemoteUser:     req.RemoteUser,
		RemotePassword: req.RemotePassword,
	})
	if err != nil {
		return ComposeResult{}, err
	}
	defer sources.Close()

	composer := core.NewManifestComposer(sources.Artifacts, sources.Releases)
	composer.Metrics = s.Metrics
	composer.SkipUnclassified = req.SkipUnclassified
	composed, err := composer.Compose(ctx, composeReq)
	if err != nil {
		return ComposeResult{}, err
	}

	name := platformName(cfg)
	writer := s.manifests(req.OutputDir)
	if err := writer.WriteManifest(name, core.EncodeManifest(composed.Platform)); err != nil {
		return ComposeResult{}, err
	}
	result := ComposeResult{
		PlatformName: name,
		OutputDir:    req.OutputDir,
		Artifacts:    composed.Platform.Len(),
		Releases:     len(composed.Platform.Releases()),
		Failed:       composed.Failed,
		Unclassified: composed.BaseUnclassified,
		Records:      len(composed.Records),
	}
	for _, member := range composed.Members {
		if err := writer.WriteManifest(member.Config.Name, core.EncodeManifest(member.Aligned)); err != nil {
			return ComposeResult{}, err
		}
		result.Members = append(result.Members, member.Config.Name)
		result.Unclassified = append(result.Unclassified, member.Unclassified...)
	}
	if err := s.reports(req.OutputDir).WriteAlignmentReport(composed.Records); err != nil {
		return ComposeResult{}, err
	}
	log.Ctx(ctx).Info().
		Str("platform", name).
		Int("artifacts", result.Artifacts).
		Int("releases", result.Releases).
		Int("failed_members", len(result.Failed)).
		Msg("platform manifest written")
	return result, nil
}
