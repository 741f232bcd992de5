package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/core"
	"bomkit/internal/types"
)

func (s Service) Filter(ctx context.Context, req FilterRequest) (FilterResult, error) {
	if strings.TrimSpace(req.ManifestPath) == "" {
		return FilterResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return FilterResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	supported, err := core.ParseKeys(trimAll(req.Supported))
	if err != nil {
		return FilterResult{}, err
	}
	file, err := s.ManifestReader.ReadManifest(req.ManifestPath)
	if err != nil {
		return FilterResult{}, err
	}
	bom, err := core.DecodeManifest(file)
	if err != nil {
		return FilterResult{}, err
	}
	sources, err := s.openSources(ctx, types.SourcesSpec{Repository: req.Repository})
	if err != nil {
		return FilterResult{}, err
	}
	defer sources.Close()

	filtered, err := core.NewExtensionFilter(sources.Extensions).Filter(ctx, bom, supported)
	if err != nil {
		return FilterResult{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = bom.Coordinate().ArtifactID + "-filtered"
	}
	if err := s.manifests(req.OutputDir).WriteManifest(name, core.EncodeManifest(filtered.Bom)); err != nil {
		return FilterResult{}, err
	}
	if err := s.reports(req.OutputDir).WriteFilterReport(filtered.RefCounts, filtered.Dropped); err != nil {
		return FilterResult{}, err
	}
	return FilterResult{Kept: filtered.Bom.Len(), Dropped: filtered.Dropped}, nil
}

func (s Service) Diff(ctx context.Context, req DiffRequest) (DiffResult, error) {
	if strings.TrimSpace(req.FromPath) == "" || strings.TrimSpace(req.ToPath) == "" {
		return DiffResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("two manifest paths are required")
	}
	from, err := s.readBom(req.FromPath)
	if err != nil {
		return DiffResult{}, err
	}
	to, err := s.readBom(req.ToPath)
	if err != nil {
		return DiffResult{}, err
	}
	return DiffResult{
		From: from.Coordinate(),
		To:   to.Coordinate(),
		Diff: from.Diff(to),
	}, nil
}

func (s Service) readBom(path string) (core.DecomposedBom, error) {
	file, err := s.ManifestReader.ReadManifest(path)
	if err != nil {
		return core.DecomposedBom{}, err
	}
	return core.DecodeManifest(file)
}
