package core

import (
	"context"
	"errors"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/rs/zerolog/log"

	"bomkit/internal/ports"
	"bomkit/internal/types"
)

// ReleaseGraph links the releases of a build set. An edge runs from a
// release to every release it needs built first.
type ReleaseGraph struct {
	g         graph.Graph[string, types.ReleaseID]
	artifacts map[types.ReleaseID][]types.ArtifactCoordinate
}

func releaseHash(id types.ReleaseID) string {
	return id.String()
}

// BuildReleaseGraph classifies every accepted artifact and connects the
// releases along the artifacts' dependency edges. Edges inside one
// release are dropped.
func BuildReleaseGraph(ctx context.Context, releases ports.ReleaseIDResolverPort, result *BuildSetResult) (*ReleaseGraph, error) {
	if releases == nil {
		return nil, configurationError("release graph requires a release id resolver")
	}
	rg := &ReleaseGraph{
		g:         graph.New(releaseHash, graph.Directed()),
		artifacts: map[types.ReleaseID][]types.ArtifactCoordinate{},
	}
	owner := map[types.ArtifactCoordinate]types.ReleaseID{}
	for _, coord := range result.ToBuild() {
		id, err := releases.ResolveRelease(ctx, coord)
		if err != nil {
			if IsClassificationError(err) || IsResolutionError(err) {
				return nil, classificationError(coord, err)
			}
			return nil, err
		}
		owner[coord] = id
		rg.artifacts[id] = append(rg.artifacts[id], coord)
		if err := rg.g.AddVertex(id); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, err
		}
	}
	for _, coord := range result.ToBuild() {
		node, _ := result.Node(coord)
		from := owner[coord]
		for _, dep := range node.DependsOn() {
			to, ok := owner[dep]
			if !ok || to == from {
				continue
			}
			err := rg.g.AddEdge(releaseHash(from), releaseHash(to))
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, err
			}
		}
	}
	log.Ctx(ctx).Debug().Int("releases", len(rg.artifacts)).Msg("release graph built")
	return rg, nil
}

func (rg *ReleaseGraph) Len() int {
	return len(rg.artifacts)
}

// Order lists releases so that each one follows every release it depends
// on. The walk is a depth-first postorder starting from releases nothing
// depends on, taken in lexical order. A cycle is broken at the edge that
// closes it.
func (rg *ReleaseGraph) Order() ([]types.ReleaseRepo, error) {
	adjacency, err := rg.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	predecessors, err := rg.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	hashes := make([]string, 0, len(adjacency))
	for hash := range adjacency {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(hashes))
	order := make([]string, 0, len(hashes))
	var visit func(hash string)
	visit = func(hash string) {
		if state[hash] != unvisited {
			return
		}
		state[hash] = visiting
		targets := make([]string, 0, len(adjacency[hash]))
		for target := range adjacency[hash] {
			targets = append(targets, target)
		}
		sort.Strings(targets)
		for _, target := range targets {
			visit(target)
		}
		state[hash] = done
		order = append(order, hash)
	}
	for _, hash := range hashes {
		if len(predecessors[hash]) == 0 {
			visit(hash)
		}
	}
	// Vertices only reachable through a cycle.
	for _, hash := range hashes {
		visit(hash)
	}

	repos := make([]types.ReleaseRepo, 0, len(order))
	for _, hash := range order {
		id, err := rg.g.Vertex(hash)
		if err != nil {
			return nil, err
		}
		artifacts := append([]types.ArtifactCoordinate(nil), rg.artifacts[id]...)
		SortCoordinates(artifacts)
		repo := types.ReleaseRepo{ID: id, Artifacts: artifacts}
		targets := make([]string, 0, len(adjacency[hash]))
		for target := range adjacency[hash] {
			targets = append(targets, target)
		}
		sort.Strings(targets)
		for _, target := range targets {
			dep, err := rg.g.Vertex(target)
			if err != nil {
				return nil, err
			}
			repo.DependsOn = append(repo.DependsOn, dep)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}
