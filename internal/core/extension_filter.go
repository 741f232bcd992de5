package core

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"bomkit/internal/ports"
	"bomkit/internal/types"
)

// ExtensionFilter trims a decomposed manifest down to what a set of
// supported extensions needs at runtime or build time.
type ExtensionFilter struct {
	Descriptors ports.ExtensionDescriptorPort
}

type FilterResult struct {
	Bom DecomposedBom
	// RefCounts holds, per kept artifact, how many supported extensions
	// reach it.
	RefCounts []types.KeyRefCount
	Dropped   []types.ArtifactKey
}

func NewExtensionFilter(descriptors ports.ExtensionDescriptorPort) ExtensionFilter {
	return ExtensionFilter{Descriptors: descriptors}
}

func (f ExtensionFilter) Filter(ctx context.Context, bom DecomposedBom, supported []types.ArtifactKey) (FilterResult, error) {
	if f.Descriptors == nil {
		return FilterResult{}, configurationError("extension filter requires an extension descriptor reader")
	}
	roots := append([]types.ArtifactKey(nil), supported...)
	for i := range roots {
		roots[i] = roots[i].Normalized()
	}
	SortKeys(roots)

	refs := map[types.ArtifactKey]int{}
	edges := map[types.ArtifactKey][]types.ArtifactKey{}
	counted := map[types.ArtifactKey]struct{}{}
	for _, root := range roots {
		if _, ok := counted[root]; ok {
			continue
		}
		counted[root] = struct{}{}
		if _, ok := bom.Lookup(root); !ok {
			log.Ctx(ctx).Warn().Str("extension", root.String()).Msg("supported extension is not in the manifest")
			continue
		}
		reached, err := f.reach(ctx, bom, root, edges)
		if err != nil {
			return FilterResult{}, err
		}
		for key := range reached {
			refs[key]++
		}
	}

	builder := NewDecomposedBomBuilder(bom.Coordinate())
	var result FilterResult
	for _, dep := range bom.Dependencies() {
		key := dep.Key()
		count, ok := refs[key]
		if !ok {
			result.Dropped = append(result.Dropped, key)
			continue
		}
		builder.Add(dep)
		result.RefCounts = append(result.RefCounts, types.KeyRefCount{Key: key, Count: count})
	}
	filtered, err := builder.Build()
	if err != nil {
		return FilterResult{}, err
	}
	result.Bom = filtered
	log.Ctx(ctx).Debug().
		Int("kept", filtered.Len()).
		Int("dropped", len(result.Dropped)).
		Msg("manifest filtered")
	return result, nil
}

// reach returns every in-manifest key reachable from root over runtime and
// build-time edges, root included. Edges are memoized across roots.
func (f ExtensionFilter) reach(ctx context.Context, bom DecomposedBom, root types.ArtifactKey, edges map[types.ArtifactKey][]types.ArtifactKey) (map[types.ArtifactKey]struct{}, error) {
	reached := map[types.ArtifactKey]struct{}{root: {}}
	queue := []types.ArtifactKey{root}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		next, ok := edges[key]
		if !ok {
			var err error
			next, err = f.edgesOf(ctx, bom, key)
			if err != nil {
				return nil, err
			}
			edges[key] = next
		}
		for _, target := range next {
			if _, ok := reached[target]; ok {
				continue
			}
			reached[target] = struct{}{}
			queue = append(queue, target)
		}
	}
	return reached, nil
}

func (f ExtensionFilter) edgesOf(ctx context.Context, bom DecomposedBom, key types.ArtifactKey) ([]types.ArtifactKey, error) {
	dep, ok := bom.Lookup(key)
	if !ok {
		return nil, nil
	}
	extension, err := f.Descriptors.ExtensionEdges(ctx, dep.Coordinate)
	if err != nil {
		if IsResolutionError(err) {
			return nil, resolutionError(dep.Coordinate, "extension descriptor", err)
		}
		return nil, err
	}
	seen := map[types.ArtifactKey]struct{}{}
	var out []types.ArtifactKey
	for _, list := range [][]types.ArtifactCoordinate{extension.Runtime, extension.BuildTime} {
		for _, coord := range list {
			target := coord.Key()
			if _, ok := bom.Lookup(target); !ok {
				continue
			}
			if _, ok := seen[target]; ok {
				continue
			}
			seen[target] = struct{}{}
			out = append(out, target)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
