package core

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"bomkit/internal/metrics"
	"bomkit/internal/policies"
	"bomkit/internal/ports"
	"bomkit/internal/types"
)

// ArtifactDependency is an accepted build-set node and the coordinates it
// depends on.
type ArtifactDependency struct {
	Coordinate types.ArtifactCoordinate
	Managed    bool
	Parent     *types.ArtifactCoordinate
	Imports    []types.ArtifactCoordinate
	Children   []types.ArtifactCoordinate
}

// DependsOn lists parent, imports and children in that order.
func (d ArtifactDependency) DependsOn() []types.ArtifactCoordinate {
	var out []types.ArtifactCoordinate
	if d.Parent != nil {
		out = append(out, *d.Parent)
	}
	out = append(out, d.Imports...)
	return append(out, d.Children...)
}

// BuildSetResult holds what must be built from source, what was skipped
// by policy and what was left outside the walk.
type BuildSetResult struct {
	Target     types.ArtifactCoordinate
	nodes      map[types.ArtifactCoordinate]*ArtifactDependency
	skipped    map[types.ArtifactCoordinate]struct{}
	remaining  map[types.ArtifactCoordinate]struct{}
	nonManaged map[types.ArtifactCoordinate]struct{}
	failures   []types.RootFailure
}

func newBuildSetResult(target types.ArtifactCoordinate) *BuildSetResult {
	return &BuildSetResult{
		Target:     target,
		nodes:      map[types.ArtifactCoordinate]*ArtifactDependency{},
		skipped:    map[types.ArtifactCoordinate]struct{}{},
		remaining:  map[types.ArtifactCoordinate]struct{}{},
		nonManaged: map[types.ArtifactCoordinate]struct{}{},
	}
}

func (r *BuildSetResult) ToBuild() []types.ArtifactCoordinate {
	out := make([]types.ArtifactCoordinate, 0, len(r.nodes))
	for coord := range r.nodes {
		out = append(out, coord)
	}
	SortCoordinates(out)
	return out
}

// Skipped excludes anything that was accepted through another path.
func (r *BuildSetResult) Skipped() []types.ArtifactCoordinate {
	return r.minusAccepted(r.skipped)
}

// Remaining excludes anything that was accepted through another path.
func (r *BuildSetResult) Remaining() []types.ArtifactCoordinate {
	return r.minusAccepted(r.remaining)
}

func (r *BuildSetResult) Failures() []types.RootFailure {
	return append([]types.RootFailure(nil), r.failures...)
}

func (r *BuildSetResult) Node(coord types.ArtifactCoordinate) (ArtifactDependency, bool) {
	node, ok := r.nodes[coord.Normalized()]
	if !ok {
		return ArtifactDependency{}, false
	}
	return *node, true
}

func (r *BuildSetResult) Contains(coord types.ArtifactCoordinate) bool {
	_, ok := r.nodes[coord.Normalized()]
	return ok
}

func (r *BuildSetResult) Summary() types.BuildSetSummary {
	return types.BuildSetSummary{
		Accepted:           len(r.nodes),
		Skipped:            len(r.Skipped()),
		NonManagedAccepted: len(r.nonManaged),
		Remaining:          len(r.Remaining()),
		Errors:             len(r.failures),
	}
}

func (r *BuildSetResult) minusAccepted(set map[types.ArtifactCoordinate]struct{}) []types.ArtifactCoordinate {
	out := make([]types.ArtifactCoordinate, 0, len(set))
	for coord := range set {
		if _, ok := r.nodes[coord]; ok {
			continue
		}
		out = append(out, coord)
	}
	SortCoordinates(out)
	return out
}

// MergeBuildSets combines per-root results of the same target. Node
// dependencies found in several results are unioned.
func MergeBuildSets(target types.ArtifactCoordinate, results ...*BuildSetResult) *BuildSetResult {
	merged := newBuildSetResult(target)
	for _, result := range results {
		if result == nil {
			continue
		}
		for coord, node := range result.nodes {
			existing, ok := merged.nodes[coord]
			if !ok {
				copied := *node
				copied.Imports = append([]types.ArtifactCoordinate(nil), node.Imports...)
				copied.Children = append([]types.ArtifactCoordinate(nil), node.Children...)
				merged.nodes[coord] = &copied
				continue
			}
			if existing.Parent == nil {
				existing.Parent = node.Parent
			}
			existing.Imports = unionCoordinates(existing.Imports, node.Imports)
			existing.Children = unionCoordinates(existing.Children, node.Children)
		}
		for coord := range result.skipped {
			merged.skipped[coord] = struct{}{}
		}
		for coord := range result.remaining {
			merged.remaining[coord] = struct{}{}
		}
		for coord := range result.nonManaged {
			merged.nonManaged[coord] = struct{}{}
		}
		merged.failures = append(merged.failures, result.failures...)
	}
	sort.SliceStable(merged.failures, func(i, j int) bool {
		return merged.failures[i].Root.String() < merged.failures[j].Root.String()
	})
	return merged
}

func unionCoordinates(a, b []types.ArtifactCoordinate) []types.ArtifactCoordinate {
	seen := make(map[types.ArtifactCoordinate]struct{}, len(a)+len(b))
	out := make([]types.ArtifactCoordinate, 0, len(a)+len(b))
	for _, list := range [][]types.ArtifactCoordinate{a, b} {
		for _, coord := range list {
			if _, ok := seen[coord]; ok {
				continue
			}
			seen[coord] = struct{}{}
			out = append(out, coord)
		}
	}
	return out
}

// DescriptorCache memoizes descriptor lookups. It is passed explicitly to
// a resolver so runs that should not share lookups do not.
type DescriptorCache struct {
	mu      sync.Mutex
	entries map[types.ArtifactCoordinate]types.Descriptor
}

func NewDescriptorCache() *DescriptorCache {
	return &DescriptorCache{entries: map[types.ArtifactCoordinate]types.Descriptor{}}
}

func (c *DescriptorCache) resolve(ctx context.Context, artifacts ports.ArtifactResolverPort, coord types.ArtifactCoordinate) (types.Descriptor, error) {
	if c == nil {
		return artifacts.ResolveDescriptor(ctx, coord)
	}
	c.mu.Lock()
	desc, ok := c.entries[coord]
	c.mu.Unlock()
	if ok {
		return desc, nil
	}
	desc, err := artifacts.ResolveDescriptor(ctx, coord)
	if err != nil {
		return types.Descriptor{}, err
	}
	c.mu.Lock()
	c.entries[coord] = desc
	c.mu.Unlock()
	return desc, nil
}

// BuildSetResolver walks live dependency trees to compute which artifacts
// of a target manifest must be built from source.
type BuildSetResolver struct {
	Artifacts   ports.ArtifactResolverPort
	Descriptors *DescriptorCache
	Metrics     *metrics.Collectors
}

func NewBuildSetResolver(artifacts ports.ArtifactResolverPort) BuildSetResolver {
	return BuildSetResolver{Artifacts: artifacts, Descriptors: NewDescriptorCache()}
}

// Resolve computes the build set of target for roots. With no roots every
// managed coordinate of target is a root. A root that cannot be resolved
// is reported as a failure; other roots still complete. Only an
// unavailable repository aborts the run.
func (b BuildSetResolver) Resolve(ctx context.Context, target types.ArtifactCoordinate, roots []types.ArtifactCoordinate, policy types.BuildSetPolicy) (*BuildSetResult, error) {
	if b.Artifacts == nil {
		return nil, configurationError("build-set resolver requires an artifact resolver")
	}
	filter, err := policies.NewArtifactFilter(policy)
	if err != nil {
		return nil, err
	}
	target = target.Normalized()
	desc, err := b.Descriptors.resolve(ctx, b.Artifacts, target)
	if err != nil {
		if IsResolutionError(err) {
			return nil, resolutionError(target, "manifest", err)
		}
		return nil, err
	}
	managed := make(map[types.ArtifactCoordinate]struct{}, len(desc.ManagedDependencies))
	for _, constraint := range desc.ManagedDependencies {
		managed[constraint.Coordinate.Normalized()] = struct{}{}
	}
	if len(roots) == 0 {
		for coord := range managed {
			roots = append(roots, coord)
		}
	}
	roots = dedupeCoordinates(roots)

	results := make([]*BuildSetResult, 0, len(roots))
	for _, root := range roots {
		walk := &walkContext{
			resolver:    b,
			policy:      policy,
			filter:      filter,
			managed:     managed,
			constraints: desc.ManagedDependencies,
			result:      newBuildSetResult(target),
			visited:     map[types.ArtifactCoordinate]int{},
			remainSeen:  map[types.ArtifactCoordinate]struct{}{},
			ancestors:   map[types.ArtifactCoordinate]struct{}{},
		}
		if err := walk.walkRoot(ctx, root); err != nil {
			if !recoverable(err) {
				return nil, err
			}
			log.Ctx(ctx).Warn().Str("root", root.String()).Err(err).Msg("root failed")
			failed := newBuildSetResult(target)
			failed.failures = []types.RootFailure{{Root: root, Message: err.Error()}}
			results = append(results, failed)
			continue
		}
		results = append(results, walk.result)
	}

	merged := MergeBuildSets(target, results...)
	summary := merged.Summary()
	b.Metrics.ObserveBuildSet(summary.Accepted, summary.Skipped, summary.NonManagedAccepted, summary.Remaining, summary.Errors)
	log.Ctx(ctx).Debug().
		Str("target", target.String()).
		Int("roots", len(roots)).
		Int("accepted", summary.Accepted).
		Int("skipped", summary.Skipped).
		Int("remaining", summary.Remaining).
		Int("errors", summary.Errors).
		Msg("build set resolved")
	return merged, nil
}

func dedupeCoordinates(coords []types.ArtifactCoordinate) []types.ArtifactCoordinate {
	seen := map[types.ArtifactCoordinate]struct{}{}
	out := make([]types.ArtifactCoordinate, 0, len(coords))
	for _, coord := range coords {
		coord = coord.Normalized()
		if _, ok := seen[coord]; ok {
			continue
		}
		seen[coord] = struct{}{}
		out = append(out, coord)
	}
	SortCoordinates(out)
	return out
}

// walkContext is the state of one root walk. Nodes are memoized by the
// smallest depth they were reached at.
type walkContext struct {
	resolver    BuildSetResolver
	policy      types.BuildSetPolicy
	filter      policies.ArtifactFilter
	managed     map[types.ArtifactCoordinate]struct{}
	constraints []types.DependencyConstraint
	result      *BuildSetResult
	visited     map[types.ArtifactCoordinate]int
	remainSeen  map[types.ArtifactCoordinate]struct{}
	ancestors   map[types.ArtifactCoordinate]struct{}
}

func (w *walkContext) walkRoot(ctx context.Context, root types.ArtifactCoordinate) error {
	root = root.Normalized()
	if w.filter.Excluded(root) {
		w.result.skipped[root] = struct{}{}
		return nil
	}
	tree, err := w.resolver.Artifacts.CollectDependencyTree(ctx, root, w.constraints)
	if err != nil {
		if IsResolutionError(err) {
			return resolutionError(root, "dependency tree", err)
		}
		return err
	}
	if len(tree.Children) == 0 {
		if _, err := w.resolver.Artifacts.Resolve(ctx, root); err != nil {
			if IsResolutionError(err) {
				return resolutionError(root, "artifact", err)
			}
			return err
		}
	}
	if tree.Coordinate.IsZero() {
		tree.Coordinate = root
	}
	return w.visit(ctx, tree, 0)
}

func (w *walkContext) withinDepth(depth int) bool {
	return w.policy.DepthLimit < 0 || depth <= w.policy.DepthLimit
}

func (w *walkContext) accepts(coord types.ArtifactCoordinate, managed bool) bool {
	switch {
	case managed, w.policy.IncludeNonManaged, w.filter.Included(coord):
		return true
	case !w.policy.ExcludeParentAncestry && coord.IsDescriptor():
		return true
	}
	return false
}

func (w *walkContext) visit(ctx context.Context, node types.DependencyNode, depth int) error {
	coord := node.Coordinate.Normalized()
	if w.filter.Excluded(coord) {
		return nil
	}
	if prev, ok := w.visited[coord]; ok && prev <= depth {
		return nil
	}
	w.visited[coord] = depth

	if !w.withinDepth(depth) {
		w.markRemaining(node)
		return nil
	}
	_, managed := w.managed[coord]
	if !w.accepts(coord, managed) {
		w.result.skipped[coord] = struct{}{}
		for _, child := range w.children(node) {
			w.markRemaining(child)
		}
		return nil
	}

	accepted := w.accept(coord, managed, !managed && (w.policy.IncludeNonManaged || w.filter.Included(coord)))
	if err := w.pullAncestry(ctx, accepted, true); err != nil {
		return err
	}
	for _, child := range w.children(node) {
		childCoord := child.Coordinate.Normalized()
		if !w.filter.Excluded(childCoord) {
			accepted.Children = unionCoordinates(accepted.Children, []types.ArtifactCoordinate{childCoord})
		}
		if err := w.visit(ctx, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// accept records coord in the build set. nonManaged is set only for nodes
// let in by the non-managed or include rules; ancestry descriptors are not
// counted.
func (w *walkContext) accept(coord types.ArtifactCoordinate, managed bool, nonManaged bool) *ArtifactDependency {
	node, ok := w.result.nodes[coord]
	if !ok {
		node = &ArtifactDependency{Coordinate: coord, Managed: managed}
		w.result.nodes[coord] = node
	}
	if nonManaged {
		w.result.nonManaged[coord] = struct{}{}
	}
	return node
}

// pullAncestry accepts the parent chain and imported manifests of node.
// Imports of imports are followed only when transitive imports are
// allowed.
func (w *walkContext) pullAncestry(ctx context.Context, node *ArtifactDependency, followImports bool) error {
	if w.policy.ExcludeParentAncestry {
		return nil
	}
	if _, ok := w.ancestors[node.Coordinate]; ok {
		return nil
	}
	w.ancestors[node.Coordinate] = struct{}{}

	desc, err := w.resolver.Descriptors.resolve(ctx, w.resolver.Artifacts, node.Coordinate)
	if err != nil {
		if IsResolutionError(err) {
			return resolutionError(node.Coordinate, "descriptor", err)
		}
		return err
	}
	if desc.Parent != nil {
		parent := desc.Parent.Normalized()
		if !w.filter.Excluded(parent) {
			node.Parent = &parent
			_, managed := w.managed[parent]
			ancestor := w.accept(parent, managed, false)
			if err := w.pullAncestry(ctx, ancestor, true); err != nil {
				return err
			}
		}
	}
	if !followImports {
		return nil
	}
	for _, imported := range desc.Imports {
		imported = imported.Normalized()
		if w.filter.Excluded(imported) {
			continue
		}
		node.Imports = unionCoordinates(node.Imports, []types.ArtifactCoordinate{imported})
		_, managed := w.managed[imported]
		ancestor := w.accept(imported, managed, false)
		if err := w.pullAncestry(ctx, ancestor, !w.policy.ExcludeTransitiveImports); err != nil {
			return err
		}
	}
	return nil
}

// markRemaining records node and its subtree as remaining. Excluded nodes
// are never remaining.
func (w *walkContext) markRemaining(node types.DependencyNode) {
	if !w.policy.ReportRemaining {
		return
	}
	coord := node.Coordinate.Normalized()
	if w.filter.Excluded(coord) {
		return
	}
	if _, ok := w.remainSeen[coord]; ok {
		return
	}
	w.remainSeen[coord] = struct{}{}
	w.result.remaining[coord] = struct{}{}
	for _, child := range w.children(node) {
		w.markRemaining(child)
	}
}

func (w *walkContext) children(node types.DependencyNode) []types.DependencyNode {
	out := make([]types.DependencyNode, 0, len(node.Children))
	for _, child := range node.Children {
		if w.filter.ExcludedScope(child.Scope) {
			continue
		}
		out = append(out, child)
	}
	return out
}
