package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/types"
)

func mustCoord(raw string) types.ArtifactCoordinate {
	coord, err := ParseCoordinate(raw)
	if err != nil {
		panic(err)
	}
	return coord
}

func mustKey(raw string) types.ArtifactKey {
	key, err := ParseKey(raw)
	if err != nil {
		panic(err)
	}
	return key
}

func constraints(raw ...string) []types.DependencyConstraint {
	out := make([]types.DependencyConstraint, 0, len(raw))
	for _, value := range raw {
		out = append(out, types.DependencyConstraint{Coordinate: mustCoord(value)})
	}
	return out
}

func release(origin string, version string) types.ReleaseID {
	return types.ReleaseID{Origin: types.ReleaseOrigin(origin), Version: types.ReleaseVersion(version)}
}

func node(raw string, children ...types.DependencyNode) types.DependencyNode {
	return types.DependencyNode{Coordinate: mustCoord(raw), Scope: "compile", Children: children}
}

// fakeArtifacts is an in-memory repository. Coordinates with a descriptor,
// a tree or an existing entry resolve; everything else is not found.
type fakeArtifacts struct {
	mu          sync.Mutex
	descriptors map[types.ArtifactCoordinate]types.Descriptor
	trees       map[types.ArtifactCoordinate]types.DependencyNode
	existing    map[types.ArtifactCoordinate]struct{}
	failures    map[types.ArtifactCoordinate]error
	probes      []types.ArtifactCoordinate
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{
		descriptors: map[types.ArtifactCoordinate]types.Descriptor{},
		trees:       map[types.ArtifactCoordinate]types.DependencyNode{},
		existing:    map[types.ArtifactCoordinate]struct{}{},
		failures:    map[types.ArtifactCoordinate]error{},
	}
}

func (f *fakeArtifacts) manifest(raw string, managed ...string) *fakeArtifacts {
	coord := mustCoord(raw)
	f.descriptors[coord] = types.Descriptor{Coordinate: coord, ManagedDependencies: constraints(managed...)}
	return f
}

func (f *fakeArtifacts) exists(raw ...string) *fakeArtifacts {
	for _, value := range raw {
		f.existing[mustCoord(value)] = struct{}{}
	}
	return f
}

func (f *fakeArtifacts) tree(root types.DependencyNode) *fakeArtifacts {
	f.trees[root.Coordinate] = root
	return f
}

func (f *fakeArtifacts) Resolve(ctx context.Context, coord types.ArtifactCoordinate) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, coord)
	if err, ok := f.failures[coord]; ok {
		return "", err
	}
	if _, ok := f.existing[coord]; ok {
		return coord.String(), nil
	}
	if _, ok := f.descriptors[coord]; ok {
		return coord.String(), nil
	}
	return "", notFound(coord)
}

func (f *fakeArtifacts) ResolveDescriptor(ctx context.Context, coord types.ArtifactCoordinate) (types.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[coord]; ok {
		return types.Descriptor{}, err
	}
	if desc, ok := f.descriptors[coord]; ok {
		return desc, nil
	}
	if _, ok := f.existing[coord]; ok {
		return types.Descriptor{Coordinate: coord}, nil
	}
	if _, ok := f.trees[coord]; ok {
		return types.Descriptor{Coordinate: coord}, nil
	}
	return types.Descriptor{}, notFound(coord)
}

func (f *fakeArtifacts) CollectDependencyTree(ctx context.Context, root types.ArtifactCoordinate, managed []types.DependencyConstraint) (types.DependencyNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[root]; ok {
		return types.DependencyNode{}, err
	}
	if tree, ok := f.trees[root]; ok {
		return tree, nil
	}
	if _, ok := f.existing[root]; ok {
		return types.DependencyNode{Coordinate: root}, nil
	}
	return types.DependencyNode{}, notFound(root)
}

func notFound(coord types.ArtifactCoordinate) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("artifact not found: %s", coord))
}

func unavailable() error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("repository unavailable")
}

// fakeReleases classifies by exact coordinate first, then by group id.
// Group matches use the artifact version as release version.
type fakeReleases struct {
	mu      sync.Mutex
	byCoord map[types.ArtifactCoordinate]types.ReleaseID
	byGroup map[string]types.ReleaseOrigin
	calls   int
}

func newFakeReleases() *fakeReleases {
	return &fakeReleases{
		byCoord: map[types.ArtifactCoordinate]types.ReleaseID{},
		byGroup: map[string]types.ReleaseOrigin{},
	}
}

func (f *fakeReleases) set(raw string, id types.ReleaseID) *fakeReleases {
	f.byCoord[mustCoord(raw)] = id
	return f
}

func (f *fakeReleases) group(groupID string, origin string) *fakeReleases {
	f.byGroup[groupID] = types.ReleaseOrigin(origin)
	return f
}

func (f *fakeReleases) ResolveRelease(ctx context.Context, coord types.ArtifactCoordinate) (types.ReleaseID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if id, ok := f.byCoord[coord]; ok {
		return id, nil
	}
	if origin, ok := f.byGroup[coord.GroupID]; ok {
		return types.ReleaseID{Origin: origin, Version: types.ReleaseVersion(coord.Version)}, nil
	}
	return types.ReleaseID{}, errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("no release origin known for %s", coord))
}

func flattenBom(bom DecomposedBom) []string {
	var out []string
	for _, dep := range bom.Dependencies() {
		out = append(out, dep.Coordinate.String()+"@"+dep.Release.String())
	}
	return out
}
