package core

import (
	"fmt"
	"sort"

	"bomkit/internal/types"
)

// ProjectRelease holds every known artifact of one release. It is
// immutable once built; use ProjectReleaseBuilder to create one.
type ProjectRelease struct {
	id    types.ReleaseID
	deps  []types.ProjectDependency
	index map[types.ArtifactKey]int
}

func (r ProjectRelease) ID() types.ReleaseID {
	return r.id
}

// Dependencies returns the release's artifacts ordered by key.
func (r ProjectRelease) Dependencies() []types.ProjectDependency {
	return append([]types.ProjectDependency(nil), r.deps...)
}

func (r ProjectRelease) Dependency(key types.ArtifactKey) (types.ProjectDependency, bool) {
	idx, ok := r.index[key]
	if !ok {
		return types.ProjectDependency{}, false
	}
	return r.deps[idx], true
}

func (r ProjectRelease) Len() int {
	return len(r.deps)
}

// ArtifactVersions returns the distinct artifact versions found in the
// release, most common first.
func (r ProjectRelease) ArtifactVersions() []string {
	counts := map[string]int{}
	for _, dep := range r.deps {
		counts[dep.Coordinate.Version]++
	}
	return versionsByFrequency(counts)
}

// versionsByFrequency orders versions by descending count, ties broken
// lexically.
func versionsByFrequency(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for version := range counts {
		out = append(out, version)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

type ProjectReleaseBuilder struct {
	id   types.ReleaseID
	deps map[types.ArtifactKey]types.ProjectDependency
	err  error
}

func NewProjectReleaseBuilder(id types.ReleaseID) *ProjectReleaseBuilder {
	return &ProjectReleaseBuilder{
		id:   id,
		deps: map[types.ArtifactKey]types.ProjectDependency{},
	}
}

// Add records coord as an artifact of the release. Adding the same
// coordinate twice is a no-op; a different version for a known key is
// a conflict reported by Build.
func (b *ProjectReleaseBuilder) Add(coord types.ArtifactCoordinate) *ProjectReleaseBuilder {
	coord = coord.Normalized()
	key := coord.Key()
	if existing, ok := b.deps[key]; ok {
		if existing.Coordinate != coord && b.err == nil {
			b.err = conflictError(fmt.Sprintf("release %s lists %s and %s", b.id, existing.Coordinate, coord))
		}
		return b
	}
	b.deps[key] = types.ProjectDependency{Release: b.id, Coordinate: coord}
	return b
}

func (b *ProjectReleaseBuilder) Len() int {
	return len(b.deps)
}

func (b *ProjectReleaseBuilder) Build() (ProjectRelease, error) {
	if b.err != nil {
		return ProjectRelease{}, b.err
	}
	deps := make([]types.ProjectDependency, 0, len(b.deps))
	for _, dep := range b.deps {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool {
		return deps[i].Key().String() < deps[j].Key().String()
	})
	index := make(map[types.ArtifactKey]int, len(deps))
	for i, dep := range deps {
		index[dep.Key()] = i
	}
	return ProjectRelease{id: b.id, deps: deps, index: index}, nil
}

// DecomposedBom is a manifest grouped by source release. Every artifact
// key belongs to exactly one release.
type DecomposedBom struct {
	coordinate types.ArtifactCoordinate
	releases   map[types.ReleaseID]ProjectRelease
	keys       map[types.ArtifactKey]types.ReleaseID
}

func (b DecomposedBom) Coordinate() types.ArtifactCoordinate {
	return b.coordinate
}

// Releases returns the releases ordered by release id.
func (b DecomposedBom) Releases() []ProjectRelease {
	out := make([]ProjectRelease, 0, len(b.releases))
	for _, release := range b.releases {
		out = append(out, release)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].id.Less(out[j].id)
	})
	return out
}

func (b DecomposedBom) Release(id types.ReleaseID) (ProjectRelease, bool) {
	release, ok := b.releases[id]
	return release, ok
}

func (b DecomposedBom) ReleasesByOrigin() map[types.ReleaseOrigin][]ProjectRelease {
	out := map[types.ReleaseOrigin][]ProjectRelease{}
	for _, release := range b.Releases() {
		out[release.id.Origin] = append(out[release.id.Origin], release)
	}
	return out
}

func (b DecomposedBom) Origins() []types.ReleaseOrigin {
	seen := map[types.ReleaseOrigin]struct{}{}
	for id := range b.releases {
		seen[id.Origin] = struct{}{}
	}
	out := make([]types.ReleaseOrigin, 0, len(seen))
	for origin := range seen {
		out = append(out, origin)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b DecomposedBom) Lookup(key types.ArtifactKey) (types.ProjectDependency, bool) {
	id, ok := b.keys[key.Normalized()]
	if !ok {
		return types.ProjectDependency{}, false
	}
	return b.releases[id].Dependency(key.Normalized())
}

// Dependencies returns every artifact ordered by key.
func (b DecomposedBom) Dependencies() []types.ProjectDependency {
	out := make([]types.ProjectDependency, 0, len(b.keys))
	for _, release := range b.releases {
		out = append(out, release.deps...)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

func (b DecomposedBom) Len() int {
	return len(b.keys)
}

// BomVisitor walks a decomposed manifest release by release.
type BomVisitor interface {
	EnterBom(coord types.ArtifactCoordinate) error
	VisitRelease(release ProjectRelease) error
	LeaveBom() error
}

func (b DecomposedBom) Visit(visitor BomVisitor) error {
	if err := visitor.EnterBom(b.coordinate); err != nil {
		return err
	}
	for _, release := range b.Releases() {
		if err := visitor.VisitRelease(release); err != nil {
			return err
		}
	}
	return visitor.LeaveBom()
}

// VersionChange describes a key present in both manifests with a
// different coordinate or release.
type VersionChange struct {
	Key         types.ArtifactKey
	From        types.ProjectDependency
	To          types.ProjectDependency
	ReleaseOnly bool
}

type BomDiff struct {
	Added   []types.ProjectDependency
	Removed []types.ProjectDependency
	Changed []VersionChange
}

func (d BomDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares b (old) against other (new) by artifact key.
func (b DecomposedBom) Diff(other DecomposedBom) BomDiff {
	var diff BomDiff
	for _, dep := range b.Dependencies() {
		next, ok := other.Lookup(dep.Key())
		if !ok {
			diff.Removed = append(diff.Removed, dep)
			continue
		}
		if next.Coordinate != dep.Coordinate || next.Release != dep.Release {
			diff.Changed = append(diff.Changed, VersionChange{
				Key:         dep.Key(),
				From:        dep,
				To:          next,
				ReleaseOnly: next.Coordinate == dep.Coordinate,
			})
		}
	}
	for _, dep := range other.Dependencies() {
		if _, ok := b.Lookup(dep.Key()); !ok {
			diff.Added = append(diff.Added, dep)
		}
	}
	return diff
}

type DecomposedBomBuilder struct {
	coordinate types.ArtifactCoordinate
	releases   map[types.ReleaseID]*ProjectReleaseBuilder
	keys       map[types.ArtifactKey]types.ReleaseID
	err        error
}

func NewDecomposedBomBuilder(coord types.ArtifactCoordinate) *DecomposedBomBuilder {
	return &DecomposedBomBuilder{
		coordinate: coord,
		releases:   map[types.ReleaseID]*ProjectReleaseBuilder{},
		keys:       map[types.ArtifactKey]types.ReleaseID{},
	}
}

// Add places dep in its release. A key already owned by another release
// is a conflict reported by Build.
func (b *DecomposedBomBuilder) Add(dep types.ProjectDependency) *DecomposedBomBuilder {
	key := dep.Key()
	if owner, ok := b.keys[key]; ok && owner != dep.Release {
		if b.err == nil {
			b.err = conflictError(fmt.Sprintf("%s belongs to releases %s and %s", key, owner, dep.Release))
		}
		return b
	}
	release, ok := b.releases[dep.Release]
	if !ok {
		release = NewProjectReleaseBuilder(dep.Release)
		b.releases[dep.Release] = release
	}
	release.Add(dep.Coordinate)
	b.keys[key] = dep.Release
	return b
}

func (b *DecomposedBomBuilder) Build() (DecomposedBom, error) {
	if b.err != nil {
		return DecomposedBom{}, b.err
	}
	bom := DecomposedBom{
		coordinate: b.coordinate,
		releases:   make(map[types.ReleaseID]ProjectRelease, len(b.releases)),
		keys:       make(map[types.ArtifactKey]types.ReleaseID, len(b.keys)),
	}
	for id, builder := range b.releases {
		if builder.Len() == 0 {
			continue
		}
		release, err := builder.Build()
		if err != nil {
			return DecomposedBom{}, err
		}
		bom.releases[id] = release
	}
	for key, id := range b.keys {
		bom.keys[key] = id
	}
	return bom, nil
}
