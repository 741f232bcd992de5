package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"bomkit/internal/core"
	"bomkit/internal/ports"
	"bomkit/internal/shared"
	"bomkit/internal/types"
)

// Scopes that do not propagate past the first level of a tree.
var nonTransitiveScopes = map[string]struct{}{
	"test":     {},
	"provided": {},
	"system":   {},
}

const defaultScope = "compile"

type repositoryEntry struct {
	descriptor types.Descriptor
	release    *types.ReleaseID
	extension  types.ExtensionEdges
}

// RepositoryFileAdapter serves artifacts, descriptors, dependency trees and
// extension edges from a YAML repository index.
type RepositoryFileAdapter struct {
	Path    string
	mu      sync.Mutex
	entries map[types.ArtifactCoordinate]repositoryEntry
	loaded  bool
}

func NewRepositoryFileAdapter(path string) *RepositoryFileAdapter {
	return &RepositoryFileAdapter{Path: path}
}

func (a *RepositoryFileAdapter) Resolve(ctx context.Context, coord types.ArtifactCoordinate) (string, error) {
	coord = coord.Normalized()
	if _, err := a.entry(coord); err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(a.Path), shared.ArtifactPath(coord.GroupID, coord.ArtifactID, coord.Version, coord.Classifier, coord.Type)), nil
}

// ResolveDescriptor returns the effective managed constraints of coord:
// its own, then its parent chain, then imported manifests. The first
// constraint seen for a key wins.
func (a *RepositoryFileAdapter) ResolveDescriptor(ctx context.Context, coord types.ArtifactCoordinate) (types.Descriptor, error) {
	coord = coord.Normalized()
	entry, err := a.entry(coord)
	if err != nil {
		return types.Descriptor{}, err
	}
	desc := entry.descriptor
	managed, err := a.effectiveManaged(coord, map[types.ArtifactCoordinate]struct{}{})
	if err != nil {
		return types.Descriptor{}, err
	}
	desc.ManagedDependencies = managed
	return desc, nil
}

func (a *RepositoryFileAdapter) effectiveManaged(coord types.ArtifactCoordinate, seen map[types.ArtifactCoordinate]struct{}) ([]types.DependencyConstraint, error) {
	if _, ok := seen[coord]; ok {
		return nil, nil
	}
	seen[coord] = struct{}{}
	entry, err := a.entry(coord)
	if err != nil {
		return nil, err
	}
	out := append([]types.DependencyConstraint(nil), entry.descriptor.ManagedDependencies...)
	keys := map[types.ArtifactKey]struct{}{}
	for _, constraint := range out {
		keys[constraint.Key()] = struct{}{}
	}
	var inherited []types.ArtifactCoordinate
	if entry.descriptor.Parent != nil {
		inherited = append(inherited, *entry.descriptor.Parent)
	}
	inherited = append(inherited, entry.descriptor.Imports...)
	for _, next := range inherited {
		more, err := a.effectiveManaged(next.Normalized(), seen)
		if err != nil {
			return nil, err
		}
		for _, constraint := range more {
			if _, ok := keys[constraint.Key()]; ok {
				continue
			}
			keys[constraint.Key()] = struct{}{}
			out = append(out, constraint)
		}
	}
	return out, nil
}

// CollectDependencyTree expands the declared dependencies of root. Managed
// constraints override declared versions; test, provided and system
// scopes and optional dependencies are not followed transitively.
func (a *RepositoryFileAdapter) CollectDependencyTree(ctx context.Context, root types.ArtifactCoordinate, managed []types.DependencyConstraint) (types.DependencyNode, error) {
	root = root.Normalized()
	versions := make(map[types.ArtifactKey]types.ArtifactCoordinate, len(managed))
	for _, constraint := range managed {
		if _, ok := versions[constraint.Key()]; !ok {
			versions[constraint.Key()] = constraint.Coordinate.Normalized()
		}
	}
	path := map[types.ArtifactCoordinate]struct{}{}
	return a.collect(root, defaultScope, false, 0, versions, nil, path)
}

func (a *RepositoryFileAdapter) collect(coord types.ArtifactCoordinate, scope string, optional bool, depth int, managed map[types.ArtifactKey]types.ArtifactCoordinate, exclusions map[types.ArtifactKey]struct{}, path map[types.ArtifactCoordinate]struct{}) (types.DependencyNode, error) {
	entry, err := a.entry(coord)
	if err != nil {
		return types.DependencyNode{}, err
	}
	node := types.DependencyNode{Coordinate: coord, Scope: scope, Optional: optional}
	path[coord] = struct{}{}
	defer delete(path, coord)

	for _, dep := range entry.descriptor.Dependencies {
		child := dep.Coordinate.Normalized()
		if _, excluded := exclusions[child.Key()]; excluded {
			continue
		}
		childScope := dep.Scope
		if childScope == "" {
			childScope = defaultScope
		}
		if depth > 0 {
			if _, ok := nonTransitiveScopes[childScope]; ok {
				continue
			}
			if dep.Optional {
				continue
			}
		}
		if pinned, ok := managed[child.Key()]; ok {
			child = pinned
		}
		if _, cycle := path[child]; cycle {
			continue
		}
		childExclusions := exclusions
		if len(dep.Exclusions) > 0 {
			childExclusions = make(map[types.ArtifactKey]struct{}, len(exclusions)+len(dep.Exclusions))
			for key := range exclusions {
				childExclusions[key] = struct{}{}
			}
			for _, key := range dep.Exclusions {
				childExclusions[key.Normalized()] = struct{}{}
			}
		}
		childNode, err := a.collect(child, childScope, dep.Optional, depth+1, managed, childExclusions, path)
		if err != nil {
			return types.DependencyNode{}, err
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}

func (a *RepositoryFileAdapter) ExtensionEdges(ctx context.Context, coord types.ArtifactCoordinate) (types.ExtensionEdges, error) {
	entry, err := a.entry(coord.Normalized())
	if err != nil {
		return types.ExtensionEdges{}, err
	}
	return entry.extension, nil
}

// InlineRelease returns the release declared next to an artifact, if any.
func (a *RepositoryFileAdapter) InlineRelease(coord types.ArtifactCoordinate) (types.ReleaseID, bool, error) {
	entry, err := a.entry(coord.Normalized())
	if err != nil {
		return types.ReleaseID{}, false, err
	}
	if entry.release == nil {
		return types.ReleaseID{}, false, nil
	}
	return *entry.release, true, nil
}

func (a *RepositoryFileAdapter) entry(coord types.ArtifactCoordinate) (repositoryEntry, error) {
	entries, err := a.load()
	if err != nil {
		return repositoryEntry{}, err
	}
	entry, ok := entries[coord]
	if !ok {
		return repositoryEntry{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("artifact not found: %s", coord))
	}
	return entry, nil
}

func (a *RepositoryFileAdapter) load() (map[types.ArtifactCoordinate]repositoryEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return a.entries, nil
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("repository index unavailable").
			WithCause(err)
	}
	var file types.RepositoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid repository index format").
			WithCause(err)
	}
	entries := make(map[types.ArtifactCoordinate]repositoryEntry, len(file.Artifacts))
	for _, artifact := range file.Artifacts {
		entry, err := parseRepositoryArtifact(artifact)
		if err != nil {
			return nil, err
		}
		coord := entry.descriptor.Coordinate
		if _, ok := entries[coord]; ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("duplicate repository artifact: %s", coord))
		}
		entries[coord] = entry
	}
	a.entries = entries
	a.loaded = true
	return entries, nil
}

func parseRepositoryArtifact(artifact types.RepositoryArtifact) (repositoryEntry, error) {
	coord, err := core.ParseCoordinate(artifact.Coordinate)
	if err != nil {
		return repositoryEntry{}, err
	}
	entry := repositoryEntry{descriptor: types.Descriptor{Coordinate: coord}}
	if strings.TrimSpace(artifact.Parent) != "" {
		parent, err := core.ParseCoordinate(artifact.Parent)
		if err != nil {
			return repositoryEntry{}, err
		}
		entry.descriptor.Parent = &parent
	}
	if entry.descriptor.Imports, err = core.ParseCoordinates(artifact.Imports); err != nil {
		return repositoryEntry{}, err
	}
	if entry.descriptor.ManagedDependencies, err = parseRepositoryDependencies(artifact.Managed); err != nil {
		return repositoryEntry{}, err
	}
	if entry.descriptor.Dependencies, err = parseRepositoryDependencies(artifact.Dependencies); err != nil {
		return repositoryEntry{}, err
	}
	if artifact.Release != nil {
		if strings.TrimSpace(artifact.Release.Origin) == "" {
			return repositoryEntry{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("release origin is empty for %s", coord))
		}
		version := artifact.Release.Version
		if version == "" {
			version = coord.Version
		}
		entry.release = &types.ReleaseID{
			Origin:  types.ReleaseOrigin(shared.NormalizeOrigin(artifact.Release.Origin)),
			Version: types.ReleaseVersion(version),
		}
	}
	if artifact.Extension != nil {
		if entry.extension.Runtime, err = core.ParseCoordinates(artifact.Extension.Runtime); err != nil {
			return repositoryEntry{}, err
		}
		if entry.extension.BuildTime, err = core.ParseCoordinates(artifact.Extension.BuildTime); err != nil {
			return repositoryEntry{}, err
		}
	}
	return entry, nil
}

func parseRepositoryDependencies(deps []types.RepositoryDependency) ([]types.DependencyConstraint, error) {
	out := make([]types.DependencyConstraint, 0, len(deps))
	for _, dep := range deps {
		coord, err := core.ParseCoordinate(dep.Coordinate)
		if err != nil {
			return nil, err
		}
		exclusions, err := core.ParseKeys(dep.Exclusions)
		if err != nil {
			return nil, err
		}
		out = append(out, types.DependencyConstraint{
			Coordinate: coord,
			Scope:      strings.ToLower(strings.TrimSpace(dep.Scope)),
			Optional:   dep.Optional,
			Exclusions: exclusions,
		})
	}
	return out, nil
}

var _ ports.ArtifactResolverPort = (*RepositoryFileAdapter)(nil)
var _ ports.ExtensionDescriptorPort = (*RepositoryFileAdapter)(nil)
