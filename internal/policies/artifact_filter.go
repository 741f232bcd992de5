package policies

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/types"
)

// ArtifactFilter evaluates the include and exclude lists of a build-set
// policy. Exclusion is checked first and always wins.
type ArtifactFilter struct {
	includeGroups GroupMatcher
	includeKeys   map[types.ArtifactKey]struct{}
	includeCoords map[types.ArtifactCoordinate]struct{}
	excludeGroups GroupMatcher
	excludeKeys   map[types.ArtifactKey]struct{}
	excludeCoords map[types.ArtifactCoordinate]struct{}
	excludeScopes map[string]struct{}
}

func NewArtifactFilter(policy types.BuildSetPolicy) (ArtifactFilter, error) {
	f := ArtifactFilter{
		includeGroups: NewGroupMatcher(policy.IncludeGroupIDs),
		includeKeys:   map[types.ArtifactKey]struct{}{},
		includeCoords: map[types.ArtifactCoordinate]struct{}{},
		excludeGroups: NewGroupMatcher(policy.ExcludeGroupIDs),
		excludeKeys:   map[types.ArtifactKey]struct{}{},
		excludeCoords: map[types.ArtifactCoordinate]struct{}{},
		excludeScopes: map[string]struct{}{},
	}
	for _, key := range policy.IncludeKeys {
		f.includeKeys[key.Normalized()] = struct{}{}
	}
	for _, coord := range policy.IncludeCoordinates {
		f.includeCoords[coord.Normalized()] = struct{}{}
	}
	for _, key := range policy.ExcludeKeys {
		key = key.Normalized()
		if _, ok := f.includeKeys[key]; ok {
			return ArtifactFilter{}, inconsistentPolicy(key.String())
		}
		f.excludeKeys[key] = struct{}{}
	}
	for _, coord := range policy.ExcludeCoordinates {
		coord = coord.Normalized()
		if _, ok := f.includeCoords[coord]; ok {
			return ArtifactFilter{}, inconsistentPolicy(coord.String())
		}
		f.excludeCoords[coord] = struct{}{}
	}
	included := map[string]struct{}{}
	for _, group := range policy.IncludeGroupIDs {
		included[strings.TrimSpace(group)] = struct{}{}
	}
	for _, group := range policy.ExcludeGroupIDs {
		if _, ok := included[strings.TrimSpace(group)]; ok {
			return ArtifactFilter{}, inconsistentPolicy(group)
		}
	}
	for _, scope := range policy.ExcludeScopes {
		f.excludeScopes[strings.ToLower(strings.TrimSpace(scope))] = struct{}{}
	}
	return f, nil
}

func (f ArtifactFilter) Excluded(coord types.ArtifactCoordinate) bool {
	coord = coord.Normalized()
	if _, ok := f.excludeCoords[coord]; ok {
		return true
	}
	if _, ok := f.excludeKeys[coord.Key()]; ok {
		return true
	}
	return f.excludeGroups.Matches(coord.GroupID)
}

func (f ArtifactFilter) Included(coord types.ArtifactCoordinate) bool {
	coord = coord.Normalized()
	if _, ok := f.includeCoords[coord]; ok {
		return true
	}
	if _, ok := f.includeKeys[coord.Key()]; ok {
		return true
	}
	return f.includeGroups.Matches(coord.GroupID)
}

// HasIncludes reports whether any allow-list entry is configured.
func (f ArtifactFilter) HasIncludes() bool {
	return len(f.includeCoords) > 0 || len(f.includeKeys) > 0 || !f.includeGroups.Empty()
}

func (f ArtifactFilter) ExcludedScope(scope string) bool {
	_, ok := f.excludeScopes[strings.ToLower(strings.TrimSpace(scope))]
	return ok
}

func inconsistentPolicy(entry string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s is both included and excluded", entry))
}
