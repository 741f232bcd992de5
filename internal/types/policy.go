package types

// Overrides are explicit rules that bypass automatic alignment.
type Overrides struct {
	Enforced         map[ArtifactKey]ArtifactCoordinate
	Excluded         map[ArtifactKey]struct{}
	ExcludedGroupIDs []string
}

// MemberConfig describes one member manifest taking part in composition.
type MemberConfig struct {
	Name                string
	Manifest            ArtifactCoordinate
	Generated           ArtifactCoordinate
	AlignOwnConstraints bool
	Enforced            []ArtifactCoordinate
	Excluded            []ArtifactKey
	ExcludedGroupIDs    []string
	OwnedGroupIDs       []string
}

// BuildSetPolicy controls which nodes of a dependency tree end up in the
// build set. A negative DepthLimit means unlimited.
type BuildSetPolicy struct {
	DepthLimit               int
	IncludeNonManaged        bool
	IncludeGroupIDs          []string
	IncludeKeys              []ArtifactKey
	IncludeCoordinates       []ArtifactCoordinate
	ExcludeGroupIDs          []string
	ExcludeKeys              []ArtifactKey
	ExcludeCoordinates       []ArtifactCoordinate
	ExcludeParentAncestry    bool
	ExcludeTransitiveImports bool
	ReportRemaining          bool
	ExcludeScopes            []string
}

// DefaultBuildSetPolicy walks the whole tree and reports remaining items.
func DefaultBuildSetPolicy() BuildSetPolicy {
	return BuildSetPolicy{
		DepthLimit:      -1,
		ReportRemaining: true,
		ExcludeScopes:   []string{"test", "provided", "system"},
	}
}
