package app

import (
	"bomkit/internal/core"
	"bomkit/internal/types"
)

type ValidateRequest struct {
	PlatformPath string
}

type ValidateResult struct {
	PlatformName string
	Members      int
	Enforced     int
}

type ComposeRequest struct {
	PlatformPath      string
	OutputDir         string
	Repository        string
	ReleaseMap        string
	ReleaseCache      string
	Remote            string
	RemoteUser        string
	RemotePassword    string
	SkipFailedMembers bool
	SkipUnclassified  bool
}

type ComposeResult struct {
	PlatformName string
	OutputDir    string
	Artifacts    int
	Releases     int
	Members      []string
	Failed       []types.MemberFailure
	Unclassified []types.ArtifactCoordinate
	Records      int
}

type BuildSetRequest struct {
	Target                   string
	Roots                    []string
	Repository               string
	ReleaseMap               string
	ReleaseCache             string
	Remote                   string
	RemoteUser               string
	RemotePassword           string
	OutputDir                string
	DepthLimit               int
	IncludeNonManaged        bool
	IncludeGroupIDs          []string
	IncludeKeys              []string
	IncludeCoordinates       []string
	ExcludeGroupIDs          []string
	ExcludeKeys              []string
	ExcludeCoordinates       []string
	ExcludeParentAncestry    bool
	ExcludeTransitiveImports bool
	NoRemaining              bool
	ExcludeScopes            []string
	Parallel                 int
}

type BuildSetResult struct {
	Summary  types.BuildSetSummary
	Failures []types.RootFailure
	Order    []types.ReleaseRepo
	ToBuild  []types.ArtifactCoordinate
}

type FilterRequest struct {
	ManifestPath string
	Supported    []string
	Repository   string
	OutputDir    string
	Name         string
}

type FilterResult struct {
	Kept    int
	Dropped []types.ArtifactKey
}

type DiffRequest struct {
	FromPath string
	ToPath   string
}

type DiffResult struct {
	From types.ArtifactCoordinate
	To   types.ArtifactCoordinate
	Diff core.BomDiff
}

type PruneCacheRequest struct {
	ReleaseCache   string
	KeepLast       int
	KeepDays       int
	ProtectOrigins []string
	DryRun         bool
}

type PruneCacheResult struct {
	KeepCount   int
	DeleteCount int
	Deleted     []string
	DryRun      bool
}

type InspectRequest struct {
	ManifestPath string
}

type InspectResult struct {
	Coordinate types.ArtifactCoordinate
	Artifacts  int
	Origins    []InspectOriginSummary
	Split      []types.ReleaseOrigin
}

type InspectOriginSummary struct {
	Origin   types.ReleaseOrigin
	Releases []InspectReleaseSummary
}

type InspectReleaseSummary struct {
	Version          types.ReleaseVersion
	Artifacts        int
	ArtifactVersions []string
}
