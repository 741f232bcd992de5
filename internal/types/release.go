package types

// ReleaseOrigin identifies the upstream source location, typically a
// normalized source repository URL.
type ReleaseOrigin string

// ReleaseVersion identifies a tag or version within an origin.
type ReleaseVersion string

// ReleaseID names one source snapshot. All artifacts sharing a ReleaseID
// move together during alignment.
type ReleaseID struct {
	Origin  ReleaseOrigin  `yaml:"origin"`
	Version ReleaseVersion `yaml:"version"`
}

func (r ReleaseID) String() string {
	return string(r.Origin) + "#" + string(r.Version)
}

func (r ReleaseID) IsZero() bool {
	return r.Origin == "" && r.Version == ""
}

// Less orders release ids by origin, then by version string.
func (r ReleaseID) Less(other ReleaseID) bool {
	if r.Origin != other.Origin {
		return r.Origin < other.Origin
	}
	return r.Version < other.Version
}

// ProjectDependency is an artifact tagged with the release that produced it.
type ProjectDependency struct {
	Release    ReleaseID          `yaml:"release"`
	Coordinate ArtifactCoordinate `yaml:"coordinate"`
}

func (d ProjectDependency) Key() ArtifactKey {
	return d.Coordinate.Key()
}
