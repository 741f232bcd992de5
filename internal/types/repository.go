package types

// RepositoryFile is the on-disk artifact universe read by the file-backed
// artifact resolver.
type RepositoryFile struct {
	Artifacts []RepositoryArtifact `yaml:"artifacts"`
}

type RepositoryArtifact struct {
	Coordinate   string                 `yaml:"coordinate"`
	Parent       string                 `yaml:"parent,omitempty"`
	Imports      []string               `yaml:"imports,omitempty"`
	Managed      []RepositoryDependency `yaml:"managed,omitempty"`
	Dependencies []RepositoryDependency `yaml:"dependencies,omitempty"`
	Release      *ReleaseSpec           `yaml:"release,omitempty"`
	Extension    *ExtensionSpec         `yaml:"extension,omitempty"`
}

type RepositoryDependency struct {
	Coordinate string   `yaml:"coordinate"`
	Scope      string   `yaml:"scope,omitempty"`
	Optional   bool     `yaml:"optional,omitempty"`
	Exclusions []string `yaml:"exclusions,omitempty"`
}

type ReleaseSpec struct {
	Origin  string `yaml:"origin"`
	Version string `yaml:"version,omitempty"`
}

type ExtensionSpec struct {
	Runtime   []string `yaml:"runtime,omitempty"`
	BuildTime []string `yaml:"build_time,omitempty"`
}

// ReleaseMapFile maps artifacts to upstream origins by rule.
type ReleaseMapFile struct {
	Rules []ReleaseRule `yaml:"rules"`
}

// ReleaseRule assigns an origin to every artifact matching one of its
// patterns. Patterns are "group", "group.*", "group:artifact" or "*".
// When Version is empty the artifact version is used as release version.
type ReleaseRule struct {
	Origin  string   `yaml:"origin"`
	Matches []string `yaml:"matches"`
	Version string   `yaml:"version,omitempty"`
}

// ManifestFile is the persisted form of a decomposed manifest.
type ManifestFile struct {
	Coordinate string            `yaml:"coordinate"`
	Releases   []ManifestRelease `yaml:"releases"`
}

type ManifestRelease struct {
	Origin    string   `yaml:"origin"`
	Version   string   `yaml:"version"`
	Artifacts []string `yaml:"artifacts"`
}
