package types

// PlatformConfig is the YAML description of a platform composition.
type PlatformConfig struct {
	APIVersion string           `yaml:"api_version"`
	Metadata   Metadata         `yaml:"metadata"`
	Base       string           `yaml:"base"`
	Members    []MemberSpec     `yaml:"members"`
	Overrides  OverridesSpec    `yaml:"overrides,omitempty"`
	Sources    SourcesSpec      `yaml:"sources"`
	Options    CompositionFlags `yaml:"options,omitempty"`
	Output     string           `yaml:"output,omitempty"`
}

type Metadata struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Owners      []string `yaml:"owners,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// MemberSpec is the file form of MemberConfig; coordinates are written
// as "group:artifact[:classifier]:type:version" strings.
type MemberSpec struct {
	Name                string        `yaml:"name"`
	Manifest            string        `yaml:"manifest"`
	Generated           string        `yaml:"generated,omitempty"`
	AlignOwnConstraints bool          `yaml:"align_own_constraints,omitempty"`
	Overrides           OverridesSpec `yaml:"overrides,omitempty"`
	OwnedGroupIDs       []string      `yaml:"owned_group_ids,omitempty"`
}

type OverridesSpec struct {
	Enforced         []string `yaml:"enforced,omitempty"`
	Excluded         []string `yaml:"excluded,omitempty"`
	ExcludedGroupIDs []string `yaml:"excluded_group_ids,omitempty"`
}

// SourcesSpec points at the collaborators backing a run.
type SourcesSpec struct {
	Repository   string `yaml:"repository"`
	ReleaseMap   string `yaml:"release_map,omitempty"`
	ReleaseCache string `yaml:"release_cache,omitempty"`

	// Remote is an optional repository URL used to confirm artifact
	// existence during version probes. RemotePassword is only taken from
	// flags or the environment.
	Remote         string `yaml:"remote,omitempty"`
	RemoteUser     string `yaml:"remote_user,omitempty"`
	RemotePassword string `yaml:"-"`
}

type CompositionFlags struct {
	SkipFailedMembers bool `yaml:"skip_failed_members,omitempty"`
	SkipUnclassified  bool `yaml:"skip_unclassified,omitempty"`
}
