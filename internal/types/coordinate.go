package types

import "strings"

// DefaultArtifactType is assumed when a coordinate does not name a type.
const DefaultArtifactType = "jar"

// DescriptorArtifactType marks package descriptors (parents and imported
// manifests) rather than binary outputs.
const DescriptorArtifactType = "pom"

// ArtifactKey identifies an artifact independently of its version.
type ArtifactKey struct {
	GroupID    string `yaml:"group_id"`
	ArtifactID string `yaml:"artifact_id"`
	Classifier string `yaml:"classifier,omitempty"`
	Type       string `yaml:"type,omitempty"`
}

func (k ArtifactKey) String() string {
	var b strings.Builder
	b.WriteString(k.GroupID)
	b.WriteString(":")
	b.WriteString(k.ArtifactID)
	if k.Classifier != "" {
		b.WriteString(":")
		b.WriteString(k.Classifier)
	}
	b.WriteString(":")
	b.WriteString(k.typeOrDefault())
	return b.String()
}

// Normalized fills in the default type so that keys parsed from different
// sources compare equal.
func (k ArtifactKey) Normalized() ArtifactKey {
	k.Type = k.typeOrDefault()
	return k
}

func (k ArtifactKey) typeOrDefault() string {
	if k.Type == "" {
		return DefaultArtifactType
	}
	return k.Type
}

// ArtifactCoordinate uniquely identifies one build output.
type ArtifactCoordinate struct {
	GroupID    string `yaml:"group_id"`
	ArtifactID string `yaml:"artifact_id"`
	Classifier string `yaml:"classifier,omitempty"`
	Type       string `yaml:"type,omitempty"`
	Version    string `yaml:"version"`
}

func (c ArtifactCoordinate) Key() ArtifactKey {
	return ArtifactKey{
		GroupID:    c.GroupID,
		ArtifactID: c.ArtifactID,
		Classifier: c.Classifier,
		Type:       c.Type,
	}.Normalized()
}

func (c ArtifactCoordinate) WithVersion(version string) ArtifactCoordinate {
	c.Version = version
	return c
}

func (c ArtifactCoordinate) Normalized() ArtifactCoordinate {
	if c.Type == "" {
		c.Type = DefaultArtifactType
	}
	return c
}

// IsDescriptor reports whether the coordinate points at a package
// descriptor (parent or imported manifest).
func (c ArtifactCoordinate) IsDescriptor() bool {
	return c.Type == DescriptorArtifactType
}

func (c ArtifactCoordinate) IsZero() bool {
	return c == ArtifactCoordinate{}
}

func (c ArtifactCoordinate) String() string {
	return c.Key().String() + ":" + c.Version
}

// DependencyConstraint is one row of a managed-dependency manifest.
type DependencyConstraint struct {
	Coordinate ArtifactCoordinate `yaml:"coordinate"`
	Scope      string             `yaml:"scope,omitempty"`
	Optional   bool               `yaml:"optional,omitempty"`
	Exclusions []ArtifactKey      `yaml:"exclusions,omitempty"`
}

func (d DependencyConstraint) Key() ArtifactKey {
	return d.Coordinate.Key()
}
