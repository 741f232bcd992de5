package types

// Descriptor is the declared content of a package descriptor: its parent,
// imported manifests, managed constraints and direct dependencies.
type Descriptor struct {
	Coordinate          ArtifactCoordinate
	Parent              *ArtifactCoordinate
	Imports             []ArtifactCoordinate
	ManagedDependencies []DependencyConstraint
	Dependencies        []DependencyConstraint
}

// DependencyNode is one node of a live, scope-filtered dependency tree.
type DependencyNode struct {
	Coordinate ArtifactCoordinate
	Scope      string
	Optional   bool
	Children   []DependencyNode
}

// ExtensionEdges lists the runtime and build-time dependencies of a
// supported extension artifact.
type ExtensionEdges struct {
	Runtime   []ArtifactCoordinate
	BuildTime []ArtifactCoordinate
}
