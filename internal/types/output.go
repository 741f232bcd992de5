package types

type AlignmentAction string

const (
	AlignmentActionAligned  AlignmentAction = "aligned"
	AlignmentActionProbed   AlignmentAction = "probed"
	AlignmentActionEnforced AlignmentAction = "enforced"
	AlignmentActionExcluded AlignmentAction = "excluded"
	AlignmentActionOwned    AlignmentAction = "owned"
	AlignmentActionKept     AlignmentAction = "kept"
)

// AlignmentRecord documents a single composition decision.
type AlignmentRecord struct {
	Key    ArtifactKey
	From   ArtifactCoordinate
	To     ArtifactCoordinate
	Action AlignmentAction
	Reason string
}

type BuildSetSummary struct {
	Accepted           int
	Skipped            int
	NonManagedAccepted int
	Remaining          int
	Errors             int
}

// ReleaseRepo is one source repository snapshot in the build order.
type ReleaseRepo struct {
	ID        ReleaseID
	Artifacts []ArtifactCoordinate
	DependsOn []ReleaseID
}

// RootFailure reports a root that could not be resolved.
type RootFailure struct {
	Root    ArtifactCoordinate
	Message string
}

// MemberFailure reports a member manifest skipped during composition.
type MemberFailure struct {
	Member  string
	Message string
}

// KeyRefCount is the number of supported extensions reaching an artifact.
type KeyRefCount struct {
	Key   ArtifactKey
	Count int
}
