package ports

import "bomkit/internal/types"

// ReportPort consumes the plain data records produced by a run.
type ReportPort interface {
	WriteAlignmentReport(records []types.AlignmentRecord) error
	WriteBuildSet(toBuild []types.ArtifactCoordinate, skipped []types.ArtifactCoordinate, remaining []types.ArtifactCoordinate) error
	WriteReleaseOrder(repos []types.ReleaseRepo) error
	WriteSummary(summary types.BuildSetSummary, failures []types.RootFailure) error
	WriteFilterReport(kept []types.KeyRefCount, dropped []types.ArtifactKey) error
}
