package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bomkit/internal/types"
)

func readReport(t *testing.T, dir string, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestReportFileWritesBuildSetReports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	adapter := NewReportFileAdapter(dir)

	require.NoError(t, adapter.WriteBuildSet(
		[]types.ArtifactCoordinate{mustCoord(t, "com.acme:b:1.0"), mustCoord(t, "com.acme:a:1.0")},
		nil,
		[]types.ArtifactCoordinate{mustCoord(t, "org.other:c:2.0")},
	))
	assert.Equal(t, "com.acme:a:jar:1.0\ncom.acme:b:jar:1.0", readReport(t, dir, BuildSetFile))
	assert.Equal(t, "", readReport(t, dir, SkippedFile))
	assert.Equal(t, "org.other:c:jar:2.0", readReport(t, dir, RemainingFile))

	require.NoError(t, adapter.WriteSummary(types.BuildSetSummary{Accepted: 2, Remaining: 1, Errors: 1}, []types.RootFailure{
		{Root: mustCoord(t, "com.acme:missing:1.0"), Message: "artifact not found"},
	}))
	assert.Equal(t, "accepted=2\nskipped=0\nnon_managed_accepted=0\nremaining=1\nerrors=1\nfailed=com.acme:missing:jar:1.0 artifact not found",
		readReport(t, dir, SummaryFile))

	require.NoError(t, adapter.WriteReleaseOrder([]types.ReleaseRepo{
		{ID: types.ReleaseID{Origin: "b", Version: "1"}, Artifacts: []types.ArtifactCoordinate{mustCoord(t, "com.acme:b:1.0")}},
		{
			ID:        types.ReleaseID{Origin: "a", Version: "1"},
			Artifacts: []types.ArtifactCoordinate{mustCoord(t, "com.acme:a:1.0")},
			DependsOn: []types.ReleaseID{{Origin: "b", Version: "1"}},
		},
	}))
	assert.Equal(t, "b#1 artifacts=1 depends_on=\na#1 artifacts=1 depends_on=b#1", readReport(t, dir, ReleaseOrderFile))
}

func TestReportFileAlignmentAndFilterReports(t *testing.T) {
	dir := t.TempDir()
	adapter := NewReportFileAdapter(dir)
	x := mustCoord(t, "com.acme:x:1.0")

	require.NoError(t, adapter.WriteAlignmentReport([]types.AlignmentRecord{
		{Key: mustCoord(t, "com.acme:y:1.0").Key(), Action: "excluded", From: mustCoord(t, "com.acme:y:1.0"), Reason: "excluded by platform overrides"},
		{Key: x.Key(), Action: "aligned", From: x, To: x.WithVersion("2.0"), Reason: "aligned to a#2"},
	}))
	assert.Equal(t, "com.acme:x:jar,aligned,1.0,2.0,aligned to a#2\ncom.acme:y:jar,excluded,1.0,-,excluded by platform overrides",
		readReport(t, dir, AlignmentReportFile))

	require.NoError(t, adapter.WriteFilterReport(
		[]types.KeyRefCount{{Key: mustCoord(t, "com.acme:z:1.0").Key(), Count: 2}, {Key: x.Key(), Count: 1}},
		[]types.ArtifactKey{mustCoord(t, "com.acme:w:1.0").Key()},
	))
	assert.Equal(t, "kept,com.acme:x:jar,1\nkept,com.acme:z:jar,2\ndropped,com.acme:w:jar", readReport(t, dir, FilterReportFile))
}

func TestReportFileRequiresDirectory(t *testing.T) {
	err := NewReportFileAdapter("").WriteSummary(types.BuildSetSummary{}, nil)
	require.Error(t, err)
}
