package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/ports"
	"bomkit/internal/types"
)

const (
	AlignmentReportFile = "alignment.report"
	BuildSetFile        = "build-set.txt"
	SkippedFile         = "skipped.txt"
	RemainingFile       = "remaining.txt"
	ReleaseOrderFile    = "release-order.txt"
	SummaryFile         = "summary.txt"
	FilterReportFile    = "filter.report"
)

// ReportFileAdapter writes line-oriented reports into Dir.
type ReportFileAdapter struct {
	Dir string
}

func NewReportFileAdapter(dir string) ReportFileAdapter {
	return ReportFileAdapter{Dir: dir}
}

func (a ReportFileAdapter) WriteAlignmentReport(records []types.AlignmentRecord) error {
	ordered := append([]types.AlignmentRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Key != ordered[j].Key {
			return ordered[i].Key.String() < ordered[j].Key.String()
		}
		if ordered[i].Action != ordered[j].Action {
			return ordered[i].Action < ordered[j].Action
		}
		return ordered[i].From.String() < ordered[j].From.String()
	})
	var lines []string
	for _, record := range ordered {
		lines = append(lines, fmt.Sprintf(
			"%s,%s,%s,%s,%s",
			record.Key,
			record.Action,
			versionOf(record.From),
			versionOf(record.To),
			record.Reason,
		))
	}
	return a.writeLines(AlignmentReportFile, lines)
}

func (a ReportFileAdapter) WriteBuildSet(toBuild []types.ArtifactCoordinate, skipped []types.ArtifactCoordinate, remaining []types.ArtifactCoordinate) error {
	if err := a.writeLines(BuildSetFile, coordinateLines(toBuild)); err != nil {
		return err
	}
	if err := a.writeLines(SkippedFile, coordinateLines(skipped)); err != nil {
		return err
	}
	return a.writeLines(RemainingFile, coordinateLines(remaining))
}

// WriteReleaseOrder keeps the given order; it is the build order.
func (a ReportFileAdapter) WriteReleaseOrder(repos []types.ReleaseRepo) error {
	var lines []string
	for _, repo := range repos {
		deps := make([]string, 0, len(repo.DependsOn))
		for _, dep := range repo.DependsOn {
			deps = append(deps, dep.String())
		}
		lines = append(lines, fmt.Sprintf("%s artifacts=%d depends_on=%s", repo.ID, len(repo.Artifacts), strings.Join(deps, ";")))
	}
	return a.writeLines(ReleaseOrderFile, lines)
}

func (a ReportFileAdapter) WriteSummary(summary types.BuildSetSummary, failures []types.RootFailure) error {
	lines := []string{
		fmt.Sprintf("accepted=%d", summary.Accepted),
		fmt.Sprintf("skipped=%d", summary.Skipped),
		fmt.Sprintf("non_managed_accepted=%d", summary.NonManagedAccepted),
		fmt.Sprintf("remaining=%d", summary.Remaining),
		fmt.Sprintf("errors=%d", summary.Errors),
	}
	ordered := append([]types.RootFailure(nil), failures...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Root.String() < ordered[j].Root.String()
	})
	for _, failure := range ordered {
		lines = append(lines, fmt.Sprintf("failed=%s %s", failure.Root, failure.Message))
	}
	return a.writeLines(SummaryFile, lines)
}

func (a ReportFileAdapter) WriteFilterReport(kept []types.KeyRefCount, dropped []types.ArtifactKey) error {
	orderedKept := append([]types.KeyRefCount(nil), kept...)
	sort.Slice(orderedKept, func(i, j int) bool {
		return orderedKept[i].Key.String() < orderedKept[j].Key.String()
	})
	orderedDropped := append([]types.ArtifactKey(nil), dropped...)
	sort.Slice(orderedDropped, func(i, j int) bool {
		return orderedDropped[i].String() < orderedDropped[j].String()
	})
	var lines []string
	for _, entry := range orderedKept {
		lines = append(lines, fmt.Sprintf("kept,%s,%d", entry.Key, entry.Count))
	}
	for _, key := range orderedDropped {
		lines = append(lines, fmt.Sprintf("dropped,%s", key))
	}
	return a.writeLines(FilterReportFile, lines)
}

func (a ReportFileAdapter) writeLines(filename string, lines []string) error {
	path, err := a.ensurePath(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", filename)).
			WithCause(err)
	}
	return nil
}

func (a ReportFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

func coordinateLines(coords []types.ArtifactCoordinate) []string {
	lines := make([]string, 0, len(coords))
	for _, coord := range coords {
		lines = append(lines, coord.String())
	}
	sort.Strings(lines)
	return lines
}

func versionOf(coord types.ArtifactCoordinate) string {
	if coord.IsZero() {
		return "-"
	}
	return coord.Version
}

var _ ports.ReportPort = ReportFileAdapter{}
