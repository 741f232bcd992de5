package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bomkit/internal/app"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Summarize a release-aligned manifest by origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd, args[0])
		},
	}
}

func runInspect(ctx context.Context, cmd *cobra.Command, path string) error {
	return runWithService(func(service app.Service) error {
		result, err := service.Inspect(ctx, app.InspectRequest{ManifestPath: path})
		if err != nil {
			return err
		}
		out := stdout(cmd)
		fmt.Fprintf(out, "%s: %d artifacts in %d origins\n", result.Coordinate, result.Artifacts, len(result.Origins))
		for _, origin := range result.Origins {
			fmt.Fprintf(out, "- %s\n", origin.Origin)
			for _, release := range origin.Releases {
				fmt.Fprintf(out, "  %s: %d artifacts (%s)\n", release.Version, release.Artifacts, strings.Join(release.ArtifactVersions, ", "))
			}
		}
		for _, origin := range result.Split {
			fmt.Fprintf(out, "split origin: %s\n", origin)
		}
		return nil
	})
}
