package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bomkit/internal/app"
	"bomkit/internal/core"
)

func newDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <from> <to>",
		Short: "Compare two manifest files by artifact key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args[0], args[1])
		},
	}
}

func runDiff(ctx context.Context, cmd *cobra.Command, from string, to string) error {
	return runWithService(func(service app.Service) error {
		result, err := service.Diff(ctx, app.DiffRequest{FromPath: from, ToPath: to})
		if err != nil {
			return err
		}
		printDiff(stdout(cmd), result.Diff)
		return nil
	})
}

func printDiff(out io.Writer, diff core.BomDiff) {
	if diff.Empty() {
		fmt.Fprintln(out, "no changes")
		return
	}
	for _, dep := range diff.Removed {
		fmt.Fprintf(out, "- %s [%s]\n", dep.Coordinate, dep.Release)
	}
	for _, dep := range diff.Added {
		fmt.Fprintf(out, "+ %s [%s]\n", dep.Coordinate, dep.Release)
	}
	for _, change := range diff.Changed {
		if change.ReleaseOnly {
			fmt.Fprintf(out, "~ %s [%s -> %s]\n", change.Key, change.From.Release, change.To.Release)
			continue
		}
		fmt.Fprintf(out, "~ %s %s -> %s\n", change.Key, change.From.Coordinate.Version, change.To.Coordinate.Version)
	}
}

func stdout(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}
