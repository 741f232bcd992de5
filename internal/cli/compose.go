package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bomkit/internal/app"
)

type composeOptions struct {
	Platform          string
	Output            string
	Sources           sourceOptions
	SkipFailedMembers bool
	SkipUnclassified  bool
}

func newComposeCommand() *cobra.Command {
	opts := composeOptions{}
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a release-aligned platform manifest from member manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompose(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Platform file path")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Output directory")
	cmd.Flags().BoolVar(&opts.SkipFailedMembers, "skip-failed-members", false, "Report members that fail to compose instead of aborting")
	cmd.Flags().BoolVar(&opts.SkipUnclassified, "skip-unclassified", false, "Drop artifacts without a release origin instead of failing")
	addSourceFlags(cmd, &opts.Sources)
	_ = viper.BindPFlag("platform", cmd.Flags().Lookup("platform"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("skip_failed_members", cmd.Flags().Lookup("skip-failed-members"))
	_ = viper.BindPFlag("skip_unclassified", cmd.Flags().Lookup("skip-unclassified"))
	return cmd
}

func runCompose(ctx context.Context, cmd *cobra.Command, opts composeOptions) error {
	sources := resolveSources(cmd, opts.Sources)
	return runWithService(func(service app.Service) error {
		result, err := service.Compose(ctx, app.ComposeRequest{
			PlatformPath:      resolveString(cmd, opts.Platform, "platform", "platform"),
			OutputDir:         resolveString(cmd, opts.Output, "output", "output"),
			Repository:        sources.Repository,
			ReleaseMap:        sources.ReleaseMap,
			ReleaseCache:      sources.ReleaseCache,
			Remote:            sources.Remote,
			RemoteUser:        sources.RemoteUser,
			RemotePassword:    sources.RemotePassword,
			SkipFailedMembers: resolveBool(cmd, opts.SkipFailedMembers, "skip_failed_members", "skip-failed-members"),
			SkipUnclassified:  resolveBool(cmd, opts.SkipUnclassified, "skip_unclassified", "skip-unclassified"),
		})
		if err != nil {
			return err
		}
		out := stdout(cmd)
		fmt.Fprintf(out, "composed: %s artifacts=%d releases=%d members=%d\n", result.PlatformName, result.Artifacts, result.Releases, len(result.Members))
		for _, failure := range result.Failed {
			fmt.Fprintf(out, "failed member: %s: %s\n", failure.Member, failure.Message)
		}
		for _, coord := range result.Unclassified {
			fmt.Fprintf(out, "unclassified: %s\n", coord)
		}
		return nil
	})
}
