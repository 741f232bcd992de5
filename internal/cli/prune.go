package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bomkit/internal/app"
)

type pruneCacheOptions struct {
	ReleaseCache   string
	KeepLast       int
	KeepDays       int
	ProtectOrigins []string
	DryRun         bool
}

func newPruneCacheCommand() *cobra.Command {
	opts := pruneCacheOptions{}
	cmd := &cobra.Command{
		Use:   "prune-cache",
		Short: "Evict release cache entries based on retention policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPruneCache(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.ReleaseCache, "release-cache", "", "SQLite release cache path")
	cmd.Flags().IntVar(&opts.KeepLast, "keep-last", 0, "Keep the last N entries per release origin")
	cmd.Flags().IntVar(&opts.KeepDays, "keep-days", 0, "Keep entries resolved within N days")
	cmd.Flags().StringSliceVar(&opts.ProtectOrigins, "protect-origin", nil, "Release origins never pruned")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", true, "Only report prune actions without deleting")

	_ = viper.BindPFlag("release_cache", cmd.Flags().Lookup("release-cache"))
	_ = viper.BindPFlag("keep_last", cmd.Flags().Lookup("keep-last"))
	_ = viper.BindPFlag("keep_days", cmd.Flags().Lookup("keep-days"))
	_ = viper.BindPFlag("protect_origins", cmd.Flags().Lookup("protect-origin"))
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	return cmd
}

func runPruneCache(ctx context.Context, cmd *cobra.Command, opts pruneCacheOptions) error {
	return runWithService(func(service app.Service) error {
		result, err := service.PruneCache(ctx, app.PruneCacheRequest{
			ReleaseCache:   resolveString(cmd, opts.ReleaseCache, "release_cache", "release-cache"),
			KeepLast:       resolveInt(cmd, opts.KeepLast, "keep_last", "keep-last"),
			KeepDays:       resolveInt(cmd, opts.KeepDays, "keep_days", "keep-days"),
			ProtectOrigins: resolveStrings(cmd, opts.ProtectOrigins, "protect_origins", "protect-origin"),
			DryRun:         resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
		})
		if err != nil {
			return err
		}
		out := stdout(cmd)
		if result.DryRun {
			fmt.Fprintf(out, "dry-run: keep=%d delete=%d\n", result.KeepCount, result.DeleteCount)
			return nil
		}
		fmt.Fprintf(out, "pruned cache entries: %d\n", len(result.Deleted))
		return nil
	})
}
