package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bomkit/internal/app"
)

type buildSetOptions struct {
	Target                   string
	Roots                    []string
	Output                   string
	Sources                  sourceOptions
	Depth                    int
	IncludeNonManaged        bool
	IncludeGroups            []string
	IncludeKeys              []string
	IncludeCoordinates       []string
	ExcludeGroups            []string
	ExcludeKeys              []string
	ExcludeCoordinates       []string
	ExcludeParentAncestry    bool
	ExcludeTransitiveImports bool
	NoRemaining              bool
	ExcludeScopes            []string
	Parallel                 int
}

func newBuildSetCommand() *cobra.Command {
	opts := buildSetOptions{}
	cmd := &cobra.Command{
		Use:   "build-set",
		Short: "Compute the artifacts to rebuild from source and their release order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuildSet(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Target, "target", "", "Target platform manifest coordinate")
	cmd.Flags().StringSliceVar(&opts.Roots, "root", nil, "Root coordinates (default: every managed coordinate of the target)")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Output directory")
	cmd.Flags().IntVar(&opts.Depth, "depth", -1, "Maximum tree depth to accept (-1 for unlimited)")
	cmd.Flags().BoolVar(&opts.IncludeNonManaged, "include-non-managed", false, "Accept artifacts the target does not manage")
	cmd.Flags().StringSliceVar(&opts.IncludeGroups, "include-group", nil, "Group id patterns to accept")
	cmd.Flags().StringSliceVar(&opts.IncludeKeys, "include-key", nil, "Artifact keys to accept")
	cmd.Flags().StringSliceVar(&opts.IncludeCoordinates, "include-coordinate", nil, "Coordinates to accept")
	cmd.Flags().StringSliceVar(&opts.ExcludeGroups, "exclude-group", nil, "Group id patterns to reject")
	cmd.Flags().StringSliceVar(&opts.ExcludeKeys, "exclude-key", nil, "Artifact keys to reject")
	cmd.Flags().StringSliceVar(&opts.ExcludeCoordinates, "exclude-coordinate", nil, "Coordinates to reject")
	cmd.Flags().BoolVar(&opts.ExcludeParentAncestry, "exclude-parent-ancestry", false, "Do not pull parent descriptors into the build set")
	cmd.Flags().BoolVar(&opts.ExcludeTransitiveImports, "exclude-transitive-imports", false, "Pull only direct imports into the build set")
	cmd.Flags().BoolVar(&opts.NoRemaining, "no-remaining", false, "Do not report remaining artifacts")
	cmd.Flags().StringSliceVar(&opts.ExcludeScopes, "exclude-scope", nil, "Dependency scopes to ignore (default: test,provided,system)")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "Roots resolved concurrently")
	addSourceFlags(cmd, &opts.Sources)
	_ = viper.BindPFlag("target", cmd.Flags().Lookup("target"))
	_ = viper.BindPFlag("roots", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("depth", cmd.Flags().Lookup("depth"))
	_ = viper.BindPFlag("include_non_managed", cmd.Flags().Lookup("include-non-managed"))
	_ = viper.BindPFlag("include_groups", cmd.Flags().Lookup("include-group"))
	_ = viper.BindPFlag("include_keys", cmd.Flags().Lookup("include-key"))
	_ = viper.BindPFlag("include_coordinates", cmd.Flags().Lookup("include-coordinate"))
	_ = viper.BindPFlag("exclude_groups", cmd.Flags().Lookup("exclude-group"))
	_ = viper.BindPFlag("exclude_keys", cmd.Flags().Lookup("exclude-key"))
	_ = viper.BindPFlag("exclude_coordinates", cmd.Flags().Lookup("exclude-coordinate"))
	_ = viper.BindPFlag("exclude_parent_ancestry", cmd.Flags().Lookup("exclude-parent-ancestry"))
	_ = viper.BindPFlag("exclude_transitive_imports", cmd.Flags().Lookup("exclude-transitive-imports"))
	_ = viper.BindPFlag("no_remaining", cmd.Flags().Lookup("no-remaining"))
	_ = viper.BindPFlag("exclude_scopes", cmd.Flags().Lookup("exclude-scope"))
	_ = viper.BindPFlag("parallel", cmd.Flags().Lookup("parallel"))
	return cmd
}

func runBuildSet(ctx context.Context, cmd *cobra.Command, opts buildSetOptions) error {
	sources := resolveSources(cmd, opts.Sources)
	req := app.BuildSetRequest{
		Target:                   resolveString(cmd, opts.Target, "target", "target"),
		Roots:                    resolveStrings(cmd, opts.Roots, "roots", "root"),
		Repository:               sources.Repository,
		ReleaseMap:               sources.ReleaseMap,
		ReleaseCache:             sources.ReleaseCache,
		Remote:                   sources.Remote,
		RemoteUser:               sources.RemoteUser,
		RemotePassword:           sources.RemotePassword,
		OutputDir:                resolveString(cmd, opts.Output, "output", "output"),
		DepthLimit:               resolveInt(cmd, opts.Depth, "depth", "depth"),
		IncludeNonManaged:        resolveBool(cmd, opts.IncludeNonManaged, "include_non_managed", "include-non-managed"),
		IncludeGroupIDs:          resolveStrings(cmd, opts.IncludeGroups, "include_groups", "include-group"),
		IncludeKeys:              resolveStrings(cmd, opts.IncludeKeys, "include_keys", "include-key"),
		IncludeCoordinates:       resolveStrings(cmd, opts.IncludeCoordinates, "include_coordinates", "include-coordinate"),
		ExcludeGroupIDs:          resolveStrings(cmd, opts.ExcludeGroups, "exclude_groups", "exclude-group"),
		ExcludeKeys:              resolveStrings(cmd, opts.ExcludeKeys, "exclude_keys", "exclude-key"),
		ExcludeCoordinates:       resolveStrings(cmd, opts.ExcludeCoordinates, "exclude_coordinates", "exclude-coordinate"),
		ExcludeParentAncestry:    resolveBool(cmd, opts.ExcludeParentAncestry, "exclude_parent_ancestry", "exclude-parent-ancestry"),
		ExcludeTransitiveImports: resolveBool(cmd, opts.ExcludeTransitiveImports, "exclude_transitive_imports", "exclude-transitive-imports"),
		NoRemaining:              resolveBool(cmd, opts.NoRemaining, "no_remaining", "no-remaining"),
		Parallel:                 resolveInt(cmd, opts.Parallel, "parallel", "parallel"),
	}
	if scopes := resolveStrings(cmd, opts.ExcludeScopes, "exclude_scopes", "exclude-scope"); len(scopes) > 0 {
		req.ExcludeScopes = scopes
	}
	return runWithService(func(service app.Service) error {
		result, err := service.BuildSet(ctx, req)
		if err != nil {
			return err
		}
		out := stdout(cmd)
		fmt.Fprintf(out, "build set: accepted=%d skipped=%d remaining=%d releases=%d errors=%d\n",
			result.Summary.Accepted, result.Summary.Skipped, result.Summary.Remaining, len(result.Order), result.Summary.Errors)
		for _, failure := range result.Failures {
			fmt.Fprintf(out, "failed root: %s: %s\n", failure.Root, failure.Message)
		}
		return nil
	})
}
