package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bomkit/internal/app"
)

type filterOptions struct {
	Manifest   string
	Supported  []string
	Repository string
	Output     string
	Name       string
}

func newFilterCommand() *cobra.Command {
	opts := filterOptions{}
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Restrict a manifest to what supported extensions reach",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "Manifest file to filter")
	cmd.Flags().StringSliceVar(&opts.Supported, "supported", nil, "Supported extension keys")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "Repository index file")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Output directory")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Output manifest name")
	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("supported", cmd.Flags().Lookup("supported"))
	_ = viper.BindPFlag("repository", cmd.Flags().Lookup("repository"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runFilter(ctx context.Context, cmd *cobra.Command, opts filterOptions) error {
	return runWithService(func(service app.Service) error {
		result, err := service.Filter(ctx, app.FilterRequest{
			ManifestPath: resolveString(cmd, opts.Manifest, "manifest", "manifest"),
			Supported:    resolveStrings(cmd, opts.Supported, "supported", "supported"),
			Repository:   resolveString(cmd, opts.Repository, "repository", "repository"),
			OutputDir:    resolveString(cmd, opts.Output, "output", "output"),
			Name:         opts.Name,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout(cmd), "filtered: kept=%d dropped=%d\n", result.Kept, len(result.Dropped))
		return nil
	})
}
