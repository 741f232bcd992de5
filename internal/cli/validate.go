package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bomkit/internal/app"
)

type validateOptions struct {
	Platform string
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a platform file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Platform file path")
	_ = viper.BindPFlag("platform", cmd.Flags().Lookup("platform"))
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	return runWithService(func(service app.Service) error {
		result, err := service.Validate(ctx, app.ValidateRequest{
			PlatformPath: resolveString(cmd, opts.Platform, "platform", "platform"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout(cmd), "validated: %s (members=%d enforced=%d)\n", result.PlatformName, result.Members, result.Enforced)
		return nil
	})
}
