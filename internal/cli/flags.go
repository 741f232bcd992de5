package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// sourceOptions are the collaborator flags shared by compose and
// build-set.
type sourceOptions struct {
	Repository     string
	ReleaseMap     string
	ReleaseCache   string
	Remote         string
	RemoteUser     string
	RemotePassword string
}

func addSourceFlags(cmd *cobra.Command, opts *sourceOptions) {
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "Repository index file")
	cmd.Flags().StringVar(&opts.ReleaseMap, "release-map", "", "Release origin map file")
	cmd.Flags().StringVar(&opts.ReleaseCache, "release-cache", "", "SQLite release cache path")
	cmd.Flags().StringVar(&opts.Remote, "remote", "", "Remote repository URL for existence probes")
	cmd.Flags().StringVar(&opts.RemoteUser, "remote-user", "", "Remote repository user")
	cmd.Flags().StringVar(&opts.RemotePassword, "remote-password", "", "Remote repository password")

	_ = viper.BindPFlag("repository", cmd.Flags().Lookup("repository"))
	_ = viper.BindPFlag("release_map", cmd.Flags().Lookup("release-map"))
	_ = viper.BindPFlag("release_cache", cmd.Flags().Lookup("release-cache"))
	_ = viper.BindPFlag("remote", cmd.Flags().Lookup("remote"))
	_ = viper.BindPFlag("remote_user", cmd.Flags().Lookup("remote-user"))
	_ = viper.BindPFlag("remote_password", cmd.Flags().Lookup("remote-password"))
}

func resolveSources(cmd *cobra.Command, opts sourceOptions) sourceOptions {
	return sourceOptions{
		Repository:     resolveString(cmd, opts.Repository, "repository", "repository"),
		ReleaseMap:     resolveString(cmd, opts.ReleaseMap, "release_map", "release-map"),
		ReleaseCache:   resolveString(cmd, opts.ReleaseCache, "release_cache", "release-cache"),
		Remote:         resolveString(cmd, opts.Remote, "remote", "remote"),
		RemoteUser:     resolveString(cmd, opts.RemoteUser, "remote_user", "remote-user"),
		RemotePassword: resolveString(cmd, opts.RemotePassword, "remote_password", "remote-password"),
	}
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	if !viper.IsSet(key) {
		return value
	}
	return viper.GetInt(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
