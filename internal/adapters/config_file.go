package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"bomkit/internal/ports"
	"bomkit/internal/types"
)

const PlatformAPIVersion = "bomkit/v1"

type PlatformConfigFileAdapter struct{}

func NewPlatformConfigFileAdapter() PlatformConfigFileAdapter {
	return PlatformConfigFileAdapter{}
}

// LoadPlatform reads a platform description. Relative source paths are
// resolved against the directory of the file.
func (a PlatformConfigFileAdapter) LoadPlatform(path string) (types.PlatformConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PlatformConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("platform file not found").
			WithCause(err)
	}
	var cfg types.PlatformConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.PlatformConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse platform yaml").
			WithCause(err)
	}
	if cfg.APIVersion != "" && cfg.APIVersion != PlatformAPIVersion {
		return types.PlatformConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported platform api_version: " + cfg.APIVersion)
	}
	if strings.TrimSpace(cfg.Base) == "" {
		return types.PlatformConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("platform base manifest is empty")
	}
	dir := filepath.Dir(path)
	cfg.Sources.Repository = resolveRelative(dir, cfg.Sources.Repository)
	cfg.Sources.ReleaseMap = resolveRelative(dir, cfg.Sources.ReleaseMap)
	cfg.Sources.ReleaseCache = resolveRelative(dir, cfg.Sources.ReleaseCache)
	return cfg, nil
}

func resolveRelative(dir string, value string) string {
	value = strings.TrimSpace(value)
	if value == "" || filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(dir, value)
}

var _ ports.PlatformConfigPort = PlatformConfigFileAdapter{}
