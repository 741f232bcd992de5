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

// ManifestFileAdapter stores decomposed manifests as YAML files in Dir.
type ManifestFileAdapter struct {
	Dir string
}

func NewManifestFileAdapter(dir string) ManifestFileAdapter {
	return ManifestFileAdapter{Dir: dir}
}

func (a ManifestFileAdapter) WriteManifest(name string, manifest types.ManifestFile) error {
	if strings.TrimSpace(name) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest name is empty")
	}
	if strings.TrimSpace(a.Dir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode manifest").
			WithCause(err)
	}
	path := filepath.Join(a.Dir, manifestFileName(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write manifest").
			WithCause(err)
	}
	return nil
}

func (a ManifestFileAdapter) ReadManifest(path string) (types.ManifestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ManifestFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("manifest file not found").
			WithCause(err)
	}
	var manifest types.ManifestFile
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return types.ManifestFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse manifest yaml").
			WithCause(err)
	}
	return manifest, nil
}

func manifestFileName(name string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_", " ", "_")
	name = replacer.Replace(strings.TrimSpace(name))
	if strings.HasSuffix(name, ".yaml") {
		return name
	}
	return name + ".yaml"
}

var _ ports.ManifestWriterPort = ManifestFileAdapter{}
var _ ports.ManifestReaderPort = ManifestFileAdapter{}
