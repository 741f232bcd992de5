package app

import (
	"context"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/adapters"
	"bomkit/internal/core"
	"bomkit/internal/metrics"
	"bomkit/internal/ports"
	"bomkit/internal/types"
)

// Sources are the collaborators backing one run.
type Sources struct {
	Artifacts  ports.ArtifactResolverPort
	Releases   ports.ReleaseIDResolverPort
	Extensions ports.ExtensionDescriptorPort
	close      func() error
}

func (s Sources) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

type Service struct {
	ConfigLoader   ports.PlatformConfigPort
	ManifestReader ports.ManifestReaderPort
	OpenSources    func(ctx context.Context, spec types.SourcesSpec) (Sources, error)
	Reports        func(dir string) ports.ReportPort
	Manifests      func(dir string) ports.ManifestWriterPort
	OpenCache      func(path string) (ports.ReleaseCacheStorePort, error)
	Metrics        *metrics.Collectors
	Clock          func() time.Time
}

func NewService() Service {
	return Service{
		ConfigLoader:   adapters.NewPlatformConfigFileAdapter(),
		ManifestReader: adapters.NewManifestFileAdapter(""),
		OpenSources:    OpenFileSources,
		Reports: func(dir string) ports.ReportPort {
			return adapters.NewReportFileAdapter(dir)
		},
		Manifests: func(dir string) ports.ManifestWriterPort {
			return adapters.NewManifestFileAdapter(dir)
		},
	}
}

// OpenFileSources wires the file-backed repository and release map, the
// optional remote existence check and the optional persistent release
// cache. Release lookups are memoized for the lifetime of the sources.
func OpenFileSources(ctx context.Context, spec types.SourcesSpec) (Sources, error) {
	if strings.TrimSpace(spec.Repository) == "" {
		return Sources{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repository index is required")
	}
	repository := adapters.NewRepositoryFileAdapter(spec.Repository)
	var artifacts ports.ArtifactResolverPort = repository
	if strings.TrimSpace(spec.Remote) != "" {
		artifacts = adapters.NewRemoteRepositoryAdapter(repository, spec.Remote, spec.RemoteUser, spec.RemotePassword, 0, 0)
	}
	var releases ports.ReleaseIDResolverPort = adapters.NewReleaseMapFileAdapter(spec.ReleaseMap, repository)
	sources := Sources{Artifacts: artifacts, Extensions: repository}
	if strings.TrimSpace(spec.ReleaseCache) != "" {
		cache, err := adapters.OpenSQLiteReleaseCache(spec.ReleaseCache, releases)
		if err != nil {
			return Sources{}, err
		}
		releases = cache
		sources.close = cache.Close
	}
	sources.Releases = core.NewCachingReleaseResolver(releases)
	return sources, nil
}

func (s Service) reports(dir string) ports.ReportPort {
	if s.Reports == nil {
		return adapters.NewReportFileAdapter(dir)
	}
	return s.Reports(dir)
}

func (s Service) manifests(dir string) ports.ManifestWriterPort {
	if s.Manifests == nil {
		return adapters.NewManifestFileAdapter(dir)
	}
	return s.Manifests(dir)
}

func (s Service) openCache(path string) (ports.ReleaseCacheStorePort, error) {
	if s.OpenCache == nil {
		cache, err := adapters.OpenSQLiteReleaseCache(path, nil)
		if err != nil {
			return nil, err
		}
		return cache, nil
	}
	return s.OpenCache(path)
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}

func (s Service) openSources(ctx context.Context, spec types.SourcesSpec) (Sources, error) {
	if s.OpenSources == nil {
		return OpenFileSources(ctx, spec)
	}
	return s.OpenSources(ctx, spec)
}
