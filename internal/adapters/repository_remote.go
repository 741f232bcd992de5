package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/ports"
	"bomkit/internal/shared"
	"bomkit/internal/types"
)

const defaultRemoteTimeout = 30 * time.Second
const defaultRemoteRetries = 3
const defaultRemoteRetryDelay = 200 * time.Millisecond
const maxRemoteRetryDelay = 2 * time.Second

// RemoteRepositoryAdapter confirms artifact existence against a remote
// repository with HEAD requests. Descriptors and trees come from Next.
type RemoteRepositoryAdapter struct {
	Next       ports.ArtifactResolverPort
	Endpoint   string
	Username   string
	Password   string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Client     *http.Client
}

func NewRemoteRepositoryAdapter(next ports.ArtifactResolverPort, endpoint string, username string, password string, timeoutSec int, retries int) RemoteRepositoryAdapter {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	if retries <= 0 {
		retries = defaultRemoteRetries
	}
	return RemoteRepositoryAdapter{
		Next:       next,
		Endpoint:   endpoint,
		Username:   username,
		Password:   password,
		Timeout:    timeout,
		Retries:    retries,
		RetryDelay: defaultRemoteRetryDelay,
	}
}

// Resolve returns the remote URL of coord. A 404 is reported as a missing
// artifact; other failures mean the repository is unavailable.
func (a RemoteRepositoryAdapter) Resolve(ctx context.Context, coord types.ArtifactCoordinate) (string, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(a.Endpoint), "/")
	if endpoint == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("remote repository endpoint is empty")
	}
	coord = coord.Normalized()
	url := endpoint + "/" + shared.ArtifactPath(coord.GroupID, coord.ArtifactID, coord.Version, coord.Classifier, coord.Type)

	retries := a.Retries
	if retries <= 0 {
		retries = 1
	}
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		retry, err := a.headOnce(ctx, url, coord)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if !retry || attempt == retries-1 {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(a.retryDelay(attempt)):
		}
	}
	return "", lastErr
}

func (a RemoteRepositoryAdapter) headOnce(ctx context.Context, url string, coord types.ArtifactCoordinate) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create repository request").
			WithCause(err)
	}
	if strings.TrimSpace(a.Password) != "" {
		req.SetBasicAuth(strings.TrimSpace(a.Username), a.Password)
	}
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: a.Timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("repository request failed").
			WithCause(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("artifact not found: %s", coord)).
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	retry := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
	return retry, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("repository request failed").
		WithCause(shared.HTTPStatusError(resp.StatusCode, url))
}

func (a RemoteRepositoryAdapter) retryDelay(attempt int) time.Duration {
	base := a.RetryDelay
	if base <= 0 {
		base = defaultRemoteRetryDelay
	}
	delay := base * time.Duration(1<<attempt)
	if delay > maxRemoteRetryDelay {
		delay = maxRemoteRetryDelay
	}
	return delay
}

func (a RemoteRepositoryAdapter) ResolveDescriptor(ctx context.Context, coord types.ArtifactCoordinate) (types.Descriptor, error) {
	if a.Next == nil {
		return types.Descriptor{}, missingDelegate()
	}
	return a.Next.ResolveDescriptor(ctx, coord)
}

func (a RemoteRepositoryAdapter) CollectDependencyTree(ctx context.Context, root types.ArtifactCoordinate, managed []types.DependencyConstraint) (types.DependencyNode, error) {
	if a.Next == nil {
		return types.DependencyNode{}, missingDelegate()
	}
	return a.Next.CollectDependencyTree(ctx, root, managed)
}

func missingDelegate() error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("remote repository has no descriptor source")
}

var _ ports.ArtifactResolverPort = RemoteRepositoryAdapter{}
