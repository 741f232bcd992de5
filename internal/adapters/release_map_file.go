package adapters

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"bomkit/internal/policies"
	"bomkit/internal/ports"
	"bomkit/internal/shared"
	"bomkit/internal/types"
)

// InlineReleaseSource exposes release ids declared next to artifacts.
type InlineReleaseSource interface {
	InlineRelease(coord types.ArtifactCoordinate) (types.ReleaseID, bool, error)
}

type releaseRule struct {
	origin    types.ReleaseOrigin
	version   string
	artifacts map[string]struct{}
	groups    policies.GroupMatcher
}

// ReleaseMapFileAdapter classifies artifacts with ordered origin rules.
// The first matching rule wins. Artifacts without a matching rule fall
// back to Inline when set.
type ReleaseMapFileAdapter struct {
	Path   string
	Inline InlineReleaseSource
	mu     sync.Mutex
	rules  []releaseRule
	loaded bool
}

func NewReleaseMapFileAdapter(path string, inline InlineReleaseSource) *ReleaseMapFileAdapter {
	return &ReleaseMapFileAdapter{Path: path, Inline: inline}
}

func (a *ReleaseMapFileAdapter) ResolveRelease(ctx context.Context, coord types.ArtifactCoordinate) (types.ReleaseID, error) {
	coord = coord.Normalized()
	rules, err := a.load()
	if err != nil {
		return types.ReleaseID{}, err
	}
	for _, rule := range rules {
		if !rule.matches(coord) {
			continue
		}
		version := rule.version
		if version == "" {
			version = coord.Version
		}
		return types.ReleaseID{Origin: rule.origin, Version: types.ReleaseVersion(version)}, nil
	}
	if a.Inline != nil {
		id, ok, err := a.Inline.InlineRelease(coord)
		if err != nil {
			return types.ReleaseID{}, err
		}
		if ok {
			return id, nil
		}
	}
	return types.ReleaseID{}, errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("no release origin known for %s", coord))
}

func (r releaseRule) matches(coord types.ArtifactCoordinate) bool {
	if _, ok := r.artifacts[coord.GroupID+":"+coord.ArtifactID]; ok {
		return true
	}
	return r.groups.Matches(coord.GroupID)
}

func (a *ReleaseMapFileAdapter) load() ([]releaseRule, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded || strings.TrimSpace(a.Path) == "" {
		return a.rules, nil
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("release map unavailable").
			WithCause(err)
	}
	var file types.ReleaseMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid release map format").
			WithCause(err)
	}
	rules := make([]releaseRule, 0, len(file.Rules))
	for _, raw := range file.Rules {
		origin := shared.NormalizeOrigin(raw.Origin)
		if origin == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("release rule origin is empty")
		}
		rule := releaseRule{
			origin:    types.ReleaseOrigin(origin),
			version:   strings.TrimSpace(raw.Version),
			artifacts: map[string]struct{}{},
		}
		var groups []string
		for _, pattern := range raw.Matches {
			pattern = strings.TrimSpace(pattern)
			if strings.Contains(pattern, ":") {
				rule.artifacts[pattern] = struct{}{}
				continue
			}
			groups = append(groups, pattern)
		}
		rule.groups = policies.NewGroupMatcher(groups)
		rules = append(rules, rule)
	}
	a.rules = rules
	a.loaded = true
	return rules, nil
}

var _ ports.ReleaseIDResolverPort = (*ReleaseMapFileAdapter)(nil)
