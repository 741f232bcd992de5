package app

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/core"
	"bomkit/internal/policies"
	"bomkit/internal/types"
)

// platformRequest converts a platform file into a composition request.
func platformRequest(cfg types.PlatformConfig) (core.ComposeRequest, error) {
	base, err := core.ParseCoordinate(cfg.Base)
	if err != nil {
		return core.ComposeRequest{}, err
	}
	req := core.ComposeRequest{
		Base:              base,
		SkipFailedMembers: cfg.Options.SkipFailedMembers,
	}
	req.Overrides, err = parseOverrides(cfg.Overrides)
	if err != nil {
		return core.ComposeRequest{}, err
	}
	for _, spec := range cfg.Members {
		member, err := parseMember(spec)
		if err != nil {
			return core.ComposeRequest{}, err
		}
		req.Members = append(req.Members, member)
	}
	return req, nil
}

func parseOverrides(spec types.OverridesSpec) (types.Overrides, error) {
	enforced, err := core.ParseCoordinates(spec.Enforced)
	if err != nil {
		return types.Overrides{}, err
	}
	excluded, err := core.ParseKeys(spec.Excluded)
	if err != nil {
		return types.Overrides{}, err
	}
	out := types.Overrides{
		Enforced:         map[types.ArtifactKey]types.ArtifactCoordinate{},
		Excluded:         map[types.ArtifactKey]struct{}{},
		ExcludedGroupIDs: trimAll(spec.ExcludedGroupIDs),
	}
	for _, coord := range enforced {
		if existing, ok := out.Enforced[coord.Key()]; ok && existing != coord {
			return types.Overrides{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s is enforced twice", coord.Key()))
		}
		out.Enforced[coord.Key()] = coord
	}
	for _, key := range excluded {
		out.Excluded[key] = struct{}{}
	}
	return out, nil
}

func parseMember(spec types.MemberSpec) (types.MemberConfig, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return types.MemberConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("member name is required")
	}
	manifest, err := core.ParseCoordinate(spec.Manifest)
	if err != nil {
		return types.MemberConfig{}, err
	}
	member := types.MemberConfig{
		Name:                name,
		Manifest:            manifest,
		AlignOwnConstraints: spec.AlignOwnConstraints,
		ExcludedGroupIDs:    trimAll(spec.Overrides.ExcludedGroupIDs),
		OwnedGroupIDs:       trimAll(spec.OwnedGroupIDs),
	}
	if strings.TrimSpace(spec.Generated) != "" {
		if member.Generated, err = core.ParseCoordinate(spec.Generated); err != nil {
			return types.MemberConfig{}, err
		}
	}
	if member.Enforced, err = core.ParseCoordinates(spec.Overrides.Enforced); err != nil {
		return types.MemberConfig{}, err
	}
	if member.Excluded, err = core.ParseKeys(spec.Overrides.Excluded); err != nil {
		return types.MemberConfig{}, err
	}
	return member, nil
}

func platformName(cfg types.PlatformConfig) string {
	if name := strings.TrimSpace(cfg.Metadata.Name); name != "" {
		return name
	}
	return "platform"
}

func validatePlatform(cfg types.PlatformConfig) (core.ComposeRequest, policies.OverridePolicy, error) {
	req, err := platformRequest(cfg)
	if err != nil {
		return core.ComposeRequest{}, policies.OverridePolicy{}, err
	}
	policy, err := policies.NewOverridePolicy(req.Overrides, req.Members)
	if err != nil {
		return core.ComposeRequest{}, policies.OverridePolicy{}, err
	}
	return req, policy, nil
}

func trimAll(values []string) []string {
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
