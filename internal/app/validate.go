package app

import (
	"context"
	"fmt"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	platformPath := strings.TrimSpace(req.PlatformPath)
	if platformPath == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("platform file path is required")
	}
	cfg, err := s.ConfigLoader.LoadPlatform(platformPath)
	if err != nil {
		return ValidateResult{}, err
	}
	composeReq, policy, err := validatePlatform(cfg)
	if err != nil {
		return ValidateResult{}, err
	}
	assert.NotEmpty(ctx, composeReq.Base.String(), "platform base must be set")
	seen := map[string]struct{}{}
	for _, member := range composeReq.Members {
		if _, ok := seen[member.Name]; ok {
			return ValidateResult{}, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate member: %s", member.Name))
		}
		seen[member.Name] = struct{}{}
	}
	log.Ctx(ctx).Debug().Str("platform", platformName(cfg)).Int("members", len(composeReq.Members)).Msg("platform valid")
	return ValidateResult{
		PlatformName: platformName(cfg),
		Members:      len(composeReq.Members),
		Enforced:     len(policy.EnforcedKeys()),
	}, nil
}
