package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"bomkit/internal/types"
)

// PruneCache evicts persisted release classifications that fall outside
// the retention policy. A dry run only reports the plan.
func (s Service) PruneCache(ctx context.Context, req PruneCacheRequest) (PruneCacheResult, error) {
	path := strings.TrimSpace(req.ReleaseCache)
	if path == "" {
		return PruneCacheResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("release cache path is required")
	}
	cache, err := s.openCache(path)
	if err != nil {
		return PruneCacheResult{}, err
	}
	defer cache.Close()

	entries, err := cache.Entries(ctx)
	if err != nil {
		return PruneCacheResult{}, err
	}
	policy := types.CacheRetentionPolicy{
		KeepLast:       req.KeepLast,
		KeepDays:       req.KeepDays,
		ProtectOrigins: trimAll(req.ProtectOrigins),
		DryRun:         req.DryRun,
	}
	plan := BuildCachePrunePlan(entries, policy, timeNow(s.Clock))
	result := PruneCacheResult{
		KeepCount:   len(plan.Keep),
		DeleteCount: len(plan.Delete),
		DryRun:      policy.DryRun,
	}
	if policy.DryRun {
		return result, nil
	}
	deleted := make([]string, 0, len(plan.Delete))
	for _, entry := range plan.Delete {
		deleted = append(deleted, entry.Coordinate)
	}
	if err := cache.Delete(ctx, deleted); err != nil {
		return PruneCacheResult{}, err
	}
	log.Ctx(ctx).Info().
		Int("kept", result.KeepCount).
		Int("deleted", len(deleted)).
		Msg("release cache pruned")
	result.Deleted = deleted
	return result, nil
}
