package app

import (
	"sort"
	"time"

	"bomkit/internal/shared"
	"bomkit/internal/types"
)

// BuildCachePrunePlan splits cache entries into keep and delete sets.
// An entry is kept when its origin is protected, when it was resolved
// within KeepDays of now, or when it is among the KeepLast most recent
// entries of its origin.
func BuildCachePrunePlan(entries []types.CacheEntry, policy types.CacheRetentionPolicy, now time.Time) types.CachePrunePlan {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	normalized := normalizeRetentionPolicy(policy)
	protected := normalizeOrigins(normalized.ProtectOrigins)

	keep := map[string]struct{}{}
	grouped := map[types.ReleaseOrigin][]types.CacheEntry{}
	for _, entry := range entries {
		if _, ok := protected[entry.Release.Origin]; ok {
			keep[entry.Coordinate] = struct{}{}
		}
		if normalized.KeepDays > 0 && !entry.ResolvedAt.IsZero() {
			cutoff := now.AddDate(0, 0, -normalized.KeepDays)
			if !entry.ResolvedAt.Before(cutoff) {
				keep[entry.Coordinate] = struct{}{}
			}
		}
		grouped[entry.Release.Origin] = append(grouped[entry.Release.Origin], entry)
	}

	if normalized.KeepLast > 0 {
		for _, group := range grouped {
			sorted := append([]types.CacheEntry(nil), group...)
			sort.Slice(sorted, func(i, j int) bool {
				if !sorted[i].ResolvedAt.Equal(sorted[j].ResolvedAt) {
					return sorted[i].ResolvedAt.After(sorted[j].ResolvedAt)
				}
				return sorted[i].Coordinate < sorted[j].Coordinate
			})
			for _, entry := range sorted[:min(normalized.KeepLast, len(sorted))] {
				keep[entry.Coordinate] = struct{}{}
			}
		}
	}

	var plan types.CachePrunePlan
	for _, entry := range entries {
		if _, ok := keep[entry.Coordinate]; ok {
			plan.Keep = append(plan.Keep, entry)
		} else {
			plan.Delete = append(plan.Delete, entry)
		}
	}
	return plan
}

func normalizeRetentionPolicy(policy types.CacheRetentionPolicy) types.CacheRetentionPolicy {
	normalized := policy
	normalized.KeepLast = max(normalized.KeepLast, 0)
	normalized.KeepDays = max(normalized.KeepDays, 0)
	return normalized
}

func normalizeOrigins(values []string) map[types.ReleaseOrigin]struct{} {
	set := map[types.ReleaseOrigin]struct{}{}
	for _, value := range values {
		origin := shared.NormalizeOrigin(value)
		if origin == "" {
			continue
		}
		set[types.ReleaseOrigin(origin)] = struct{}{}
	}
	return set
}
