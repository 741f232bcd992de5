package types

import "time"

// CacheEntry is one persisted release classification.
type CacheEntry struct {
	Coordinate string
	Release    ReleaseID
	ResolvedAt time.Time
}

type CacheRetentionPolicy struct {
	KeepLast       int
	KeepDays       int
	ProtectOrigins []string
	DryRun         bool
}

type CachePrunePlan struct {
	Keep   []CacheEntry
	Delete []CacheEntry
}
