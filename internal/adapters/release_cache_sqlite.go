package adapters

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	_ "github.com/mattn/go-sqlite3"

	"bomkit/internal/ports"
	"bomkit/internal/types"
)

//go:embed release_cache.sql
var releaseCacheSchema string

// SQLiteReleaseCache persists release classifications across runs and
// delegates misses to Next. Failed classifications are never stored.
type SQLiteReleaseCache struct {
	Next ports.ReleaseIDResolverPort
	db   *sql.DB
}

// OpenSQLiteReleaseCache creates or opens the cache database at path.
func OpenSQLiteReleaseCache(path string, next ports.ReleaseIDResolverPort) (*SQLiteReleaseCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, cacheError("failed to open release cache", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, cacheError("failed to connect to release cache", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, cacheError(fmt.Sprintf("failed to execute %q", pragma), err)
		}
	}
	if _, err := db.Exec(releaseCacheSchema); err != nil {
		db.Close()
		return nil, cacheError("failed to apply release cache schema", err)
	}
	return &SQLiteReleaseCache{Next: next, db: db}, nil
}

func (c *SQLiteReleaseCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *SQLiteReleaseCache) ResolveRelease(ctx context.Context, coord types.ArtifactCoordinate) (types.ReleaseID, error) {
	coord = coord.Normalized()
	id, ok, err := c.lookup(ctx, coord)
	if err != nil {
		return types.ReleaseID{}, err
	}
	if ok {
		return id, nil
	}
	if c.Next == nil {
		return types.ReleaseID{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("no release origin known for %s", coord))
	}
	id, err = c.Next.ResolveRelease(ctx, coord)
	if err != nil {
		return types.ReleaseID{}, err
	}
	if err := c.store(ctx, coord, id); err != nil {
		return types.ReleaseID{}, err
	}
	return id, nil
}

// Len returns the number of cached classifications.
func (c *SQLiteReleaseCache) Len(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM release_ids").Scan(&count); err != nil {
		return 0, cacheError("failed to count release cache entries", err)
	}
	return count, nil
}

// Entries lists every cached classification ordered by coordinate.
func (c *SQLiteReleaseCache) Entries(ctx context.Context) ([]types.CacheEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT coordinate, origin, release_version, resolved_at FROM release_ids ORDER BY coordinate")
	if err != nil {
		return nil, cacheError("failed to list release cache entries", err)
	}
	defer rows.Close()
	var entries []types.CacheEntry
	for rows.Next() {
		var coord, origin, version, resolvedAt string
		if err := rows.Scan(&coord, &origin, &version, &resolvedAt); err != nil {
			return nil, cacheError("failed to scan release cache entry", err)
		}
		entries = append(entries, types.CacheEntry{
			Coordinate: coord,
			Release:    types.ReleaseID{Origin: types.ReleaseOrigin(origin), Version: types.ReleaseVersion(version)},
			ResolvedAt: parseResolvedAt(resolvedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, cacheError("failed to list release cache entries", err)
	}
	return entries, nil
}

// Delete removes the given coordinates in one transaction.
func (c *SQLiteReleaseCache) Delete(ctx context.Context, coords []string) error {
	if len(coords) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return cacheError("failed to begin release cache transaction", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, "DELETE FROM release_ids WHERE coordinate = ?")
	if err != nil {
		return cacheError("failed to prepare release cache delete", err)
	}
	defer stmt.Close()
	for _, coord := range coords {
		if _, err := stmt.ExecContext(ctx, coord); err != nil {
			return cacheError(fmt.Sprintf("failed to delete %s from release cache", coord), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cacheError("failed to commit release cache delete", err)
	}
	return nil
}

func (c *SQLiteReleaseCache) lookup(ctx context.Context, coord types.ArtifactCoordinate) (types.ReleaseID, bool, error) {
	var origin, version string
	err := c.db.QueryRowContext(ctx,
		"SELECT origin, release_version FROM release_ids WHERE coordinate = ?",
		coord.String(),
	).Scan(&origin, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ReleaseID{}, false, nil
	}
	if err != nil {
		return types.ReleaseID{}, false, cacheError("failed to read release cache", err)
	}
	return types.ReleaseID{Origin: types.ReleaseOrigin(origin), Version: types.ReleaseVersion(version)}, true, nil
}

func (c *SQLiteReleaseCache) store(ctx context.Context, coord types.ArtifactCoordinate, id types.ReleaseID) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO release_ids (coordinate, origin, release_version) VALUES (?, ?, ?)
		 ON CONFLICT(coordinate) DO UPDATE SET origin = excluded.origin, release_version = excluded.release_version`,
		coord.String(), string(id.Origin), string(id.Version),
	)
	if err != nil {
		return cacheError("failed to write release cache", err)
	}
	return nil
}

func cacheError(msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(cause)
}

var _ ports.ReleaseIDResolverPort = (*SQLiteReleaseCache)(nil)
var _ ports.ReleaseCacheStorePort = (*SQLiteReleaseCache)(nil)
