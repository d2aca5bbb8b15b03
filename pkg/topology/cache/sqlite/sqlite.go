// Package sqlite is the on-disk artifact store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/topology/pkg/topology/cache"
	"github.com/cognicore/topology/pkg/topology/internalerr"
)

// sqliteStore implements cache.Store using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the cache database at path with
// WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (cache.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", internalerr.ErrStoreUnavailable, path, err)
	}

	// WAL lets readers proceed while a batch writes
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable WAL: %v", internalerr.ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set synchronous: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", internalerr.ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS cache_artifacts (
	kind TEXT NOT NULL,
	content_hash INTEGER NOT NULL,
	args_hash INTEGER NOT NULL,
	id TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	version TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	payload BLOB NOT NULL,
	UNIQUE(kind, content_hash, args_hash)
);

CREATE INDEX IF NOT EXISTS idx_cache_lookup ON cache_artifacts(kind, content_hash, args_hash);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Hashes are unsigned; SQLite integers are signed 64-bit, so they are
// stored bit-for-bit as int64.

func (s *sqliteStore) Get(ctx context.Context, kind cache.Kind, contentHash, argsHash uint64) (cache.Artifact, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, row_count, version, created_at, payload
FROM cache_artifacts
WHERE kind = ? AND content_hash = ? AND args_hash = ?`,
		string(kind), int64(contentHash), int64(argsHash))

	var (
		a       cache.Artifact
		created int64
	)
	err := row.Scan(&a.Meta.ID, &a.Meta.RowCount, &a.Meta.Version, &created, &a.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Artifact{}, false, nil
	}
	if err != nil {
		return cache.Artifact{}, false, fmt.Errorf("get %s artifact: %w", kind, err)
	}

	a.Kind = kind
	a.Meta.ContentHash = contentHash
	a.Meta.ArgsHash = argsHash
	a.Meta.CreatedAt = time.Unix(created, 0).UTC()
	return a, true, nil
}

func (s *sqliteStore) Put(ctx context.Context, a cache.Artifact) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cache_artifacts (kind, content_hash, args_hash, id, row_count, version, created_at, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(kind, content_hash, args_hash) DO UPDATE SET
	id=excluded.id,
	row_count=excluded.row_count,
	version=excluded.version,
	created_at=excluded.created_at,
	payload=excluded.payload;
`,
		string(a.Kind), int64(a.Meta.ContentHash), int64(a.Meta.ArgsHash),
		a.Meta.ID, a.Meta.RowCount, a.Meta.Version, a.Meta.CreatedAt.Unix(), a.Payload)
	if err != nil {
		return fmt.Errorf("put %s artifact: %w", a.Kind, err)
	}
	return nil
}

func (s *sqliteStore) Invalidate(ctx context.Context, kind *cache.Kind) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if kind == nil {
		res, err = s.db.ExecContext(ctx, "DELETE FROM cache_artifacts")
	} else {
		res, err = s.db.ExecContext(ctx, "DELETE FROM cache_artifacts WHERE kind = ?", string(*kind))
	}
	if err != nil {
		return 0, fmt.Errorf("invalidate: %w", err)
	}
	return res.RowsAffected()
}

func (s *sqliteStore) Info(ctx context.Context) ([]cache.Info, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT kind, id, content_hash, args_hash, row_count, version, created_at, length(payload)
FROM cache_artifacts
ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []cache.Info
	for rows.Next() {
		var (
			info         cache.Info
			kind         string
			content, arg int64
			created      int64
		)
		if err := rows.Scan(&kind, &info.ID, &content, &arg, &info.RowCount, &info.Version, &created, &info.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		info.Kind = cache.Kind(kind)
		info.ContentHash = uint64(content)
		info.ArgsHash = uint64(arg)
		info.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SizeBytes(ctx context.Context) (int64, error) {
	var pages, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("page size: %w", err)
	}
	return pages * pageSize, nil
}
