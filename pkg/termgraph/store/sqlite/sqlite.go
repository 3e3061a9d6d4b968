package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/cognicore/termgraph/pkg/termgraph/internalerr"
	"github.com/cognicore/termgraph/pkg/termgraph/store"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(internalerr.ErrStoreUnavailable, err.Error())
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(internalerr.ErrStoreUnavailable, err.Error())
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(internalerr.ErrStoreUnavailable, err.Error())
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init schema")
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
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	file TEXT,
	created_at TEXT NOT NULL,
	nodes INTEGER NOT NULL DEFAULT 0,
	links INTEGER NOT NULL DEFAULT 0,
	groups_count INTEGER NOT NULL DEFAULT 0,
	payload BLOB
);

CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);

CREATE TABLE IF NOT EXISTS token_df (
	token TEXT PRIMARY KEY,
	df INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveAnalysis inserts or replaces an analysis
func (s *sqliteStore) SaveAnalysis(ctx context.Context, a store.Analysis) error {
	if a.ID == "" {
		return errors.Wrap(internalerr.ErrInvalidInput, "analysis id required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO analyses (id, file, created_at, nodes, links, groups_count, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	file=excluded.file,
	created_at=excluded.created_at,
	nodes=excluded.nodes,
	links=excluded.links,
	groups_count=excluded.groups_count,
	payload=excluded.payload;
`, a.ID, a.File, a.CreatedAt.UTC().Format(timeLayout), a.Nodes, a.Links, a.Groups, a.Payload)
	return errors.Wrap(err, "save analysis")
}

// GetAnalysis retrieves one analysis including its payload
func (s *sqliteStore) GetAnalysis(ctx context.Context, id string) (store.Analysis, error) {
	var a store.Analysis
	var created string
	err := s.db.QueryRowContext(ctx, `
SELECT id, file, created_at, nodes, links, groups_count, payload
FROM analyses WHERE id = ?`, id).
		Scan(&a.ID, &a.File, &created, &a.Nodes, &a.Links, &a.Groups, &a.Payload)
	if err == sql.ErrNoRows {
		return store.Analysis{}, errors.Wrapf(internalerr.ErrNotFound, "analysis %s", id)
	}
	if err != nil {
		return store.Analysis{}, errors.Wrap(err, "get analysis")
	}
	a.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return store.Analysis{}, errors.Wrap(err, "parse created_at")
	}
	return a, nil
}

// ListAnalyses returns the newest analyses first, without payloads
func (s *sqliteStore) ListAnalyses(ctx context.Context, limit int) ([]store.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, file, created_at, nodes, links, groups_count
FROM analyses
ORDER BY created_at DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list analyses")
	}
	defer rows.Close()

	var out []store.Analysis
	for rows.Next() {
		var a store.Analysis
		var created string
		if err := rows.Scan(&a.ID, &a.File, &created, &a.Nodes, &a.Links, &a.Groups); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, errors.Wrap(err, "parse created_at")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertTokenDF updates the document frequency for a token
func (s *sqliteStore) UpsertTokenDF(ctx context.Context, token string, df int64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO token_df (token, df) VALUES (?, ?)
ON CONFLICT(token) DO UPDATE SET df=excluded.df;
`, token, df)
	return err
}

// GetTokenDF retrieves the document frequency for a token
func (s *sqliteStore) GetTokenDF(ctx context.Context, token string) (int64, error) {
	var df int64
	err := s.db.QueryRowContext(ctx, `SELECT df FROM token_df WHERE token=?`, token).Scan(&df)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return df, err
}

// AllTokenDF loads every stored document frequency
func (s *sqliteStore) AllTokenDF(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token, df FROM token_df`)
	if err != nil {
		return nil, errors.Wrap(err, "load token df")
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var token string
		var df int64
		if err := rows.Scan(&token, &df); err != nil {
			return nil, err
		}
		out[token] = df
	}
	return out, rows.Err()
}

// AddDocument increments the document count and the frequency of each
// distinct token in one transaction
func (s *sqliteStore) AddDocument(ctx context.Context, tokens []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO token_df (token, df) VALUES (?, 1)
ON CONFLICT(token) DO UPDATE SET df=df+1;
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range store.Unique(tokens) {
		if _, err := stmt.ExecContext(ctx, t); err != nil {
			return errors.Wrapf(err, "increment df %q", t)
		}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO meta (key, value) VALUES ('total_docs', 1)
ON CONFLICT(key) DO UPDATE SET value=value+1;
`); err != nil {
		return errors.Wrap(err, "increment total docs")
	}
	return tx.Commit()
}

// TotalDocs returns the number of reference documents
func (s *sqliteStore) TotalDocs(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='total_docs'`).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return total, err
}

// SetTotalDocs overrides the number of reference documents
func (s *sqliteStore) SetTotalDocs(ctx context.Context, n int64) error {
	if n < 0 {
		return errors.Wrap(internalerr.ErrInvalidInput, "negative document count")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO meta (key, value) VALUES ('total_docs', ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value;
`, n)
	return err
}
