package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLStore is a SQL-backed snapshot store. It works with any database/sql
// compatible driver. Requires a table with schema:
//
//	CREATE TABLE ripple_snapshots (
//	    id VARCHAR(64) PRIMARY KEY,
//	    data BYTEA NOT NULL,
//	    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
//	    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
//	);
//	CREATE INDEX idx_ripple_snapshots_expires ON ripple_snapshots(expires_at);
type SQLStore struct {
	db              *sql.DB
	tableName       string
	dialect         SQLDialect
	cleanupInterval time.Duration
	closed          bool
	done            chan struct{}
}

// SQLDialect selects the placeholder and upsert syntax.
type SQLDialect int

const (
	// DialectPostgreSQL uses $1, $2 placeholders and ON CONFLICT upserts.
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses ? placeholders and ON DUPLICATE KEY upserts.
	DialectMySQL
	// DialectSQLite uses ? placeholders and INSERT OR REPLACE.
	DialectSQLite
)

// SQLStoreOption configures SQLStore behavior.
type SQLStoreOption func(*sqlStoreConfig)

type sqlStoreConfig struct {
	tableName       string
	dialect         SQLDialect
	cleanupInterval time.Duration
}

// WithSQLTableName sets the snapshot table name. Default: "ripple_snapshots".
func WithSQLTableName(name string) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect. Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.dialect = dialect
	}
}

// WithSQLCleanupInterval sets how often expired snapshots are swept.
// Default: 5 minutes.
func WithSQLCleanupInterval(d time.Duration) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.cleanupInterval = d
	}
}

// NewSQLStore creates a SQL-backed snapshot store.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	cfg := &sqlStoreConfig{
		tableName:       "ripple_snapshots",
		dialect:         DialectPostgreSQL,
		cleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store := &SQLStore{
		db:              db,
		tableName:       cfg.tableName,
		dialect:         cfg.dialect,
		cleanupInterval: cfg.cleanupInterval,
		done:            make(chan struct{}),
	}

	go store.cleanupLoop()
	return store
}

// saveQuery returns the dialect-specific upsert statement.
func (s *SQLStore) saveQuery() string {
	switch s.dialect {
	case DialectMySQL:
		return fmt.Sprintf(`
			INSERT INTO %s (id, data, expires_at, updated_at)
			VALUES (?, ?, ?, NOW())
			ON DUPLICATE KEY UPDATE
				data = VALUES(data),
				expires_at = VALUES(expires_at),
				updated_at = NOW()
		`, s.tableName)
	case DialectSQLite:
		return fmt.Sprintf(`
			INSERT OR REPLACE INTO %s (id, data, expires_at, updated_at)
			VALUES (?, ?, ?, datetime('now'))
		`, s.tableName)
	default:
		return fmt.Sprintf(`
			INSERT INTO %s (id, data, expires_at, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id) DO UPDATE SET
				data = EXCLUDED.data,
				expires_at = EXCLUDED.expires_at,
				updated_at = NOW()
		`, s.tableName)
	}
}

// loadQuery returns the dialect-specific select statement.
func (s *SQLStore) loadQuery() string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf(`SELECT data FROM %s WHERE id = $1 AND expires_at > $2`, s.tableName)
	}
	return fmt.Sprintf(`SELECT data FROM %s WHERE id = ? AND expires_at > ?`, s.tableName)
}

// deleteQuery returns the dialect-specific delete statement.
func (s *SQLStore) deleteQuery() string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tableName)
	}
	return fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.tableName)
}

// expireQuery returns the dialect-specific expiry sweep statement.
func (s *SQLStore) expireQuery() string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= $1`, s.tableName)
	}
	return fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= ?`, s.tableName)
}

// Save upserts snapshot bytes with an expiration time.
func (s *SQLStore) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	if s.closed {
		return ErrStoreClosed{}
	}
	_, err := s.db.ExecContext(ctx, s.saveQuery(), sessionID, data, expiresAt)
	if err != nil {
		return fmt.Errorf("snapshot: sql save: %w", err)
	}
	return nil
}

// Load retrieves snapshot bytes if present and unexpired.
func (s *SQLStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if s.closed {
		return nil, ErrStoreClosed{}
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, s.loadQuery(), sessionID, time.Now()).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: sql load: %w", err)
	}
	return data, nil
}

// Delete removes a snapshot.
func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	if s.closed {
		return ErrStoreClosed{}
	}
	if _, err := s.db.ExecContext(ctx, s.deleteQuery(), sessionID); err != nil {
		return fmt.Errorf("snapshot: sql delete: %w", err)
	}
	return nil
}

// Close stops the cleanup loop. The *sql.DB is owned by the caller and is
// not closed here.
func (s *SQLStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// cleanupLoop periodically deletes expired rows.
func (s *SQLStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			s.db.ExecContext(ctx, s.expireQuery(), time.Now())
			cancel()
		}
	}
}
