package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps every namespace's keys in a single state table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS state (
        namespace TEXT NOT NULL,
        key TEXT NOT NULL,
        value TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (namespace, key)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) GetRaw(namespace, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM state WHERE namespace = ? AND key = ?", namespace, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to query key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) PutRaw(namespace, key, value string) error {
	stmt, err := s.db.Prepare(`INSERT INTO state (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare state upsert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(namespace, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to execute state upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRaw(namespace, key string) error {
	if _, err := s.db.Exec("DELETE FROM state WHERE namespace = ? AND key = ?", namespace, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys(namespace string) ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM state WHERE namespace = ? ORDER BY key", namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Namespaces lists every session that has persisted state.
func (s *SQLiteStore) Namespaces() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT namespace FROM state ORDER BY namespace")
	if err != nil {
		return nil, fmt.Errorf("failed to query namespaces: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, fmt.Errorf("failed to scan namespace row: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}
