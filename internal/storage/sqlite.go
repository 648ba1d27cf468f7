package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const blobSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	container TEXT NOT NULL,
	key       TEXT NOT NULL,
	data      BLOB NOT NULL,
	size      INTEGER NOT NULL,
	modified  INTEGER NOT NULL,
	PRIMARY KEY (container, key)
)`

// SQLiteStore keeps blobs in a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(blobSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating blobs table: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Put(ctx context.Context, container, key string, data []byte) error {
	if err := validateKey(container, key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (container, key, data, size, modified) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (container, key) DO UPDATE SET
			data = excluded.data, size = excluded.size, modified = excluded.modified`,
		container, key, data, len(data), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("storing object: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, container, key string) ([]byte, error) {
	if err := validateKey(container, key); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM blobs WHERE container = ? AND key = ?`, container, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

func (s *SQLiteStore) List(ctx context.Context, container, prefix string) ([]Object, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, size, modified FROM blobs
		WHERE container = ? AND substr(key, 1, length(?)) = ?
		ORDER BY key`, container, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer rows.Close()

	var objects []Object
	for rows.Next() {
		var obj Object
		var modified int64
		if err := rows.Scan(&obj.Key, &obj.Size, &modified); err != nil {
			return nil, fmt.Errorf("scanning object: %w", err)
		}
		obj.ModTime = time.Unix(0, modified)
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, container, key string) error {
	if err := validateKey(container, key); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE container = ? AND key = ?`, container, key)
	if err != nil {
		return fmt.Errorf("deleting object: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
