package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: creating dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	const customCommandsTable = `
CREATE TABLE IF NOT EXISTS custom_commands (
	trigger_key TEXT PRIMARY KEY,
	id TEXT NOT NULL,
	trigger TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT 1,
	scan_whole_message BOOLEAN NOT NULL DEFAULT 0,
	cooldown_user INTEGER NOT NULL DEFAULT 0,
	cooldown_global INTEGER NOT NULL DEFAULT 0,
	effects TEXT,
	restrictions TEXT,
	usage_count INTEGER NOT NULL DEFAULT 0,
	description TEXT,
	created_by TEXT,
	created_at TIMESTAMP,
	last_edited_by TEXT,
	last_edited_at TIMESTAMP
);`

	if _, err := db.Exec(customCommandsTable); err != nil {
		return fmt.Errorf("sqlite: migrate custom_commands: %w", err)
	}

	const viewerGroupsTable = `
CREATE TABLE IF NOT EXISTS viewer_groups (
	name TEXT PRIMARY KEY COLLATE NOCASE,
	users TEXT,
	updated_at TIMESTAMP NOT NULL
);`

	if _, err := db.Exec(viewerGroupsTable); err != nil {
		return fmt.Errorf("sqlite: migrate viewer_groups: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
