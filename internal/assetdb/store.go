// internal/assetdb/store.go
package assetdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/mirelio/gameforge/internal/errors"
	"github.com/mirelio/gameforge/internal/models"

	_ "modernc.org/sqlite"
)

// Store is the persisted-asset database. One row per event; variation and
// prompt sequences are stored as JSON text. Duration is deliberately not a
// column: re-derived events fall back to a 1.0s default, mirroring the
// upstream schema.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its directory) if needed and applies
// the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		event_name TEXT NOT NULL,
		timestamp REAL NOT NULL,
		variations TEXT NOT NULL DEFAULT '[]',
		prompts TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assets_project ON assets(project, timestamp);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores one event row. A record without an ID is assigned one.
func (s *Store) Insert(ctx context.Context, rec models.AssetRecord) (models.AssetRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}

	variations, err := json.Marshal(rec.Variations)
	if err != nil {
		return models.AssetRecord{}, apperrors.NewStorageError("failed to encode variations", err)
	}
	prompts, err := json.Marshal(rec.Prompts)
	if err != nil {
		return models.AssetRecord{}, apperrors.NewStorageError("failed to encode prompts", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assets (id, project, event_name, timestamp, variations, prompts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Project, rec.EventName, rec.Timestamp, string(variations), string(prompts), rec.CreatedAt)
	if err != nil {
		return models.AssetRecord{}, apperrors.NewStorageError("failed to insert asset", err)
	}
	return rec, nil
}

// ListByProject returns all rows for a project ordered by timestamp
// ascending.
func (s *Store) ListByProject(ctx context.Context, project string) ([]models.AssetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, event_name, timestamp, variations, prompts, created_at
		 FROM assets WHERE project = ? ORDER BY timestamp ASC`, project)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query assets", err)
	}
	defer rows.Close()

	var records []models.AssetRecord
	for rows.Next() {
		var rec models.AssetRecord
		var variations, prompts string
		if err := rows.Scan(&rec.ID, &rec.Project, &rec.EventName, &rec.Timestamp,
			&variations, &prompts, &rec.CreatedAt); err != nil {
			return nil, apperrors.NewStorageError("failed to scan asset row", err)
		}
		if err := json.Unmarshal([]byte(variations), &rec.Variations); err != nil {
			return nil, apperrors.NewStorageError("corrupt variations column", err)
		}
		if err := json.Unmarshal([]byte(prompts), &rec.Prompts); err != nil {
			return nil, apperrors.NewStorageError("corrupt prompts column", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read asset rows", err)
	}
	return records, nil
}

// ListProjects aggregates stored rows into per-project summaries, most
// recently created first.
func (s *Store) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project, COUNT(*) FROM assets GROUP BY project ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query projects", err)
	}
	defer rows.Close()

	var summaries []models.ProjectSummary
	for rows.Next() {
		var s models.ProjectSummary
		if err := rows.Scan(&s.Name, &s.EventCount); err != nil {
			return nil, apperrors.NewStorageError("failed to scan project row", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read project rows", err)
	}
	return summaries, nil
}
