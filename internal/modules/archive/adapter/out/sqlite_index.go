package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"callrec/internal/modules/archive/domain"
	archiveout "callrec/internal/modules/archive/port/out"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRecordingIndex struct {
	db *sql.DB
}

func NewSQLiteRecordingIndex(dbPath string) (*SQLiteRecordingIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	index := &SQLiteRecordingIndex{db: db}
	if err := index.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return index, nil
}

var _ archiveout.RecordingIndex = (*SQLiteRecordingIndex)(nil)

func (s *SQLiteRecordingIndex) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS recordings (
  file_path TEXT PRIMARY KEY,
  phone_number TEXT NOT NULL,
  call_type TEXT NOT NULL,
  duration_seconds INTEGER NOT NULL,
  file_size INTEGER NOT NULL,
  audio_source TEXT NOT NULL,
  started_at TEXT NOT NULL,
  indexed_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create recordings table: %w", err)
	}
	return nil
}

func (s *SQLiteRecordingIndex) Upsert(ctx context.Context, meta domain.Metadata) error {
	const stmt = `
INSERT INTO recordings (file_path, phone_number, call_type, duration_seconds, file_size, audio_source, started_at, indexed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file_path) DO UPDATE SET
  phone_number=excluded.phone_number,
  call_type=excluded.call_type,
  duration_seconds=excluded.duration_seconds,
  file_size=excluded.file_size,
  audio_source=excluded.audio_source,
  started_at=excluded.started_at,
  indexed_at=excluded.indexed_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		meta.FilePath,
		meta.PhoneNumber,
		meta.CallType,
		meta.DurationSeconds,
		meta.FileSizeBytes,
		meta.AudioSource,
		meta.StartedAt.Format(timeLayout),
		meta.IndexedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert recording: %w", err)
	}
	return nil
}

func (s *SQLiteRecordingIndex) All(ctx context.Context) (map[string]domain.Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT file_path, phone_number, call_type, duration_seconds, file_size, audio_source, started_at, indexed_at
FROM recordings`)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	out := map[string]domain.Metadata{}
	for rows.Next() {
		var meta domain.Metadata
		var startedAt, indexedAt string
		if err := rows.Scan(&meta.FilePath, &meta.PhoneNumber, &meta.CallType, &meta.DurationSeconds,
			&meta.FileSizeBytes, &meta.AudioSource, &startedAt, &indexedAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		meta.StartedAt, _ = time.Parse(timeLayout, startedAt)
		meta.IndexedAt, _ = time.Parse(timeLayout, indexedAt)
		out[meta.FilePath] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}
	return out, nil
}

func (s *SQLiteRecordingIndex) Delete(ctx context.Context, filePath string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE file_path = ?`, filePath); err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	return nil
}

func (s *SQLiteRecordingIndex) Close() error {
	return s.db.Close()
}
