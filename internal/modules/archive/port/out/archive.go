package out

import (
	"context"

	"callrec/internal/modules/archive/domain"
)

type RecordingFiles interface {
	// List returns recordings in dir; a missing dir yields no entries.
	List(dir string) ([]domain.Entry, error)
	Exists(path string) (bool, error)
	Remove(path string) error
	EnsureDir(dir string) error
}

type RecordingIndex interface {
	Upsert(ctx context.Context, meta domain.Metadata) error
	All(ctx context.Context) (map[string]domain.Metadata, error)
	Delete(ctx context.Context, filePath string) error
}
