package service

import (
	"context"
	"fmt"
	"path/filepath"

	"callrec/internal/modules/archive/domain"
	archiveout "callrec/internal/modules/archive/port/out"
	"callrec/internal/platform/callfile"
	"callrec/internal/platform/clock"
	apperrors "callrec/internal/platform/errors"
)

type ArchiveService struct {
	clock       clock.Clock
	files       archiveout.RecordingFiles
	index       archiveout.RecordingIndex
	dir         string
	fallbackDir string
}

func NewArchiveService(clock clock.Clock, files archiveout.RecordingFiles, index archiveout.RecordingIndex, dir, fallbackDir string) *ArchiveService {
	return &ArchiveService{clock: clock, files: files, index: index, dir: dir, fallbackDir: fallbackDir}
}

func (s *ArchiveService) Dirs() []string {
	if s.fallbackDir == "" || filepath.Clean(s.fallbackDir) == filepath.Clean(s.dir) {
		return []string{s.dir}
	}
	return []string{s.dir, s.fallbackDir}
}

// List scans every recordings directory. A directory that cannot be read is
// skipped as long as another one succeeds.
func (s *ArchiveService) List() ([]domain.Entry, error) {
	var listings [][]domain.Entry
	var firstErr error
	for _, dir := range s.Dirs() {
		entries, err := s.files.List(dir)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("list %s: %w", dir, err)
			}
			continue
		}
		listings = append(listings, entries)
	}
	if len(listings) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return domain.Merge(listings...), nil
}

func (s *ArchiveService) Metadata(ctx context.Context) (map[string]domain.Metadata, error) {
	if s.index == nil {
		return map[string]domain.Metadata{}, nil
	}
	return s.index.All(ctx)
}

func (s *ArchiveService) Delete(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("%w: file_path is required", apperrors.ErrInvalidInput)
	}
	if !domain.Within(path, s.Dirs()...) || !domain.IsRecording(path) {
		return false, fmt.Errorf("%w: %s is not a recording", apperrors.ErrInvalidInput, path)
	}
	exists, err := s.files.Exists(path)
	if err != nil {
		return false, fmt.Errorf("check recording: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := s.files.Remove(path); err != nil {
		return false, fmt.Errorf("delete recording: %w", err)
	}
	if s.index != nil {
		if err := s.index.Delete(ctx, filepath.Clean(path)); err != nil {
			return true, fmt.Errorf("delete index row: %w", err)
		}
	}
	return true, nil
}

// Path returns the directory new recordings go to, preferring the main one.
func (s *ArchiveService) Path() (string, error) {
	err := s.files.EnsureDir(s.dir)
	if err == nil {
		return s.dir, nil
	}
	if s.fallbackDir == "" {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}
	if fbErr := s.files.EnsureDir(s.fallbackDir); fbErr != nil {
		return "", fmt.Errorf("create recordings dir: %w", fbErr)
	}
	return s.fallbackDir, nil
}

func (s *ArchiveService) Index(ctx context.Context, meta domain.Metadata) error {
	if s.index == nil {
		return nil
	}
	if meta.FilePath == "" {
		return fmt.Errorf("%w: file_path is required", apperrors.ErrInvalidInput)
	}
	meta.FilePath = filepath.Clean(meta.FilePath)
	meta.IndexedAt = s.clock.Now()
	return s.index.Upsert(ctx, meta)
}

// Reindex makes the index match the files on disk. Rows of known files keep
// their call metadata; unknown files are described from their names.
func (s *ArchiveService) Reindex(ctx context.Context) (int, int, error) {
	if s.index == nil {
		return 0, 0, nil
	}
	entries, err := s.List()
	if err != nil {
		return 0, 0, err
	}
	known, err := s.index.All(ctx)
	if err != nil {
		return 0, 0, err
	}

	now := s.clock.Now()
	onDisk := map[string]struct{}{}
	for _, entry := range entries {
		path := filepath.Clean(entry.FilePath)
		onDisk[path] = struct{}{}
		meta, ok := known[path]
		if !ok {
			meta = domain.Metadata{FilePath: path, StartedAt: entry.LastModified}
			if number, at, parsed := callfile.Parse(entry.FileName); parsed {
				meta.PhoneNumber = number
				meta.StartedAt = at
			}
		}
		meta.FileSizeBytes = entry.FileSize
		meta.IndexedAt = now
		if err := s.index.Upsert(ctx, meta); err != nil {
			return 0, 0, err
		}
	}

	removed := 0
	for path := range known {
		if _, ok := onDisk[path]; ok {
			continue
		}
		if err := s.index.Delete(ctx, path); err != nil {
			return len(entries), removed, err
		}
		removed++
	}
	return len(entries), removed, nil
}
