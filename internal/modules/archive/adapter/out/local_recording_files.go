package out

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"callrec/internal/modules/archive/domain"
	archiveout "callrec/internal/modules/archive/port/out"
)

type LocalRecordingFiles struct{}

func NewLocalRecordingFiles() archiveout.RecordingFiles {
	return LocalRecordingFiles{}
}

func (LocalRecordingFiles) List(dir string) ([]domain.Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	out := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		if item.IsDir() || !domain.IsRecording(item.Name()) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		out = append(out, domain.Entry{
			FilePath:     filepath.Join(abs, item.Name()),
			FileName:     item.Name(),
			FileSize:     info.Size(),
			LastModified: info.ModTime(),
		})
	}
	return out, nil
}

func (LocalRecordingFiles) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (LocalRecordingFiles) Remove(path string) error {
	return os.Remove(path)
}

func (LocalRecordingFiles) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
