package out

import (
	"errors"
	"os"

	recordingout "callrec/internal/modules/recording/port/out"
)

type LocalFileSystem struct{}

func NewLocalFileSystem() recordingout.FileSystem {
	return LocalFileSystem{}
}

func (LocalFileSystem) EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (LocalFileSystem) Stat(path string) (recordingout.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return recordingout.FileInfo{}, err
	}
	return recordingout.FileInfo{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Remove treats a missing file as already removed.
func (LocalFileSystem) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
