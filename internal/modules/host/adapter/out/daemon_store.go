package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	hostout "callrec/internal/modules/host/port/out"
)

type FileDaemonStore struct {
	pidPath    string
	logPath    string
	stderrPath string
}

func NewFileDaemonStore(dir string) hostout.DaemonStore {
	return &FileDaemonStore{
		pidPath:    filepath.Join(dir, "daemon.pid"),
		logPath:    filepath.Join(dir, "daemon.log"),
		stderrPath: filepath.Join(dir, "daemon.stderr"),
	}
}

func (s *FileDaemonStore) WritePID(_ context.Context, pid int) error {
	if err := os.MkdirAll(filepath.Dir(s.pidPath), 0o755); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	return os.WriteFile(s.pidPath, []byte(strconv.Itoa(pid)), 0o644)
}

func (s *FileDaemonStore) ReadPID(_ context.Context) (int, error) {
	raw, err := os.ReadFile(s.pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("decode daemon pid: %w", err)
	}
	return pid, nil
}

func (s *FileDaemonStore) ClearPID(_ context.Context) error {
	if err := os.Remove(s.pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon pid: %w", err)
	}
	return nil
}

func (s *FileDaemonStore) LogPath() string {
	return s.logPath
}

func (s *FileDaemonStore) StderrPath() string {
	return s.stderrPath
}
