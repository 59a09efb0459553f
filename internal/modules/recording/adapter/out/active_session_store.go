package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"callrec/internal/modules/recording/domain"
	recordingout "callrec/internal/modules/recording/port/out"
	apperrors "callrec/internal/platform/errors"
)

type FileActiveSessionStore struct {
	path string
}

func NewFileActiveSessionStore(path string) recordingout.ActiveSessionStore {
	return &FileActiveSessionStore{path: path}
}

func (s *FileActiveSessionStore) SaveActive(_ context.Context, session domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create active session dir: %w", err)
	}
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal active session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write active session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace active session: %w", err)
	}
	return nil
}

func (s *FileActiveSessionStore) LoadActive(_ context.Context) (domain.Session, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Session{}, apperrors.ErrNoActiveSession
		}
		return domain.Session{}, fmt.Errorf("read active session: %w", err)
	}
	session := domain.Session{}
	if err := json.Unmarshal(payload, &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode active session: %w", err)
	}
	if session.FilePath == "" {
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	return session, nil
}

func (s *FileActiveSessionStore) ClearActive(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}
