package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	settingsout "callrec/internal/modules/settings/port/out"
)

// YAMLPreferenceStore keeps namespaced flags in a single yaml document:
//
//	call_recorder_prefs:
//	  auto_record: true
type YAMLPreferenceStore struct {
	mu   sync.Mutex
	path string
}

func NewYAMLPreferenceStore(path string) settingsout.PreferenceStore {
	return &YAMLPreferenceStore{path: path}
}

func (s *YAMLPreferenceStore) GetBool(_ context.Context, namespace, key string, fallback bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs, err := s.load()
	if err != nil {
		return fallback, err
	}
	value, ok := prefs[namespace][key]
	if !ok {
		return fallback, nil
	}
	return value, nil
}

func (s *YAMLPreferenceStore) PutBool(_ context.Context, namespace, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs, err := s.load()
	if err != nil {
		return err
	}
	if prefs[namespace] == nil {
		prefs[namespace] = map[string]bool{}
	}
	prefs[namespace][key] = value

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	raw, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}

func (s *YAMLPreferenceStore) load() (map[string]map[string]bool, error) {
	prefs := map[string]map[string]bool{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if err := yaml.Unmarshal(raw, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if prefs == nil {
		prefs = map[string]map[string]bool{}
	}
	return prefs, nil
}
