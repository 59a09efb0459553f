package service

import (
	"context"
	"fmt"

	"callrec/internal/modules/settings/domain"
	settingsout "callrec/internal/modules/settings/port/out"
)

type SettingsService struct {
	store settingsout.PreferenceStore
}

func NewSettingsService(store settingsout.PreferenceStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get(ctx context.Context, pref domain.Preference) (bool, error) {
	value, err := s.store.GetBool(ctx, pref.Namespace, pref.Key, pref.Default)
	if err != nil {
		return pref.Default, fmt.Errorf("read %s/%s: %w", pref.Namespace, pref.Key, err)
	}
	return value, nil
}

func (s *SettingsService) Set(ctx context.Context, pref domain.Preference, value bool) error {
	if err := s.store.PutBool(ctx, pref.Namespace, pref.Key, value); err != nil {
		return fmt.Errorf("write %s/%s: %w", pref.Namespace, pref.Key, err)
	}
	return nil
}
