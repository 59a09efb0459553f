package usecase

import (
	"context"

	archivedto "callrec/internal/modules/archive/dto"
	archivein "callrec/internal/modules/archive/port/in"
	"callrec/internal/modules/host/dto"
	hostin "callrec/internal/modules/host/port/in"
	recordingin "callrec/internal/modules/recording/port/in"
	settingsdto "callrec/internal/modules/settings/dto"
	settingsin "callrec/internal/modules/settings/port/in"
)

// APIInteractor answers host queries from the archive, settings and
// recording modules of this process.
type APIInteractor struct {
	archive  archivein.Usecase
	settings settingsin.Usecase
	recorder recordingin.Usecase
}

func NewAPIInteractor(archive archivein.Usecase, settings settingsin.Usecase, recorder recordingin.Usecase) hostin.API {
	return &APIInteractor{archive: archive, settings: settings, recorder: recorder}
}

func (a *APIInteractor) GetRecordings(ctx context.Context) ([]dto.Recording, error) {
	items, err := a.archive.ListRecordings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Recording, 0, len(items))
	for _, item := range items {
		out = append(out, dto.Recording{
			FilePath:     item.FilePath,
			FileName:     item.FileName,
			FileSize:     item.FileSize,
			LastModified: item.LastModified.UnixMilli(),
			PhoneNumber:  item.PhoneNumber,
			CallType:     item.CallType,
			Duration:     item.DurationSeconds,
			AudioSource:  item.AudioSource,
		})
	}
	return out, nil
}

func (a *APIInteractor) DeleteRecording(ctx context.Context, filePath string) (bool, error) {
	out, err := a.archive.DeleteRecording(ctx, archivedto.DeleteInput{FilePath: filePath})
	return out.Deleted, err
}

func (a *APIInteractor) ToggleAutoRecord(ctx context.Context, enabled *bool) (bool, error) {
	out, err := a.settings.ToggleAutoRecord(ctx, settingsdto.ToggleAutoRecordInput{Enabled: enabled})
	if err != nil {
		return false, err
	}
	return out.Enabled, nil
}

func (a *APIInteractor) IsAutoRecordEnabled(ctx context.Context) (bool, error) {
	return a.settings.IsAutoRecordEnabled(ctx)
}

func (a *APIInteractor) GetRecordingPath(ctx context.Context) (string, error) {
	return a.archive.RecordingPath(ctx)
}

func (a *APIInteractor) IsRecording(ctx context.Context) (bool, error) {
	status, err := a.recorder.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Recording, nil
}

func (a *APIInteractor) GetCurrentAudioSource(ctx context.Context) (string, error) {
	status, err := a.recorder.Status(ctx)
	if err != nil {
		return "", err
	}
	return status.AudioSource, nil
}

func (a *APIInteractor) Events(ctx context.Context) (<-chan dto.Event, func()) {
	return a.recorder.Subscribe(ctx)
}
