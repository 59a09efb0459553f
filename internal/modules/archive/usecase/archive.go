package usecase

import (
	"context"
	"path/filepath"

	"callrec/internal/modules/archive/domain"
	archivedto "callrec/internal/modules/archive/dto"
	archivein "callrec/internal/modules/archive/port/in"
	"callrec/internal/modules/archive/service"
)

type Interactor struct {
	svc *service.ArchiveService
}

func NewInteractor(svc *service.ArchiveService) archivein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) ListRecordings(ctx context.Context) ([]archivedto.RecordingOutput, error) {
	entries, err := i.svc.List()
	if err != nil {
		return nil, err
	}
	meta, err := i.svc.Metadata(ctx)
	if err != nil {
		meta = map[string]domain.Metadata{}
	}
	out := make([]archivedto.RecordingOutput, 0, len(entries))
	for _, entry := range entries {
		item := archivedto.RecordingOutput{
			FilePath:     entry.FilePath,
			FileName:     entry.FileName,
			FileSize:     entry.FileSize,
			LastModified: entry.LastModified,
		}
		if m, ok := meta[filepath.Clean(entry.FilePath)]; ok {
			item.PhoneNumber = m.PhoneNumber
			item.CallType = m.CallType
			item.DurationSeconds = m.DurationSeconds
			item.AudioSource = m.AudioSource
		}
		out = append(out, item)
	}
	return out, nil
}

func (i *Interactor) DeleteRecording(ctx context.Context, input archivedto.DeleteInput) (archivedto.DeleteOutput, error) {
	deleted, err := i.svc.Delete(ctx, input.FilePath)
	if err != nil {
		return archivedto.DeleteOutput{Deleted: deleted}, err
	}
	return archivedto.DeleteOutput{Deleted: deleted}, nil
}

func (i *Interactor) RecordingPath(_ context.Context) (string, error) {
	return i.svc.Path()
}

func (i *Interactor) Index(ctx context.Context, input archivedto.IndexInput) error {
	return i.svc.Index(ctx, domain.Metadata{
		FilePath:        input.FilePath,
		PhoneNumber:     input.PhoneNumber,
		CallType:        input.CallType,
		DurationSeconds: input.DurationSeconds,
		FileSizeBytes:   input.FileSizeBytes,
		AudioSource:     input.AudioSource,
		StartedAt:       input.StartedAt,
	})
}

func (i *Interactor) Reindex(ctx context.Context) (archivedto.ReindexOutput, error) {
	indexed, removed, err := i.svc.Reindex(ctx)
	if err != nil {
		return archivedto.ReindexOutput{}, err
	}
	return archivedto.ReindexOutput{Indexed: indexed, Removed: removed}, nil
}
