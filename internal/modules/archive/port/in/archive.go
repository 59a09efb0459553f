package in

import (
	"context"

	"callrec/internal/modules/archive/dto"
)

type Usecase interface {
	ListRecordings(ctx context.Context) ([]dto.RecordingOutput, error)
	DeleteRecording(ctx context.Context, input dto.DeleteInput) (dto.DeleteOutput, error)
	RecordingPath(ctx context.Context) (string, error)
	Index(ctx context.Context, input dto.IndexInput) error
	Reindex(ctx context.Context) (dto.ReindexOutput, error)
}
