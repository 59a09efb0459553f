package in

import (
	"context"

	"callrec/internal/modules/recording/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error)
	Stop(ctx context.Context) (dto.StopOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	Recover(ctx context.Context) (dto.StopOutput, error)
	Subscribe(ctx context.Context) (<-chan dto.CompletionEvent, func())
}
