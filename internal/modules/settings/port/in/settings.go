package in

import (
	"context"

	"callrec/internal/modules/settings/dto"
)

type Usecase interface {
	IsAutoRecordEnabled(ctx context.Context) (bool, error)
	ToggleAutoRecord(ctx context.Context, input dto.ToggleAutoRecordInput) (dto.AutoRecordOutput, error)
}
