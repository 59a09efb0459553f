package out

import (
	"context"

	"callrec/internal/modules/monitor/dto"
)

type SignalForwarder interface {
	Signal(ctx context.Context, input dto.SignalInput) (dto.SignalOutput, error)
}
