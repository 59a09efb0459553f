package in

import (
	"context"

	"callrec/internal/modules/monitor/dto"
)

type Usecase interface {
	// OnStateChange consumes one raw call-state signal. It never fails;
	// downstream errors are logged.
	OnStateChange(ctx context.Context, input dto.SignalInput) dto.SignalOutput
	// Forward hands a signal to the running daemon.
	Forward(ctx context.Context, input dto.SignalInput) (dto.SignalOutput, error)
}

// SignalSource delivers externally observed call states to a sink until ctx
// is done.
type SignalSource interface {
	Name() string
	Run(ctx context.Context, sink Usecase) error
}
