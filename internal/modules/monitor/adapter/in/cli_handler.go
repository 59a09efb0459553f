package in

import (
	"context"

	"callrec/internal/modules/monitor/dto"
	monitorin "callrec/internal/modules/monitor/port/in"
)

type CLIHandler struct {
	usecase monitorin.Usecase
}

func NewCLIHandler(usecase monitorin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Signal forwards a raw state to the daemon that owns the call tracker.
func (h CLIHandler) Signal(ctx context.Context, state, number string) (dto.SignalOutput, error) {
	return h.usecase.Forward(ctx, dto.SignalInput{State: state, Number: number})
}
