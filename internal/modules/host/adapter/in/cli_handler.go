package in

import (
	"context"

	"callrec/internal/modules/host/dto"
	hostin "callrec/internal/modules/host/port/in"
)

type CLIHandler struct {
	usecase hostin.Usecase
}

func NewCLIHandler(usecase hostin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) RunDaemon(ctx context.Context) error {
	return h.usecase.RunDaemon(ctx)
}

func (h CLIHandler) StartDaemon(ctx context.Context) error {
	return h.usecase.StartDaemon(ctx)
}

func (h CLIHandler) StopDaemon(ctx context.Context) error {
	return h.usecase.StopDaemon(ctx)
}

func (h CLIHandler) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	return h.usecase.DaemonStatus(ctx)
}

func (h CLIHandler) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return h.usecase.DaemonLogs(ctx, tail)
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) WatchEvents(ctx context.Context, fn func(dto.Event)) error {
	return h.usecase.WatchEvents(ctx, fn)
}
