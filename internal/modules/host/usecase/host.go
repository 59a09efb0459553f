package usecase

import (
	"context"
	"fmt"

	"callrec/internal/modules/host/dto"
	hostin "callrec/internal/modules/host/port/in"
	hostout "callrec/internal/modules/host/port/out"
	"callrec/internal/modules/host/service"
)

type Interactor struct {
	svc    *service.DaemonService
	client hostout.HostClient
}

func NewInteractor(svc *service.DaemonService, client hostout.HostClient) hostin.Usecase {
	return &Interactor{svc: svc, client: client}
}

func (i *Interactor) RunDaemon(ctx context.Context) error {
	return i.svc.RunDaemon(ctx)
}

func (i *Interactor) StartDaemon(ctx context.Context) error {
	return i.svc.StartDaemon(ctx)
}

func (i *Interactor) StopDaemon(ctx context.Context) error {
	return i.svc.StopDaemon(ctx)
}

func (i *Interactor) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	return i.svc.DaemonStatus(ctx)
}

func (i *Interactor) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return i.svc.DaemonLogs(ctx, tail)
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	if i.client == nil {
		return dto.StatusOutput{}, fmt.Errorf("host client is not configured")
	}
	return service.LiveStatus(ctx, i.client)
}

func (i *Interactor) WatchEvents(ctx context.Context, fn func(dto.Event)) error {
	if i.client == nil {
		return fmt.Errorf("host client is not configured")
	}
	return i.client.Events(ctx, fn)
}
