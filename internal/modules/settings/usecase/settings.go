package usecase

import (
	"context"

	"callrec/internal/modules/settings/domain"
	settingsdto "callrec/internal/modules/settings/dto"
	settingsin "callrec/internal/modules/settings/port/in"
	"callrec/internal/modules/settings/service"
)

type Interactor struct {
	svc *service.SettingsService
}

func NewInteractor(svc *service.SettingsService) settingsin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) IsAutoRecordEnabled(ctx context.Context) (bool, error) {
	return i.svc.Get(ctx, domain.AutoRecord)
}

func (i *Interactor) ToggleAutoRecord(ctx context.Context, input settingsdto.ToggleAutoRecordInput) (settingsdto.AutoRecordOutput, error) {
	enabled := domain.Resolve(input.Enabled)
	if err := i.svc.Set(ctx, domain.AutoRecord, enabled); err != nil {
		return settingsdto.AutoRecordOutput{}, err
	}
	return settingsdto.AutoRecordOutput{Enabled: enabled}, nil
}
