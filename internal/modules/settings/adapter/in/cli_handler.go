package in

import (
	"context"

	settingsdto "callrec/internal/modules/settings/dto"
	settingsin "callrec/internal/modules/settings/port/in"
)

type CLIHandler struct {
	usecase settingsin.Usecase
}

func NewCLIHandler(usecase settingsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) AutoRecord(ctx context.Context) (bool, error) {
	return h.usecase.IsAutoRecordEnabled(ctx)
}

func (h CLIHandler) SetAutoRecord(ctx context.Context, enabled bool) (settingsdto.AutoRecordOutput, error) {
	return h.usecase.ToggleAutoRecord(ctx, settingsdto.ToggleAutoRecordInput{Enabled: &enabled})
}
