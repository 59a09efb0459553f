package in

import (
	"context"

	recordingdto "callrec/internal/modules/recording/dto"
	recordingin "callrec/internal/modules/recording/port/in"
)

type CLIHandler struct {
	usecase recordingin.Usecase
}

func NewCLIHandler(usecase recordingin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, phoneNumber, direction string) (recordingdto.SessionOutput, error) {
	return h.usecase.Start(ctx, recordingdto.StartInput{PhoneNumber: phoneNumber, Direction: direction})
}

func (h CLIHandler) Stop(ctx context.Context) (recordingdto.StopOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (recordingdto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

// Recover finalizes a session left behind by a process that exited mid-call.
func (h CLIHandler) Recover(ctx context.Context) (recordingdto.StopOutput, error) {
	return h.usecase.Recover(ctx)
}

func (h CLIHandler) Subscribe(ctx context.Context) (<-chan recordingdto.CompletionEvent, func()) {
	return h.usecase.Subscribe(ctx)
}
