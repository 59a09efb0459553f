package in

import (
	"context"

	archivedto "callrec/internal/modules/archive/dto"
	archivein "callrec/internal/modules/archive/port/in"
)

type CLIHandler struct {
	usecase archivein.Usecase
}

func NewCLIHandler(usecase archivein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]archivedto.RecordingOutput, error) {
	return h.usecase.ListRecordings(ctx)
}

func (h CLIHandler) Delete(ctx context.Context, filePath string) (archivedto.DeleteOutput, error) {
	return h.usecase.DeleteRecording(ctx, archivedto.DeleteInput{FilePath: filePath})
}

func (h CLIHandler) Path(ctx context.Context) (string, error) {
	return h.usecase.RecordingPath(ctx)
}

func (h CLIHandler) Reindex(ctx context.Context) (archivedto.ReindexOutput, error) {
	return h.usecase.Reindex(ctx)
}
