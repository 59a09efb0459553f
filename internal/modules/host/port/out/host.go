package out

import (
	"context"

	"callrec/internal/modules/host/dto"
)

type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
	LogPath() string
	StderrPath() string
}

// Runner is one long-lived daemon listener.
type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

type HostClient interface {
	GetRecordings(ctx context.Context) ([]dto.Recording, error)
	DeleteRecording(ctx context.Context, filePath string) (bool, error)
	ToggleAutoRecord(ctx context.Context, enabled *bool) (bool, error)
	IsAutoRecordEnabled(ctx context.Context) (bool, error)
	GetRecordingPath(ctx context.Context) (string, error)
	IsRecording(ctx context.Context) (bool, error)
	GetCurrentAudioSource(ctx context.Context) (string, error)
	Events(ctx context.Context, fn func(dto.Event)) error
}
