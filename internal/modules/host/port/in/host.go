package in

import (
	"context"

	"callrec/internal/modules/host/dto"
)

const (
	ServiceName = "callrec.host.v1.CallRecorderHost"

	MethodGetRecordings         = "/" + ServiceName + "/GetRecordings"
	MethodDeleteRecording       = "/" + ServiceName + "/DeleteRecording"
	MethodToggleAutoRecord      = "/" + ServiceName + "/ToggleAutoRecord"
	MethodIsAutoRecordEnabled   = "/" + ServiceName + "/IsAutoRecordEnabled"
	MethodGetRecordingPath      = "/" + ServiceName + "/GetRecordingPath"
	MethodIsRecording           = "/" + ServiceName + "/IsRecording"
	MethodGetCurrentAudioSource = "/" + ServiceName + "/GetCurrentAudioSource"
	MethodEvents                = "/" + ServiceName + "/Events"
)

// API is the surface host applications query.
type API interface {
	GetRecordings(ctx context.Context) ([]dto.Recording, error)
	DeleteRecording(ctx context.Context, filePath string) (bool, error)
	ToggleAutoRecord(ctx context.Context, enabled *bool) (bool, error)
	IsAutoRecordEnabled(ctx context.Context) (bool, error)
	GetRecordingPath(ctx context.Context) (string, error)
	IsRecording(ctx context.Context) (bool, error)
	GetCurrentAudioSource(ctx context.Context) (string, error)
	Events(ctx context.Context) (<-chan dto.Event, func())
}

type Usecase interface {
	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)
	// Status and WatchEvents talk to the running daemon.
	Status(ctx context.Context) (dto.StatusOutput, error)
	WatchEvents(ctx context.Context, fn func(dto.Event)) error
}
