package out

import (
	"context"
	"time"

	"callrec/internal/modules/recording/domain"
	"callrec/internal/modules/recording/dto"
)

type CaptureSpec struct {
	Source     domain.AudioSource
	OutputPath string
	Encoder    domain.EncoderConfig
}

// Capture is one exclusively owned recording device handle. Release must be
// safe to call in any state and more than once.
type Capture interface {
	Prepare(ctx context.Context, spec CaptureSpec) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Release() error
}

type CaptureFactory interface {
	Open(ctx context.Context, source domain.AudioSource) (Capture, error)
}

type ActiveSessionStore interface {
	SaveActive(ctx context.Context, session domain.Session) error
	LoadActive(ctx context.Context) (domain.Session, error)
	ClearActive(ctx context.Context) error
}

type FileInfo struct {
	Size    int64
	ModTime time.Time
}

type FileSystem interface {
	EnsureDir(path string) error
	Stat(path string) (FileInfo, error)
	Remove(path string) error
}

// EventHub fans completion events out to subscribers without blocking the
// publisher.
type EventHub interface {
	Publish(event dto.CompletionEvent)
	Subscribe(buffer int) (<-chan dto.CompletionEvent, func())
}
