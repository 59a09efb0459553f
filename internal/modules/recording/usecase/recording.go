package usecase

import (
	"context"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	archivedto "callrec/internal/modules/archive/dto"
	archivein "callrec/internal/modules/archive/port/in"
	"callrec/internal/modules/recording/domain"
	recordingdto "callrec/internal/modules/recording/dto"
	recordingin "callrec/internal/modules/recording/port/in"
	recordingout "callrec/internal/modules/recording/port/out"
	"callrec/internal/modules/recording/service"
)

const subscriberBuffer = 16

type Interactor struct {
	svc     *service.SessionManager
	events  recordingout.EventHub
	archive archivein.Usecase
	logger  hclog.Logger
}

func NewInteractor(svc *service.SessionManager, events recordingout.EventHub, archive archivein.Usecase, logger hclog.Logger) recordingin.Usecase {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Interactor{svc: svc, events: events, archive: archive, logger: logger}
}

func (i *Interactor) Start(ctx context.Context, input recordingdto.StartInput) (recordingdto.SessionOutput, error) {
	direction, err := domain.ParseDirection(input.Direction)
	if err != nil {
		return recordingdto.SessionOutput{}, err
	}
	session, err := i.svc.Start(ctx, input.PhoneNumber, direction)
	if err != nil {
		return recordingdto.SessionOutput{}, err
	}
	return toSessionOutput(session), nil
}

func (i *Interactor) Stop(ctx context.Context) (recordingdto.StopOutput, error) {
	result, err := i.svc.Stop(ctx)
	if err != nil || result == nil {
		return recordingdto.StopOutput{}, err
	}
	i.complete(ctx, *result)
	out := toResultOutput(*result)
	return recordingdto.StopOutput{Result: &out}, nil
}

func (i *Interactor) Status(_ context.Context) (recordingdto.StatusOutput, error) {
	recording, source, session := i.svc.Status()
	out := recordingdto.StatusOutput{Recording: recording, AudioSource: string(source)}
	if session != nil {
		s := toSessionOutput(*session)
		out.Session = &s
	}
	return out, nil
}

func (i *Interactor) Recover(ctx context.Context) (recordingdto.StopOutput, error) {
	result, err := i.svc.Recover(ctx)
	if err != nil || result == nil {
		return recordingdto.StopOutput{}, err
	}
	i.complete(ctx, *result)
	out := toResultOutput(*result)
	return recordingdto.StopOutput{Result: &out}, nil
}

func (i *Interactor) Subscribe(ctx context.Context) (<-chan recordingdto.CompletionEvent, func()) {
	events, cancel := i.events.Subscribe(subscriberBuffer)
	stop := make(chan struct{})
	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			cancel()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			release()
		case <-stop:
		}
	}()
	return events, release
}

// complete publishes and indexes a finished recording. Neither step can
// fail the stop.
func (i *Interactor) complete(ctx context.Context, result domain.Result) {
	if i.events != nil {
		i.events.Publish(toEvent(result))
	}
	if i.archive == nil {
		return
	}
	if err := i.archive.Index(ctx, archivedto.IndexInput{
		FilePath:        result.FilePath,
		PhoneNumber:     result.PhoneNumber,
		CallType:        string(result.Direction),
		DurationSeconds: result.DurationSeconds,
		FileSizeBytes:   result.FileSizeBytes,
		AudioSource:     string(result.AudioSource),
		StartedAt:       result.StartedAt,
	}); err != nil {
		i.logger.Warn("index recording", "file", result.FilePath, "error", err)
	}
}

func toSessionOutput(s domain.Session) recordingdto.SessionOutput {
	return recordingdto.SessionOutput{
		SessionID:   s.ID,
		FilePath:    s.FilePath,
		PhoneNumber: s.PhoneNumber,
		Direction:   string(s.Direction),
		AudioSource: string(s.AudioSource),
		StartedAt:   s.StartedAt,
	}
}

func toResultOutput(r domain.Result) recordingdto.ResultOutput {
	return recordingdto.ResultOutput{
		FilePath:        r.FilePath,
		PhoneNumber:     r.PhoneNumber,
		Direction:       string(r.Direction),
		DurationSeconds: r.DurationSeconds,
		FileSizeBytes:   r.FileSizeBytes,
		AudioSource:     string(r.AudioSource),
		StartedAt:       r.StartedAt,
	}
}

func toEvent(r domain.Result) recordingdto.CompletionEvent {
	return recordingdto.CompletionEvent{
		FilePath:    r.FilePath,
		PhoneNumber: r.PhoneNumber,
		CallType:    string(r.Direction),
		Duration:    r.DurationSeconds,
		FileSize:    r.FileSizeBytes,
		AudioSource: string(r.AudioSource),
		Timestamp:   r.StartedAt.UnixMilli(),
	}
}
