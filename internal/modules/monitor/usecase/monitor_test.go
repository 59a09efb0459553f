package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"callrec/internal/modules/monitor/dto"
	"callrec/internal/modules/monitor/service"
	"callrec/internal/modules/monitor/usecase"
	recordingdto "callrec/internal/modules/recording/dto"
	settingsdto "callrec/internal/modules/settings/dto"
	apperrors "callrec/internal/platform/errors"
)

type fakeSettings struct {
	enabled bool
	err     error
}

func (s *fakeSettings) IsAutoRecordEnabled(context.Context) (bool, error) {
	return s.enabled, s.err
}

func (s *fakeSettings) ToggleAutoRecord(_ context.Context, in settingsdto.ToggleAutoRecordInput) (settingsdto.AutoRecordOutput, error) {
	s.enabled = in.Enabled == nil || *in.Enabled
	return settingsdto.AutoRecordOutput{Enabled: s.enabled}, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	starts   []recordingdto.StartInput
	stops    int
	startErr error
	stopErr  error
}

func (r *fakeRecorder) Start(_ context.Context, in recordingdto.StartInput) (recordingdto.SessionOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, in)
	return recordingdto.SessionOutput{PhoneNumber: in.PhoneNumber, Direction: in.Direction}, r.startErr
}

func (r *fakeRecorder) Stop(context.Context) (recordingdto.StopOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	return recordingdto.StopOutput{Result: &recordingdto.ResultOutput{Direction: "incoming"}}, r.stopErr
}

func (r *fakeRecorder) Status(context.Context) (recordingdto.StatusOutput, error) {
	return recordingdto.StatusOutput{}, nil
}

func (r *fakeRecorder) Recover(context.Context) (recordingdto.StopOutput, error) {
	return recordingdto.StopOutput{}, nil
}

func (r *fakeRecorder) Subscribe(context.Context) (<-chan recordingdto.CompletionEvent, func()) {
	ch := make(chan recordingdto.CompletionEvent)
	close(ch)
	return ch, func() {}
}

type fakeForwarder struct {
	got []dto.SignalInput
}

func (f *fakeForwarder) Signal(_ context.Context, in dto.SignalInput) (dto.SignalOutput, error) {
	f.got = append(f.got, in)
	return dto.SignalOutput{Action: "start"}, nil
}

func send(uc interface {
	OnStateChange(context.Context, dto.SignalInput) dto.SignalOutput
}, signals ...dto.SignalInput) []dto.SignalOutput {
	out := make([]dto.SignalOutput, 0, len(signals))
	for _, s := range signals {
		out = append(out, uc.OnStateChange(context.Background(), s))
	}
	return out
}

func TestIncomingCallScenario(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	uc := usecase.NewInteractor(service.NewMonitorService(), &fakeSettings{enabled: true}, rec, nil, nil)

	send(uc,
		dto.SignalInput{State: "IDLE"},
		dto.SignalInput{State: "RINGING", Number: "+15551234567"},
		dto.SignalInput{State: "OFFHOOK"},
	)
	if len(rec.starts) != 1 || rec.stops != 0 {
		t.Fatalf("expected one start and no stop, got starts=%v stops=%d", rec.starts, rec.stops)
	}
	if rec.starts[0].PhoneNumber != "+15551234567" || rec.starts[0].Direction != "incoming" {
		t.Fatalf("unexpected start input: %+v", rec.starts[0])
	}

	out := send(uc, dto.SignalInput{State: "IDLE"})
	if rec.stops != 1 || out[0].Action != "stop" {
		t.Fatalf("expected one stop, got stops=%d out=%+v", rec.stops, out[0])
	}
}

func TestOutgoingCallUsesUnknownWhenNumberMissing(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	uc := usecase.NewInteractor(service.NewMonitorService(), &fakeSettings{enabled: true}, rec, nil, nil)

	out := send(uc, dto.SignalInput{State: "OFFHOOK"})
	if len(rec.starts) != 1 {
		t.Fatalf("expected one start, got %d", len(rec.starts))
	}
	if rec.starts[0].PhoneNumber != "Unknown" || rec.starts[0].Direction != "outgoing" {
		t.Fatalf("unexpected start input: %+v", rec.starts[0])
	}
	if out[0].Direction != "outgoing" || out[0].From != "IDLE" || out[0].To != "OFFHOOK" {
		t.Fatalf("unexpected output: %+v", out[0])
	}
}

func TestAutoRecordDisabledIgnoresSignals(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	prefs := &fakeSettings{enabled: true}
	uc := usecase.NewInteractor(service.NewMonitorService(), prefs, rec, nil, nil)

	off := false
	if _, err := prefs.ToggleAutoRecord(context.Background(), settingsdto.ToggleAutoRecordInput{Enabled: &off}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	outs := send(uc,
		dto.SignalInput{State: "RINGING", Number: "+1"},
		dto.SignalInput{State: "OFFHOOK"},
		dto.SignalInput{State: "IDLE"},
	)
	if len(rec.starts) != 0 || rec.stops != 0 {
		t.Fatalf("expected no recorder calls, got starts=%d stops=%d", len(rec.starts), rec.stops)
	}
	for _, out := range outs {
		if !out.Ignored {
			t.Fatalf("expected ignored output, got %+v", out)
		}
	}
}

func TestUnreadablePreferenceFallsBackToEnabled(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	uc := usecase.NewInteractor(service.NewMonitorService(), &fakeSettings{enabled: true, err: errors.New("corrupt")}, rec, nil, nil)
	send(uc, dto.SignalInput{State: "OFFHOOK"})
	if len(rec.starts) != 1 {
		t.Fatalf("expected start with default preference, got %d", len(rec.starts))
	}
}

func TestUnknownStatesAreIgnored(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	uc := usecase.NewInteractor(service.NewMonitorService(), &fakeSettings{enabled: true}, rec, nil, nil)
	out := send(uc, dto.SignalInput{State: "DIALING"}, dto.SignalInput{State: ""})
	if !out[0].Ignored || !out[1].Ignored || len(rec.starts) != 0 {
		t.Fatalf("unknown states must be ignored: %+v", out)
	}
}

func TestMissedCallDoesNotTouchRecorder(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	uc := usecase.NewInteractor(service.NewMonitorService(), &fakeSettings{enabled: true}, rec, nil, nil)
	out := send(uc, dto.SignalInput{State: "RINGING", Number: "+1"}, dto.SignalInput{State: "IDLE"})
	if len(rec.starts) != 0 || rec.stops != 0 {
		t.Fatalf("missed call must not start or stop, starts=%d stops=%d", len(rec.starts), rec.stops)
	}
	if out[1].Action != "missed" {
		t.Fatalf("expected missed action, got %+v", out[1])
	}
}

func TestRecorderErrorsAreSwallowed(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{startErr: apperrors.ErrCaptureFailed, stopErr: errors.New("finalize")}
	uc := usecase.NewInteractor(service.NewMonitorService(), &fakeSettings{enabled: true}, rec, nil, nil)
	out := send(uc, dto.SignalInput{State: "OFFHOOK"}, dto.SignalInput{State: "IDLE"})
	if out[0].Action != "start" || out[1].Action != "stop" {
		t.Fatalf("transitions must still be reported: %+v", out)
	}
}

func TestConcurrentSignalsNeverOverlapStarts(t *testing.T) {
	t.Parallel()
	rec := &fakeRecorder{}
	uc := usecase.NewInteractor(service.NewMonitorService(), &fakeSettings{enabled: true}, rec, nil, nil)
	states := []string{"IDLE", "RINGING", "OFFHOOK"}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				uc.OnStateChange(context.Background(), dto.SignalInput{State: states[(g+i)%len(states)], Number: "+1"})
			}
		}(g)
	}
	wg.Wait()
	uc.OnStateChange(context.Background(), dto.SignalInput{State: "IDLE"})

	if diff := len(rec.starts) - rec.stops; diff != 0 {
		t.Fatalf("every start needs exactly one stop, starts=%d stops=%d", len(rec.starts), rec.stops)
	}
}

func TestForwardValidatesState(t *testing.T) {
	t.Parallel()
	fwd := &fakeForwarder{}
	uc := usecase.NewInteractor(service.NewMonitorService(), nil, nil, fwd, nil)
	if _, err := uc.Forward(context.Background(), dto.SignalInput{State: "BUSY"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	out, err := uc.Forward(context.Background(), dto.SignalInput{State: "offhook", Number: "+1"})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if out.Action != "start" || len(fwd.got) != 1 || fwd.got[0].Number != "+1" {
		t.Fatalf("unexpected forward result %+v %+v", out, fwd.got)
	}
}
