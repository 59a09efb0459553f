package in_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	monitorin "callrec/internal/modules/monitor/adapter/in"
	monitorout "callrec/internal/modules/monitor/adapter/out"
	"callrec/internal/modules/monitor/dto"
	apperrors "callrec/internal/platform/errors"
)

type recordingSink struct {
	mu  sync.Mutex
	got []dto.SignalInput
}

func (s *recordingSink) OnStateChange(_ context.Context, in dto.SignalInput) dto.SignalOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, in)
	return dto.SignalOutput{From: "IDLE", To: in.State, Action: "start", Direction: "outgoing", Number: in.Number}
}

func (s *recordingSink) Forward(context.Context, dto.SignalInput) (dto.SignalOutput, error) {
	return dto.SignalOutput{}, errors.New("not used")
}

func TestJSONRPCSignalRoundTrip(t *testing.T) {
	t.Parallel()
	socketPath := filepath.Join(t.TempDir(), "signal.sock")
	sink := &recordingSink{}
	server := monitorin.NewJSONRPCSignalServer(socketPath)
	forwarder := monitorout.NewJSONRPCForwarder(socketPath)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Run(ctx, sink)
	}()

	var (
		out dto.SignalOutput
		err error
	)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		out, err = forwarder.Signal(context.Background(), dto.SignalInput{State: "OFFHOOK", Number: "+15551234567"})
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("signal: %v", err)
	}
	if out.Action != "start" || out.Number != "+15551234567" || out.To != "OFFHOOK" {
		t.Fatalf("unexpected output: %+v", out)
	}
	sink.mu.Lock()
	if len(sink.got) != 1 || sink.got[0].State != "OFFHOOK" {
		t.Fatalf("unexpected delivered signals: %+v", sink.got)
	}
	sink.mu.Unlock()

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestForwarderReportsDaemonNotRunning(t *testing.T) {
	t.Parallel()
	forwarder := monitorout.NewJSONRPCForwarder(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := forwarder.Signal(context.Background(), dto.SignalInput{State: "IDLE"})
	if !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		t.Fatalf("expected daemon not running, got %v", err)
	}
}
