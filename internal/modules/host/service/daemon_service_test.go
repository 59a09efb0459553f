package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	hostadapter "callrec/internal/modules/host/adapter/out"
	hostout "callrec/internal/modules/host/port/out"
	"callrec/internal/modules/host/service"
	recordingdto "callrec/internal/modules/recording/dto"
)

type blockingRunner struct {
	name    string
	started chan struct{}
	err     error
}

func (r *blockingRunner) Name() string { return r.name }

func (r *blockingRunner) Run(ctx context.Context) error {
	close(r.started)
	if r.err != nil {
		return r.err
	}
	<-ctx.Done()
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	stops    int
	recovers int
	active   bool
}

func (r *fakeRecorder) Start(context.Context, recordingdto.StartInput) (recordingdto.SessionOutput, error) {
	return recordingdto.SessionOutput{}, nil
}

func (r *fakeRecorder) Stop(context.Context) (recordingdto.StopOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	if !r.active {
		return recordingdto.StopOutput{}, nil
	}
	r.active = false
	return recordingdto.StopOutput{Result: &recordingdto.ResultOutput{FilePath: "/rec/a.m4a"}}, nil
}

func (r *fakeRecorder) Status(context.Context) (recordingdto.StatusOutput, error) {
	return recordingdto.StatusOutput{}, nil
}

func (r *fakeRecorder) Recover(context.Context) (recordingdto.StopOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recovers++
	return recordingdto.StopOutput{}, nil
}

func (r *fakeRecorder) Subscribe(context.Context) (<-chan recordingdto.CompletionEvent, func()) {
	return nil, func() {}
}

func TestRunDaemonStopsActiveRecordingOnShutdown(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := hostadapter.NewFileDaemonStore(dir)
	runner := &blockingRunner{name: "fake", started: make(chan struct{})}
	rec := &fakeRecorder{active: true}
	svc := service.NewDaemonService(service.DaemonOptions{DataDir: dir}, store, []hostout.Runner{runner}, rec, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.RunDaemon(ctx) }()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("runner not started")
	}
	pid, err := store.ReadPID(context.Background())
	if err != nil || pid != os.Getpid() {
		t.Fatalf("expected own pid recorded, got %d %v", pid, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run daemon: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("daemon did not stop")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.recovers != 1 || rec.stops != 1 || rec.active {
		t.Fatalf("expected recover and stop once, got recovers=%d stops=%d active=%v", rec.recovers, rec.stops, rec.active)
	}
	if _, err := os.Stat(filepath.Join(dir, "daemon.pid")); !os.IsNotExist(err) {
		t.Fatalf("pid file must be removed on exit, stat err=%v", err)
	}
}

func TestRunDaemonReturnsListenerFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	failing := &blockingRunner{name: "sip", started: make(chan struct{}), err: errors.New("address in use")}
	other := &blockingRunner{name: "ipc", started: make(chan struct{})}
	rec := &fakeRecorder{}
	svc := service.NewDaemonService(service.DaemonOptions{DataDir: dir}, hostadapter.NewFileDaemonStore(dir), []hostout.Runner{failing, other}, rec, nil, nil)

	err := svc.RunDaemon(context.Background())
	if err == nil || !errors.Is(err, failing.err) {
		t.Fatalf("expected listener error, got %v", err)
	}
	if rec.stops != 1 {
		t.Fatalf("active recording must be stopped after a listener failure")
	}
}

func TestDaemonStatusWhenNotRunning(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	svc := service.NewDaemonService(service.DaemonOptions{DataDir: dir, HostAddress: "127.0.0.1:7421"}, hostadapter.NewFileDaemonStore(dir), nil, nil, nil, nil)

	status, err := svc.DaemonStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Running || status.PID != 0 || status.Live != nil {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.LogPath != filepath.Join(dir, "daemon.log") || status.HostAddress != "127.0.0.1:7421" {
		t.Fatalf("unexpected endpoints: %+v", status)
	}
	if err := svc.StopDaemon(context.Background()); err != nil {
		t.Fatalf("stop without daemon: %v", err)
	}
}

func TestStopDaemonClearsStalePID(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := hostadapter.NewFileDaemonStore(dir)
	// pids are never negative, so this one cannot be alive
	if err := os.WriteFile(filepath.Join(dir, "daemon.pid"), []byte("-5"), 0o644); err != nil {
		t.Fatalf("seed pid: %v", err)
	}
	svc := service.NewDaemonService(service.DaemonOptions{DataDir: dir}, store, nil, nil, nil, nil)
	if err := svc.StopDaemon(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := store.ReadPID(context.Background()); !os.IsNotExist(err) {
		t.Fatalf("stale pid must be cleared, got %v", err)
	}
}

func TestDaemonLogsTail(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	svc := service.NewDaemonService(service.DaemonOptions{DataDir: dir}, hostadapter.NewFileDaemonStore(dir), nil, nil, nil, nil)

	logs, err := svc.DaemonLogs(context.Background(), 5)
	if err != nil || logs != "" {
		t.Fatalf("missing log should be empty, got %q %v", logs, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "daemon.log"), []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	logs, err = svc.DaemonLogs(context.Background(), 2)
	if err != nil || logs != "two\nthree" {
		t.Fatalf("unexpected tail %q %v", logs, err)
	}
}
