package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"callrec/internal/modules/host/domain"
	"callrec/internal/modules/host/dto"
	hostout "callrec/internal/modules/host/port/out"
	recordingin "callrec/internal/modules/recording/port/in"
)

const (
	daemonStartTimeout = 5 * time.Second
	daemonStopTimeout  = 2 * time.Second
	readyTimeout       = 10 * time.Second
	statusCallTimeout  = 2 * time.Second
)

type DaemonOptions struct {
	DataDir      string
	HostAddress  string
	SignalSocket string
	// Executable overrides os.Executable for StartDaemon.
	Executable string
}

// DaemonService runs the listeners in the foreground and manages the
// detached daemon process from the CLI side.
type DaemonService struct {
	opts     DaemonOptions
	store    hostout.DaemonStore
	runners  []hostout.Runner
	recorder recordingin.Usecase
	client   hostout.HostClient
	logger   hclog.Logger
}

func NewDaemonService(
	opts DaemonOptions,
	store hostout.DaemonStore,
	runners []hostout.Runner,
	recorder recordingin.Usecase,
	client hostout.HostClient,
	logger hclog.Logger,
) *DaemonService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DaemonService{opts: opts, store: store, runners: runners, recorder: recorder, client: client, logger: logger}
}

// RunDaemon blocks until ctx is done or a listener fails. Any recording
// still active at that point is stopped so the capture device is released.
func (s *DaemonService) RunDaemon(ctx context.Context) error {
	if pid, err := s.store.ReadPID(ctx); err == nil && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("daemon already running pid=%d", pid)
	}
	if err := s.store.WritePID(ctx, os.Getpid()); err != nil {
		return err
	}
	defer func() {
		if err := s.store.ClearPID(context.Background()); err != nil {
			s.logger.Warn("clear daemon pid", "error", err)
		}
	}()

	s.recoverStale(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, runner := range s.runners {
		s.logger.Debug("starting listener", "listener", runner.Name())
		g.Go(func() error {
			if err := runner.Run(gctx); err != nil {
				return fmt.Errorf("%s listener: %w", runner.Name(), err)
			}
			return nil
		})
	}
	go s.announceReady(gctx)

	err := g.Wait()
	s.stopActive()
	if err != nil {
		s.logger.Error("daemon stopped", "error", err)
		return err
	}
	s.logger.Info("daemon stopped")
	return nil
}

func (s *DaemonService) recoverStale(ctx context.Context) {
	if s.recorder == nil {
		return
	}
	out, err := s.recorder.Recover(ctx)
	if err != nil {
		s.logger.Warn("recover interrupted recording", "error", err)
		return
	}
	if out.Result != nil {
		s.logger.Info("recovered interrupted recording", "file", out.Result.FilePath, "duration", out.Result.DurationSeconds)
	}
}

func (s *DaemonService) stopActive() {
	if s.recorder == nil {
		return
	}
	out, err := s.recorder.Stop(context.Background())
	if err != nil {
		s.logger.Error("stop recording on shutdown", "error", err)
		return
	}
	if out.Result != nil {
		s.logger.Info("recording stopped on shutdown", "file", out.Result.FilePath)
	}
}

func (s *DaemonService) announceReady(ctx context.Context) {
	deadline := time.NewTimer(readyTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if s.reachable() {
			s.logger.Info("ready", "host", s.opts.HostAddress, "signal_socket", s.opts.SignalSocket, "pid", os.Getpid())
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			s.logger.Warn("listeners not reachable", "timeout", readyTimeout)
			return
		case <-tick.C:
		}
	}
}

func (s *DaemonService) reachable() bool {
	if s.opts.SignalSocket != "" && !dialable("unix", s.opts.SignalSocket) {
		return false
	}
	if s.opts.HostAddress != "" && !dialable("tcp", s.opts.HostAddress) {
		return false
	}
	return true
}

func (s *DaemonService) StartDaemon(ctx context.Context) error {
	status, err := s.DaemonStatus(ctx)
	if err == nil && status.Running {
		if s.opts.SignalSocket == "" || dialable("unix", s.opts.SignalSocket) {
			return nil
		}
		return fmt.Errorf("daemon process %d is alive but its socket is unavailable", status.PID)
	}

	execPath := s.opts.Executable
	if execPath == "" {
		execPath, err = os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.store.StderrPath()), 0o755); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	out, err := os.OpenFile(s.store.StderrPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon output: %w", err)
	}
	defer out.Close()

	cmd := exec.Command(execPath, "daemon", "__run", "--data", s.opts.DataDir)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if err := s.store.WritePID(ctx, cmd.Process.Pid); err != nil {
		return err
	}
	_ = cmd.Process.Release()

	if s.opts.SignalSocket == "" {
		return nil
	}
	if err := waitFor("unix", s.opts.SignalSocket, daemonStartTimeout); err != nil {
		_ = s.store.ClearPID(ctx)
		return fmt.Errorf("daemon did not become ready, see %s: %w", s.store.StderrPath(), err)
	}
	return nil
}

func (s *DaemonService) StopDaemon(ctx context.Context) error {
	pid, err := s.store.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if !processAlive(pid) {
		return s.store.ClearPID(ctx)
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
	}
	deadline := time.Now().Add(daemonStopTimeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if processAlive(pid) {
		s.logger.Warn("daemon ignored SIGTERM, killing", "pid", pid)
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	return s.store.ClearPID(ctx)
}

func (s *DaemonService) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	out := dto.DaemonStatusOutput{
		HostAddress:  s.opts.HostAddress,
		SignalSocket: s.opts.SignalSocket,
		LogPath:      s.store.LogPath(),
	}
	rt := s.runtime(ctx)
	out.PID, out.Running = rt.PID, rt.Running
	if !out.Running || s.client == nil {
		return out, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, statusCallTimeout)
	defer cancel()
	if live, err := LiveStatus(callCtx, s.client); err == nil {
		out.Live = &live
	}
	return out, nil
}

func (s *DaemonService) runtime(ctx context.Context) domain.Runtime {
	pid, err := s.store.ReadPID(ctx)
	if err != nil {
		return domain.Runtime{}
	}
	return domain.Runtime{PID: pid, Running: processAlive(pid)}
}

func (s *DaemonService) DaemonLogs(_ context.Context, tail int) (string, error) {
	file, err := os.Open(s.store.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()
	return domain.Tail(file, tail)
}

// LiveStatus asks the running daemon for its recorder state.
func LiveStatus(ctx context.Context, client hostout.HostClient) (dto.StatusOutput, error) {
	recording, err := client.IsRecording(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	source, err := client.GetCurrentAudioSource(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	autoRecord, err := client.IsAutoRecordEnabled(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	path, err := client.GetRecordingPath(ctx)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	return dto.StatusOutput{Recording: recording, AudioSource: source, AutoRecord: autoRecord, RecordingPath: path}, nil
}

func waitFor(network, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if dialable(network, addr) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("%s endpoint not ready: %s", network, addr)
}

func dialable(network, addr string) bool {
	conn, err := net.DialTimeout(network, addr, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
