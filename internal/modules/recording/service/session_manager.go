package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"callrec/internal/modules/recording/domain"
	recordingout "callrec/internal/modules/recording/port/out"
	"callrec/internal/platform/callfile"
	"callrec/internal/platform/clock"
	apperrors "callrec/internal/platform/errors"
	"callrec/internal/platform/id"
)

type Options struct {
	Dir         string
	FallbackDir string
	Encoder     domain.EncoderConfig
}

// SessionManager owns at most one capture session at a time.
type SessionManager struct {
	mu       sync.Mutex
	clock    clock.Clock
	idGen    id.Generator
	captures recordingout.CaptureFactory
	files    recordingout.FileSystem
	active   recordingout.ActiveSessionStore
	opts     Options
	logger   hclog.Logger

	session    *domain.Session
	capture    recordingout.Capture
	lastSource domain.AudioSource
}

func NewSessionManager(
	clock clock.Clock,
	idGen id.Generator,
	captures recordingout.CaptureFactory,
	files recordingout.FileSystem,
	active recordingout.ActiveSessionStore,
	opts Options,
	logger hclog.Logger,
) *SessionManager {
	if opts.Encoder == (domain.EncoderConfig{}) {
		opts.Encoder = domain.DefaultEncoder()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SessionManager{
		clock:    clock,
		idGen:    idGen,
		captures: captures,
		files:    files,
		active:   active,
		opts:     opts,
		logger:   logger,
	}
}

// Start begins capturing to a new file. A call while a session is active
// returns the active session unchanged.
func (m *SessionManager) Start(ctx context.Context, phoneNumber string, direction domain.Direction) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.logger.Warn("start ignored, session already active", "file", m.session.FilePath)
		return *m.session, nil
	}
	if phoneNumber == "" {
		phoneNumber = domain.UnknownNumber
	}

	startedAt := m.clock.Now()
	dir, err := m.outputDir()
	if err != nil {
		m.lastSource = domain.SourceFailed
		return domain.Session{}, fmt.Errorf("%w: %v", apperrors.ErrCaptureFailed, err)
	}
	path := filepath.Join(dir, callfile.Name(phoneNumber, startedAt, m.opts.Encoder.Extension))

	capture, source, err := m.open(ctx, path)
	if err != nil {
		m.lastSource = domain.SourceFailed
		if rmErr := m.files.Remove(path); rmErr != nil {
			m.logger.Warn("remove aborted recording", "file", path, "error", rmErr)
		}
		m.logger.Error("recording aborted, no capture source available", "file", path, "error", err)
		return domain.Session{}, fmt.Errorf("%w: %v", apperrors.ErrCaptureFailed, err)
	}

	session := domain.Session{
		SchemaVersion: domain.SchemaVersion,
		ID:            m.idGen.New(),
		FilePath:      path,
		AudioSource:   source,
		StartedAt:     startedAt,
		PhoneNumber:   phoneNumber,
		Direction:     direction,
	}
	m.session = &session
	m.capture = capture
	m.lastSource = source

	if m.active != nil {
		if err := m.active.SaveActive(ctx, session); err != nil {
			m.logger.Warn("persist active session", "error", err)
		}
	}
	m.logger.Info("recording started", "file", path, "source", source, "direction", direction)
	return session, nil
}

// Stop finalizes the active session. It returns a nil result when nothing
// is being recorded. The capture is released on every path.
func (m *SessionManager) Stop(ctx context.Context) (*domain.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, nil
	}
	session, capture := *m.session, m.capture
	m.session, m.capture = nil, nil

	defer func() {
		if err := capture.Release(); err != nil {
			m.logger.Warn("release capture", "file", session.FilePath, "error", err)
		}
		if m.active != nil {
			if err := m.active.ClearActive(ctx); err != nil {
				m.logger.Warn("clear active session", "error", err)
			}
		}
	}()

	if err := capture.Stop(ctx); err != nil {
		m.logger.Error("finalize recording", "file", session.FilePath, "error", err)
		return nil, fmt.Errorf("finalize capture: %w", err)
	}

	result := session.Finish(m.clock.Now(), m.sizeOf(session.FilePath))
	m.logger.Info("recording stopped", "file", result.FilePath, "duration", result.DurationSeconds, "size", result.FileSizeBytes)
	return &result, nil
}

// Status reports whether a session is active and the source tag of the most
// recent start attempt.
func (m *SessionManager) Status() (bool, domain.AudioSource, *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return false, m.lastSource, nil
	}
	session := *m.session
	return true, m.lastSource, &session
}

// Recover finalizes a session persisted by a process that exited without
// stopping it. The file modification time stands in for the stop time.
func (m *SessionManager) Recover(ctx context.Context) (*domain.Result, error) {
	if m.active == nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return nil, nil
	}

	stale, err := m.active.LoadActive(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveSession) {
			return nil, nil
		}
		return nil, err
	}
	if err := m.active.ClearActive(ctx); err != nil {
		return nil, err
	}

	info, err := m.files.Stat(stale.FilePath)
	if err != nil {
		m.logger.Warn("stale session has no file", "file", stale.FilePath, "error", err)
		return nil, nil
	}
	result := stale.Finish(info.ModTime, info.Size)
	m.logger.Info("recovered stale recording", "file", result.FilePath, "duration", result.DurationSeconds)
	return &result, nil
}

func (m *SessionManager) open(ctx context.Context, path string) (recordingout.Capture, domain.AudioSource, error) {
	var errs []error
	for _, source := range domain.CaptureOrder {
		capture, err := m.tryStart(ctx, source, path)
		if err == nil {
			return capture, source, nil
		}
		m.logger.Warn("capture source unavailable", "source", source, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", source, err))
	}
	return nil, domain.SourceFailed, errors.Join(errs...)
}

func (m *SessionManager) tryStart(ctx context.Context, source domain.AudioSource, path string) (recordingout.Capture, error) {
	capture, err := m.captures.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	spec := recordingout.CaptureSpec{Source: source, OutputPath: path, Encoder: m.opts.Encoder}
	if err := capture.Prepare(ctx, spec); err != nil {
		m.release(capture)
		return nil, fmt.Errorf("prepare: %w", err)
	}
	if err := capture.Start(ctx); err != nil {
		m.release(capture)
		return nil, fmt.Errorf("start: %w", err)
	}
	return capture, nil
}

func (m *SessionManager) release(capture recordingout.Capture) {
	if err := capture.Release(); err != nil {
		m.logger.Debug("release partial capture", "error", err)
	}
}

func (m *SessionManager) outputDir() (string, error) {
	err := m.files.EnsureDir(m.opts.Dir)
	if err == nil {
		return m.opts.Dir, nil
	}
	if m.opts.FallbackDir == "" {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}
	m.logger.Warn("recordings dir unavailable, using fallback", "dir", m.opts.Dir, "error", err)
	if err := m.files.EnsureDir(m.opts.FallbackDir); err != nil {
		return "", fmt.Errorf("create fallback recordings dir: %w", err)
	}
	return m.opts.FallbackDir, nil
}

func (m *SessionManager) sizeOf(path string) int64 {
	info, err := m.files.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size
}
