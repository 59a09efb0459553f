package service_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"callrec/internal/modules/recording/domain"
	recordingout "callrec/internal/modules/recording/port/out"
	apperrors "callrec/internal/platform/errors"
)

type fakeClock struct {
	values []time.Time
	idx    int
}

func (f *fakeClock) Now() time.Time {
	if f.idx >= len(f.values) {
		return f.values[len(f.values)-1]
	}
	v := f.values[f.idx]
	f.idx++
	return v
}

type fakeID struct{}

func (fakeID) New() string { return "rec-1" }

type fakeCapture struct {
	source     domain.AudioSource
	prepareErr error
	startErr   error
	stopErr    error
	files      *fakeFiles
	spec       recordingout.CaptureSpec
	started    bool
	stopped    bool
	releases   int
}

func (c *fakeCapture) Prepare(_ context.Context, spec recordingout.CaptureSpec) error {
	c.spec = spec
	return c.prepareErr
}

func (c *fakeCapture) Start(context.Context) error {
	if c.startErr != nil {
		c.files.put(c.spec.OutputPath, 12)
		return c.startErr
	}
	c.started = true
	return nil
}

func (c *fakeCapture) Stop(context.Context) error {
	c.stopped = true
	if c.stopErr != nil {
		return c.stopErr
	}
	c.files.put(c.spec.OutputPath, 4096)
	return nil
}

func (c *fakeCapture) Release() error {
	c.releases++
	return nil
}

type fakeFactory struct {
	mu       sync.Mutex
	failOpen map[domain.AudioSource]bool
	captures map[domain.AudioSource]*fakeCapture
	opened   []domain.AudioSource
}

func (f *fakeFactory) Open(_ context.Context, source domain.AudioSource) (recordingout.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, source)
	if f.failOpen[source] {
		return nil, errors.New("source unsupported")
	}
	return f.captures[source], nil
}

type fakeFiles struct {
	mu      sync.Mutex
	sizes   map[string]int64
	dirs    []string
	failDir map[string]bool
	removed []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{sizes: map[string]int64{}, failDir: map[string]bool{}}
}

func (f *fakeFiles) put(path string, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes[path] = size
}

func (f *fakeFiles) EnsureDir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDir[path] {
		return os.ErrPermission
	}
	f.dirs = append(f.dirs, path)
	return nil
}

func (f *fakeFiles) Stat(path string) (recordingout.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	size, ok := f.sizes[path]
	if !ok {
		return recordingout.FileInfo{}, os.ErrNotExist
	}
	return recordingout.FileInfo{Size: size, ModTime: time.Date(2026, 3, 14, 9, 2, 30, 0, time.UTC)}, nil
}

func (f *fakeFiles) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sizes, path)
	f.removed = append(f.removed, path)
	return nil
}

type memoryActiveStore struct {
	session *domain.Session
}

func (s *memoryActiveStore) SaveActive(_ context.Context, session domain.Session) error {
	s.session = &session
	return nil
}

func (s *memoryActiveStore) LoadActive(context.Context) (domain.Session, error) {
	if s.session == nil {
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	return *s.session, nil
}

func (s *memoryActiveStore) ClearActive(context.Context) error {
	s.session = nil
	return nil
}
