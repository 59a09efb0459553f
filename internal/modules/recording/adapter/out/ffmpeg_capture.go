package out

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"callrec/internal/modules/recording/domain"
	recordingout "callrec/internal/modules/recording/port/out"
)

const stderrLimit = 4096

// FFmpegOptions maps each capture source to an ffmpeg input device. A source
// without a device is unavailable.
type FFmpegOptions struct {
	Binary      string
	InputFormat string
	Devices     map[domain.AudioSource]string
	StartProbe  time.Duration
	StopTimeout time.Duration
}

// FFmpegCaptureFactory records through an ffmpeg child process per session.
type FFmpegCaptureFactory struct {
	opts   FFmpegOptions
	logger hclog.Logger
}

func NewFFmpegCaptureFactory(opts FFmpegOptions, logger hclog.Logger) *FFmpegCaptureFactory {
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FFmpegCaptureFactory{opts: opts, logger: logger}
}

func (f *FFmpegCaptureFactory) CheckBinary() error {
	if _, err := exec.LookPath(f.opts.Binary); err != nil {
		return fmt.Errorf("%s not found in PATH", f.opts.Binary)
	}
	return nil
}

func (f *FFmpegCaptureFactory) Open(_ context.Context, source domain.AudioSource) (recordingout.Capture, error) {
	device := strings.TrimSpace(f.opts.Devices[source])
	if device == "" {
		return nil, fmt.Errorf("no input device configured for %s", source)
	}
	return &ffmpegCapture{opts: f.opts, device: device, logger: f.logger.With("source", source)}, nil
}

type ffmpegCapture struct {
	opts   FFmpegOptions
	device string
	logger hclog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  *limitedBuffer
	done    chan struct{}
	waitErr error
}

func (c *ffmpegCapture) Prepare(_ context.Context, spec recordingout.CaptureSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil {
		return fmt.Errorf("capture already prepared")
	}
	enc := spec.Encoder
	args := []string{
		"-hide_banner", "-nostats", "-loglevel", "error",
		"-f", c.opts.InputFormat,
		"-i", c.device,
		"-c:a", enc.Codec,
		"-b:a", strconv.Itoa(enc.BitRate),
		"-ar", strconv.Itoa(enc.SampleRate),
		"-f", enc.Container,
		"-y", spec.OutputPath,
	}
	cmd := exec.Command(c.opts.Binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open ffmpeg stdin: %w", err)
	}
	c.stderr = &limitedBuffer{limit: stderrLimit}
	cmd.Stderr = c.stderr
	c.cmd = cmd
	c.stdin = stdin
	return nil
}

// Start launches ffmpeg and treats an exit within the probe window as a
// device failure.
func (c *ffmpegCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cmd == nil {
		c.mu.Unlock()
		return fmt.Errorf("capture not prepared")
	}
	if err := c.cmd.Start(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	c.done = make(chan struct{})
	go func(cmd *exec.Cmd, done chan struct{}) {
		err := cmd.Wait()
		c.mu.Lock()
		c.waitErr = err
		c.mu.Unlock()
		close(done)
	}(c.cmd, c.done)
	done := c.done
	c.mu.Unlock()

	c.logger.Debug("ffmpeg started", "device", c.device)
	if c.opts.StartProbe <= 0 {
		return nil
	}
	timer := time.NewTimer(c.opts.StartProbe)
	defer timer.Stop()
	select {
	case <-done:
		return fmt.Errorf("ffmpeg exited during startup: %s", c.failure())
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stop asks ffmpeg to finish the container by sending 'q', escalating to an
// interrupt when it does not exit in time.
func (c *ffmpegCapture) Stop(_ context.Context) error {
	c.mu.Lock()
	done, stdin, cmd := c.done, c.stdin, c.cmd
	c.mu.Unlock()
	if done == nil {
		return fmt.Errorf("capture not started")
	}

	select {
	case <-done:
		return fmt.Errorf("ffmpeg exited before stop: %s", c.failure())
	default:
	}

	_, _ = io.WriteString(stdin, "q\n")
	_ = stdin.Close()

	timer := time.NewTimer(c.opts.StopTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		c.logger.Warn("ffmpeg did not exit after quit, interrupting")
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(c.opts.StopTimeout):
			return fmt.Errorf("ffmpeg did not exit within %s", 2*c.opts.StopTimeout)
		}
	}

	c.mu.Lock()
	err := c.waitErr
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ffmpeg exit: %s", c.failure())
	}
	return nil
}

func (c *ffmpegCapture) Release() error {
	c.mu.Lock()
	done, stdin, cmd := c.done, c.stdin, c.cmd
	c.mu.Unlock()
	if stdin != nil {
		_ = stdin.Close()
	}
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	default:
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill ffmpeg: %w", err)
	}
	<-done
	return nil
}

func (c *ffmpegCapture) failure() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := strings.TrimSpace(c.stderr.String())
	if c.waitErr != nil {
		if msg == "" {
			return c.waitErr.Error()
		}
		return c.waitErr.Error() + ": " + msg
	}
	if msg == "" {
		return "no output"
	}
	return msg
}

// limitedBuffer keeps the first limit bytes written to it.
type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
