package out_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	recordingadapter "callrec/internal/modules/recording/adapter/out"
	"callrec/internal/modules/recording/domain"
	recordingout "callrec/internal/modules/recording/port/out"
)

// fakeFFmpeg mimics the ffmpeg CLI: it fails for the "broken" device,
// otherwise writes the output file (last argument) and waits for 'q'.
const fakeFFmpeg = `#!/bin/sh
for last; do :; done
case "$*" in
  *broken*) echo "broken: No such device" >&2; exit 1 ;;
esac
printf 'fake-aac-payload' > "$last"
read line
exit 0
`

func writeFakeFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(fakeFFmpeg), 0o755))
	return path
}

func newFactory(t *testing.T, devices map[domain.AudioSource]string) *recordingadapter.FFmpegCaptureFactory {
	t.Helper()
	return recordingadapter.NewFFmpegCaptureFactory(recordingadapter.FFmpegOptions{
		Binary:      writeFakeFFmpeg(t),
		InputFormat: "pulse",
		Devices:     devices,
		StartProbe:  100 * time.Millisecond,
		StopTimeout: 2 * time.Second,
	}, nil)
}

func TestFFmpegCaptureRecordsUntilStopped(t *testing.T) {
	t.Parallel()
	factory := newFactory(t, map[domain.AudioSource]string{domain.SourceMic: "default"})
	require.NoError(t, factory.CheckBinary())
	out := filepath.Join(t.TempDir(), "call_1_20260101_000000.m4a")
	ctx := context.Background()

	capture, err := factory.Open(ctx, domain.SourceMic)
	require.NoError(t, err)
	defer capture.Release()

	require.NoError(t, capture.Prepare(ctx, recordingout.CaptureSpec{Source: domain.SourceMic, OutputPath: out, Encoder: domain.DefaultEncoder()}))
	require.NoError(t, capture.Start(ctx))
	require.NoError(t, capture.Stop(ctx))
	require.NoError(t, capture.Release())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "fake-aac-payload", string(raw))
}

func TestFFmpegCaptureReportsDeviceFailureDuringProbe(t *testing.T) {
	t.Parallel()
	factory := newFactory(t, map[domain.AudioSource]string{domain.SourcePreferred: "broken"})
	ctx := context.Background()

	capture, err := factory.Open(ctx, domain.SourcePreferred)
	require.NoError(t, err)
	defer capture.Release()

	require.NoError(t, capture.Prepare(ctx, recordingout.CaptureSpec{
		Source:     domain.SourcePreferred,
		OutputPath: filepath.Join(t.TempDir(), "x.m4a"),
		Encoder:    domain.DefaultEncoder(),
	}))
	err = capture.Start(ctx)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "No such device"), "unexpected error: %v", err)
}

func TestFFmpegFactoryRejectsUnconfiguredSource(t *testing.T) {
	t.Parallel()
	factory := newFactory(t, map[domain.AudioSource]string{domain.SourceMic: "default"})
	if _, err := factory.Open(context.Background(), domain.SourcePreferred); err == nil {
		t.Fatalf("expected error for source without device")
	}
}

func TestReleaseKillsRunningCapture(t *testing.T) {
	t.Parallel()
	factory := newFactory(t, map[domain.AudioSource]string{domain.SourceMic: "default"})
	ctx := context.Background()
	capture, err := factory.Open(ctx, domain.SourceMic)
	require.NoError(t, err)
	require.NoError(t, capture.Prepare(ctx, recordingout.CaptureSpec{
		Source:     domain.SourceMic,
		OutputPath: filepath.Join(t.TempDir(), "y.m4a"),
		Encoder:    domain.DefaultEncoder(),
	}))
	require.NoError(t, capture.Start(ctx))

	done := make(chan error, 1)
	go func() { done <- capture.Release() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("release did not return")
	}
	require.NoError(t, capture.Release())
}
