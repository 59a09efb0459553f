package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "callrec/internal/platform/errors"
)

func TestFinishTruncatesDurationAndClampsNegatives(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	session := Session{FilePath: "/r/call.m4a", AudioSource: SourceMic, StartedAt: start, PhoneNumber: "+1", Direction: DirectionIncoming}

	got := session.Finish(start.Add(61*time.Second+900*time.Millisecond), 2048)
	if got.DurationSeconds != 61 || got.FileSizeBytes != 2048 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.AudioSource != SourceMic || got.Direction != DirectionIncoming || !got.StartedAt.Equal(start) {
		t.Fatalf("session fields not carried over: %+v", got)
	}

	backwards := session.Finish(start.Add(-5*time.Second), -1)
	if backwards.DurationSeconds != 0 || backwards.FileSizeBytes != 0 {
		t.Fatalf("expected clamped result, got %+v", backwards)
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()
	if d, err := ParseDirection(" Incoming "); err != nil || d != DirectionIncoming {
		t.Fatalf("incoming: %v %v", d, err)
	}
	if d, err := ParseDirection("outgoing"); err != nil || d != DirectionOutgoing {
		t.Fatalf("outgoing: %v %v", d, err)
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDefaultEncoderIsFixed(t *testing.T) {
	t.Parallel()
	enc := DefaultEncoder()
	if enc.Container != "mp4" || enc.Codec != "aac" || enc.BitRate != 128000 || enc.SampleRate != 44100 || enc.Extension != ".m4a" {
		t.Fatalf("unexpected encoder defaults: %+v", enc)
	}
}
