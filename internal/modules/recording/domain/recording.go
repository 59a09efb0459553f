package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "callrec/internal/platform/errors"
)

const (
	SchemaVersion = 1
	UnknownNumber = "Unknown"
)

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case DirectionIncoming:
		return DirectionIncoming, nil
	case DirectionOutgoing:
		return DirectionOutgoing, nil
	default:
		return "", fmt.Errorf("%w: direction %q", apperrors.ErrInvalidInput, raw)
	}
}

// AudioSource tags which capture source produced a session.
type AudioSource string

const (
	SourcePreferred AudioSource = "PREFERRED"
	SourceMic       AudioSource = "MIC"
	SourceFailed    AudioSource = "FAILED"
)

// CaptureOrder is the preferred duplex source followed by its single fallback.
var CaptureOrder = []AudioSource{SourcePreferred, SourceMic}

type EncoderConfig struct {
	Container  string
	Codec      string
	BitRate    int
	SampleRate int
	Extension  string
}

func DefaultEncoder() EncoderConfig {
	return EncoderConfig{
		Container:  "mp4",
		Codec:      "aac",
		BitRate:    128000,
		SampleRate: 44100,
		Extension:  ".m4a",
	}
}

type Session struct {
	SchemaVersion int         `json:"schema_version"`
	ID            string      `json:"id"`
	FilePath      string      `json:"file_path"`
	AudioSource   AudioSource `json:"audio_source"`
	StartedAt     time.Time   `json:"started_at"`
	PhoneNumber   string      `json:"phone_number"`
	Direction     Direction   `json:"direction"`
}

type Result struct {
	FilePath        string
	PhoneNumber     string
	Direction       Direction
	DurationSeconds int
	FileSizeBytes   int64
	AudioSource     AudioSource
	StartedAt       time.Time
}

// Finish converts the session into its result. Duration is truncated to whole
// seconds and never negative.
func (s Session) Finish(endedAt time.Time, size int64) Result {
	duration := int(endedAt.Sub(s.StartedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}
	if size < 0 {
		size = 0
	}
	return Result{
		FilePath:        s.FilePath,
		PhoneNumber:     s.PhoneNumber,
		Direction:       s.Direction,
		DurationSeconds: duration,
		FileSizeBytes:   size,
		AudioSource:     s.AudioSource,
		StartedAt:       s.StartedAt,
	}
}
