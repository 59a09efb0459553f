package dto

import "time"

type StartInput struct {
	PhoneNumber string
	Direction   string
}

type SessionOutput struct {
	SessionID   string
	FilePath    string
	PhoneNumber string
	Direction   string
	AudioSource string
	StartedAt   time.Time
}

type ResultOutput struct {
	FilePath        string
	PhoneNumber     string
	Direction       string
	DurationSeconds int
	FileSizeBytes   int64
	AudioSource     string
	StartedAt       time.Time
}

// StopOutput carries a nil Result when no session was active.
type StopOutput struct {
	Result *ResultOutput
}

type StatusOutput struct {
	Recording   bool
	AudioSource string
	Session     *SessionOutput
}

// CompletionEvent is the payload delivered to host applications when a
// session is finalized.
type CompletionEvent struct {
	FilePath    string `json:"file_path"`
	PhoneNumber string `json:"phone_number"`
	CallType    string `json:"call_type"`
	Duration    int    `json:"duration"`
	FileSize    int64  `json:"file_size"`
	AudioSource string `json:"audio_source"`
	Timestamp   int64  `json:"timestamp"`
}
