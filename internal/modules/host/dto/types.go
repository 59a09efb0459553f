package dto

import recordingdto "callrec/internal/modules/recording/dto"

// Wire messages of the host gRPC service.

type Recording struct {
	FilePath     string `json:"file_path"`
	FileName     string `json:"file_name"`
	FileSize     int64  `json:"file_size"`
	LastModified int64  `json:"last_modified"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	CallType     string `json:"call_type,omitempty"`
	Duration     int    `json:"duration,omitempty"`
	AudioSource  string `json:"audio_source,omitempty"`
}

type RecordingList struct {
	Recordings []Recording `json:"recordings"`
}

type DeleteRequest struct {
	FilePath string `json:"file_path"`
}

// ToggleRequest leaves Enabled nil when the caller sent no value.
type ToggleRequest struct {
	Enabled *bool `json:"enabled,omitempty"`
}

type BoolValue struct {
	Value bool `json:"value"`
}

type StringValue struct {
	Value string `json:"value"`
}

type Event = recordingdto.CompletionEvent

// StatusOutput is what the CLI status command prints.
type StatusOutput struct {
	Recording     bool
	AudioSource   string
	AutoRecord    bool
	RecordingPath string
}

type DaemonStatusOutput struct {
	PID          int
	Running      bool
	HostAddress  string
	SignalSocket string
	LogPath      string
	Live         *StatusOutput
}
