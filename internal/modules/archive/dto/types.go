package dto

import "time"

type RecordingOutput struct {
	FilePath     string
	FileName     string
	FileSize     int64
	LastModified time.Time

	PhoneNumber     string
	CallType        string
	DurationSeconds int
	AudioSource     string
}

type DeleteInput struct {
	FilePath string
}

type DeleteOutput struct {
	Deleted bool
}

type IndexInput struct {
	FilePath        string
	PhoneNumber     string
	CallType        string
	DurationSeconds int
	FileSizeBytes   int64
	AudioSource     string
	StartedAt       time.Time
}

type ReindexOutput struct {
	Indexed int
	Removed int
}
