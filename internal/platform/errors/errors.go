package apperrors

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoActiveSession  = errors.New("no active recording session")
	ErrCaptureFailed    = errors.New("audio capture failed")
	ErrDaemonNotRunning = errors.New("daemon is not running")
)
