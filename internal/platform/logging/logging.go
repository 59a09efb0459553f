package logging

import (
	"io"
	"os"
	"path/filepath"

	hclog "github.com/hashicorp/go-hclog"
	"gopkg.in/natefinch/lumberjack.v2"

	"callrec/internal/platform/config"
)

const DaemonLogFile = "daemon.log"

// New returns a logger writing to stderr.
func New(cfg config.LogConfig) hclog.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

func NewWithOutput(cfg config.LogConfig, out io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "callrec",
		Level:      hclog.LevelFromString(cfg.Level),
		Output:     out,
		JSONFormat: cfg.JSON,
	})
}

// NewDaemon returns a logger writing to a size-rotated file in dir.
// The returned closer flushes and closes the current file.
func NewDaemon(cfg config.LogConfig, dir string) (hclog.Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, DaemonLogFile),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	return NewWithOutput(cfg, rotator), rotator
}

func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
