package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	StateDirName  = ".callrec"
	FileName      = "config.yaml"
	RecordingsDir = "callrecording"
)

type Config struct {
	DataDir       string `yaml:"-" validate:"required"`
	StateDir      string `yaml:"-" validate:"required"`
	RecordingsDir string `yaml:"recordings_dir" env:"CALLREC_RECORDINGS_DIR" validate:"required"`
	FallbackDir   string `yaml:"fallback_dir" env:"CALLREC_FALLBACK_DIR" validate:"required"`
	DBPath        string `yaml:"db_path" env:"CALLREC_DB_PATH" validate:"required"`

	Capture CaptureConfig `yaml:"capture" envPrefix:"CALLREC_CAPTURE_"`
	Encoder EncoderConfig `yaml:"encoder" envPrefix:"CALLREC_ENCODER_"`
	SIP     SIPConfig     `yaml:"sip" envPrefix:"CALLREC_SIP_"`
	Host    HostConfig    `yaml:"host" envPrefix:"CALLREC_HOST_"`
	Log     LogConfig     `yaml:"log" envPrefix:"CALLREC_LOG_"`
}

type CaptureConfig struct {
	Backend         string        `yaml:"backend" env:"BACKEND" validate:"oneof=ffmpeg plugin"`
	FFmpegBinary    string        `yaml:"ffmpeg_binary" env:"FFMPEG_BINARY" validate:"required_if=Backend ffmpeg"`
	InputFormat     string        `yaml:"input_format" env:"INPUT_FORMAT" validate:"required_if=Backend ffmpeg"`
	PreferredDevice string        `yaml:"preferred_device" env:"PREFERRED_DEVICE"`
	MicDevice       string        `yaml:"mic_device" env:"MIC_DEVICE" validate:"required_if=Backend ffmpeg"`
	PluginBinary    string        `yaml:"plugin_binary" env:"PLUGIN_BINARY" validate:"required_if=Backend plugin"`
	StartProbe      time.Duration `yaml:"start_probe" env:"START_PROBE" validate:"gte=0"`
	StopTimeout     time.Duration `yaml:"stop_timeout" env:"STOP_TIMEOUT" validate:"gt=0"`
}

type EncoderConfig struct {
	BitRate    int `yaml:"bit_rate" env:"BIT_RATE" validate:"gt=0"`
	SampleRate int `yaml:"sample_rate" env:"SAMPLE_RATE" validate:"gt=0"`
}

type SIPConfig struct {
	Enabled     bool          `yaml:"enabled" env:"ENABLED"`
	Transport   string        `yaml:"transport" env:"TRANSPORT" validate:"oneof=udp tcp ws"`
	BindHost    string        `yaml:"bind_host" env:"BIND_HOST" validate:"required"`
	BindPort    int           `yaml:"bind_port" env:"BIND_PORT" validate:"min=1,max=65535"`
	AnswerDelay time.Duration `yaml:"answer_delay" env:"ANSWER_DELAY" validate:"gte=0"`
}

type HostConfig struct {
	Address string `yaml:"address" env:"ADDRESS" validate:"required,hostname_port"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL" validate:"oneof=trace debug info warn error"`
	JSON       bool   `yaml:"json" env:"JSON"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB" validate:"gt=0"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" validate:"gte=0"`
}

// New resolves the configuration for a data directory: defaults, then
// <data>/.callrec/config.yaml, then CALLREC_* environment overrides.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data path is required")
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve data path: %w", err)
	}
	cfg := Defaults(abs)

	raw, err := os.ReadFile(filepath.Join(cfg.StateDir, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.RecordingsDir = cfg.resolve(cfg.RecordingsDir)
	cfg.FallbackDir = cfg.resolve(cfg.FallbackDir)
	cfg.DBPath = cfg.resolve(cfg.DBPath)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Defaults(dataDir string) Config {
	stateDir := filepath.Join(dataDir, StateDirName)
	return Config{
		DataDir:       dataDir,
		StateDir:      stateDir,
		RecordingsDir: filepath.Join(dataDir, RecordingsDir),
		FallbackDir:   filepath.Join(stateDir, "files", RecordingsDir),
		DBPath:        filepath.Join(stateDir, "callrec.db"),
		Capture: CaptureConfig{
			Backend:      "ffmpeg",
			FFmpegBinary: "ffmpeg",
			InputFormat:  "pulse",
			MicDevice:    "default",
			StartProbe:   300 * time.Millisecond,
			StopTimeout:  5 * time.Second,
		},
		Encoder: EncoderConfig{
			BitRate:    128000,
			SampleRate: 44100,
		},
		SIP: SIPConfig{
			Transport:   "udp",
			BindHost:    "127.0.0.1",
			BindPort:    5060,
			AnswerDelay: 2 * time.Second,
		},
		Host: HostConfig{Address: "127.0.0.1:7421"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) PreferencesPath() string {
	return filepath.Join(c.StateDir, "preferences.yaml")
}

func (c Config) ActiveSessionPath() string {
	return filepath.Join(c.StateDir, "active-recording.json")
}

func (c Config) DaemonDir() string {
	return filepath.Join(c.StateDir, "daemon")
}

func (c Config) SignalSocketPath() string {
	return filepath.Join(c.DaemonDir(), "signal.sock")
}

func (c Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}
