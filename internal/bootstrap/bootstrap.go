package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	archiveinadapter "callrec/internal/modules/archive/adapter/in"
	archiveoutadapter "callrec/internal/modules/archive/adapter/out"
	archiveservice "callrec/internal/modules/archive/service"
	archiveusecase "callrec/internal/modules/archive/usecase"
	hostinadapter "callrec/internal/modules/host/adapter/in"
	hostoutadapter "callrec/internal/modules/host/adapter/out"
	hostout "callrec/internal/modules/host/port/out"
	hostservice "callrec/internal/modules/host/service"
	hostusecase "callrec/internal/modules/host/usecase"
	monitorinadapter "callrec/internal/modules/monitor/adapter/in"
	monitoroutadapter "callrec/internal/modules/monitor/adapter/out"
	monitorin "callrec/internal/modules/monitor/port/in"
	monitorservice "callrec/internal/modules/monitor/service"
	monitorusecase "callrec/internal/modules/monitor/usecase"
	recordinginadapter "callrec/internal/modules/recording/adapter/in"
	recordingoutadapter "callrec/internal/modules/recording/adapter/out"
	"callrec/internal/modules/recording/domain"
	recordingout "callrec/internal/modules/recording/port/out"
	recordingservice "callrec/internal/modules/recording/service"
	recordingusecase "callrec/internal/modules/recording/usecase"
	settingsinadapter "callrec/internal/modules/settings/adapter/in"
	settingsoutadapter "callrec/internal/modules/settings/adapter/out"
	settingsservice "callrec/internal/modules/settings/service"
	settingsusecase "callrec/internal/modules/settings/usecase"
	"callrec/internal/platform/clock"
	"callrec/internal/platform/config"
	"callrec/internal/platform/id"
	"callrec/internal/platform/logging"
	uiapp "callrec/internal/ui/app"
)

type App struct {
	Config config.Config
	Logger hclog.Logger

	MonitorCLI   monitorinadapter.CLIHandler
	RecordingCLI recordinginadapter.CLIHandler
	ArchiveCLI   archiveinadapter.CLIHandler
	SettingsCLI  settingsinadapter.CLIHandler
	HostCLI      hostinadapter.CLIHandler

	closers []io.Closer
}

// New wires every module for cfg. A nil logger writes to stderr at the
// configured level.
func New(cfg config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.New(cfg.Log)
	}
	clk := clock.SystemClock{}

	settingsUC := settingsusecase.NewInteractor(settingsservice.NewSettingsService(
		settingsoutadapter.NewYAMLPreferenceStore(cfg.PreferencesPath()),
	))

	index, err := archiveoutadapter.NewSQLiteRecordingIndex(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new recording index: %w", err)
	}
	archiveUC := archiveusecase.NewInteractor(archiveservice.NewArchiveService(
		clk,
		archiveoutadapter.NewLocalRecordingFiles(),
		index,
		cfg.RecordingsDir,
		cfg.FallbackDir,
	))

	captures, err := newCaptureFactory(cfg.Capture, logger.Named("capture"))
	if err != nil {
		_ = index.Close()
		return nil, err
	}
	encoder := domain.DefaultEncoder()
	encoder.BitRate = cfg.Encoder.BitRate
	encoder.SampleRate = cfg.Encoder.SampleRate
	recordingUC := recordingusecase.NewInteractor(
		recordingservice.NewSessionManager(
			clk,
			id.UUID{},
			captures,
			recordingoutadapter.NewLocalFileSystem(),
			recordingoutadapter.NewFileActiveSessionStore(cfg.ActiveSessionPath()),
			recordingservice.Options{Dir: cfg.RecordingsDir, FallbackDir: cfg.FallbackDir, Encoder: encoder},
			logger.Named("recording"),
		),
		recordingoutadapter.NewMemoryEventHub(),
		archiveUC,
		logger.Named("recording"),
	)

	monitorLogger := logger.Named("monitor")
	monitorUC := monitorusecase.NewInteractor(
		monitorservice.NewMonitorService(),
		settingsUC,
		recordingUC,
		monitoroutadapter.NewJSONRPCForwarder(cfg.SignalSocketPath()),
		monitorLogger,
	)

	sources := []monitorin.SignalSource{monitorinadapter.NewJSONRPCSignalServer(cfg.SignalSocketPath())}
	if cfg.SIP.Enabled {
		sources = append(sources, monitorinadapter.NewSIPListener(monitorinadapter.SIPOptions{
			Transport:   cfg.SIP.Transport,
			BindHost:    cfg.SIP.BindHost,
			BindPort:    cfg.SIP.BindPort,
			AnswerDelay: cfg.SIP.AnswerDelay,
		}, monitorLogger.Named("sip")))
	}
	runners := make([]hostout.Runner, 0, len(sources)+1)
	for _, source := range sources {
		runners = append(runners, sourceRunner{source: source, sink: monitorUC})
	}
	hostLogger := logger.Named("host")
	runners = append(runners, hostinadapter.NewGRPCServer(
		cfg.Host.Address,
		hostusecase.NewAPIInteractor(archiveUC, settingsUC, recordingUC),
		hostLogger,
	))

	client := hostoutadapter.NewGRPCHostClient(cfg.Host.Address)
	hostUC := hostusecase.NewInteractor(hostservice.NewDaemonService(
		hostservice.DaemonOptions{
			DataDir:      cfg.DataDir,
			HostAddress:  cfg.Host.Address,
			SignalSocket: cfg.SignalSocketPath(),
		},
		hostoutadapter.NewFileDaemonStore(cfg.DaemonDir()),
		runners,
		recordingUC,
		client,
		hostLogger,
	), client)

	return &App{
		Config:       cfg,
		Logger:       logger,
		MonitorCLI:   monitorinadapter.NewCLIHandler(monitorUC),
		RecordingCLI: recordinginadapter.NewCLIHandler(recordingUC),
		ArchiveCLI:   archiveinadapter.NewCLIHandler(archiveUC),
		SettingsCLI:  settingsinadapter.NewCLIHandler(settingsUC),
		HostCLI:      hostinadapter.NewCLIHandler(hostUC),
		closers:      []io.Closer{index, client},
	}, nil
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.Config.DataDir, app.ArchiveCLI, app.SettingsCLI, app.HostCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func newCaptureFactory(cfg config.CaptureConfig, logger hclog.Logger) (recordingout.CaptureFactory, error) {
	switch cfg.Backend {
	case "plugin":
		return recordingoutadapter.NewPluginCaptureFactory(cfg.PluginBinary, logger), nil
	case "ffmpeg", "":
		devices := map[domain.AudioSource]string{domain.SourceMic: cfg.MicDevice}
		if cfg.PreferredDevice != "" {
			devices[domain.SourcePreferred] = cfg.PreferredDevice
		}
		return recordingoutadapter.NewFFmpegCaptureFactory(recordingoutadapter.FFmpegOptions{
			Binary:      cfg.FFmpegBinary,
			InputFormat: cfg.InputFormat,
			Devices:     devices,
			StartProbe:  cfg.StartProbe,
			StopTimeout: cfg.StopTimeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", cfg.Backend)
	}
}

// sourceRunner feeds one call-state source into the monitor for the
// lifetime of the daemon.
type sourceRunner struct {
	source monitorin.SignalSource
	sink   monitorin.Usecase
}

func (r sourceRunner) Name() string {
	return r.source.Name()
}

func (r sourceRunner) Run(ctx context.Context) error {
	return r.source.Run(ctx, r.sink)
}
