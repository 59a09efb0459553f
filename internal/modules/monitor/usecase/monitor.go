package usecase

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"callrec/internal/modules/monitor/domain"
	monitordto "callrec/internal/modules/monitor/dto"
	monitorin "callrec/internal/modules/monitor/port/in"
	monitorout "callrec/internal/modules/monitor/port/out"
	"callrec/internal/modules/monitor/service"
	recordingdto "callrec/internal/modules/recording/dto"
	recordingin "callrec/internal/modules/recording/port/in"
	settingsin "callrec/internal/modules/settings/port/in"
	apperrors "callrec/internal/platform/errors"
)

const unknownNumber = "Unknown"

type Interactor struct {
	svc       *service.MonitorService
	settings  settingsin.Usecase
	recorder  recordingin.Usecase
	forwarder monitorout.SignalForwarder
	logger    hclog.Logger
}

func NewInteractor(
	svc *service.MonitorService,
	settings settingsin.Usecase,
	recorder recordingin.Usecase,
	forwarder monitorout.SignalForwarder,
	logger hclog.Logger,
) monitorin.Usecase {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Interactor{svc: svc, settings: settings, recorder: recorder, forwarder: forwarder, logger: logger}
}

func (i *Interactor) OnStateChange(ctx context.Context, input monitordto.SignalInput) monitordto.SignalOutput {
	ignored := monitordto.SignalOutput{Action: string(domain.ActionNone), Ignored: true}
	if i.settings != nil {
		enabled, err := i.settings.IsAutoRecordEnabled(ctx)
		if err != nil {
			i.logger.Warn("read auto record preference", "error", err)
		}
		if !enabled {
			i.logger.Debug("auto record disabled, ignoring call state", "state", input.State)
			return ignored
		}
	}

	var out monitordto.SignalOutput
	ok := i.svc.Apply(input.State, input.Number, func(tr domain.Transition) {
		out = toOutput(tr)
		i.apply(ctx, tr)
	})
	if !ok {
		i.logger.Debug("unrecognized call state", "state", input.State)
		return ignored
	}
	return out
}

func (i *Interactor) apply(ctx context.Context, tr domain.Transition) {
	switch tr.Action {
	case domain.ActionStart:
		number := tr.Call.PhoneNumber
		if number == "" {
			number = unknownNumber
		}
		i.logger.Info("call active, starting recording", "direction", tr.Call.Direction, "number", number)
		if _, err := i.recorder.Start(ctx, recordingdto.StartInput{PhoneNumber: number, Direction: string(tr.Call.Direction)}); err != nil {
			i.logger.Error("start recording", "error", err)
		}
	case domain.ActionStop:
		i.logger.Info("call ended, stopping recording")
		if _, err := i.recorder.Stop(ctx); err != nil {
			i.logger.Error("stop recording", "error", err)
		}
	case domain.ActionMissed:
		i.logger.Info("missed call", "number", tr.Call.PhoneNumber)
	case domain.ActionNone:
		if tr.From == domain.StateIdle && tr.To == domain.StateRinging {
			i.logger.Info("incoming call ringing", "number", tr.Call.PhoneNumber)
		}
	}
}

func (i *Interactor) Forward(ctx context.Context, input monitordto.SignalInput) (monitordto.SignalOutput, error) {
	if _, ok := domain.ParseRawState(input.State); !ok {
		return monitordto.SignalOutput{}, fmt.Errorf("%w: unknown call state %q, want IDLE, RINGING or OFFHOOK", apperrors.ErrInvalidInput, input.State)
	}
	if i.forwarder == nil {
		return monitordto.SignalOutput{}, fmt.Errorf("no signal forwarder configured")
	}
	return i.forwarder.Signal(ctx, input)
}

func toOutput(tr domain.Transition) monitordto.SignalOutput {
	out := monitordto.SignalOutput{
		From:   string(tr.From),
		To:     string(tr.To),
		Action: string(tr.Action),
	}
	if tr.Call.Direction != "" {
		out.Direction = string(tr.Call.Direction)
		out.Number = tr.Call.PhoneNumber
	}
	return out
}
