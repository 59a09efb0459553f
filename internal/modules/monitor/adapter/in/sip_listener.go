package in

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emiago/diago"
	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"
	hclog "github.com/hashicorp/go-hclog"

	"callrec/internal/modules/monitor/dto"
	monitorin "callrec/internal/modules/monitor/port/in"
)

type SIPOptions struct {
	Transport   string
	BindHost    string
	BindPort    int
	AnswerDelay time.Duration
}

// SIPListener turns SIP dialogs into call states: INVITE rings, the answer
// after AnswerDelay goes off hook, and the end of the dialog is idle.
type SIPListener struct {
	opts   SIPOptions
	logger hclog.Logger
}

func NewSIPListener(opts SIPOptions, logger hclog.Logger) *SIPListener {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SIPListener{opts: opts, logger: logger}
}

var _ monitorin.SignalSource = (*SIPListener)(nil)

func (l *SIPListener) Name() string {
	return "sip"
}

func (l *SIPListener) Run(ctx context.Context, sink monitorin.Usecase) error {
	ua, err := sipgo.NewUA()
	if err != nil {
		return fmt.Errorf("create sip user agent: %w", err)
	}
	defer ua.Close()

	dg := diago.NewDiago(ua, diago.WithTransport(diago.Transport{
		Transport: l.opts.Transport,
		BindHost:  l.opts.BindHost,
		BindPort:  l.opts.BindPort,
	}))
	l.logger.Info("sip listener serving", "transport", l.opts.Transport, "addr", fmt.Sprintf("%s:%d", l.opts.BindHost, l.opts.BindPort))

	err = dg.Serve(ctx, func(inDialog *diago.DialogServerSession) {
		l.handle(ctx, inDialog, sink)
	})
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve sip: %w", err)
	}
	return nil
}

func (l *SIPListener) handle(ctx context.Context, inDialog *diago.DialogServerSession, sink monitorin.Usecase) {
	// the final IDLE must reach the sink even while the daemon shuts down
	signalCtx := context.WithoutCancel(ctx)
	number := CallerNumber(inDialog.InviteRequest.Headers())
	logger := l.logger.With("number", number)

	sink.OnStateChange(signalCtx, dto.SignalInput{State: dto.StateRinging, Number: number})
	defer sink.OnStateChange(signalCtx, dto.SignalInput{State: dto.StateIdle})

	if err := inDialog.Trying(); err != nil {
		logger.Warn("send trying", "error", err)
		return
	}
	if err := inDialog.Ringing(); err != nil {
		logger.Warn("send ringing", "error", err)
		return
	}

	timer := time.NewTimer(l.opts.AnswerDelay)
	defer timer.Stop()
	select {
	case <-inDialog.Context().Done():
		logger.Info("caller hung up before answer")
		return
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if err := inDialog.Answer(); err != nil {
		logger.Error("answer call", "error", err)
		return
	}
	sink.OnStateChange(signalCtx, dto.SignalInput{State: dto.StateOffHook, Number: number})

	select {
	case <-inDialog.Context().Done():
	case <-ctx.Done():
		hangupCtx, cancel := context.WithTimeout(signalCtx, 2*time.Second)
		defer cancel()
		if err := inDialog.Hangup(hangupCtx); err != nil {
			logger.Warn("hang up on shutdown", "error", err)
		}
	}
}

// CallerNumber returns the user part of the From URI, or "" when there is
// none.
func CallerNumber(headers []sip.Header) string {
	for _, header := range headers {
		name := header.Name()
		if !strings.EqualFold(name, "From") && !strings.EqualFold(name, "f") {
			continue
		}
		return uriUser(header.Value())
	}
	return ""
}

func uriUser(value string) string {
	for _, scheme := range []string{"sips:", "sip:", "tel:"} {
		idx := strings.Index(value, scheme)
		if idx < 0 {
			continue
		}
		rest := value[idx+len(scheme):]
		if end := strings.IndexAny(rest, "@>;"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}
