// Command reference is a capture plugin that records a 440 Hz test tone
// through ffmpeg's lavfi input. It has no duplex source, so hosts always fall
// back to its microphone source.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	recordingadapter "callrec/internal/modules/recording/adapter/out"
	capturerpc "callrec/internal/modules/recording/adapter/out/rpc"
	"callrec/internal/modules/recording/domain"
	recordingout "callrec/internal/modules/recording/port/out"
)

type server struct {
	factory *recordingadapter.FFmpegCaptureFactory

	mu      sync.Mutex
	capture recordingout.Capture
}

func (s *server) GetMetadata(_ context.Context, _ *capturerpc.Empty) (*capturerpc.Metadata, error) {
	return &capturerpc.Metadata{
		Name:    "reference",
		Version: "1.0.0",
		Sources: []string{string(domain.SourceMic)},
	}, nil
}

func (s *server) Prepare(ctx context.Context, in *capturerpc.PrepareRequest) (*capturerpc.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture != nil {
		return nil, fmt.Errorf("capture already prepared")
	}
	source := domain.AudioSource(in.Source)
	capture, err := s.factory.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	spec := recordingout.CaptureSpec{
		Source:     source,
		OutputPath: in.OutputPath,
		Encoder: domain.EncoderConfig{
			Container:  in.Container,
			Codec:      in.Codec,
			BitRate:    int(in.BitRate),
			SampleRate: int(in.SampleRate),
		},
	}
	if err := capture.Prepare(ctx, spec); err != nil {
		_ = capture.Release()
		return nil, err
	}
	s.capture = capture
	return &capturerpc.Empty{}, nil
}

func (s *server) Start(ctx context.Context, _ *capturerpc.Empty) (*capturerpc.Empty, error) {
	capture, err := s.current()
	if err != nil {
		return nil, err
	}
	return &capturerpc.Empty{}, capture.Start(ctx)
}

func (s *server) Stop(ctx context.Context, _ *capturerpc.Empty) (*capturerpc.Empty, error) {
	capture, err := s.current()
	if err != nil {
		return nil, err
	}
	return &capturerpc.Empty{}, capture.Stop(ctx)
}

func (s *server) Release(_ context.Context, _ *capturerpc.Empty) (*capturerpc.Empty, error) {
	s.mu.Lock()
	capture := s.capture
	s.capture = nil
	s.mu.Unlock()
	if capture == nil {
		return &capturerpc.Empty{}, nil
	}
	return &capturerpc.Empty{}, capture.Release()
}

func (s *server) current() (recordingout.Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil {
		return nil, fmt.Errorf("capture not prepared")
	}
	return s.capture, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{Name: "reference-capture", Output: os.Stderr, Level: hclog.Info})
	factory := recordingadapter.NewFFmpegCaptureFactory(recordingadapter.FFmpegOptions{
		InputFormat: "lavfi",
		Devices: map[domain.AudioSource]string{
			domain.SourceMic: "sine=frequency=440",
		},
		StartProbe:  200 * time.Millisecond,
		StopTimeout: 3 * time.Second,
	}, logger)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: capturerpc.HandshakeConfig,
		Plugins:         capturerpc.PluginMap(&server{factory: factory}),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          logger,
	})
}
