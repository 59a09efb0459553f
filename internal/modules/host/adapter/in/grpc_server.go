package in

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"callrec/internal/modules/host/dto"
	hostin "callrec/internal/modules/host/port/in"
	apperrors "callrec/internal/platform/errors"
	"callrec/internal/platform/grpcjson"
)

const (
	CodeInvalidArg = "INVALID_ARG"
	CodeException  = "EXCEPTION"

	gracePeriod = 2 * time.Second
)

type Empty = grpcjson.Empty

// GRPCServer exposes the host API on a TCP address.
type GRPCServer struct {
	address string
	api     hostin.API
	logger  hclog.Logger
}

func NewGRPCServer(address string, api hostin.API, logger hclog.Logger) *GRPCServer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCServer{address: address, api: api, logger: logger}
}

func (s *GRPCServer) Name() string {
	return "grpc"
}

func (s *GRPCServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen host api: %w", err)
	}
	server := grpc.NewServer()
	Register(server, s.api)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stopServer(server)
		case <-stop:
		}
	}()
	defer close(stop)

	s.logger.Info("host api serving", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// stopServer drains unary calls but cuts open event streams after a grace
// period, since those only end when the client leaves.
func stopServer(server *grpc.Server) {
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(gracePeriod):
		server.Stop()
	}
}

// Register installs the host service on server.
func Register(server grpc.ServiceRegistrar, api hostin.API) {
	h := handler{api: api}
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: hostin.ServiceName,
		HandlerType: (*hostin.API)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetRecordings", Handler: grpcjson.Unary(hostin.MethodGetRecordings, h.getRecordings)},
			{MethodName: "DeleteRecording", Handler: grpcjson.Unary(hostin.MethodDeleteRecording, h.deleteRecording)},
			{MethodName: "ToggleAutoRecord", Handler: grpcjson.Unary(hostin.MethodToggleAutoRecord, h.toggleAutoRecord)},
			{MethodName: "IsAutoRecordEnabled", Handler: grpcjson.Unary(hostin.MethodIsAutoRecordEnabled, h.isAutoRecordEnabled)},
			{MethodName: "GetRecordingPath", Handler: grpcjson.Unary(hostin.MethodGetRecordingPath, h.getRecordingPath)},
			{MethodName: "IsRecording", Handler: grpcjson.Unary(hostin.MethodIsRecording, h.isRecording)},
			{MethodName: "GetCurrentAudioSource", Handler: grpcjson.Unary(hostin.MethodGetCurrentAudioSource, h.getCurrentAudioSource)},
		},
		Streams: []grpc.StreamDesc{
			{StreamName: "Events", Handler: h.events, ServerStreams: true},
		},
		Metadata: "callrec/host/v1",
	}, api)
}

type handler struct {
	api hostin.API
}

func (h handler) getRecordings(ctx context.Context, _ *Empty) (any, error) {
	items, err := h.api.GetRecordings(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.RecordingList{Recordings: items}, nil
}

func (h handler) deleteRecording(ctx context.Context, in *dto.DeleteRequest) (any, error) {
	deleted, err := h.api.DeleteRecording(ctx, in.FilePath)
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.BoolValue{Value: deleted}, nil
}

func (h handler) toggleAutoRecord(ctx context.Context, in *dto.ToggleRequest) (any, error) {
	enabled, err := h.api.ToggleAutoRecord(ctx, in.Enabled)
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.BoolValue{Value: enabled}, nil
}

func (h handler) isAutoRecordEnabled(ctx context.Context, _ *Empty) (any, error) {
	enabled, err := h.api.IsAutoRecordEnabled(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.BoolValue{Value: enabled}, nil
}

func (h handler) getRecordingPath(ctx context.Context, _ *Empty) (any, error) {
	path, err := h.api.GetRecordingPath(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.StringValue{Value: path}, nil
}

func (h handler) isRecording(ctx context.Context, _ *Empty) (any, error) {
	recording, err := h.api.IsRecording(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.BoolValue{Value: recording}, nil
}

func (h handler) getCurrentAudioSource(ctx context.Context, _ *Empty) (any, error) {
	source, err := h.api.GetCurrentAudioSource(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.StringValue{Value: source}, nil
}

func (h handler) events(_ any, stream grpc.ServerStream) error {
	if err := stream.RecvMsg(&Empty{}); err != nil {
		return err
	}
	ctx := stream.Context()
	events, cancel := h.api.Events(ctx)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(&event); err != nil {
				return err
			}
		}
	}
}

// toStatus maps domain errors onto gRPC codes. The message keeps the wire
// code as its prefix for clients that only see the text.
func toStatus(err error) error {
	if errors.Is(err, apperrors.ErrInvalidInput) {
		return status.Errorf(codes.InvalidArgument, "%s: %v", CodeInvalidArg, err)
	}
	return status.Errorf(codes.Internal, "%s: %v", CodeException, err)
}
