package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"callrec/internal/modules/host/dto"
	hostin "callrec/internal/modules/host/port/in"
	hostout "callrec/internal/modules/host/port/out"
	apperrors "callrec/internal/platform/errors"
	"callrec/internal/platform/grpcjson"
)

var eventsStream = &grpc.StreamDesc{StreamName: "Events", ServerStreams: true}

// GRPCHostClient talks to the daemon's host API. The connection is created
// on first use.
type GRPCHostClient struct {
	address string

	mu   sync.Mutex
	conn grpc.ClientConnInterface
	own  *grpc.ClientConn
}

func NewGRPCHostClient(address string) *GRPCHostClient {
	return &GRPCHostClient{address: address}
}

// NewGRPCHostClientConn wraps an existing connection.
func NewGRPCHostClientConn(conn grpc.ClientConnInterface) *GRPCHostClient {
	return &GRPCHostClient{conn: conn}
}

var _ hostout.HostClient = (*GRPCHostClient)(nil)

func (c *GRPCHostClient) connection() (grpc.ClientConnInterface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := grpc.NewClient(c.address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial host api: %w", err)
	}
	c.conn, c.own = conn, conn
	return conn, nil
}

func (c *GRPCHostClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.own == nil {
		return nil
	}
	err := c.own.Close()
	c.conn, c.own = nil, nil
	return err
}

func (c *GRPCHostClient) invoke(ctx context.Context, method string, in, out any) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}
	return fromStatus(conn.Invoke(ctx, method, in, out, grpcjson.CallOption()))
}

func (c *GRPCHostClient) GetRecordings(ctx context.Context) ([]dto.Recording, error) {
	out := &dto.RecordingList{}
	if err := c.invoke(ctx, hostin.MethodGetRecordings, &grpcjson.Empty{}, out); err != nil {
		return nil, err
	}
	return out.Recordings, nil
}

func (c *GRPCHostClient) DeleteRecording(ctx context.Context, filePath string) (bool, error) {
	out := &dto.BoolValue{}
	if err := c.invoke(ctx, hostin.MethodDeleteRecording, &dto.DeleteRequest{FilePath: filePath}, out); err != nil {
		return false, err
	}
	return out.Value, nil
}

func (c *GRPCHostClient) ToggleAutoRecord(ctx context.Context, enabled *bool) (bool, error) {
	out := &dto.BoolValue{}
	if err := c.invoke(ctx, hostin.MethodToggleAutoRecord, &dto.ToggleRequest{Enabled: enabled}, out); err != nil {
		return false, err
	}
	return out.Value, nil
}

func (c *GRPCHostClient) IsAutoRecordEnabled(ctx context.Context) (bool, error) {
	out := &dto.BoolValue{}
	if err := c.invoke(ctx, hostin.MethodIsAutoRecordEnabled, &grpcjson.Empty{}, out); err != nil {
		return false, err
	}
	return out.Value, nil
}

func (c *GRPCHostClient) GetRecordingPath(ctx context.Context) (string, error) {
	out := &dto.StringValue{}
	if err := c.invoke(ctx, hostin.MethodGetRecordingPath, &grpcjson.Empty{}, out); err != nil {
		return "", err
	}
	return out.Value, nil
}

func (c *GRPCHostClient) IsRecording(ctx context.Context) (bool, error) {
	out := &dto.BoolValue{}
	if err := c.invoke(ctx, hostin.MethodIsRecording, &grpcjson.Empty{}, out); err != nil {
		return false, err
	}
	return out.Value, nil
}

func (c *GRPCHostClient) GetCurrentAudioSource(ctx context.Context) (string, error) {
	out := &dto.StringValue{}
	if err := c.invoke(ctx, hostin.MethodGetCurrentAudioSource, &grpcjson.Empty{}, out); err != nil {
		return "", err
	}
	return out.Value, nil
}

// Events calls fn for every completion event until ctx is done or the
// daemon closes the stream.
func (c *GRPCHostClient) Events(ctx context.Context, fn func(dto.Event)) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}
	stream, err := conn.NewStream(ctx, eventsStream, hostin.MethodEvents, grpcjson.CallOption())
	if err != nil {
		return fromStatus(err)
	}
	if err := stream.SendMsg(&grpcjson.Empty{}); err != nil {
		return fromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		return fromStatus(err)
	}
	for {
		var event dto.Event
		if err := stream.RecvMsg(&event); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fromStatus(err)
		}
		fn(event)
	}
}

// fromStatus turns transport and API failures back into sentinel errors.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", apperrors.ErrDaemonNotRunning, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, st.Message())
	default:
		return err
	}
}
