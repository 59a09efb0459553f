package out

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"callrec/internal/modules/monitor/dto"
	monitorout "callrec/internal/modules/monitor/port/out"
	apperrors "callrec/internal/platform/errors"
)

const signalMethod = "Monitor.Signal"

type JSONRPCForwarder struct {
	socketPath string
}

func NewJSONRPCForwarder(socketPath string) monitorout.SignalForwarder {
	return &JSONRPCForwarder{socketPath: socketPath}
}

func (f *JSONRPCForwarder) Signal(ctx context.Context, input dto.SignalInput) (dto.SignalOutput, error) {
	client, err := dialClient(ctx, f.socketPath)
	if err != nil {
		return dto.SignalOutput{}, fmt.Errorf("%w: %v", apperrors.ErrDaemonNotRunning, err)
	}
	defer client.Close()
	resp := dto.SignalOutput{}
	if err := client.Call(signalMethod, input, &resp); err != nil {
		return dto.SignalOutput{}, err
	}
	return resp, nil
}

func dialClient(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}
