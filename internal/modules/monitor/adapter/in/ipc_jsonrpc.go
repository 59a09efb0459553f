package in

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"

	"callrec/internal/modules/monitor/dto"
	monitorin "callrec/internal/modules/monitor/port/in"
)

// RPCServiceName is the net/rpc receiver name; clients call "Monitor.Signal".
const RPCServiceName = "Monitor"

// JSONRPCSignalServer accepts raw call states on a unix socket so modem
// scripts, telephony hooks and the CLI can push signals to the daemon.
type JSONRPCSignalServer struct {
	socketPath string
}

func NewJSONRPCSignalServer(socketPath string) *JSONRPCSignalServer {
	return &JSONRPCSignalServer{socketPath: socketPath}
}

var _ monitorin.SignalSource = (*JSONRPCSignalServer)(nil)

func (s *JSONRPCSignalServer) Name() string {
	return "ipc"
}

type rpcHandler struct {
	sink monitorin.Usecase
}

func (h *rpcHandler) Signal(req dto.SignalInput, resp *dto.SignalOutput) error {
	*resp = h.sink.OnStateChange(context.Background(), req)
	return nil
}

func (s *JSONRPCSignalServer) Run(ctx context.Context, sink monitorin.Usecase) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer os.Remove(s.socketPath)
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(RPCServiceName, &rpcHandler{sink: sink}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}
