package rpc

import (
	"context"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	"callrec/internal/platform/grpcjson"
)

const (
	PluginMapKey   = "capture"
	serviceName    = "callrec.capture.v1.CapturePlugin"
	methodMetadata = "/" + serviceName + "/GetMetadata"
	methodPrepare  = "/" + serviceName + "/Prepare"
	methodStart    = "/" + serviceName + "/Start"
	methodStop     = "/" + serviceName + "/Stop"
	methodRelease  = "/" + serviceName + "/Release"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CALLREC_CAPTURE_PLUGIN",
	MagicCookieValue: "callrec",
}

type Empty = grpcjson.Empty

type Metadata struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Sources []string `json:"sources"`
}

type PrepareRequest struct {
	Source     string `json:"source"`
	OutputPath string `json:"output_path"`
	Container  string `json:"container"`
	Codec      string `json:"codec"`
	BitRate    int32  `json:"bit_rate"`
	SampleRate int32  `json:"sample_rate"`
}

// CaptureServer is implemented by plugin binaries. One plugin process serves
// exactly one capture.
type CaptureServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Prepare(ctx context.Context, in *PrepareRequest) (*Empty, error)
	Start(ctx context.Context, in *Empty) (*Empty, error)
	Stop(ctx context.Context, in *Empty) (*Empty, error)
	Release(ctx context.Context, in *Empty) (*Empty, error)
}

type CaptureClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Prepare(ctx context.Context, in *PrepareRequest) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Release(ctx context.Context) error
}

type captureClient struct {
	conn grpc.ClientConnInterface
}

func NewCaptureClient(conn grpc.ClientConnInterface) CaptureClient {
	return &captureClient{conn: conn}
}

func (c *captureClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodMetadata, &Empty{}, out, grpcjson.CallOption()); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *captureClient) Prepare(ctx context.Context, in *PrepareRequest) error {
	return c.conn.Invoke(ctx, methodPrepare, in, &Empty{}, grpcjson.CallOption())
}

func (c *captureClient) Start(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodStart, &Empty{}, &Empty{}, grpcjson.CallOption())
}

func (c *captureClient) Stop(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodStop, &Empty{}, &Empty{}, grpcjson.CallOption())
}

func (c *captureClient) Release(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodRelease, &Empty{}, &Empty{}, grpcjson.CallOption())
}

func RegisterCaptureServer(server grpc.ServiceRegistrar, impl CaptureServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*CaptureServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetMetadata", Handler: grpcjson.Unary(methodMetadata, func(ctx context.Context, in *Empty) (any, error) { return impl.GetMetadata(ctx, in) })},
			{MethodName: "Prepare", Handler: grpcjson.Unary(methodPrepare, func(ctx context.Context, in *PrepareRequest) (any, error) { return impl.Prepare(ctx, in) })},
			{MethodName: "Start", Handler: grpcjson.Unary(methodStart, func(ctx context.Context, in *Empty) (any, error) { return impl.Start(ctx, in) })},
			{MethodName: "Stop", Handler: grpcjson.Unary(methodStop, func(ctx context.Context, in *Empty) (any, error) { return impl.Stop(ctx, in) })},
			{MethodName: "Release", Handler: grpcjson.Unary(methodRelease, func(ctx context.Context, in *Empty) (any, error) { return impl.Release(ctx, in) })},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "callrec/capture/v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl CaptureServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterCaptureServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewCaptureClient(conn), nil
}

func PluginMap(impl CaptureServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
