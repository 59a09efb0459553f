package out

import (
	"context"
	"fmt"
	"os/exec"
	"slices"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	capturerpc "callrec/internal/modules/recording/adapter/out/rpc"
	"callrec/internal/modules/recording/domain"
	recordingout "callrec/internal/modules/recording/port/out"
)

const (
	defaultPluginStartTimeout = 3 * time.Second
	defaultPluginCallTimeout  = 5 * time.Second
)

// PluginCaptureFactory launches one capture plugin process per session.
type PluginCaptureFactory struct {
	binary string
	logger hclog.Logger
}

func NewPluginCaptureFactory(binary string, logger hclog.Logger) *PluginCaptureFactory {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PluginCaptureFactory{binary: binary, logger: logger}
}

func (f *PluginCaptureFactory) Open(ctx context.Context, source domain.AudioSource) (recordingout.Capture, error) {
	client, kill, err := f.connect()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := callContext(ctx, defaultPluginCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		kill()
		return nil, fmt.Errorf("get plugin metadata: %w", err)
	}
	if !slices.Contains(meta.Sources, string(source)) {
		kill()
		return nil, fmt.Errorf("plugin %s does not support %s", meta.Name, source)
	}
	return &pluginCapture{client: client, kill: kill}, nil
}

func (f *PluginCaptureFactory) connect() (capturerpc.CaptureClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  capturerpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          capturerpc.PluginMap(nil),
		Cmd:              exec.Command(f.binary),
		Managed:          true,
		StartTimeout:     defaultPluginStartTimeout,
		Logger:           f.logger.Named("plugin"),
	})
	kill := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		kill()
		return nil, nil, fmt.Errorf("start capture plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(capturerpc.PluginMapKey)
	if err != nil {
		kill()
		return nil, nil, fmt.Errorf("dispense capture plugin: %w", err)
	}
	typed, ok := raw.(capturerpc.CaptureClient)
	if !ok {
		kill()
		return nil, nil, fmt.Errorf("capture plugin client type mismatch")
	}
	return typed, kill, nil
}

type pluginCapture struct {
	client capturerpc.CaptureClient
	once   sync.Once
	kill   func()
}

func (c *pluginCapture) Prepare(ctx context.Context, spec recordingout.CaptureSpec) error {
	callCtx, cancel := callContext(ctx, defaultPluginCallTimeout)
	defer cancel()
	return c.client.Prepare(callCtx, &capturerpc.PrepareRequest{
		Source:     string(spec.Source),
		OutputPath: spec.OutputPath,
		Container:  spec.Encoder.Container,
		Codec:      spec.Encoder.Codec,
		BitRate:    int32(spec.Encoder.BitRate),
		SampleRate: int32(spec.Encoder.SampleRate),
	})
}

func (c *pluginCapture) Start(ctx context.Context) error {
	callCtx, cancel := callContext(ctx, defaultPluginCallTimeout)
	defer cancel()
	return c.client.Start(callCtx)
}

func (c *pluginCapture) Stop(ctx context.Context) error {
	callCtx, cancel := callContext(ctx, defaultPluginCallTimeout)
	defer cancel()
	return c.client.Stop(callCtx)
}

// Release asks the plugin to free the device, then kills the process.
func (c *pluginCapture) Release() error {
	var err error
	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultPluginCallTimeout)
		defer cancel()
		err = c.client.Release(ctx)
		c.kill()
	})
	return err
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
