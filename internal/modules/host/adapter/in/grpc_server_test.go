package in_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	hostadapter "callrec/internal/modules/host/adapter/in"
	hostclient "callrec/internal/modules/host/adapter/out"
	"callrec/internal/modules/host/dto"
	apperrors "callrec/internal/platform/errors"
	"callrec/internal/platform/grpcjson"
)

type fakeAPI struct {
	autoRecord bool
	toggled    []*bool
	events     chan dto.Event
	released   chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{autoRecord: true, events: make(chan dto.Event, 4), released: make(chan struct{})}
}

func (a *fakeAPI) GetRecordings(context.Context) ([]dto.Recording, error) {
	return []dto.Recording{{FilePath: "/rec/call_+1_20260314_090000.m4a", FileName: "call_+1_20260314_090000.m4a", FileSize: 42, LastModified: 1773478800000}}, nil
}

func (a *fakeAPI) DeleteRecording(_ context.Context, filePath string) (bool, error) {
	switch filePath {
	case "":
		return false, fmt.Errorf("%w: file_path is required", apperrors.ErrInvalidInput)
	case "/boom":
		return false, errors.New("disk on fire")
	case "/missing.m4a":
		return false, nil
	}
	return true, nil
}

func (a *fakeAPI) ToggleAutoRecord(_ context.Context, enabled *bool) (bool, error) {
	a.toggled = append(a.toggled, enabled)
	a.autoRecord = enabled == nil || *enabled
	return a.autoRecord, nil
}

func (a *fakeAPI) IsAutoRecordEnabled(context.Context) (bool, error) { return a.autoRecord, nil }

func (a *fakeAPI) GetRecordingPath(context.Context) (string, error) { return "/rec", nil }

func (a *fakeAPI) IsRecording(context.Context) (bool, error) { return true, nil }

func (a *fakeAPI) GetCurrentAudioSource(context.Context) (string, error) { return "MIC", nil }

func (a *fakeAPI) Events(context.Context) (<-chan dto.Event, func()) {
	return a.events, func() { close(a.released) }
}

func dialBufconn(t *testing.T, api *fakeAPI) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	hostadapter.Register(srv, api)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHostAPIRoundTrip(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	client := hostclient.NewGRPCHostClientConn(dialBufconn(t, api))
	ctx := context.Background()

	items, err := client.GetRecordings(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(42), items[0].FileSize)

	recording, err := client.IsRecording(ctx)
	require.NoError(t, err)
	require.True(t, recording)

	source, err := client.GetCurrentAudioSource(ctx)
	require.NoError(t, err)
	require.Equal(t, "MIC", source)

	path, err := client.GetRecordingPath(ctx)
	require.NoError(t, err)
	require.Equal(t, "/rec", path)

	deleted, err := client.DeleteRecording(ctx, "/missing.m4a")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestToggleWithoutValueEnables(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.autoRecord = false
	client := hostclient.NewGRPCHostClientConn(dialBufconn(t, api))

	enabled, err := client.ToggleAutoRecord(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, enabled)
	require.Len(t, api.toggled, 1)
	require.Nil(t, api.toggled[0], "absent field must reach the API as nil")

	off := false
	enabled, err = client.ToggleAutoRecord(context.Background(), &off)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestErrorCodeMapping(t *testing.T) {
	t.Parallel()
	conn := dialBufconn(t, newFakeAPI())
	ctx := context.Background()

	err := conn.Invoke(ctx, "/callrec.host.v1.CallRecorderHost/DeleteRecording", &dto.DeleteRequest{}, &dto.BoolValue{}, grpcjson.CallOption())
	st, _ := status.FromError(err)
	require.Equal(t, codes.InvalidArgument, st.Code())
	require.Contains(t, st.Message(), "INVALID_ARG")

	err = conn.Invoke(ctx, "/callrec.host.v1.CallRecorderHost/DeleteRecording", &dto.DeleteRequest{FilePath: "/boom"}, &dto.BoolValue{}, grpcjson.CallOption())
	st, _ = status.FromError(err)
	require.Equal(t, codes.Internal, st.Code())
	require.Contains(t, st.Message(), "EXCEPTION")

	err = conn.Invoke(ctx, "/callrec.host.v1.CallRecorderHost/StartRecording", &grpcjson.Empty{}, &grpcjson.Empty{}, grpcjson.CallOption())
	st, _ = status.FromError(err)
	require.Equal(t, codes.Unimplemented, st.Code())

	client := hostclient.NewGRPCHostClientConn(conn)
	_, err = client.DeleteRecording(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestEventsStream(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	client := hostclient.NewGRPCHostClientConn(dialBufconn(t, api))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan dto.Event, 1)
	done := make(chan error, 1)
	go func() {
		done <- client.Events(ctx, func(e dto.Event) { got <- e })
	}()

	api.events <- dto.Event{FilePath: "/rec/a.m4a", PhoneNumber: "+1", CallType: "incoming", Duration: 12, FileSize: 99, AudioSource: "PREFERRED", Timestamp: 1773478800000}
	select {
	case e := <-got:
		require.Equal(t, "/rec/a.m4a", e.FilePath)
		require.Equal(t, 12, e.Duration)
		require.Equal(t, int64(1773478800000), e.Timestamp)
	case <-time.After(3 * time.Second):
		t.Fatalf("event not received")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatalf("events did not return after cancel")
	}
	select {
	case <-api.released:
	case <-time.After(3 * time.Second):
		t.Fatalf("server subscription not released")
	}
}

func TestClientReportsDaemonNotRunning(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client := hostclient.NewGRPCHostClient(addr)
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = client.IsRecording(ctx)
	require.ErrorIs(t, err, apperrors.ErrDaemonNotRunning)
}

func TestGRPCServerRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	server := hostadapter.NewGRPCServer(addr, newFakeAPI(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	client := hostclient.NewGRPCHostClient(addr)
	defer client.Close()
	require.Eventually(t, func() bool {
		callCtx, callCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer callCancel()
		source, err := client.GetCurrentAudioSource(callCtx)
		return err == nil && source == "MIC"
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
