// Package grpcjson lets hand-written gRPC services exchange plain Go structs
// encoded as JSON, so no protoc step is needed.
package grpcjson

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const Name = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (codec) Name() string {
	return Name
}

func init() {
	encoding.RegisterCodec(codec{})
}

// CallOption selects the JSON codec on a client call.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(Name)
}

// Empty is the message for calls without arguments or results.
type Empty struct{}

// Unary adapts a typed handler to a grpc.MethodDesc handler.
func Unary[Req any](fullMethod string, call func(context.Context, *Req) (any, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*Req)
			if !ok {
				return nil, fmt.Errorf("invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, in, info, handler)
	}
}
