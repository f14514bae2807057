// Package gm 池化 gRPC 客户端使用的拦截器。
package gm

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/fireflycore/go-discover/constant"
)

// NewInjectAuth 将连接池配置的认证信息注入出站 metadata，并在缺失时补充 trace_id。
// 调用方已设置的 authorization 不会被覆盖。
func NewInjectAuth(auth string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(injectContext(ctx, auth), method, req, reply, cc, opts...)
	}
}

func injectContext(ctx context.Context, auth string) context.Context {
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		md = metadata.MD{}
	} else {
		// 复制一份，避免修改调用方持有的 metadata
		md = md.Copy()
	}

	if auth != "" && len(md.Get(constant.Authorization)) == 0 {
		md.Set(constant.Authorization, auth)
	}
	if len(md.Get(constant.TraceId)) == 0 {
		md.Set(constant.TraceId, uuid.NewString())
	}
	return metadata.NewOutgoingContext(ctx, md)
}
