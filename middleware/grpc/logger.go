package gm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fireflycore/go-discover/constant"
)

// NewClientAccessLogger 客户端访问日志中间件，一般放在 NewInjectAuth 之后，以便记录 trace_id。
// 成功调用记为 Debug，失败调用记为 Warn。
func NewClientAccessLogger(log *zap.Logger) grpc.UnaryClientInterceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()

		err := invoker(ctx, method, req, reply, cc, opts...)

		elapsed := time.Since(start)
		md, _ := metadata.FromOutgoingContext(ctx)

		fields := []zap.Field{
			zap.String("path", method),
			zap.String("target", cc.Target()),
			zap.Int64("duration", elapsed.Microseconds()),
			zap.String("status", status.Code(err).String()),
			zap.String("trace_id", parseMetaKey(md, constant.TraceId)),
		}
		if err != nil {
			log.Warn("grpc invoke failed", append(fields, zap.Error(err))...)
			return err
		}
		log.Debug("grpc invoke", fields...)
		return nil
	}
}

func parseMetaKey(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) != 0 {
		return values[0]
	}
	return ""
}
