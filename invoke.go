package discover

import (
	"context"

	"github.com/fireflycore/go-discover/pool"
	"github.com/fireflycore/go-discover/transport"
)

// WithServiceInvoke 借出客户端、构造 stub 并执行 call，结束后归还客户端。
// R: 调用面类型，见 transport.GetStub
// S: stub 类型
// 例如：WithServiceInvoke(ctx, h, "user", pb.NewUserClient, func(c pb.UserClient) (*pb.User, error) {...})
func WithServiceInvoke[R, S, T any](ctx context.Context, h *Helper, service string, newStub func(R) S, call func(S) (T, error), protocolTags ...string) (T, error) {
	var zero T

	client, err := h.GetServiceClient(ctx, service, protocolTags...)
	if err != nil {
		return zero, err
	}
	defer pool.Release(client)

	stub, err := transport.GetStub(client, newStub)
	if err != nil {
		return zero, err
	}
	return call(stub)
}
