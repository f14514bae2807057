package transport

import (
	"fmt"

	"github.com/fireflycore/go-discover/pool"
)

// GetStub 用客户端的调用面构造协议相关的 stub。
//
// R 为调用面类型：http 为 *HTTPClient，grpc 为 grpc.ClientConnInterface，tcp 为 net.Conn。
// 例如 gRPC 生成代码：transport.GetStub(client, pb.NewGreeterClient)。
func GetStub[R, T any](client pool.Client, newStub func(R) T) (T, error) {
	var zero T
	if client == nil {
		return zero, ErrClientClosed
	}
	raw, ok := client.Raw().(R)
	if !ok {
		return zero, fmt.Errorf("%w: got %T", ErrStubMismatch, client.Raw())
	}
	return newStub(raw), nil
}
