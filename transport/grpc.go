package transport

import (
	"context"
	"fmt"

	"github.com/fireflycore/go-discover/constant"
	gm "github.com/fireflycore/go-discover/middleware/grpc"
	"github.com/fireflycore/go-discover/pool"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCDialer 每个客户端持有一个独立的 *grpc.ClientConn。
type GRPCDialer struct {
	log *zap.Logger
}

func NewGRPCDialer(log *zap.Logger) *GRPCDialer {
	if log == nil {
		log = zap.NewNop()
	}
	return &GRPCDialer{log: log}
}

// Dial 不建立连接，Open 时才连接。配置项 Auth 会注入到每次调用的 metadata。
func (d *GRPCDialer) Dial(host string, stamp pool.Stamp) (pool.Client, error) {
	base := pool.NewBase(stamp)
	auth := base.Config().String(constant.PoolAuth, "")

	conn, err := grpc.NewClient(host,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			gm.NewInjectAuth(auth),
			gm.NewClientAccessLogger(d.log),
		),
	)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{Base: base, host: host, conn: conn}, nil
}

// Reset 无共享对象。
func (d *GRPCDialer) Reset() {}

// GRPCClient 池化的 gRPC 客户端。
type GRPCClient struct {
	pool.Base

	host string
	conn *grpc.ClientConn
}

// Open 在 ClientTimeout/2 内等待连接进入 READY。
func (c *GRPCClient) Open() error {
	state := c.conn.GetState()
	switch state {
	case connectivity.Ready:
		return nil
	case connectivity.Shutdown:
		return ErrClientClosed
	}

	c.conn.Connect()

	ctx, cancel := context.WithTimeout(context.Background(), halfTimeout(c.Timeout()))
	defer cancel()

	for {
		state = c.conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if state == connectivity.Idle {
			c.conn.Connect()
		}
		if !c.conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("grpc %s not ready: %s", c.host, state)
		}
	}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Reset 单次调用状态都在 context 中，无需清理。
func (c *GRPCClient) Reset() {}

func (c *GRPCClient) IsOpen() bool {
	return c.conn.GetState() == connectivity.Ready
}

// Raw 返回 *grpc.ClientConn，可直接用于生成代码的 NewXxxClient。
func (c *GRPCClient) Raw() any { return c.conn }

// Conn 底层连接
func (c *GRPCClient) Conn() *grpc.ClientConn { return c.conn }
