package transport

import (
	"net"
	"time"

	"github.com/fireflycore/go-discover/pool"
)

// TCPDialer 二进制 RPC 使用的原始 TCP 连接。
type TCPDialer struct{}

func NewTCPDialer() *TCPDialer { return &TCPDialer{} }

func (d *TCPDialer) Dial(host string, stamp pool.Stamp) (pool.Client, error) {
	return &TCPClient{Base: pool.NewBase(stamp), host: host}, nil
}

func (d *TCPDialer) Reset() {}

// TCPClient 池化的 TCP 客户端。
type TCPClient struct {
	pool.Base

	host string
	conn net.Conn
}

// Open 未连接时在 ClientTimeout/2 内建立连接。
func (c *TCPClient) Open() error {
	if c.conn != nil {
		return nil
	}
	dialer := net.Dialer{Timeout: halfTimeout(c.Timeout()), KeepAlive: 30 * time.Second}
	conn, err := dialer.Dial("tcp", c.host)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *TCPClient) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Reset 清除调用方设置的读写超时。
func (c *TCPClient) Reset() {
	if c.conn != nil {
		_ = c.conn.SetDeadline(time.Time{})
	}
}

func (c *TCPClient) IsOpen() bool { return c.conn != nil }

// Raw 返回 net.Conn。
func (c *TCPClient) Raw() any { return c.conn }
