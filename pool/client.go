package pool

import (
	"time"

	"github.com/google/uuid"
)

// Client 池化的传输客户端，持有一条到某个 host 的连接。
//
// 客户端在创建时被打上连接池的版本号，版本与连接池当前版本不一致即为过期客户端，
// 归还时直接销毁。
type Client interface {
	// ID 客户端唯一标识
	ID() string
	// Open 建立或校验连接
	Open() error
	// Close 关闭连接
	Close() error
	// Reset 归还前清理单次调用状态（header、认证等）
	Reset()
	// IsOpen 连接是否可用
	IsOpen() bool
	// Version 创建时的连接池版本
	Version() uint64
	// Owner 所属连接池
	Owner() *Pool
	// Raw 协议相关的调用面，见 transport.GetStub
	Raw() any
}

// Dialer 按协议创建客户端。
type Dialer interface {
	// Dial 为 host 创建一个尚未校验的客户端
	Dial(host string, stamp Stamp) (Client, error)
	// Reset 连接池重置时调用，销毁按 host 缓存的共享通道
	Reset()
}

// Stamp 创建客户端时由连接池提供的上下文。
type Stamp struct {
	Owner   *Pool
	Version uint64
	Timeout time.Duration
	Config  *Config
}

// Base 实现 Client 中与协议无关的部分，供各协议客户端嵌入。
type Base struct {
	id      string
	version uint64
	owner   *Pool
	timeout time.Duration
	config  *Config
}

// NewBase 使用 stamp 初始化。
func NewBase(stamp Stamp) Base {
	return Base{
		id:      uuid.NewString(),
		version: stamp.Version,
		owner:   stamp.Owner,
		timeout: stamp.Timeout,
		config:  stamp.Config,
	}
}

func (b *Base) ID() string { return b.id }

func (b *Base) Version() uint64 { return b.version }

func (b *Base) Owner() *Pool { return b.owner }

// Timeout 单次网络往返超时
func (b *Base) Timeout() time.Duration { return b.timeout }

// Config 连接池配置
func (b *Base) Config() *Config {
	if b.config == nil {
		return NewConfig(nil)
	}
	return b.config
}

// Release 将客户端归还给所属连接池。
func Release(c Client) {
	if c == nil {
		return
	}
	if owner := c.Owner(); owner != nil {
		owner.Return(c)
		return
	}
	_ = c.Close()
}
