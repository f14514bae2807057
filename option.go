package discover

import (
	"go.uber.org/zap"

	"github.com/fireflycore/go-discover/pool"
	"github.com/fireflycore/go-discover/registry"
	"github.com/fireflycore/go-discover/transport"
)

// DialerFactory 按协议创建 Dialer，默认 transport.NewDialer。
type DialerFactory func(p transport.Protocol, log *zap.Logger) (pool.Dialer, error)

// Option 定义 Helper 的可选配置项。
type Option func(*Helper)

// WithRegistry 使用外部构造的注册中心客户端，此时不按 conf.Registry 构造。
func WithRegistry(reg registry.Registry) Option {
	return func(h *Helper) {
		h.registry = reg
	}
}

// WithHostname 覆盖 key 命名使用的主机名。
func WithHostname(hostname string) Option {
	return func(h *Helper) {
		h.hostname = hostname
	}
}

// WithLog 设置日志，未设置时按 conf.Logger 构造。
func WithLog(log *zap.Logger) Option {
	return func(h *Helper) {
		h.log = log
	}
}

// WithDialerFactory 替换协议客户端的创建方式。
func WithDialerFactory(factory DialerFactory) Option {
	return func(h *Helper) {
		if factory != nil {
			h.dialers = factory
		}
	}
}
