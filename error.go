package discover

import (
	"errors"

	"github.com/fireflycore/go-discover/transport"
)

var (
	// ErrProtocolUnknown 服务标签中没有可识别的协议
	ErrProtocolUnknown = transport.ErrProtocolUnknown
	// ErrRegistryKindUnknown 不支持的注册中心类型
	ErrRegistryKindUnknown = errors.New("unknown registry kind")
	// ErrFallbackThrottled 直连注册中心被限速
	ErrFallbackThrottled = errors.New("registry fallback throttled")
	// ErrHelperClosed Helper 已关闭
	ErrHelperClosed = errors.New("discover helper is closed")
)
