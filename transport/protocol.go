// Package transport 提供各协议的池化客户端：http、grpc、tcp。
//
// Protocol 是封闭枚举，NewDialer 按枚举分派，不做运行时类型探测。
package transport

import (
	"strings"

	"github.com/fireflycore/go-discover/pool"
	"github.com/fireflycore/go-discover/registry"
	"go.uber.org/zap"
)

// Protocol 支持的协议。
type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	ProtocolHTTP
	ProtocolGRPC
	ProtocolTCP
)

var protocolNames = map[Protocol]string{
	ProtocolHTTP: "http",
	ProtocolGRPC: "grpc",
	ProtocolTCP:  "tcp",
}

func (p Protocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParseProtocol 大小写不敏感。
func ParseProtocol(tag string) (Protocol, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for p, name := range protocolNames {
		if name == tag {
			return p, true
		}
	}
	return ProtocolUnknown, false
}

// FirstProtocol 返回逗号分隔标签中第一个可识别的协议，无法识别的标签跳过。
func FirstProtocol(tags string) (Protocol, bool) {
	for _, tag := range registry.SplitTags(tags) {
		if p, ok := ParseProtocol(tag); ok {
			return p, true
		}
	}
	return ProtocolUnknown, false
}

// NewDialer 创建协议对应的 Dialer。
func NewDialer(p Protocol, log *zap.Logger) (pool.Dialer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch p {
	case ProtocolHTTP:
		return NewHTTPDialer(), nil
	case ProtocolGRPC:
		return NewGRPCDialer(log), nil
	case ProtocolTCP:
		return NewTCPDialer(), nil
	default:
		return nil, ErrProtocolUnknown
	}
}
