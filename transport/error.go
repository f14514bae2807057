package transport

import "errors"

var (
	// ErrProtocolUnknown 不支持的协议
	ErrProtocolUnknown = errors.New("unknown protocol")
	// ErrStubMismatch 客户端的调用面与 stub 构造函数的参数类型不匹配
	ErrStubMismatch = errors.New("stub type mismatch")
	// ErrClientClosed 客户端未打开
	ErrClientClosed = errors.New("client is not open")
)
