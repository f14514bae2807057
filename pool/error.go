package pool

import "errors"

var (
	// ErrPoolBusy 等待连接池锁超时
	ErrPoolBusy = errors.New("连接池繁忙")
	// ErrPoolExhausted 活跃客户端已达上限且等待归还超时
	ErrPoolExhausted = errors.New("连接池已耗尽")
	// ErrClientUnavailable 所有 host 都无法建立可用连接
	ErrClientUnavailable = errors.New("无可用客户端")
	// ErrNoHosts 连接池没有 host
	ErrNoHosts = errors.New("pool has no hosts")
	// ErrPoolClosed 连接池已关闭
	ErrPoolClosed = errors.New("pool is closed")
)
