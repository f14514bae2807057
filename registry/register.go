// Package registry 定义注册中心客户端的能力集合与通用模型。
//
// 各实现（consul/etcd/kubernetes/redis）只负责与注册中心通信，
// 缓存、变更检测与重试策略由上层组件负责。
package registry

import "context"

// Registry 注册中心客户端。
//
// 所有方法都是同步调用：调用方等待完成或失败，超时由 ctx 控制。
type Registry interface {
	// Register 注册服务，安装且仅安装一种健康检查。
	Register(ctx context.Context, reg *Registration) error
	// Deregister 注销服务。
	Deregister(ctx context.Context, name string) error
	// Heartbeat 对 checkId 发送一次 TTL pass。
	Heartbeat(ctx context.Context, checkId string) error
	// Resolve 返回健康状态为 passing 且携带全部标签的实例。
	Resolve(ctx context.Context, name, tags string) ([]ServiceInstance, error)
	// GetValue 读取 key，不存在时 ok 为 false。
	GetValue(ctx context.Context, key string) (value string, ok bool, err error)
	// PutValue 写入 key。
	PutValue(ctx context.Context, key, value string) error
}
