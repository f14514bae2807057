// Package conf 服务注册、依赖服务与注册中心的静态配置。
package conf

import (
	"time"

	"github.com/fireflycore/go-discover/constant"
	"github.com/fireflycore/go-discover/logger"
)

// 注册中心类型
const (
	KindConsul     = "consul"
	KindEtcd       = "etcd"
	KindKubernetes = "kubernetes"
	KindRedis      = "redis"
)

// Conf 进程级配置。
type Conf struct {
	Service  ServiceConf   `json:"service" yaml:"service"`
	Registry RegistryConf  `json:"registry" yaml:"registry"`
	Logger   logger.Conf   `json:"logger" yaml:"logger"`
	Services []ServiceDeps `json:"services" yaml:"services"`
	Keys     []KeyDefault  `json:"keys" yaml:"keys"`
}

// ServiceConf 本服务的注册信息。
type ServiceConf struct {
	Name    string `json:"name" yaml:"name"`
	Tags    string `json:"tags" yaml:"tags"`
	Address string `json:"address" yaml:"address"`
	Port    int    `json:"port" yaml:"port"`

	// HttpCheck/TcpCheck 被动健康检查，二者都为空时使用 TTL 心跳
	HttpCheck string `json:"http_check" yaml:"http_check"`
	TcpCheck  string `json:"tcp_check" yaml:"tcp_check"`

	// 心跳间隔（秒）
	HeartBreak int `json:"heart_break" yaml:"heart_break"`
	// 全量同步间隔（秒）
	Refresh int `json:"refresh" yaml:"refresh"`
	// 注册最大重试次数
	MaxRetry int `json:"max_retry" yaml:"max_retry"`
	// 单次注册中心调用超时（秒）
	RequestTimeout int `json:"request_timeout" yaml:"request_timeout"`
	// 缓存未命中时直连注册中心的限速（次/秒）
	FallbackQPS float64 `json:"fallback_qps" yaml:"fallback_qps"`
}

// ServiceDeps 依赖服务及其默认标签过滤。
type ServiceDeps struct {
	Name string `json:"name" yaml:"name"`
	Tags string `json:"tags" yaml:"tags"`
}

// KeyDefault 需要关注的配置项，Value 为 nil 表示没有默认值。
type KeyDefault struct {
	Name  string  `json:"name" yaml:"name"`
	Value *string `json:"value" yaml:"value"`
}

// RegistryConf 注册中心连接配置，按 Kind 使用对应字段。
type RegistryConf struct {
	Kind string `json:"kind" yaml:"kind"`

	// consul / redis
	Address string `json:"address" yaml:"address"`
	Token   string `json:"token" yaml:"token"`
	// consul datacenter
	Datacenter string `json:"datacenter" yaml:"datacenter"`

	// etcd
	Endpoints []string `json:"endpoints" yaml:"endpoints"`
	Username  string   `json:"username" yaml:"username"`
	Password  string   `json:"password" yaml:"password"`

	// redis
	DB int `json:"db" yaml:"db"`

	// kubernetes，为空时使用 in-cluster 配置
	Kubeconfig string `json:"kubeconfig" yaml:"kubeconfig"`

	// etcd/redis key 前缀，kubernetes 命名空间
	Namespace string `json:"namespace" yaml:"namespace"`
}

// Bootstrap 填充默认值。
func (c *Conf) Bootstrap() {
	c.Service.Bootstrap()

	if c.Registry.Kind == "" {
		c.Registry.Kind = KindConsul
	}
	if c.Registry.Namespace == "" {
		c.Registry.Namespace = constant.DefaultNamespace
	}
}

// Bootstrap 填充默认值，负数与 0 同样视为未配置。
func (c *ServiceConf) Bootstrap() {
	if c.Port <= 0 {
		c.Port = constant.DefaultServicePort
	}
	if c.HeartBreak <= 0 {
		c.HeartBreak = constant.DefaultHeartbeat
	}
	if c.Refresh <= 0 {
		c.Refresh = constant.DefaultRefresh
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = constant.DefaultMaxRetry
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = constant.DefaultRequestTimeout
	}
	if c.FallbackQPS <= 0 {
		c.FallbackQPS = constant.DefaultFallbackQPS
	}
}

// HeartbeatInterval 心跳间隔
func (c *ServiceConf) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartBreak) * time.Second
}

// RefreshInterval 全量同步间隔
func (c *ServiceConf) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh) * time.Second
}

// Timeout 单次注册中心调用超时
func (c *ServiceConf) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
