package registry

import "errors"

var (
	// ErrClientIsNil 表示客户端为空
	ErrClientIsNil = "%s client is nil"

	// ErrRegistryUnavailable 注册中心调用失败
	ErrRegistryUnavailable = errors.New("注册中心不可用")
	// ErrRegistrationIsNil 注册参数为空
	ErrRegistrationIsNil = errors.New("registration is nil")
	// ErrServiceNameIsEmpty 服务名为空
	ErrServiceNameIsEmpty = errors.New("service name is empty")
	// ErrPassiveCheckUnsupported 该注册中心不支持 http/tcp 被动检查
	ErrPassiveCheckUnsupported = errors.New("passive health check is not supported by this registry")
	// ErrCheckNotRegistered 心跳的 checkId 未在本进程注册
	ErrCheckNotRegistered = errors.New("check is not registered")

	// ErrKubernetesConfig 获取 k8s 配置失败
	ErrKubernetesConfig = errors.New("获取 k8s 配置失败")
	// ErrKubernetesClient 创建 k8s 客户端失败
	ErrKubernetesClient = errors.New("创建 k8s 客户端失败")
)
