package constant

const (
	// DefaultNamespace 默认命名空间
	DefaultNamespace = "firefly"
	// DefaultMaxRetry 默认重试次数
	DefaultMaxRetry = 3
	// DefaultHeartbeat 默认心跳间隔（秒）
	DefaultHeartbeat = 15
	// DefaultRefresh 默认全量同步间隔（秒）
	DefaultRefresh = 60
	// DefaultServicePort 默认服务端口
	DefaultServicePort = 80
	// DefaultRequestTimeout 默认注册中心请求超时（秒）
	DefaultRequestTimeout = 10
	// DefaultFallbackQPS 缓存未命中时直连注册中心的限速
	DefaultFallbackQPS = 20
	// DefaultHookQueueSize 钩子分发队列长度
	DefaultHookQueueSize = 256
	// DefaultVersion 默认版本号
	DefaultVersion = "v0.0.1"
)
