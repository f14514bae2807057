package constant

// 连接池配置项名称。
const (
	PoolMaxActive     = "MaxActive"
	PoolMinIdle       = "MinIdle"
	PoolMaxIdle       = "MaxIdle"
	PoolClientTimeout = "ClientTimeout"
	PoolServiceName   = "ServiceName"

	// HTTP 客户端使用
	PoolProtocol  = "Protocol"
	PoolAuth      = "Auth"
	PoolCheckPath = "CheckPath"
)

// 连接池配置默认值。
const (
	DefaultMaxActive     = 100
	DefaultMinIdle       = 2
	DefaultMaxIdle       = 10
	DefaultClientTimeout = 5000 // 毫秒
	DefaultHttpScheme    = "http://"
	DefaultCheckPath     = "/"
)
