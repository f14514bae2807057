package constant

// 分布式 key 命名，格式固定，其他语言实现的进程依赖同样的 key。
const (
	// ServiceTagsKeyFormat 依赖服务的标签过滤 key：F:ServcieTags:{本服务}:{依赖服务}:{主机名}
	ServiceTagsKeyFormat = "F:ServcieTags:%s:%s:%s"
	// RegisterTagKeyFormat 本服务注册标签覆盖 key：F:RegisterTag:{本服务}:{主机名}
	RegisterTagKeyFormat = "F:RegisterTag:%s:%s"
	// ConfigKeyFormat 本服务作用域的配置 key：F:Config:{本服务}:{配置名}
	ConfigKeyFormat = "F:Config:%s:%s"

	// CheckIdPrefix 服务级 check 的前缀，checkId = "service:" + name
	CheckIdPrefix = "service:"
)
