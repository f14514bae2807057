package processor

import (
	"fmt"

	"github.com/fireflycore/go-discover/constant"
)

// ServiceTagsKey 依赖服务标签过滤 key。
func ServiceTagsKey(service, dependency, hostname string) string {
	return fmt.Sprintf(constant.ServiceTagsKeyFormat, service, dependency, hostname)
}

// RegisterTagKey 本服务注册标签覆盖 key。
func RegisterTagKey(service, hostname string) string {
	return fmt.Sprintf(constant.RegisterTagKeyFormat, service, hostname)
}

// ServiceConfigKey 本服务作用域的配置 key。
func ServiceConfigKey(service, name string) string {
	return fmt.Sprintf(constant.ConfigKeyFormat, service, name)
}
