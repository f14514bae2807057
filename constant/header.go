// Package constant 定义通用常量：默认值、key 格式、header/metadata key。
package constant

const (
	Authorization = "authorization"
	UserAgent     = "user-agent"

	TraceId = "ff-trace-id"

	// DefaultUserAgent 池化 HTTP 客户端的默认 UA
	DefaultUserAgent = "firefly-go-discover/" + DefaultVersion
)
