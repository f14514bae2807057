package logger

// Record 远端输出的日志结构。
//
// service、pool、key 字段会从 zap 字段中提升到顶层，便于按服务或配置项检索。
type Record struct {
	Path    string `json:"path"`
	Level   uint32 `json:"level"`
	Content string `json:"content"`

	Service string `json:"service,omitempty"`
	Pool    string `json:"pool,omitempty"`
	Key     string `json:"key,omitempty"`
	TraceId string `json:"trace_id,omitempty"`
}
