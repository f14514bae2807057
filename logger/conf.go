// Package logger 构造组件使用的 zap.Logger：控制台输出与远端回调输出。
package logger

import "io"

// Conf 是 logger 的配置项
// - Console：是否启用控制台输出
// - Remote：是否启用远端输出（需要同时提供 handle 才会生效）
// - Level：最低日志等级，默认 info
// - QueueSize：大于 0 时远端输出经 AsyncLogger 异步写入
type Conf struct {
	Console   bool   `json:"console" yaml:"console"`
	Remote    bool   `json:"remote" yaml:"remote"`
	Level     string `json:"level" yaml:"level"`
	QueueSize int    `json:"queue_size" yaml:"queue_size"`

	handle  func(b []byte)
	console io.Writer
}

// WithHandle 设置远端输出回调
func (c *Conf) WithHandle(handle func(b []byte)) {
	c.handle = handle
}

// WithConsoleWriter 替换控制台输出目标，默认 stdout
func (c *Conf) WithConsoleWriter(w io.Writer) {
	c.console = w
}
