package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger 构造一个 zap.Logger
//
// - Console=true 时输出到 stdout（面向人读）
// - Remote=true 且提供 handle 时输出 JSON 到 handle（面向机器解析）
// - 两者都未启用时返回 Nop logger，避免 nil 引用
func NewZapLogger(conf *Conf, handle func(b []byte)) *zap.Logger {
	if conf == nil {
		return zap.NewNop()
	}

	// 入参优先，其次使用 conf.handle
	effectiveHandle := handle
	if effectiveHandle == nil {
		effectiveHandle = conf.handle
	}
	conf.handle = effectiveHandle

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if conf.Level != "" {
		if l, err := zapcore.ParseLevel(conf.Level); err == nil {
			level.SetLevel(l)
		}
	}

	cores := make([]zapcore.Core, 0, 2)
	if conf.Console {
		cores = append(cores, NewConsoleCore(level, conf.console))
	}
	if conf.Remote && effectiveHandle != nil {
		if conf.QueueSize > 0 {
			async := NewAsyncLogger(conf.QueueSize, effectiveHandle)
			cores = append(cores, newRemoteCore(level, async.Logger, async.Sync))
		} else {
			cores = append(cores, NewRemoteCore(level, effectiveHandle))
		}
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// OrNop nil 时返回 Nop logger。
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
