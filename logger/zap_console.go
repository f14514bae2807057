package logger

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConsoleCore 构造面向人读的 console core，w 为 nil 时写 stdout。
//
// 时间、等级、caller 均以中括号包裹；service/pool/key 等字段照常跟在 message 后面。
func NewConsoleCore(level zapcore.LevelEnabler, w io.Writer) zapcore.Core {
	if w == nil {
		w = os.Stdout
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.ConsoleSeparator = " "
	cfg.MessageKey = "message"
	cfg.CallerKey = "path"
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + t.Format(time.DateTime) + "]")
	}
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + l.CapitalString() + "]")
	}
	cfg.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + caller.TrimmedPath() + "]")
	}

	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
}
