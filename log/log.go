package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(plugin zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) zapcore.Core {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

func NewStdoutPlugin(enabler zapcore.LevelEnabler) zapcore.Core {
	return NewPlugin(zapcore.Lock(os.Stdout), enabler)
}

// NewFilePlugin writes rotated log files. The returned Closer flushes the
// underlying lumberjack writer and must be closed on shutdown.
func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (zapcore.Core, io.Closer) {
	writer := DefaultLumberjackLogger()
	writer.Filename = filePath
	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}
