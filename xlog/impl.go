package xlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// loggerImpl 是 Logger 接口的具体实现
type loggerImpl struct {
	handler        slog.Handler
	namespaceParts []string
	baseAttrs      []slog.Attr
}

// newLogger 创建 Logger 实例（内部使用）
func newLogger(config *Config, o *options) (Logger, error) {
	writer := o.writer
	if writer == nil {
		w, err := openOutput(config.Output)
		if err != nil {
			return nil, err
		}
		writer = w
	}

	level, _ := parseLevel(config.Level)
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return &loggerImpl{
		handler:        handler,
		namespaceParts: o.namespaceParts,
	}, nil
}

// openOutput 解析输出目标（内部使用）
func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log output %s: %w", output, err)
		}
		return f, nil
	}
}

func (l *loggerImpl) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields...) }
func (l *loggerImpl) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, fields...) }
func (l *loggerImpl) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, fields...) }
func (l *loggerImpl) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields...) }

// With 创建带有预设字段的子 Logger
func (l *loggerImpl) With(fields ...Field) Logger {
	child := &loggerImpl{
		handler:        l.handler,
		namespaceParts: l.namespaceParts,
	}
	child.baseAttrs = append(append([]slog.Attr{}, l.baseAttrs...), fields...)
	return child
}

// WithNamespace 创建扩展命名空间的子 Logger
func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	child := &loggerImpl{
		handler:   l.handler,
		baseAttrs: l.baseAttrs,
	}
	child.namespaceParts = append(append([]string{}, l.namespaceParts...), parts...)
	return child
}

// log 构造日志记录并提交给 handler（内部使用）
func (l *loggerImpl) log(level slog.Level, msg string, fields ...Field) {
	ctx := context.Background()
	if !l.handler.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(l.baseAttrs)+len(fields)+1)
	if len(l.namespaceParts) > 0 {
		attrs = append(attrs, slog.String("namespace", strings.Join(l.namespaceParts, ".")))
	}
	attrs = append(attrs, l.baseAttrs...)
	attrs = append(attrs, fields...)

	// skip: runtime.Callers、log、Debug/Info/Warn/Error
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.AddAttrs(attrs...)
	_ = l.handler.Handle(ctx, record)
}
