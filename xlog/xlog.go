// Package xlog 为 symbiont 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不向调用方暴露底层实现（slog）
//   - 支持层级命名空间，便于区分编排器内部各组件的日志来源
//   - 仅依赖 Go 标准库
//   - 采用函数式选项 + Config 的组合方式初始化
//
// 基本使用：
//
//	logger, _ := xlog.New(&xlog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("query dispatched", xlog.String("model_id", "mock-1"))
//
// 创建子 Logger：
//
//	executorLogger := logger.WithNamespace("consensus", "executor")
//	modelLogger := logger.With(xlog.String("model_id", "mock-1"))
package xlog

import "fmt"

// Logger 日志接口，提供结构化日志记录能力
//
// 支持 Debug、Info、Warn、Error 四个级别。
// With 和 WithNamespace 返回带有附加上下文的子 Logger，原 Logger 不受影响。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger，预设字段出现在其所有日志中
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger
	//
	// 命名空间以 "." 连接并追加到现有命名空间之后，
	// 最终以 namespace 字段输出，例如 "consensus.executor"。
	WithNamespace(parts ...string) Logger
}

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用默认配置（info 级别，console 格式，stdout 输出）。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("xlog: invalid config: %w", err)
	}

	o := applyOptions(opts...)
	return newLogger(config, o)
}
