package xlog

import "io"

// Option 组件初始化选项函数
type Option func(*options)

// options 组件初始化选项（内部使用）
type options struct {
	namespaceParts []string
	writer         io.Writer
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithNamespace 设置初始命名空间
//
// 多段命名空间以 "." 连接，例如 WithNamespace("symbiont", "consensus")
// 输出 namespace="symbiont.consensus"。
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespaceParts = append(o.namespaceParts, parts...)
	}
}

// WithWriter 直接指定输出 Writer，覆盖 Config.Output
//
// 主要用于测试中捕获日志输出。
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}
