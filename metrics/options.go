package metrics

import promclient "github.com/prometheus/client_golang/prometheus"

// Option 组件初始化选项函数
type Option func(*options)

// options 组件初始化选项（内部使用）
type options struct {
	registerer promclient.Registerer
}

// WithRegisterer 指定 Prometheus Registerer
//
// 默认使用全局 Registerer。测试中可注入独立的 Registry，
// 避免多个 Meter 实例注册冲突。
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}
