package consensus

import (
	"github.com/maypok86/otter/v2"

	"github.com/shabarish009/symbiont/metrics"
	"github.com/shabarish009/symbiont/xlog"
)

// Option 组件初始化选项函数
type Option func(*options)

// options 组件初始化选项（内部使用）
type options struct {
	logger  xlog.Logger
	meter   metrics.Meter
	sandbox Sandbox
	cache   *otter.Cache[string, []ModelResponse]
}

// WithLogger 设置 Logger，传入 nil 时使用 xlog.Discard()
// 内部会自动追加 namespace: "consensus"
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = xlog.Discard()
		} else {
			o.logger = logger.WithNamespace("consensus")
		}
	}
}

// WithMeter 设置指标收集器
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithSandbox 替换模型执行的资源隔离策略
//
// 默认使用直通的 NewResourceSandbox。注入真正的配额实施实现时，
// 执行层的调用点保持不变。
func WithSandbox(sandbox Sandbox) Option {
	return func(o *options) {
		o.sandbox = sandbox
	}
}

// WithResponseCache 注入外部构建的结果缓存
//
// 优先于 Config.EnableCaching：注入后编排器直接使用该缓存实例，
// 不再按配置自建。主要用于测试和多编排器共享缓存的场景。
func WithResponseCache(cache *otter.Cache[string, []ModelResponse]) Option {
	return func(o *options) {
		o.cache = cache
	}
}
