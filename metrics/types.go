// Package metrics 为 symbiont 提供统一的指标收集能力。
// 基于 OpenTelemetry 标准构建，提供简洁的 Counter、Gauge、Histogram 指标接口，
// 并内置 Prometheus HTTP 暴露端点。
//
// 快速开始：
//
//	meter, err := metrics.New(&metrics.Config{
//	    Enabled:     true,
//	    ServiceName: "symbiont",
//	    Version:     "v0.1.0",
//	    Port:        9090,
//	    Path:        "/metrics",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer meter.Shutdown(ctx)
//
//	counter, _ := meter.Counter("model_requests_total", "模型请求总数")
//	counter.Inc(ctx, metrics.L("model_id", "mock-1"))
package metrics

import "context"

// Counter 计数器接口
// 用于记录只增不减的累计值，例如模型请求数、失败次数。
type Counter interface {
	// Inc 将计数器加 1
	Inc(ctx context.Context, labels ...Label)

	// Add 将计数器增加给定的值，负数会被监控系统忽略或报错
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 仪表盘接口
// 用于记录可增可减的瞬时值，例如当前熔断的模型数量、在途请求数。
type Gauge interface {
	Set(ctx context.Context, val float64, labels ...Label)
	Inc(ctx context.Context, labels ...Label)
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 直方图接口
// 用于记录数值分布，例如模型执行耗时。
type Histogram interface {
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标工厂接口
type Meter interface {
	Counter(name string, desc string, opts ...MetricOption) (Counter, error)
	Gauge(name string, desc string, opts ...MetricOption) (Gauge, error)
	Histogram(name string, desc string, opts ...MetricOption) (Histogram, error)

	// Shutdown 关闭 Meter 并刷新未导出的指标
	Shutdown(ctx context.Context) error
}

// MetricOptions 单个指标的可选配置
type MetricOptions struct {
	Unit string
}

// MetricOption 指标选项函数
type MetricOption func(*MetricOptions)

// WithUnit 设置指标单位（例如 "seconds"、"bytes"）
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}

// Config Meter 配置
type Config struct {
	// Enabled 为 false 时 New 返回 noop 实现
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ServiceName 服务名，写入 OTel resource
	ServiceName string `json:"serviceName" yaml:"serviceName"`

	// Version 服务版本
	Version string `json:"version" yaml:"version"`

	// Port Prometheus HTTP 端口，0 表示不启动暴露服务
	Port int `json:"port" yaml:"port"`

	// Path 指标暴露路径，例如 "/metrics"
	Path string `json:"path" yaml:"path"`
}
