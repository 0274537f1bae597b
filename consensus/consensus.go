// Package consensus 提供多模型并行查询编排器。
//
// 它把一条逻辑查询同时分发给多个相互独立的计算模型，对每个模型施加
// 资源隔离与超时约束，用熔断器跟踪模型可靠性，并返回一组统一的
// 逐模型结果（成功/超时/失败），供下游共识聚合层合并成最终答案。
// 聚合算法本身不在本包范围内。
//
// 基本使用：
//
//	mgr, err := consensus.NewManager(consensus.DefaultConfig(),
//	    consensus.WithLogger(logger),
//	    consensus.WithMeter(meter),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	responses := mgr.ExecuteParallel(ctx, "optimize this sql query", nil, 0)
//	for _, r := range responses {
//	    fmt.Println(r.ModelID, r.Status, r.Confidence)
//	}
//
// 熔断器：
//
// 每个模型独立维护失败计数。连续 Error 达到阈值后模型被移出候选池，
// 冷却窗口过后第一次准入检查将计数清零并放行。成功（含超时，超时
// 证明模型可达）使计数递减而非清零，故障模型需要逐步恢复信誉。
package consensus

import (
	"context"
	"time"
)

// Manager 编排器核心接口
type Manager interface {
	// Register 注册一个新模型：经工厂构造实现、接上执行器、熔断计数清零
	Register(cfg ModelConfig) error

	// ExecuteParallel 把查询并行分发给所有候选模型（启用且未熔断）
	//
	// 返回的切片按候选选取顺序排列，包含每个被尝试模型的结果；
	// 被熔断跳过的模型没有对应条目。没有任何候选时返回空切片，不报错。
	// timeout <= 0 时每个模型使用各自配置的默认超时。
	ExecuteParallel(ctx context.Context, query string, qc *QueryContext, timeout time.Duration) []ModelResponse

	// IsCircuitOpen 判断指定模型的熔断器是否处于打开状态
	//
	// 冷却窗口已过时，本次检查会把失败计数清零并返回 false（重新准入）。
	IsCircuitOpen(modelID string) bool

	// HealthCheckAll 对所有已注册模型执行健康检查，异常一律记为 false
	HealthCheckAll(ctx context.Context) map[string]bool

	// ModelInfo 返回所有已注册模型的只读快照
	ModelInfo() map[string]ModelInfo
}

// ModelInfo 模型的只读描述信息
type ModelInfo struct {
	Type       string        `json:"type"`
	Weight     float64       `json:"weight"`
	Timeout    time.Duration `json:"timeout"`
	Enabled    bool          `json:"enabled"`
	MaxRetries int           `json:"max_retries"`
}

// NewManager 创建编排器实例
//
// cfg 不能为 nil；未设置的字段取默认值（熔断阈值 5、冷却 60s），
// cfg.Models 中的模型在构造时完成注册。
// 编排器实例由调用方持有，互相独立，没有任何包级全局状态。
func NewManager(cfg *Config, opts ...Option) (Manager, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return newManager(cfg, opts...)
}
