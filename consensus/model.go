package consensus

import (
	"context"
	"strings"

	"github.com/shabarish009/symbiont/xerrors"
)

// 模型类型判别符
const (
	// ModelTypeMock 确定性的测试模型
	ModelTypeMock = "mock"
)

// Model 所有计算模型必须满足的契约
//
// GenerateResponse 可能耗时任意长，截止时间由调用方通过 ctx 强制，
// 实现应当尊重 ctx 取消但不负责自己设置超时。
type Model interface {
	// GenerateResponse 为给定查询生成原始回答
	GenerateResponse(ctx context.Context, query string, qc *QueryContext) (string, error)

	// Confidence 为一条回答打分，返回值必须落在 [0,1]
	// 纯计算函数，不应发起 I/O
	Confidence(ctx context.Context, query, response string) (float64, error)

	// HealthCheck 探测模型是否就绪
	// 实现可以使用 ProbeHealth 作为默认探针，也可以用更廉价的方式
	HealthCheck(ctx context.Context) bool
}

// ProbeHealth 默认健康探针
//
// 用 "test" 查询调用一次 GenerateResponse，结果去空白后非空即视为健康。
// 任何错误或 panic 都被吞掉并返回 false。
func ProbeHealth(ctx context.Context, m Model) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			healthy = false
		}
	}()

	response, err := m.GenerateResponse(ctx, "test", nil)
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) != ""
}

// newModel 按类型判别符构造具体模型（内部工厂）
//
// 新增模型类型只需要在这里添加一个分支和一个 Model 实现。
func newModel(cfg ModelConfig) (Model, error) {
	switch cfg.Type {
	case ModelTypeMock:
		return newMockModel(cfg), nil
	default:
		return nil, xerrors.Wrapf(ErrUnknownModelType, "model %s has type %q", cfg.ID, cfg.Type)
	}
}
