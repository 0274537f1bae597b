package consensus

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// mock 模型参数默认值
const (
	defaultMockConfidence = 0.8
	defaultMockDelay      = 100 * time.Millisecond
)

// mockModel 确定性的测试模型
//
// 按配置的延迟模拟推理耗时，根据 response_pattern 和查询关键词
// 返回固定模板的回答。只为在没有真实模型的情况下验证编排器而存在。
type mockModel struct {
	id             string
	pattern        string
	baseConfidence float64
	delay          time.Duration
}

// newMockModel 从模型配置构造 mock 模型
func newMockModel(cfg ModelConfig) *mockModel {
	m := &mockModel{
		id:             cfg.ID,
		pattern:        "default",
		baseConfidence: defaultMockConfidence,
		delay:          defaultMockDelay,
	}

	if v, ok := cfg.Params["response_pattern"].(string); ok && v != "" {
		m.pattern = v
	}
	if v, ok := paramFloat(cfg.Params["base_confidence"]); ok {
		m.baseConfidence = v
	}
	if v, ok := paramDuration(cfg.Params["response_delay"]); ok {
		m.delay = v
	}
	return m
}

// GenerateResponse 延迟后按模式和关键词返回模板回答
func (m *mockModel) GenerateResponse(ctx context.Context, query string, qc *QueryContext) (string, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	queryLower := strings.ToLower(query)

	switch m.pattern {
	case "analytical":
		switch {
		case strings.Contains(queryLower, "sql"), strings.Contains(queryLower, "database"):
			return fmt.Sprintf("Based on analytical assessment: %s. I recommend using proper indexing and query optimization techniques.", query), nil
		case strings.Contains(queryLower, "data"):
			return fmt.Sprintf("From an analytical perspective: %s. Consider data validation and statistical significance.", query), nil
		default:
			return fmt.Sprintf("Analytical response to: %s. This requires systematic evaluation of the available information.", query), nil
		}

	case "creative":
		switch {
		case strings.Contains(queryLower, "sql"), strings.Contains(queryLower, "database"):
			return fmt.Sprintf("Creative approach to: %s. Consider using innovative query patterns and modern database features.", query), nil
		case strings.Contains(queryLower, "data"):
			return fmt.Sprintf("Creative insight on: %s. Explore unconventional data visualization and analysis methods.", query), nil
		default:
			return fmt.Sprintf("Creative perspective on: %s. Think outside the box and consider alternative approaches.", query), nil
		}

	case "conservative":
		switch {
		case strings.Contains(queryLower, "sql"), strings.Contains(queryLower, "database"):
			return fmt.Sprintf("Conservative recommendation for: %s. Stick to well-tested SQL patterns and established best practices.", query), nil
		case strings.Contains(queryLower, "data"):
			return fmt.Sprintf("Conservative analysis of: %s. Use proven statistical methods and validated data sources.", query), nil
		default:
			return fmt.Sprintf("Conservative response to: %s. Follow established procedures and industry standards.", query), nil
		}

	default:
		return fmt.Sprintf("Standard response to: %s. This is a general-purpose answer from %s.", query, m.id), nil
	}
}

// Confidence 基于回答长度和查询复杂度的置信度估算
//
// 从配置的基础置信度出发：短回答降权、长回答升权、长查询降权，
// 加上小幅随机抖动模拟真实模型的波动，最终收敛到 [0,1]。
func (m *mockModel) Confidence(ctx context.Context, query, response string) (float64, error) {
	confidence := m.baseConfidence

	if len(response) < 50 {
		confidence *= 0.8
	} else if len(response) > 200 {
		confidence *= 1.1
	}

	if len(strings.Fields(query)) > 10 {
		confidence *= 0.9
	}

	confidence += (rand.Float64() - 0.5) * 0.2

	return clamp01(confidence), nil
}

// HealthCheck 使用默认探针
func (m *mockModel) HealthCheck(ctx context.Context) bool {
	return ProbeHealth(ctx, m)
}

// clamp01 将值收敛到 [0,1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// paramFloat 从开放参数中解析浮点值
func paramFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// paramDuration 从开放参数中解析时长
//
// 支持 Duration、"100ms" 这样的字符串，以及以秒为单位的数值。
func paramDuration(v any) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case float64:
		return time.Duration(d * float64(time.Second)), true
	case int:
		return time.Duration(d) * time.Second, true
	default:
		return 0, false
	}
}
