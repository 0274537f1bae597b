package consensus

import (
	"strings"
	"time"
)

// ModelStatus 单个模型执行的状态
type ModelStatus string

const (
	// StatusSuccess 执行成功，Content 和 Confidence 有效
	StatusSuccess ModelStatus = "success"
	// StatusTimeout 执行超时
	StatusTimeout ModelStatus = "timeout"
	// StatusError 执行失败
	StatusError ModelStatus = "error"
	// StatusDisabled 模型被配置禁用，未实际执行
	StatusDisabled ModelStatus = "disabled"
)

// ModelResponse 单个模型一次执行的统一结果记录
//
// 所有执行路径（成功、超时、失败、禁用）都产生一条良构的 ModelResponse，
// 通过下面的命名构造函数创建，执行层不向调用方抛出异常。
// ExecutionTime 在任何状态下都有效。
type ModelResponse struct {
	ModelID       string        `json:"model_id"`
	Status        ModelStatus   `json:"status"`
	Content       string        `json:"content"`
	Confidence    float64       `json:"confidence"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	Timestamp     time.Time     `json:"timestamp"`
}

// SuccessResponse 创建执行成功的结果
func SuccessResponse(modelID, content string, confidence float64, executionTime time.Duration) ModelResponse {
	return ModelResponse{
		ModelID:       modelID,
		Status:        StatusSuccess,
		Content:       content,
		Confidence:    confidence,
		ExecutionTime: executionTime,
		Timestamp:     time.Now(),
	}
}

// ErrorResponse 创建执行失败的结果
func ErrorResponse(modelID, errorMessage string, executionTime time.Duration) ModelResponse {
	return ModelResponse{
		ModelID:       modelID,
		Status:        StatusError,
		ErrorMessage:  errorMessage,
		ExecutionTime: executionTime,
		Timestamp:     time.Now(),
	}
}

// TimeoutResponse 创建执行超时的结果
func TimeoutResponse(modelID string, executionTime time.Duration) ModelResponse {
	return ModelResponse{
		ModelID:       modelID,
		Status:        StatusTimeout,
		ErrorMessage:  "model execution timed out",
		ExecutionTime: executionTime,
		Timestamp:     time.Now(),
	}
}

// DisabledResponse 创建模型被禁用的结果，ExecutionTime 恒为 0
func DisabledResponse(modelID, reason string) ModelResponse {
	return ModelResponse{
		ModelID:      modelID,
		Status:       StatusDisabled,
		ErrorMessage: reason,
		Timestamp:    time.Now(),
	}
}

// IsValid 判断该结果是否可参与后续共识聚合
func (r ModelResponse) IsValid() bool {
	return r.Status == StatusSuccess && strings.TrimSpace(r.Content) != ""
}

// QueryContext 调用方附带的查询上下文
//
// 对编排器完全不透明，原样传递给每个模型，可以为 nil。
type QueryContext struct {
	QueryType string         `json:"query_type,omitempty"`
	Priority  int            `json:"priority,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
