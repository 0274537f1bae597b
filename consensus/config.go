package consensus

import (
	"time"

	"github.com/shabarish009/symbiont/xerrors"
)

const (
	// DefaultBreakerThreshold 熔断阈值默认值（连续失败次数）
	DefaultBreakerThreshold = 5

	// DefaultBreakerCooldown 熔断冷却窗口默认值
	DefaultBreakerCooldown = 60 * time.Second

	// DefaultModelTimeout 模型执行超时默认值
	DefaultModelTimeout = 30 * time.Second

	// DefaultMaxRetries 失败重试次数默认值
	DefaultMaxRetries = 2

	// DefaultCacheTTL 结果缓存默认过期时间
	DefaultCacheTTL = time.Hour
)

// ModelConfig 单个模型的不可变配置
type ModelConfig struct {
	// ID 模型唯一标识
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Type 模型类型判别符，由工厂解析为具体实现（目前支持 "mock"）
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// Weight 下游共识聚合时的相对权重，取值 [0,10]，编排器内部不使用
	Weight float64 `json:"weight" yaml:"weight" mapstructure:"weight"`

	// Timeout 默认执行截止时长，ExecuteParallel 未显式给定超时时生效
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries Error 结果的额外重试次数（超时与禁用不重试）
	MaxRetries int `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`

	// Disabled 为 true 时模型不参与调度，零值即启用
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`

	// Params 类型相关的开放参数
	// mock 类型使用 response_pattern、base_confidence、response_delay
	Params map[string]any `json:"params" yaml:"params" mapstructure:"params"`
}

// setDefaults 填充未设置的字段（内部使用）
func (m *ModelConfig) setDefaults() {
	if m.Weight == 0 {
		m.Weight = 1.0
	}
	if m.Timeout == 0 {
		m.Timeout = DefaultModelTimeout
	}
}

// validate 校验模型配置（内部使用）
func (m *ModelConfig) validate() error {
	if m.ID == "" {
		return xerrors.Wrap(ErrInvalidModelConfig, "model id is empty")
	}
	if m.Type == "" {
		return xerrors.Wrapf(ErrInvalidModelConfig, "model %s has empty type", m.ID)
	}
	if m.Weight < 0 || m.Weight > 10 {
		return xerrors.Wrapf(ErrInvalidModelConfig, "model %s weight must be in [0,10], got %v", m.ID, m.Weight)
	}
	if m.Timeout <= 0 {
		return xerrors.Wrapf(ErrInvalidModelConfig, "model %s timeout must be positive, got %v", m.ID, m.Timeout)
	}
	if m.MaxRetries < 0 {
		return xerrors.Wrapf(ErrInvalidModelConfig, "model %s maxRetries must be non-negative, got %d", m.ID, m.MaxRetries)
	}
	return nil
}

// Config 编排器配置
type Config struct {
	// BreakerThreshold 连续失败多少次后熔断打开（默认 5）
	BreakerThreshold int `json:"breakerThreshold" yaml:"breakerThreshold" mapstructure:"breakerThreshold"`

	// BreakerCooldown 熔断打开后多久允许重新准入（默认 60s）
	BreakerCooldown time.Duration `json:"breakerCooldown" yaml:"breakerCooldown" mapstructure:"breakerCooldown"`

	// EnableCaching 是否缓存整组执行结果
	EnableCaching bool `json:"enableCaching" yaml:"enableCaching" mapstructure:"enableCaching"`

	// CacheTTL 结果缓存过期时间（默认 1h）
	CacheTTL time.Duration `json:"cacheTTL" yaml:"cacheTTL" mapstructure:"cacheTTL"`

	// Models 启动时注册的模型列表，为空时使用默认 mock 三元组
	Models []ModelConfig `json:"models" yaml:"models" mapstructure:"models"`
}

// DefaultConfig 返回带默认 mock 三元组的配置，用于本地验证与测试
func DefaultConfig() *Config {
	return &Config{
		BreakerThreshold: DefaultBreakerThreshold,
		BreakerCooldown:  DefaultBreakerCooldown,
		Models:           DefaultModels(),
	}
}

// DefaultModels 返回默认的 mock 模型三元组
func DefaultModels() []ModelConfig {
	return []ModelConfig{
		{
			ID:         "mock-analytical",
			Type:       ModelTypeMock,
			Weight:     1.0,
			MaxRetries: DefaultMaxRetries,
			Params:     map[string]any{"response_pattern": "analytical"},
		},
		{
			ID:         "mock-creative",
			Type:       ModelTypeMock,
			Weight:     1.0,
			MaxRetries: DefaultMaxRetries,
			Params:     map[string]any{"response_pattern": "creative"},
		},
		{
			ID:         "mock-conservative",
			Type:       ModelTypeMock,
			Weight:     0.8,
			MaxRetries: DefaultMaxRetries,
			Params:     map[string]any{"response_pattern": "conservative"},
		},
	}
}

// setDefaults 填充未设置的字段（内部使用）
func (c *Config) setDefaults() {
	if c.BreakerThreshold == 0 {
		c.BreakerThreshold = DefaultBreakerThreshold
	}
	if c.BreakerCooldown == 0 {
		c.BreakerCooldown = DefaultBreakerCooldown
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if len(c.Models) == 0 {
		c.Models = DefaultModels()
	}
	for i := range c.Models {
		c.Models[i].setDefaults()
	}
}

// validate 校验整体配置（内部使用）
func (c *Config) validate() error {
	if c.BreakerThreshold < 1 {
		return xerrors.Wrapf(ErrInvalidModelConfig, "breakerThreshold must be at least 1, got %d", c.BreakerThreshold)
	}
	if c.BreakerCooldown <= 0 {
		return xerrors.Wrapf(ErrInvalidModelConfig, "breakerCooldown must be positive, got %v", c.BreakerCooldown)
	}

	seen := make(map[string]struct{}, len(c.Models))
	for i := range c.Models {
		if err := c.Models[i].validate(); err != nil {
			return err
		}
		if _, ok := seen[c.Models[i].ID]; ok {
			return xerrors.Wrapf(ErrDuplicateModel, "%s", c.Models[i].ID)
		}
		seen[c.Models[i].ID] = struct{}{}
	}
	return nil
}
