package consensus

import (
	"testing"
	"time"
)

// TestModelConfigSetDefaults 测试模型配置默认值填充
func TestModelConfigSetDefaults(t *testing.T) {
	cfg := ModelConfig{ID: "m1", Type: ModelTypeMock}
	cfg.setDefaults()

	if cfg.Weight != 1.0 {
		t.Errorf("Weight = %v, want 1.0", cfg.Weight)
	}
	if cfg.Timeout != DefaultModelTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultModelTimeout)
	}
	if cfg.Disabled {
		t.Error("zero value config should be enabled")
	}
}

// TestModelConfigSetDefaultsKeepsExplicit 测试显式值不被默认值覆盖
func TestModelConfigSetDefaultsKeepsExplicit(t *testing.T) {
	cfg := ModelConfig{ID: "m1", Type: ModelTypeMock, Weight: 0.3, Timeout: 5 * time.Second, MaxRetries: 1}
	cfg.setDefaults()

	if cfg.Weight != 0.3 {
		t.Errorf("Weight = %v, want 0.3", cfg.Weight)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", cfg.MaxRetries)
	}
}

// TestModelConfigValidate 测试模型配置校验
func TestModelConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ModelConfig
		wantErr bool
	}{
		{"valid", ModelConfig{ID: "m1", Type: ModelTypeMock, Weight: 1, Timeout: time.Second}, false},
		{"missing id", ModelConfig{Type: ModelTypeMock, Weight: 1, Timeout: time.Second}, true},
		{"missing type", ModelConfig{ID: "m1", Weight: 1, Timeout: time.Second}, true},
		{"negative weight", ModelConfig{ID: "m1", Type: ModelTypeMock, Weight: -1, Timeout: time.Second}, true},
		{"weight too large", ModelConfig{ID: "m1", Type: ModelTypeMock, Weight: 10.5, Timeout: time.Second}, true},
		{"zero timeout", ModelConfig{ID: "m1", Type: ModelTypeMock, Weight: 1}, true},
		{"negative retries", ModelConfig{ID: "m1", Type: ModelTypeMock, Weight: 1, Timeout: time.Second, MaxRetries: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfigSetDefaults 测试空配置落到完整默认值
func TestConfigSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	if cfg.BreakerThreshold != DefaultBreakerThreshold {
		t.Errorf("BreakerThreshold = %d, want %d", cfg.BreakerThreshold, DefaultBreakerThreshold)
	}
	if cfg.BreakerCooldown != DefaultBreakerCooldown {
		t.Errorf("BreakerCooldown = %v, want %v", cfg.BreakerCooldown, DefaultBreakerCooldown)
	}
	if cfg.CacheTTL != DefaultCacheTTL {
		t.Errorf("CacheTTL = %v, want %v", cfg.CacheTTL, DefaultCacheTTL)
	}
	if len(cfg.Models) != 3 {
		t.Fatalf("Models len = %d, want 3", len(cfg.Models))
	}
	for _, mc := range cfg.Models {
		if mc.Timeout != DefaultModelTimeout {
			t.Errorf("model %s timeout = %v, want %v", mc.ID, mc.Timeout, DefaultModelTimeout)
		}
	}
}

// TestConfigValidateDuplicateID 测试重复模型 ID 被拒绝
func TestConfigValidateDuplicateID(t *testing.T) {
	cfg := &Config{
		Models: []ModelConfig{
			{ID: "m1", Type: ModelTypeMock},
			{ID: "m1", Type: ModelTypeMock},
		},
	}
	cfg.setDefaults()

	err := cfg.validate()
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

// TestConfigValidateBreaker 测试熔断参数校验
func TestConfigValidateBreaker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.setDefaults()
	cfg.BreakerThreshold = 0
	if err := cfg.validate(); err == nil {
		t.Error("expected error for zero threshold")
	}

	cfg = DefaultConfig()
	cfg.setDefaults()
	cfg.BreakerCooldown = -time.Second
	if err := cfg.validate(); err == nil {
		t.Error("expected error for negative cooldown")
	}
}
