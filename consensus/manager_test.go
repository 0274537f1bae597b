package consensus

import (
	"context"
	"testing"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shabarish009/symbiont/xerrors"
	"github.com/shabarish009/symbiont/xlog"
)

// bareManager 构造不经过配置注册流程的空编排器，便于注入 stub 模型
func bareManager(threshold int, cooldown time.Duration) *manager {
	return &manager{
		cfg: &Config{
			BreakerThreshold: threshold,
			BreakerCooldown:  cooldown,
			CacheTTL:         DefaultCacheTTL,
		},
		logger:    xlog.Discard(),
		sandbox:   NewResourceSandbox(0, 0, nil),
		models:    make(map[string]Model),
		executors: make(map[string]*executor),
		breakers:  make(map[string]*breakerState),
		now:       time.Now,
	}
}

// addStub 直接把 stub 模型注入编排器
func addStub(m *manager, cfg ModelConfig, model Model) {
	cfg.setDefaults()
	m.order = append(m.order, cfg.ID)
	m.models[cfg.ID] = model
	m.executors[cfg.ID] = newExecutor(cfg, model, m.sandbox, m.logger, m.meter)
	m.breakers[cfg.ID] = &breakerState{}
}

// failingStub 永远失败的模型
func failingStub() *stubModel {
	return &stubModel{generate: func(ctx context.Context, query string, qc *QueryContext) (string, error) {
		return "", xerrors.New("permanent failure")
	}}
}

// hangingStub 永远拖到超时的模型
func hangingStub() *stubModel {
	return &stubModel{generate: func(ctx context.Context, query string, qc *QueryContext) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
}

// TestNewManagerNilConfig 测试 nil 配置
func TestNewManagerNilConfig(t *testing.T) {
	_, err := NewManager(nil)
	assert.ErrorIs(t, err, ErrConfigNil)
}

// TestNewManagerDefaults 测试空配置落到默认 mock 三元组
func TestNewManagerDefaults(t *testing.T) {
	mgr, err := NewManager(&Config{})
	require.NoError(t, err)

	info := mgr.ModelInfo()
	assert.Len(t, info, 3)
	assert.Contains(t, info, "mock-analytical")
	assert.Contains(t, info, "mock-creative")
	assert.Contains(t, info, "mock-conservative")
	assert.Equal(t, 0.8, info["mock-conservative"].Weight)
	assert.True(t, info["mock-analytical"].Enabled)
}

// TestNewManagerInvalidModel 测试非法模型配置被拒绝
func TestNewManagerInvalidModel(t *testing.T) {
	_, err := NewManager(&Config{
		Models: []ModelConfig{{ID: "bad", Type: ModelTypeMock, Weight: 42}},
	})
	assert.ErrorIs(t, err, ErrInvalidModelConfig)
}

// TestRegisterDuplicate 测试重复注册被拒绝
func TestRegisterDuplicate(t *testing.T) {
	mgr, err := NewManager(DefaultConfig())
	require.NoError(t, err)

	err = mgr.Register(ModelConfig{ID: "mock-analytical", Type: ModelTypeMock})
	assert.ErrorIs(t, err, ErrDuplicateModel)
}

// TestRegisterUnknownType 测试未知模型类型
func TestRegisterUnknownType(t *testing.T) {
	mgr, err := NewManager(DefaultConfig())
	require.NoError(t, err)

	err = mgr.Register(ModelConfig{ID: "future", Type: "quantum"})
	assert.ErrorIs(t, err, ErrUnknownModelType)
}

// TestExecuteParallelPartialFailure 测试部分失败隔离：
// 一个必失败、一个必超时、一个必成功，三条结果各归其位
func TestExecuteParallelPartialFailure(t *testing.T) {
	m := bareManager(5, time.Minute)
	addStub(m, ModelConfig{ID: "broken", Type: ModelTypeMock, MaxRetries: 0}, failingStub())
	addStub(m, ModelConfig{ID: "slow", Type: ModelTypeMock, MaxRetries: 0}, hangingStub())
	addStub(m, ModelConfig{ID: "good", Type: ModelTypeMock}, &stubModel{})

	responses := m.ExecuteParallel(context.Background(), "query", nil, 100*time.Millisecond)

	require.Len(t, responses, 3)
	// 结果按分发顺序排列
	assert.Equal(t, "broken", responses[0].ModelID)
	assert.Equal(t, StatusError, responses[0].Status)
	assert.Equal(t, "slow", responses[1].ModelID)
	assert.Equal(t, StatusTimeout, responses[1].Status)
	assert.Equal(t, "good", responses[2].ModelID)
	assert.Equal(t, StatusSuccess, responses[2].Status)
	assert.Equal(t, "stub response", responses[2].Content)
}

// TestExecuteParallelSkipsDisabled 测试禁用模型不进入候选池
func TestExecuteParallelSkipsDisabled(t *testing.T) {
	m := bareManager(5, time.Minute)
	disabled := &stubModel{}
	addStub(m, ModelConfig{ID: "off", Type: ModelTypeMock, Disabled: true}, disabled)
	addStub(m, ModelConfig{ID: "on", Type: ModelTypeMock}, &stubModel{})

	responses := m.ExecuteParallel(context.Background(), "query", nil, time.Second)

	require.Len(t, responses, 1)
	assert.Equal(t, "on", responses[0].ModelID)
	assert.Equal(t, int32(0), disabled.calls.Load())
}

// TestExecuteParallelEmptyPool 测试候选池为空时返回空切片而不报错
func TestExecuteParallelEmptyPool(t *testing.T) {
	m := bareManager(5, time.Minute)
	addStub(m, ModelConfig{ID: "off", Type: ModelTypeMock, Disabled: true}, &stubModel{})

	responses := m.ExecuteParallel(context.Background(), "query", nil, time.Second)

	assert.NotNil(t, responses)
	assert.Empty(t, responses)
}

// TestCircuitBreakerOpens 测试连续失败达到阈值后模型被移出候选池
func TestCircuitBreakerOpens(t *testing.T) {
	threshold := 3
	m := bareManager(threshold, time.Minute)
	addStub(m, ModelConfig{ID: "broken", Type: ModelTypeMock, MaxRetries: 0}, failingStub())
	addStub(m, ModelConfig{ID: "good", Type: ModelTypeMock}, &stubModel{})

	ctx := context.Background()
	for i := 0; i < threshold; i++ {
		assert.False(t, m.IsCircuitOpen("broken"), "circuit should be closed before threshold")
		responses := m.ExecuteParallel(ctx, "query", nil, time.Second)
		assert.Len(t, responses, 2)
	}

	assert.True(t, m.IsCircuitOpen("broken"))

	// 熔断的模型被静默跳过，没有对应条目
	responses := m.ExecuteParallel(ctx, "query", nil, time.Second)
	require.Len(t, responses, 1)
	assert.Equal(t, "good", responses[0].ModelID)
}

// TestCircuitBreakerRecovers 测试冷却窗口过后准入检查重置计数
func TestCircuitBreakerRecovers(t *testing.T) {
	cooldown := time.Minute
	m := bareManager(2, cooldown)
	addStub(m, ModelConfig{ID: "m1", Type: ModelTypeMock}, &stubModel{})

	ctx := context.Background()
	m.recordFailure(ctx, "m1")
	m.recordFailure(ctx, "m1")
	require.True(t, m.IsCircuitOpen("m1"))

	// 拨快时钟越过冷却窗口
	base := time.Now()
	m.now = func() time.Time { return base.Add(cooldown + time.Second) }

	assert.False(t, m.IsCircuitOpen("m1"), "circuit should admit after cooldown")

	// 计数已清零：一次新失败不足以再次熔断
	m.recordFailure(ctx, "m1")
	assert.False(t, m.IsCircuitOpen("m1"))
}

// TestCircuitBreakerTimeoutCountsAsAlive 测试超时按存活计：不会累积失败
func TestCircuitBreakerTimeoutCountsAsAlive(t *testing.T) {
	m := bareManager(2, time.Minute)
	addStub(m, ModelConfig{ID: "slow", Type: ModelTypeMock, MaxRetries: 0}, hangingStub())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		responses := m.ExecuteParallel(ctx, "query", nil, 30*time.Millisecond)
		require.Len(t, responses, 1)
		require.Equal(t, StatusTimeout, responses[0].Status)
	}

	assert.False(t, m.IsCircuitOpen("slow"), "timeouts must not open the circuit")
}

// TestRecordSuccessGradualRecovery 测试成功递减计数而不是清零
func TestRecordSuccessGradualRecovery(t *testing.T) {
	m := bareManager(5, time.Minute)
	addStub(m, ModelConfig{ID: "m1", Type: ModelTypeMock}, &stubModel{})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		m.recordFailure(ctx, "m1")
	}
	m.recordSuccess("m1")
	m.recordSuccess("m1")

	state := m.breakers["m1"]
	assert.Equal(t, 2, state.failureCount)

	// 递减不会低于 0
	for i := 0; i < 10; i++ {
		m.recordSuccess("m1")
	}
	assert.Equal(t, 0, state.failureCount)
}

// TestIsCircuitOpenUnknownModel 测试未注册模型视为未熔断
func TestIsCircuitOpenUnknownModel(t *testing.T) {
	m := bareManager(5, time.Minute)
	assert.False(t, m.IsCircuitOpen("ghost"))
}

// TestHealthCheckAll 测试健康检查汇总与 panic 兜底
func TestHealthCheckAll(t *testing.T) {
	m := bareManager(5, time.Minute)
	addStub(m, ModelConfig{ID: "healthy", Type: ModelTypeMock}, &stubModel{healthy: true})
	addStub(m, ModelConfig{ID: "unhealthy", Type: ModelTypeMock}, &stubModel{healthy: false})

	addStub(m, ModelConfig{ID: "panicky", Type: ModelTypeMock}, panickingHealthModel{})

	results := m.HealthCheckAll(context.Background())

	require.Len(t, results, 3)
	assert.True(t, results["healthy"])
	assert.False(t, results["unhealthy"])
	assert.False(t, results["panicky"], "panicking health check counts as unhealthy")
}

// panickingHealthModel 健康检查时 panic 的模型
type panickingHealthModel struct{}

func (panickingHealthModel) GenerateResponse(ctx context.Context, query string, qc *QueryContext) (string, error) {
	return "ok", nil
}

func (panickingHealthModel) Confidence(ctx context.Context, query, response string) (float64, error) {
	return 1, nil
}

func (panickingHealthModel) HealthCheck(ctx context.Context) bool {
	panic("health check exploded")
}

// TestModelInfo 测试模型信息快照
func TestModelInfo(t *testing.T) {
	m := bareManager(5, time.Minute)
	addStub(m, ModelConfig{
		ID:         "m1",
		Type:       ModelTypeMock,
		Weight:     0.7,
		Timeout:    10 * time.Second,
		MaxRetries: 1,
		Disabled:   true,
	}, &stubModel{})

	info := m.ModelInfo()
	require.Contains(t, info, "m1")
	assert.Equal(t, ModelTypeMock, info["m1"].Type)
	assert.Equal(t, 0.7, info["m1"].Weight)
	assert.Equal(t, 10*time.Second, info["m1"].Timeout)
	assert.False(t, info["m1"].Enabled)
	assert.Equal(t, 1, info["m1"].MaxRetries)
}

// TestResponseCache 测试结果缓存：第二次调用不再触发模型执行
func TestResponseCache(t *testing.T) {
	m := bareManager(5, time.Minute)
	cache, err := otter.New(&otter.Options[string, []ModelResponse]{
		MaximumSize:      16,
		ExpiryCalculator: otter.ExpiryWriting[string, []ModelResponse](time.Minute),
	})
	require.NoError(t, err)
	m.cache = cache

	model := &stubModel{}
	addStub(m, ModelConfig{ID: "m1", Type: ModelTypeMock}, model)

	ctx := context.Background()
	first := m.ExecuteParallel(ctx, "cached query", nil, time.Second)
	require.Len(t, first, 1)
	require.Equal(t, StatusSuccess, first[0].Status)
	require.Equal(t, int32(1), model.calls.Load())

	second := m.ExecuteParallel(ctx, "cached query", nil, time.Second)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Content, second[0].Content)
	assert.Equal(t, int32(1), model.calls.Load(), "cache hit must not invoke the model")

	// 不同查询不命中缓存
	_ = m.ExecuteParallel(ctx, "another query", nil, time.Second)
	assert.Equal(t, int32(2), model.calls.Load())
}

// TestResponseCacheSkipsFailures 测试全失败的结果组不进缓存
func TestResponseCacheSkipsFailures(t *testing.T) {
	m := bareManager(5, time.Minute)
	cache, err := otter.New(&otter.Options[string, []ModelResponse]{
		MaximumSize:      16,
		ExpiryCalculator: otter.ExpiryWriting[string, []ModelResponse](time.Minute),
	})
	require.NoError(t, err)
	m.cache = cache

	model := failingStub()
	addStub(m, ModelConfig{ID: "broken", Type: ModelTypeMock, MaxRetries: 0}, model)

	ctx := context.Background()
	_ = m.ExecuteParallel(ctx, "query", nil, time.Second)
	_ = m.ExecuteParallel(ctx, "query", nil, time.Second)

	assert.Equal(t, int32(2), model.calls.Load(), "failed result sets must not be cached")
}

// TestExecuteParallelEndToEnd 测试完整配置流程下的并行执行
func TestExecuteParallelEndToEnd(t *testing.T) {
	cfg := &Config{
		Models: []ModelConfig{
			{ID: "a", Type: ModelTypeMock, Params: map[string]any{"response_pattern": "analytical", "response_delay": "1ms"}},
			{ID: "b", Type: ModelTypeMock, Params: map[string]any{"response_pattern": "creative", "response_delay": "1ms"}},
		},
	}
	mgr, err := NewManager(cfg)
	require.NoError(t, err)

	responses := mgr.ExecuteParallel(context.Background(), "optimize this sql query", nil, time.Second)

	require.Len(t, responses, 2)
	assert.Equal(t, "a", responses[0].ModelID)
	assert.Equal(t, "b", responses[1].ModelID)
	for _, r := range responses {
		assert.Equal(t, StatusSuccess, r.Status)
		assert.True(t, r.IsValid())
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}
