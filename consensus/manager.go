package consensus

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"

	"github.com/shabarish009/symbiont/metrics"
	"github.com/shabarish009/symbiont/xerrors"
	"github.com/shabarish009/symbiont/xlog"
)

// responseCacheCapacity 结果缓存的最大条目数
const responseCacheCapacity = 1024

// breakerState 单个模型的熔断器状态
//
// 只由 Manager 在执行结束后修改，模型代码不接触它；
// 并行任务可能同时完成，逐条目互斥锁保护计数修改。
type breakerState struct {
	mu           sync.Mutex
	failureCount int
	lastFailure  time.Time
}

// manager 实现 Manager 接口
type manager struct {
	cfg     *Config
	logger  xlog.Logger
	meter   metrics.Meter
	sandbox Sandbox

	// 注册表启动后读多写少，注册与分发不会并发竞争
	mu        sync.RWMutex
	order     []string // 注册顺序，保证候选选取和结果排列稳定
	models    map[string]Model
	executors map[string]*executor
	breakers  map[string]*breakerState

	cache *otter.Cache[string, []ModelResponse]

	// 时间源，测试中替换以驱动冷却窗口
	now func() time.Time
}

// newManager 创建编排器实例（内部函数）
func newManager(cfg *Config, opts ...Option) (Manager, error) {
	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	logger := opt.logger
	if logger == nil {
		logger = xlog.Discard()
	}

	sandbox := opt.sandbox
	if sandbox == nil {
		sandbox = NewResourceSandbox(0, 0, logger)
	}

	m := &manager{
		cfg:       cfg,
		logger:    logger,
		meter:     opt.meter,
		sandbox:   sandbox,
		models:    make(map[string]Model),
		executors: make(map[string]*executor),
		breakers:  make(map[string]*breakerState),
		now:       time.Now,
	}

	if opt.cache != nil {
		m.cache = opt.cache
	} else if cfg.EnableCaching {
		cache, err := otter.New(&otter.Options[string, []ModelResponse]{
			MaximumSize:      responseCacheCapacity,
			ExpiryCalculator: otter.ExpiryWriting[string, []ModelResponse](cfg.CacheTTL),
		})
		if err != nil {
			return nil, xerrors.Wrap(err, "consensus: failed to build response cache")
		}
		m.cache = cache
	}

	for _, mc := range cfg.Models {
		if err := m.Register(mc); err != nil {
			return nil, err
		}
	}

	logger.Info("consensus manager created",
		xlog.Int("models", len(cfg.Models)),
		xlog.Int("breaker_threshold", cfg.BreakerThreshold),
		xlog.Duration("breaker_cooldown", cfg.BreakerCooldown),
		xlog.Bool("caching", cfg.EnableCaching))

	return m, nil
}

// Register 注册一个新模型
func (m *manager) Register(cfg ModelConfig) error {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	model, err := newModel(cfg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.models[cfg.ID]; ok {
		return xerrors.Wrapf(ErrDuplicateModel, "%s", cfg.ID)
	}

	m.order = append(m.order, cfg.ID)
	m.models[cfg.ID] = model
	m.executors[cfg.ID] = newExecutor(cfg, model, m.sandbox, m.logger, m.meter)
	m.breakers[cfg.ID] = &breakerState{}

	m.logger.Info("model registered",
		xlog.String("model_id", cfg.ID),
		xlog.String("model_type", cfg.Type))
	return nil
}

// IsCircuitOpen 实现三阶段熔断判定
//
// Closed: 失败计数低于阈值，正常分发。
// Open: 计数达到阈值且冷却窗口未过，排除出候选池。
// Half-Open: 冷却已过的第一次准入检查把计数清零并放行。
func (m *manager) IsCircuitOpen(modelID string) bool {
	m.mu.RLock()
	state, ok := m.breakers[modelID]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.failureCount < m.cfg.BreakerThreshold {
		return false
	}
	if m.now().Sub(state.lastFailure) < m.cfg.BreakerCooldown {
		return true
	}

	// 冷却结束，作为准入检查的副作用重置计数
	state.failureCount = 0
	m.logger.Info("circuit breaker reset", xlog.String("model_id", modelID))
	return false
}

// recordFailure 记录一次失败并在越过阈值时告警（内部使用）
func (m *manager) recordFailure(ctx context.Context, modelID string) {
	m.mu.RLock()
	state, ok := m.breakers[modelID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	state.mu.Lock()
	state.failureCount++
	state.lastFailure = m.now()
	count := state.failureCount
	state.mu.Unlock()

	if count == m.cfg.BreakerThreshold {
		m.logger.Warn("circuit breaker opened",
			xlog.String("model_id", modelID),
			xlog.Int("failure_count", count))
		if m.meter != nil {
			if counter, err := m.meter.Counter(MetricBreakerOpens, "Circuit breaker opens"); err == nil && counter != nil {
				counter.Inc(ctx, metrics.L(LabelModelID, modelID))
			}
		}
	}
}

// recordSuccess 记录一次成功，计数递减且不低于 0（内部使用）
//
// 渐进恢复：一次成功不会立即洗白一个故障频发的模型。
func (m *manager) recordSuccess(modelID string) {
	m.mu.RLock()
	state, ok := m.breakers[modelID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	state.mu.Lock()
	if state.failureCount > 0 {
		state.failureCount--
	}
	state.mu.Unlock()
}

// ExecuteParallel 把查询并行分发给所有候选模型
func (m *manager) ExecuteParallel(ctx context.Context, query string, qc *QueryContext, timeout time.Duration) []ModelResponse {
	if m.cache != nil {
		if cached, ok := m.cache.GetIfPresent(query); ok {
			if m.meter != nil {
				if counter, err := m.meter.Counter(MetricCacheHits, "Response cache hits"); err == nil && counter != nil {
					counter.Inc(ctx)
				}
			}
			return slices.Clone(cached)
		}
	}

	candidates, executors := m.candidates()
	if len(candidates) == 0 {
		m.logger.Warn("no eligible models for query execution, circuit breakers may be open")
		return []ModelResponse{}
	}

	execLogger := m.logger.With(xlog.String("execution_id", uuid.NewString()))
	execLogger.Info("dispatching query",
		xlog.Int("candidates", len(candidates)))

	// 结果按分发顺序落位，输出顺序与完成顺序无关
	results := make([]ModelResponse, len(candidates))
	var wg sync.WaitGroup
	for i, modelID := range candidates {
		wg.Add(1)
		go func(i int, modelID string, exec *executor) {
			defer wg.Done()
			// 外层保险：执行器自身不应 panic，但任何任务级故障
			// 都不能波及兄弟任务或整个调用
			defer func() {
				if r := recover(); r != nil {
					results[i] = ErrorResponse(modelID, fmt.Sprintf("task panicked: %v", r), 0)
				}
			}()
			results[i] = exec.ExecuteQuery(ctx, query, qc, timeout)
		}(i, modelID, executors[i])
	}
	wg.Wait()

	successes := 0
	for _, resp := range results {
		switch resp.Status {
		case StatusError:
			m.recordFailure(ctx, resp.ModelID)
		case StatusSuccess, StatusTimeout:
			// 超时证明模型可达，对熔断器而言仍算存活
			m.recordSuccess(resp.ModelID)
		}
		if resp.Status == StatusSuccess {
			successes++
		}
	}

	execLogger.Info("parallel execution completed",
		xlog.Int("responses", len(results)),
		xlog.Int("successes", successes))

	// 只缓存含有效结果的完整结果组
	if m.cache != nil && successes > 0 {
		m.cache.Set(query, slices.Clone(results))
	}

	return results
}

// candidates 选取启用且未熔断的模型，按注册顺序返回（内部使用）
func (m *manager) candidates() ([]string, []*executor) {
	m.mu.RLock()
	order := slices.Clone(m.order)
	m.mu.RUnlock()

	var ids []string
	var executors []*executor
	for _, id := range order {
		m.mu.RLock()
		exec := m.executors[id]
		m.mu.RUnlock()
		if exec == nil || exec.cfg.Disabled {
			continue
		}
		if m.IsCircuitOpen(id) {
			continue
		}
		ids = append(ids, id)
		executors = append(executors, exec)
	}
	return ids, executors
}

// HealthCheckAll 对所有已注册模型执行健康检查
func (m *manager) HealthCheckAll(ctx context.Context) map[string]bool {
	m.mu.RLock()
	order := slices.Clone(m.order)
	models := make(map[string]Model, len(m.models))
	for id, model := range m.models {
		models[id] = model
	}
	m.mu.RUnlock()

	results := make(map[string]bool, len(order))
	for _, id := range order {
		results[id] = m.safeHealthCheck(ctx, id, models[id])
	}
	return results
}

// safeHealthCheck 执行单个健康检查，panic 记为不健康（内部使用）
func (m *manager) safeHealthCheck(ctx context.Context, modelID string, model Model) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("health check panicked",
				xlog.String("model_id", modelID),
				xlog.Any("panic", r))
			healthy = false
		}
	}()

	healthy = model.HealthCheck(ctx)
	m.logger.Debug("health check",
		xlog.String("model_id", modelID),
		xlog.Bool("healthy", healthy))
	return healthy
}

// ModelInfo 返回所有已注册模型的只读快照
func (m *manager) ModelInfo() map[string]ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := make(map[string]ModelInfo, len(m.executors))
	for id, exec := range m.executors {
		info[id] = ModelInfo{
			Type:       exec.cfg.Type,
			Weight:     exec.cfg.Weight,
			Timeout:    exec.cfg.Timeout,
			Enabled:    !exec.cfg.Disabled,
			MaxRetries: exec.cfg.MaxRetries,
		}
	}
	return info
}
