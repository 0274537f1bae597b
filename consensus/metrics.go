package consensus

// 指标名称
const (
	// MetricRequestsTotal 模型执行尝试总数
	MetricRequestsTotal = "model_requests_total"

	// MetricExecutionSeconds 模型执行耗时（秒）
	MetricExecutionSeconds = "model_execution_seconds"

	// MetricOutcomesTotal 按状态统计的执行结果总数
	MetricOutcomesTotal = "model_outcomes_total"

	// MetricBreakerOpens 熔断打开次数
	MetricBreakerOpens = "circuit_breaker_opens_total"

	// MetricCacheHits 结果缓存命中次数
	MetricCacheHits = "response_cache_hits_total"
)

// 指标标签
const (
	LabelModelID = "model_id"
	LabelStatus  = "status"
)
