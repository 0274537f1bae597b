package metrics

import (
	"context"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMeter 创建带独立 Registry 的 Meter，避免测试间注册冲突
func newTestMeter(t *testing.T) Meter {
	t.Helper()
	meter, err := New(&Config{
		Enabled:     true,
		ServiceName: "symbiont-test",
		Version:     "v0.0.0",
	}, WithRegisterer(promclient.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = meter.Shutdown(context.Background())
	})
	return meter
}

// TestNewNilConfig 测试 nil 配置
func TestNewNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

// TestNewDisabled 测试禁用时返回 noop
func TestNewDisabled(t *testing.T) {
	meter, err := New(&Config{Enabled: false})
	require.NoError(t, err)

	counter, err := meter.Counter("x_total", "noop counter")
	require.NoError(t, err)
	counter.Inc(context.Background())
	assert.NoError(t, meter.Shutdown(context.Background()))
}

// TestCounter 测试计数器创建与记录
func TestCounter(t *testing.T) {
	meter := newTestMeter(t)

	counter, err := meter.Counter("model_requests_total", "模型请求总数")
	require.NoError(t, err)

	ctx := context.Background()
	counter.Inc(ctx, L("model_id", "mock-1"))
	counter.Add(ctx, 3, L("model_id", "mock-2"))
}

// TestGauge 测试仪表盘的本地值维护
func TestGauge(t *testing.T) {
	meter := newTestMeter(t)

	gauge, err := meter.Gauge("open_circuits", "当前熔断的模型数")
	require.NoError(t, err)

	ctx := context.Background()
	gauge.Set(ctx, 2)
	gauge.Inc(ctx)
	gauge.Dec(ctx)
	gauge.Dec(ctx, L("pool", "default"))
}

// TestHistogram 测试直方图记录
func TestHistogram(t *testing.T) {
	meter := newTestMeter(t)

	hist, err := meter.Histogram("model_execution_seconds", "模型执行耗时", WithUnit("seconds"))
	require.NoError(t, err)

	hist.Record(context.Background(), 0.123, L("model_id", "mock-1"), L("status", "success"))
}

// TestLabelKey 测试标签键的稳定性
func TestLabelKey(t *testing.T) {
	a := labelKey([]Label{L("b", "2"), L("a", "1")})
	b := labelKey([]Label{L("a", "1"), L("b", "2")})
	assert.Equal(t, a, b)
	assert.Equal(t, "", labelKey(nil))
}
