package consensus

import (
	"context"
	"fmt"
	"time"

	"github.com/shabarish009/symbiont/metrics"
	"github.com/shabarish009/symbiont/xerrors"
	"github.com/shabarish009/symbiont/xlog"
)

// retryBackoffUnit 重试退避的基础时长，第 n 次重试前等待 n 倍
const retryBackoffUnit = 100 * time.Millisecond

// executor 把一个模型、它的沙箱和截止时间管理耦合在一起
//
// ExecuteQuery 是异常边界：模型抛出的任何错误或 panic 到这里为止，
// 每条退出路径都产生一条良构的 ModelResponse，上层不需要 try/catch。
type executor struct {
	cfg     ModelConfig
	model   Model
	sandbox Sandbox
	logger  xlog.Logger
	meter   metrics.Meter
}

// newExecutor 创建模型执行器（内部使用）
func newExecutor(cfg ModelConfig, model Model, sandbox Sandbox, logger xlog.Logger, meter metrics.Meter) *executor {
	if logger == nil {
		logger = xlog.Discard()
	}
	return &executor{
		cfg:     cfg,
		model:   model,
		sandbox: sandbox,
		logger:  logger.With(xlog.String("model_id", cfg.ID)),
		meter:   meter,
	}
}

// ExecuteQuery 在隔离与超时约束下执行一次查询
//
// timeout <= 0 时使用模型配置的默认超时。
// Error 结果最多重试 cfg.MaxRetries 次（线性退避），
// 超时和禁用不重试；ExecutionTime 累计所有尝试的执行耗时。
func (e *executor) ExecuteQuery(ctx context.Context, query string, qc *QueryContext, timeout time.Duration) (resp ModelResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = ErrorResponse(e.cfg.ID, fmt.Sprintf("executor panicked: %v", r), resp.ExecutionTime)
		}
	}()

	if e.cfg.Disabled {
		return DisabledResponse(e.cfg.ID, "model is disabled")
	}

	effective := timeout
	if effective <= 0 {
		effective = e.cfg.Timeout
	}

	var total time.Duration
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * retryBackoffUnit
			e.logger.Debug("retrying model execution",
				xlog.Int("attempt", attempt),
				xlog.Duration("backoff", backoff))
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				resp.ExecutionTime = total
				return resp
			}
		}

		resp = e.attempt(ctx, query, qc, effective)
		total += resp.ExecutionTime
		e.recordMetrics(ctx, resp)

		// 只有 Error 消耗重试预算：超时证明模型可达，重试只会再花一个超时窗口
		if resp.Status != StatusError || attempt >= e.cfg.MaxRetries {
			break
		}
	}

	resp.ExecutionTime = total
	return resp
}

// attempt 执行单次尝试（内部使用）
func (e *executor) attempt(ctx context.Context, query string, qc *QueryContext, timeout time.Duration) ModelResponse {
	release, err := e.sandbox.Enter(ctx)
	if err != nil {
		e.logger.Error("sandbox admission failed", xlog.Error(err))
		return ErrorResponse(e.cfg.ID, err.Error(), 0)
	}
	defer release()

	content, elapsed, err := runWithDeadline(ctx, timeout, func(cctx context.Context) (string, error) {
		return e.model.GenerateResponse(cctx, query, qc)
	})
	if err != nil {
		if xerrors.Is(err, context.DeadlineExceeded) {
			e.logger.Warn("model timed out",
				xlog.Duration("timeout", timeout),
				xlog.Duration("elapsed", elapsed))
			return TimeoutResponse(e.cfg.ID, elapsed)
		}
		e.logger.Error("model execution failed",
			xlog.Error(err),
			xlog.Duration("elapsed", elapsed))
		return ErrorResponse(e.cfg.ID, err.Error(), elapsed)
	}

	confidence, err := e.model.Confidence(ctx, query, content)
	if err != nil {
		// 打分失败按 Error 处理，不产生残缺的 Success
		e.logger.Error("confidence scoring failed", xlog.Error(err))
		return ErrorResponse(e.cfg.ID, fmt.Sprintf("confidence scoring failed: %v", err), elapsed)
	}

	return SuccessResponse(e.cfg.ID, content, confidence, elapsed)
}

// recordMetrics 记录单次尝试的指标（内部使用）
func (e *executor) recordMetrics(ctx context.Context, resp ModelResponse) {
	if e.meter == nil {
		return
	}

	if counter, err := e.meter.Counter(MetricRequestsTotal, "Model execution attempts"); err == nil && counter != nil {
		counter.Inc(ctx, metrics.L(LabelModelID, e.cfg.ID))
	}
	if histogram, err := e.meter.Histogram(MetricExecutionSeconds, "Model execution duration", metrics.WithUnit("seconds")); err == nil && histogram != nil {
		histogram.Record(ctx, resp.ExecutionTime.Seconds(),
			metrics.L(LabelModelID, e.cfg.ID),
			metrics.L(LabelStatus, string(resp.Status)))
	}
	if counter, err := e.meter.Counter(MetricOutcomesTotal, "Model execution outcomes"); err == nil && counter != nil {
		counter.Inc(ctx,
			metrics.L(LabelModelID, e.cfg.ID),
			metrics.L(LabelStatus, string(resp.Status)))
	}
}
