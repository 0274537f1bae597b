package consensus

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/shabarish009/symbiont/xerrors"
	"github.com/shabarish009/symbiont/xlog"
)

// 资源沙箱默认限额
const (
	DefaultMemoryLimitMB   = 500
	DefaultCPULimitPercent = 70
)

// Sandbox 模型执行的资源隔离边界
//
// 每次模型调用前 Enter，返回的 release 必须在调用结束后执行
// （无论成功、超时还是 panic，由调用点 defer 保证）。
// Enter 可以拒绝准入，此时执行方直接产生 Error 结果。
//
// 当前实现是挂载点：替换为真正的配额实施策略时，执行层的调用点不变。
type Sandbox interface {
	Enter(ctx context.Context) (release func(), err error)
}

// resourceSandbox 直通实现，仅记录进出日志
type resourceSandbox struct {
	memoryLimitMB   int
	cpuLimitPercent int
	logger          xlog.Logger
}

// NewResourceSandbox 创建直通资源沙箱
//
// memoryLimitMB、cpuLimitPercent 为 0 时使用默认限额（500MB / 70%）。
// 限额目前只随日志输出，为后续真实配额实施保留参数位。
func NewResourceSandbox(memoryLimitMB, cpuLimitPercent int, logger xlog.Logger) Sandbox {
	if memoryLimitMB <= 0 {
		memoryLimitMB = DefaultMemoryLimitMB
	}
	if cpuLimitPercent <= 0 {
		cpuLimitPercent = DefaultCPULimitPercent
	}
	if logger == nil {
		logger = xlog.Discard()
	}
	return &resourceSandbox{
		memoryLimitMB:   memoryLimitMB,
		cpuLimitPercent: cpuLimitPercent,
		logger:          logger.WithNamespace("sandbox"),
	}
}

func (s *resourceSandbox) Enter(ctx context.Context) (func(), error) {
	s.logger.Debug("entering model sandbox",
		xlog.Int("memory_limit_mb", s.memoryLimitMB),
		xlog.Int("cpu_limit_percent", s.cpuLimitPercent))

	return func() {
		s.logger.Debug("exiting model sandbox")
	}, nil
}

// rateLimitSandbox 在内层沙箱之上叠加调用速率限制
type rateLimitSandbox struct {
	inner   Sandbox
	limiter *rate.Limiter
}

// NewRateLimitSandbox 创建带调用速率上限的沙箱
//
// Enter 会等待令牌（受 ctx 截止时间约束），拿到令牌后进入内层沙箱。
// 等待被取消时返回错误，模型调用不会发生。
func NewRateLimitSandbox(inner Sandbox, limit rate.Limit, burst int) Sandbox {
	if inner == nil {
		inner = NewResourceSandbox(0, 0, nil)
	}
	return &rateLimitSandbox{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (s *rateLimitSandbox) Enter(ctx context.Context) (func(), error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, xerrors.Wrap(err, "sandbox rate limit")
	}
	return s.inner.Enter(ctx)
}
