package consensus

import (
	"context"
	"fmt"
	"time"
)

// runWithDeadline 让一个工作单元与墙钟截止时间赛跑
//
// 无论成功、超时还是失败，都返回实际经过的时长，
// 上层的 ExecutionTime 在所有状态下都依赖这一点。
// 超时通过 context.DeadlineExceeded 透传给调用方，不在这里吞掉；
// 超时只取消本次调用的子 context，不影响其它在途任务。
func runWithDeadline(
	ctx context.Context,
	timeout time.Duration,
	fn func(ctx context.Context) (string, error),
) (string, time.Duration, error) {
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		content string
		err     error
	}

	// 缓冲为 1：超时放弃等待后，工作 goroutine 仍可写入并退出，不会泄漏
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("model panicked: %v", r)}
			}
		}()
		content, err := fn(cctx)
		done <- outcome{content: content, err: err}
	}()

	select {
	case o := <-done:
		return o.content, time.Since(start), o.err
	case <-cctx.Done():
		return "", time.Since(start), cctx.Err()
	}
}
