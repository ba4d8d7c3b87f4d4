// Package dispatch 在业务变更提交之后异步执行通知类的副作用。
// 失败只记录日志和指标，不影响已经提交的状态。
package dispatch

import (
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
	"context"
	"sync"
	"time"
)

const Timeout = 10 * time.Second

// Group 跟踪进行中的任务，进程退出前调用 Wait
type Group struct {
	wg sync.WaitGroup
}

// Go kind 用作指标标签和日志字段
func (g *Group) Go(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	// 请求结束后 ctx 会被取消，这里只保留 trace 信息
	detached := context.WithoutCancel(ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(detached, Timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			metrics.NotificationsDispatched.WithLabelValues(kind, "failed").Inc()
			logger.Ctx(ctx).Warn().Err(err).Str("notification", kind).Msg("notification dispatch failed")
			return
		}
		metrics.NotificationsDispatched.WithLabelValues(kind, "sent").Inc()
	}()
}

// Wait 等待所有已发起的任务结束
func (g *Group) Wait() {
	g.wg.Wait()
}
